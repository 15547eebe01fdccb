package ivfpq

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/fwojciec/locsearch"
)

// Index generation file layout, all little-endian:
//
//	header    magic "LSIX", version, dim, nlist, m, nprobe, total
//	centroids nlist × dim float32
//	codebooks m × (size uint32, size × dsub float32)
//	offsets   (nlist+1) × uint64 absolute byte offsets of posting lists
//	lists     per list: count uint32, entries (urlLen uint16, url, m-byte code)
const (
	fileMagic   = "LSIX"
	fileVersion = 1
	headerSize  = 4 + 6*4

	// maxURLLen is the largest URL the uint16 length prefix can carry.
	maxURLLen = 1<<16 - 1
)

// WriteTo serializes the index. The format is self-contained: parameters,
// centroids, and codebooks travel with the posting lists, so a reader
// needs nothing but the file.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	if !ix.Trained() {
		return 0, locsearch.Errorf(locsearch.EINVALID, "cannot serialize an untrained index")
	}

	cw := &countingWriter{w: w}

	// Header.
	header := make([]byte, headerSize)
	copy(header, fileMagic)
	binary.LittleEndian.PutUint32(header[4:], fileVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(ix.params.Dim))
	binary.LittleEndian.PutUint32(header[12:], uint32(ix.params.NList))
	binary.LittleEndian.PutUint32(header[16:], uint32(ix.params.M))
	binary.LittleEndian.PutUint32(header[20:], uint32(ix.params.NProbe))
	binary.LittleEndian.PutUint32(header[24:], uint32(ix.Len()))
	if _, err := cw.Write(header); err != nil {
		return cw.n, err
	}

	// Centroids.
	for _, c := range ix.centroids {
		if err := writeFloats(cw, c); err != nil {
			return cw.n, err
		}
	}

	// Codebooks, each prefixed with its clamped size.
	var buf [8]byte
	codebooksSize := int64(0)
	for _, cb := range ix.pq.codebooks {
		codebooksSize += 4 + int64(len(cb)*ix.pq.dsub*4)
		binary.LittleEndian.PutUint32(buf[:4], uint32(len(cb)))
		if _, err := cw.Write(buf[:4]); err != nil {
			return cw.n, err
		}
		for _, c := range cb {
			if err := writeFloats(cw, c); err != nil {
				return cw.n, err
			}
		}
	}

	// Offset table: absolute positions of every posting list plus the
	// end sentinel, so a reader slices lists without scanning.
	listsStart := int64(headerSize) +
		int64(ix.params.NList*ix.params.Dim*4) +
		codebooksSize +
		int64((ix.params.NList+1)*8)
	offset := listsStart
	for _, list := range ix.lists {
		binary.LittleEndian.PutUint64(buf[:], uint64(offset))
		if _, err := cw.Write(buf[:]); err != nil {
			return cw.n, err
		}
		offset += listSize(list)
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(offset))
	if _, err := cw.Write(buf[:]); err != nil {
		return cw.n, err
	}

	// Posting lists.
	for _, list := range ix.lists {
		binary.LittleEndian.PutUint32(buf[:4], uint32(len(list)))
		if _, err := cw.Write(buf[:4]); err != nil {
			return cw.n, err
		}
		for _, e := range list {
			binary.LittleEndian.PutUint16(buf[:2], uint16(len(e.url)))
			if _, err := cw.Write(buf[:2]); err != nil {
				return cw.n, err
			}
			if _, err := io.WriteString(cw, e.url); err != nil {
				return cw.n, err
			}
			if _, err := cw.Write(e.code); err != nil {
				return cw.n, err
			}
		}
	}

	return cw.n, nil
}

// listSize returns the serialized byte size of one posting list.
func listSize(list []entry) int64 {
	size := int64(4)
	for _, e := range list {
		size += 2 + int64(len(e.url)) + int64(len(e.code))
	}
	return size
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func writeFloats(w io.Writer, v []float32) error {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	_, err := w.Write(buf)
	return err
}

// layout is the decoded fixed-size front of a generation file: everything
// but the posting lists, which stay on disk until probed.
type layout struct {
	params    locsearch.IndexParams
	total     int
	centroids [][]float32
	pq        *quantizer
	offsets   []uint64
}

// parseLayout decodes the header, centroids, codebooks, and offset table
// from the front of a generation file.
func parseLayout(r io.ReaderAt) (*layout, error) {
	header := make([]byte, headerSize)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, locsearch.Errorf(locsearch.EINTERNAL, "reading index header: %v", err)
	}
	if string(header[:4]) != fileMagic {
		return nil, locsearch.Errorf(locsearch.EINVALID, "not an index file")
	}
	if v := binary.LittleEndian.Uint32(header[4:]); v != fileVersion {
		return nil, locsearch.Errorf(locsearch.EINVALID, "unsupported index version %d", v)
	}

	l := &layout{
		params: locsearch.IndexParams{
			Dim:    int(binary.LittleEndian.Uint32(header[8:])),
			NList:  int(binary.LittleEndian.Uint32(header[12:])),
			M:      int(binary.LittleEndian.Uint32(header[16:])),
			NProbe: int(binary.LittleEndian.Uint32(header[20:])),
		},
		total: int(binary.LittleEndian.Uint32(header[24:])),
	}
	if err := l.params.Validate(); err != nil {
		return nil, err
	}

	pos := int64(headerSize)

	// Centroids.
	l.centroids = make([][]float32, l.params.NList)
	for i := range l.centroids {
		c, err := readFloats(r, pos, l.params.Dim)
		if err != nil {
			return nil, err
		}
		l.centroids[i] = c
		pos += int64(l.params.Dim * 4)
	}

	// Codebooks.
	dsub := l.params.Dim / l.params.M
	l.pq = &quantizer{
		m:         l.params.M,
		dsub:      dsub,
		codebooks: make([][][]float32, l.params.M),
	}
	sizeBuf := make([]byte, 4)
	for i := range l.pq.codebooks {
		if _, err := r.ReadAt(sizeBuf, pos); err != nil {
			return nil, locsearch.Errorf(locsearch.EINTERNAL, "reading codebook size: %v", err)
		}
		size := int(binary.LittleEndian.Uint32(sizeBuf))
		pos += 4

		cb := make([][]float32, size)
		for j := range cb {
			c, err := readFloats(r, pos, dsub)
			if err != nil {
				return nil, err
			}
			cb[j] = c
			pos += int64(dsub * 4)
		}
		l.pq.codebooks[i] = cb
	}

	// Offset table.
	offBuf := make([]byte, (l.params.NList+1)*8)
	if _, err := r.ReadAt(offBuf, pos); err != nil {
		return nil, locsearch.Errorf(locsearch.EINTERNAL, "reading offset table: %v", err)
	}
	l.offsets = make([]uint64, l.params.NList+1)
	for i := range l.offsets {
		l.offsets[i] = binary.LittleEndian.Uint64(offBuf[i*8:])
	}

	return l, nil
}

// readList decodes one posting list from the file.
func (l *layout) readList(r io.ReaderAt, list int) ([]entry, error) {
	start, end := l.offsets[list], l.offsets[list+1]
	buf := make([]byte, end-start)
	if _, err := r.ReadAt(buf, int64(start)); err != nil {
		return nil, locsearch.Errorf(locsearch.EINTERNAL, "reading posting list %d: %v", list, err)
	}
	return parseList(buf, l.params.M)
}

// parseList decodes the entries of one serialized posting list.
func parseList(buf []byte, m int) ([]entry, error) {
	if len(buf) < 4 {
		return nil, locsearch.Errorf(locsearch.EINVALID, "truncated posting list")
	}
	count := int(binary.LittleEndian.Uint32(buf))
	buf = buf[4:]

	// Every entry takes at least its length prefix plus an m-byte code,
	// so a count the remaining bytes cannot hold marks a corrupt list
	// before anything is allocated for it.
	if count > len(buf)/(2+m) {
		return nil, locsearch.Errorf(locsearch.EINVALID, "truncated posting list")
	}

	entries := make([]entry, 0, count)
	for i := 0; i < count; i++ {
		if len(buf) < 2 {
			return nil, locsearch.Errorf(locsearch.EINVALID, "truncated posting list")
		}
		urlLen := int(binary.LittleEndian.Uint16(buf))
		buf = buf[2:]
		if len(buf) < urlLen+m {
			return nil, locsearch.Errorf(locsearch.EINVALID, "truncated posting list")
		}
		entries = append(entries, entry{
			url:  string(buf[:urlLen]),
			code: append([]byte(nil), buf[urlLen:urlLen+m]...),
		})
		buf = buf[urlLen+m:]
	}
	return entries, nil
}

func readFloats(r io.ReaderAt, pos int64, n int) ([]float32, error) {
	buf := make([]byte, n*4)
	if _, err := r.ReadAt(buf, pos); err != nil {
		return nil, locsearch.Errorf(locsearch.EINTERNAL, "reading index vectors: %v", err)
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
