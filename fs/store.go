// Package fs provides file-based storage for index generations with
// atomic swap semantics.
package fs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fwojciec/locsearch"
)

// currentFile is the pointer file naming the committed generation.
const currentFile = "CURRENT"

// Store manages index generation files in a directory. Each generation is
// written to a temporary file and renamed into place, then the CURRENT
// pointer is swapped the same way. Readers holding an older generation
// file keep a consistent view until they reopen.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created if it
// does not exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// generationFile returns the file name for a generation.
func generationFile(generation uint64) string {
	return fmt.Sprintf("index-%06d.ivfpq", generation)
}

// CurrentPath returns the path of the committed generation file.
// Returns ENOTFOUND when no generation has been committed yet.
func (s *Store) CurrentPath() (string, error) {
	name, _, err := s.current()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// CurrentGeneration returns the committed generation number, or zero with
// ENOTFOUND when no generation exists.
func (s *Store) CurrentGeneration() (uint64, error) {
	_, gen, err := s.current()
	if err != nil {
		return 0, err
	}
	return gen, nil
}

func (s *Store) current() (string, uint64, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if os.IsNotExist(err) {
		return "", 0, locsearch.Errorf(locsearch.ENOTFOUND, "no committed index generation in %q", s.dir)
	}
	if err != nil {
		return "", 0, err
	}

	name := strings.TrimSpace(string(data))
	numPart := strings.TrimSuffix(strings.TrimPrefix(name, "index-"), ".ivfpq")
	gen, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return "", 0, locsearch.Errorf(locsearch.EINTERNAL, "malformed CURRENT pointer %q", name)
	}
	return name, gen, nil
}

// Write writes a new generation through fn and commits it atomically. The
// data lands in a temporary file first; only after a successful write and
// sync are the generation file and the CURRENT pointer renamed into
// place. A failed write leaves the previous generation untouched.
func (s *Store) Write(generation uint64, fn func(w io.Writer) error) (string, error) {
	name := generationFile(generation)
	finalPath := filepath.Join(s.dir, name)
	tmpPath := finalPath + ".tmp"

	if err := s.writeFile(tmpPath, fn); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if err := s.commit(name); err != nil {
		return "", err
	}
	return finalPath, nil
}

func (s *Store) writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// commit swaps the CURRENT pointer via temp + rename.
func (s *Store) commit(name string) error {
	tmpPath := filepath.Join(s.dir, currentFile+".tmp")
	if err := os.WriteFile(tmpPath, []byte(name+"\n"), 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(s.dir, currentFile))
}

// NextGeneration returns the generation number a new Write should use.
func (s *Store) NextGeneration() (uint64, error) {
	gen, err := s.CurrentGeneration()
	if err != nil {
		if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
			return 1, nil
		}
		return 0, err
	}
	return gen + 1, nil
}

// Prune removes generation files older than the committed one.
func (s *Store) Prune() error {
	name, _, err := s.current()
	if err != nil {
		if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
			return nil
		}
		return err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == name || e.Name() == currentFile {
			continue
		}
		if !strings.HasPrefix(e.Name(), "index-") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
