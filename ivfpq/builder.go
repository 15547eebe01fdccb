package ivfpq

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/locsearch"
	"github.com/fwojciec/locsearch/fs"
)

// findBatchSize is the page size for walking records during a build.
const findBatchSize = 500

// Builder produces index generations from the record store. The store
// stays authoritative: a record's embedding is persisted before the
// vector enters any generation, so a crashed build loses work but never
// references vectors the store does not hold.
//
// Builder is the single index writer.
type Builder struct {
	Records locsearch.RecordService
	Vectors locsearch.Vectorizer
	Store   *fs.Store
	Logger  *slog.Logger

	// Params fixes the index layout. The zero value means
	// DefaultIndexParams at the vectorizer's dimension.
	Params locsearch.IndexParams
}

// Rebuild embeds every scraped record that still lacks an embedding,
// trains a fresh index over all embedded records, and commits it as a
// new generation. The previous generation stays servable until the
// commit.
func (b *Builder) Rebuild(ctx context.Context) (string, error) {
	if err := b.embedPending(ctx); err != nil {
		return "", err
	}

	records, err := b.embeddedRecords(ctx)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", locsearch.Errorf(locsearch.ENOTFOUND, "no embedded records to index")
	}

	idx, err := New(b.params())
	if err != nil {
		return "", err
	}

	vectors := make([][]float32, len(records))
	for i, rec := range records {
		vectors[i] = rec.Embedding
	}
	if err := idx.Train(vectors); err != nil {
		return "", err
	}
	for _, rec := range records {
		if err := idx.Add(rec.URL, rec.Embedding); err != nil {
			return "", err
		}
	}

	path, err := b.commit(ctx, idx)
	if err != nil {
		return "", err
	}
	b.logger().Info("index rebuilt",
		"path", path,
		"vectors", idx.Len(),
		"nlist", idx.Params().NList,
	)
	return path, nil
}

// Update appends records missing from the current generation without
// retraining the centroids or codebooks. Recall drifts as the corpus
// outgrows the training sample; a periodic Rebuild is the correction.
// With no committed generation yet, Update falls back to Rebuild.
func (b *Builder) Update(ctx context.Context) (string, error) {
	current, err := b.Store.CurrentPath()
	if err != nil {
		if locsearch.ErrorCode(err) == locsearch.ENOTFOUND {
			return b.Rebuild(ctx)
		}
		return "", err
	}

	idx, err := Load(current)
	if err != nil {
		return "", err
	}

	if err := b.embedPending(ctx); err != nil {
		return "", err
	}
	records, err := b.embeddedRecords(ctx)
	if err != nil {
		return "", err
	}

	added := 0
	for _, rec := range records {
		if idx.Has(rec.URL) {
			continue
		}
		if err := idx.Add(rec.URL, rec.Embedding); err != nil {
			return "", err
		}
		added++
	}
	if added == 0 {
		return current, nil
	}

	path, err := b.commit(ctx, idx)
	if err != nil {
		return "", err
	}
	b.logger().Info("index updated", "path", path, "added", added, "vectors", idx.Len())
	return path, nil
}

func (b *Builder) commit(ctx context.Context, idx *Index) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	gen, err := b.Store.NextGeneration()
	if err != nil {
		return "", err
	}
	return b.Store.Write(gen, func(w io.Writer) error {
		_, werr := idx.WriteTo(w)
		return werr
	})
}

// embedPending embeds scraped records that have snippet content but no
// embedding yet, saving each vector to the store as it is produced.
// Empty-snippet records never embed and never enter the index.
func (b *Builder) embedPending(ctx context.Context) error {
	embedded := false
	// Embedding a record removes it from the filtered set, so the offset
	// only advances past records that stay unembedded (empty snippets).
	skipped := 0
	for {
		records, err := b.Records.FindRecords(ctx, locsearch.RecordFilter{
			Status:   strPtr(locsearch.StatusScraped),
			Embedded: &embedded,
			Offset:   skipped,
			Limit:    findBatchSize,
		})
		if err != nil {
			return err
		}

		for _, rec := range records {
			text := embedText(rec)
			if text == "" {
				skipped++
				continue
			}
			vec, err := b.Vectors.Embed(ctx, text)
			if err != nil {
				return locsearch.Errorf(locsearch.EUNAVAILABLE, "embedding %s: %v", rec.URL, err)
			}
			if err := b.Records.SaveEmbedding(ctx, rec.URL, vec); err != nil {
				return err
			}
		}

		if len(records) < findBatchSize {
			return nil
		}
	}
}

// embeddedRecords returns every record carrying an embedding, in
// discovery order.
func (b *Builder) embeddedRecords(ctx context.Context) ([]*locsearch.Record, error) {
	embedded := true
	var all []*locsearch.Record
	for {
		records, err := b.Records.FindRecords(ctx, locsearch.RecordFilter{
			Embedded: &embedded,
			Offset:   len(all),
			Limit:    findBatchSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if len(records) < findBatchSize {
			return all, nil
		}
	}
}

// embedText is the text a record embeds: its title and snippet.
func embedText(rec *locsearch.Record) string {
	var parts []string
	if rec.Title != nil && *rec.Title != "" {
		parts = append(parts, *rec.Title)
	}
	if rec.Snippet != nil && *rec.Snippet != "" {
		parts = append(parts, *rec.Snippet)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (b *Builder) params() locsearch.IndexParams {
	if b.Params == (locsearch.IndexParams{}) {
		return locsearch.DefaultIndexParams(b.Vectors.Dimension())
	}
	return b.Params
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func strPtr(s string) *string { return &s }
