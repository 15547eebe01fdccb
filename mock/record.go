package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.RecordService = (*RecordService)(nil)

// RecordService is a mock implementation of locsearch.RecordService.
type RecordService struct {
	CreateRecordsFn         func(ctx context.Context, records []*locsearch.Record) (int, error)
	FindRecordByURLFn       func(ctx context.Context, url string) (*locsearch.Record, error)
	FindRecordsFn           func(ctx context.Context, filter locsearch.RecordFilter) ([]*locsearch.Record, error)
	UpdateStatusFn          func(ctx context.Context, urls []string, status string) (int, error)
	MarkScrapedFn           func(ctx context.Context, url, title, snippet string) error
	MarkFailedFn            func(ctx context.Context, url, reason string) error
	SaveEmbeddingFn         func(ctx context.Context, url string, embedding []float32) error
	SaveFullTextFn          func(ctx context.Context, url, fullText string) error
	DeleteRecordsByDomainFn func(ctx context.Context, domain string) error
	StatsFn                 func(ctx context.Context) (*locsearch.RecordStats, error)
}

func (s *RecordService) CreateRecords(ctx context.Context, records []*locsearch.Record) (int, error) {
	return s.CreateRecordsFn(ctx, records)
}

func (s *RecordService) FindRecordByURL(ctx context.Context, url string) (*locsearch.Record, error) {
	return s.FindRecordByURLFn(ctx, url)
}

func (s *RecordService) FindRecords(ctx context.Context, filter locsearch.RecordFilter) ([]*locsearch.Record, error) {
	return s.FindRecordsFn(ctx, filter)
}

func (s *RecordService) UpdateStatus(ctx context.Context, urls []string, status string) (int, error) {
	return s.UpdateStatusFn(ctx, urls, status)
}

func (s *RecordService) MarkScraped(ctx context.Context, url, title, snippet string) error {
	return s.MarkScrapedFn(ctx, url, title, snippet)
}

func (s *RecordService) MarkFailed(ctx context.Context, url, reason string) error {
	return s.MarkFailedFn(ctx, url, reason)
}

func (s *RecordService) SaveEmbedding(ctx context.Context, url string, embedding []float32) error {
	return s.SaveEmbeddingFn(ctx, url, embedding)
}

func (s *RecordService) SaveFullText(ctx context.Context, url, fullText string) error {
	return s.SaveFullTextFn(ctx, url, fullText)
}

func (s *RecordService) DeleteRecordsByDomain(ctx context.Context, domain string) error {
	return s.DeleteRecordsByDomainFn(ctx, domain)
}

func (s *RecordService) Stats(ctx context.Context) (*locsearch.RecordStats, error) {
	return s.StatsFn(ctx)
}
