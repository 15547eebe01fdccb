package mock

import (
	"context"

	"github.com/fwojciec/locsearch"
)

var _ locsearch.ReportService = (*ReportService)(nil)

// ReportService is a mock implementation of locsearch.ReportService.
type ReportService struct {
	SaveReportFn      func(ctx context.Context, report *locsearch.Report) error
	FindReportByKeyFn func(ctx context.Context, key string) (*locsearch.Report, error)
	ClearReportsFn    func(ctx context.Context) error
}

func (s *ReportService) SaveReport(ctx context.Context, report *locsearch.Report) error {
	return s.SaveReportFn(ctx, report)
}

func (s *ReportService) FindReportByKey(ctx context.Context, key string) (*locsearch.Report, error) {
	return s.FindReportByKeyFn(ctx, key)
}

func (s *ReportService) ClearReports(ctx context.Context) error {
	return s.ClearReportsFn(ctx)
}
