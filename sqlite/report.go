package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fwojciec/locsearch"
)

// Compile-time interface verification.
var _ locsearch.ReportService = (*ReportService)(nil)

// ReportService implements locsearch.ReportService using SQLite.
type ReportService struct {
	db *DB
}

// NewReportService creates a new ReportService.
func NewReportService(db *DB) *ReportService {
	return &ReportService{db: db}
}

// SaveReport persists a report and its chunk summaries.
func (s *ReportService) SaveReport(ctx context.Context, report *locsearch.Report) error {
	if report.Key == "" {
		report.Key = locsearch.ReportKey(report.URLs)
	}
	if report.Text == "" {
		return locsearch.Errorf(locsearch.EINVALID, "report text required")
	}
	report.CreatedAt = time.Now().UTC()

	urls, err := json.Marshal(report.URLs)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reports (key, urls, body, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET urls = excluded.urls, body = excluded.body, created_at = excluded.created_at
	`, report.Key, string(urls), report.Text, report.CreatedAt.Format(time.RFC3339)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_summaries WHERE report_key = ?`, report.Key); err != nil {
		return err
	}
	for i, summary := range report.Summaries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_summaries (report_key, position, summary)
			VALUES (?, ?, ?)
		`, report.Key, i, summary); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindReportByKey retrieves a cached report.
func (s *ReportService) FindReportByKey(ctx context.Context, key string) (*locsearch.Report, error) {
	var report locsearch.Report
	var urls, createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT key, urls, body, created_at FROM reports WHERE key = ?
	`, key).Scan(&report.Key, &urls, &report.Text, &createdAt)

	if err == sql.ErrNoRows {
		return nil, locsearch.Errorf(locsearch.ENOTFOUND, "report not found")
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(urls), &report.URLs); err != nil {
		return nil, err
	}
	if report.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT summary FROM report_summaries WHERE report_key = ? ORDER BY position
	`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var summary string
		if err := rows.Scan(&summary); err != nil {
			return nil, err
		}
		report.Summaries = append(report.Summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &report, nil
}

// ClearReports drops the entire cache.
func (s *ReportService) ClearReports(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reports`)
	return err
}
