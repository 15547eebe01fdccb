package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/locsearch"
)

// Compile-time interface verification.
var _ locsearch.RecordService = (*RecordService)(nil)

// RecordService implements locsearch.RecordService using SQLite.
type RecordService struct {
	db *DB
}

// NewRecordService creates a new RecordService.
func NewRecordService(db *DB) *RecordService {
	return &RecordService{db: db}
}

// statusTransitions lists the statuses a record may hold immediately before
// moving to the keyed status. Everything else is a backward transition and
// is silently skipped, with the failed → assigned retry exception encoded
// under "assigned".
var statusTransitions = map[string][]string{
	locsearch.StatusAssigned: {locsearch.StatusDiscovered, locsearch.StatusFailed},
	locsearch.StatusScraped:  {locsearch.StatusDiscovered, locsearch.StatusAssigned},
	locsearch.StatusFailed:   {locsearch.StatusDiscovered, locsearch.StatusAssigned},
	locsearch.StatusSkipped:  {locsearch.StatusDiscovered},
}

// CreateRecords inserts records at status discovered. Existing URLs are
// left untouched so re-discovery is idempotent.
func (s *RecordService) CreateRecords(ctx context.Context, records []*locsearch.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	var inserted int
	for _, rec := range records {
		if rec.Status == "" {
			rec.Status = locsearch.StatusDiscovered
		}
		if err := rec.Validate(); err != nil {
			return 0, err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO records (url, domain, status, crawl_delay, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (url) DO NOTHING
		`, rec.URL, rec.Domain, rec.Status, rec.CrawlDelay, now)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

const recordColumns = `url, domain, status, crawl_delay, title, snippet, full_text, embedding, fail_reason, updated_at`

// FindRecordByURL retrieves a record by its URL.
func (s *RecordService) FindRecordByURL(ctx context.Context, url string) (*locsearch.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM records
		WHERE url = ?
	`, url)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, locsearch.Errorf(locsearch.ENOTFOUND, "record not found")
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindRecords retrieves records matching the filter in discovery order.
func (s *RecordService) FindRecords(ctx context.Context, filter locsearch.RecordFilter) ([]*locsearch.Record, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT ` + recordColumns + ` FROM records WHERE 1=1`)

	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}
	if filter.Domain != nil {
		query.WriteString(" AND domain = ?")
		args = append(args, *filter.Domain)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Embedded != nil {
		if *filter.Embedded {
			query.WriteString(" AND embedding IS NOT NULL")
		} else {
			query.WriteString(" AND embedding IS NULL")
		}
	}

	// rowid preserves insertion order, which is discovery order.
	query.WriteString(" ORDER BY rowid")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*locsearch.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateStatus moves records forward to a new status. Backward transitions
// are skipped, not errors; the return value counts the records that moved.
func (s *RecordService) UpdateStatus(ctx context.Context, urls []string, status string) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}
	from, ok := statusTransitions[status]
	if !ok {
		return 0, locsearch.Errorf(locsearch.EINVALID, "cannot transition records to status %q", status)
	}

	args := make([]any, 0, len(urls)+len(from)+2)
	args = append(args, status, time.Now().UTC().Format(time.RFC3339))
	for _, u := range urls {
		args = append(args, u)
	}
	for _, f := range from {
		args = append(args, f)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET status = ?, updated_at = ?
		WHERE url IN (`+placeholders(len(urls))+`)
		AND status IN (`+placeholders(len(from))+`)
	`, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// MarkScraped records a successful fetch. A record already in a terminal
// status is left untouched so resumed shards stay idempotent.
func (s *RecordService) MarkScraped(ctx context.Context, url, title, snippet string) error {
	return s.resolve(ctx, url, locsearch.StatusScraped, `title = ?, snippet = ?, fail_reason = ''`, title, snippet)
}

// MarkFailed records a fetch failure and its reason.
func (s *RecordService) MarkFailed(ctx context.Context, url, reason string) error {
	return s.resolve(ctx, url, locsearch.StatusFailed, `fail_reason = ?`, reason)
}

// resolve moves a record to a terminal status together with its payload
// columns in one statement, so a crash can never leave the payload without
// the status or vice versa.
func (s *RecordService) resolve(ctx context.Context, url, status, setClause string, setArgs ...any) error {
	from := statusTransitions[status]
	args := append([]any{}, setArgs...)
	args = append(args, status, time.Now().UTC().Format(time.RFC3339), url)
	for _, f := range from {
		args = append(args, f)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET `+setClause+`, status = ?, updated_at = ?
		WHERE url = ? AND status IN (`+placeholders(len(from))+`)
	`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing record from an already-terminal one.
		var current string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM records WHERE url = ?`, url).Scan(&current)
		if err == sql.ErrNoRows {
			return locsearch.Errorf(locsearch.ENOTFOUND, "record not found")
		}
		if err != nil {
			return err
		}
		// Already terminal: a no-op by design of resumption.
	}
	return nil
}

// SaveEmbedding persists an embedding vector on a scraped record.
func (s *RecordService) SaveEmbedding(ctx context.Context, url string, embedding []float32) error {
	if len(embedding) == 0 {
		return locsearch.Errorf(locsearch.EINVALID, "embedding required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET embedding = ?, updated_at = ?
		WHERE url = ? AND status = ?
	`, encodeVector(embedding), time.Now().UTC().Format(time.RFC3339), url, locsearch.StatusScraped)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var current string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM records WHERE url = ?`, url).Scan(&current)
		if err == sql.ErrNoRows {
			return locsearch.Errorf(locsearch.ENOTFOUND, "record not found")
		}
		if err != nil {
			return err
		}
		return locsearch.Errorf(locsearch.ECONFLICT, "record %q is %s, not scraped", url, current)
	}
	return nil
}

// SaveFullText persists lazily fetched full text on a record.
func (s *RecordService) SaveFullText(ctx context.Context, url, fullText string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET full_text = ?, updated_at = ?
		WHERE url = ?
	`, fullText, time.Now().UTC().Format(time.RFC3339), url)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return locsearch.Errorf(locsearch.ENOTFOUND, "record not found")
	}
	return nil
}

// DeleteRecordsByDomain removes all records for a domain.
func (s *RecordService) DeleteRecordsByDomain(ctx context.Context, domain string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE domain = ?`, domain)
	return err
}

// Stats returns per-status record counts.
func (s *RecordService) Stats(ctx context.Context) (*locsearch.RecordStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COUNT(embedding)
		FROM records
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats locsearch.RecordStats
	for rows.Next() {
		var status string
		var count, embedded int
		if err := rows.Scan(&status, &count, &embedded); err != nil {
			return nil, err
		}
		switch status {
		case locsearch.StatusDiscovered:
			stats.Discovered = count
		case locsearch.StatusAssigned:
			stats.Assigned = count
		case locsearch.StatusScraped:
			stats.Scraped = count
		case locsearch.StatusFailed:
			stats.Failed = count
		case locsearch.StatusSkipped:
			stats.Skipped = count
		}
		stats.Embedded += embedded
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one record row.
func scanRecord(row scanner) (*locsearch.Record, error) {
	var rec locsearch.Record
	var embedding []byte
	var updatedAt string

	err := row.Scan(&rec.URL, &rec.Domain, &rec.Status, &rec.CrawlDelay,
		&rec.Title, &rec.Snippet, &rec.FullText, &embedding, &rec.FailReason, &updatedAt)
	if err != nil {
		return nil, err
	}

	if rec.Embedding, err = decodeVector(embedding); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &rec, nil
}
