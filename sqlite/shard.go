package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fwojciec/locsearch"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ locsearch.ShardService = (*ShardService)(nil)

// ShardService implements locsearch.ShardService using SQLite.
type ShardService struct {
	db *DB
}

// NewShardService creates a new ShardService.
func NewShardService(db *DB) *ShardService {
	return &ShardService{db: db}
}

// CreateAssignment persists the assignment and marks every covered record
// assigned in a single transaction, so a crash between the two cannot
// silently drop work.
func (s *ShardService) CreateAssignment(ctx context.Context, assignment *locsearch.ShardAssignment) error {
	if err := assignment.Validate(); err != nil {
		return err
	}

	assignment.ID = uuid.New().String()
	assignment.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if assignment.Generation == 0 {
		var maxGen sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(generation) FROM assignments`).Scan(&maxGen); err != nil {
			return err
		}
		assignment.Generation = int(maxGen.Int64) + 1
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO assignments (id, generation, created_at)
		VALUES (?, ?, ?)
	`, assignment.ID, assignment.Generation, assignment.CreatedAt.Format(time.RFC3339)); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, shard := range assignment.Shards {
		for pos, url := range shard.URLs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO shard_entries (assignment_id, worker, position, url)
				VALUES (?, ?, ?, ?)
			`, assignment.ID, shard.Worker, pos, url); err != nil {
				return err
			}

			// failed → assigned is the retry path; anything already
			// terminal other than failed must not regress.
			if _, err := tx.ExecContext(ctx, `
				UPDATE records
				SET status = ?, updated_at = ?
				WHERE url = ? AND status IN (?, ?)
			`, locsearch.StatusAssigned, now, url,
				locsearch.StatusDiscovered, locsearch.StatusFailed); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// FindAssignmentByID retrieves an assignment by ID.
func (s *ShardService) FindAssignmentByID(ctx context.Context, id string) (*locsearch.ShardAssignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, generation, created_at FROM assignments WHERE id = ?
	`, id)
	return s.scanAssignment(ctx, row)
}

// FindOpenAssignment returns the most recent assignment not yet closed.
func (s *ShardService) FindOpenAssignment(ctx context.Context) (*locsearch.ShardAssignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, generation, created_at
		FROM assignments
		WHERE closed = 0
		ORDER BY rowid DESC
		LIMIT 1
	`)
	return s.scanAssignment(ctx, row)
}

// CloseAssignment marks an assignment fully resolved.
func (s *ShardService) CloseAssignment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE assignments SET closed = 1 WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return locsearch.Errorf(locsearch.ENOTFOUND, "assignment not found")
	}
	return nil
}

// scanAssignment reads the assignment header row and loads its shards.
func (s *ShardService) scanAssignment(ctx context.Context, row *sql.Row) (*locsearch.ShardAssignment, error) {
	var a locsearch.ShardAssignment
	var createdAt string

	err := row.Scan(&a.ID, &a.Generation, &createdAt)
	if err == sql.ErrNoRows {
		return nil, locsearch.Errorf(locsearch.ENOTFOUND, "assignment not found")
	}
	if err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT worker, url
		FROM shard_entries
		WHERE assignment_id = ?
		ORDER BY worker, position
	`, a.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byWorker := make(map[int]*locsearch.Shard)
	var order []int
	for rows.Next() {
		var worker int
		var url string
		if err := rows.Scan(&worker, &url); err != nil {
			return nil, err
		}
		sh, ok := byWorker[worker]
		if !ok {
			sh = &locsearch.Shard{Worker: worker}
			byWorker[worker] = sh
			order = append(order, worker)
		}
		sh.URLs = append(sh.URLs, url)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, w := range order {
		a.Shards = append(a.Shards, *byWorker[w])
	}
	return &a, nil
}
