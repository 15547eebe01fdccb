package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/locsearch"
)

// Compile-time interface verification.
var _ locsearch.DomainService = (*DomainService)(nil)

// DomainService implements locsearch.DomainService using SQLite.
type DomainService struct {
	db *DB
}

// NewDomainService creates a new DomainService.
func NewDomainService(db *DB) *DomainService {
	return &DomainService{db: db}
}

// CreateDomain adds a domain to the crawl list.
func (s *DomainService) CreateDomain(ctx context.Context, domain *locsearch.Domain) error {
	domain.Name = locsearch.NormalizeDomain(domain.Name)
	if err := domain.Validate(); err != nil {
		return err
	}
	domain.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO domains (name, created_at)
		VALUES (?, ?)
	`, domain.Name, domain.CreatedAt.Format(time.RFC3339))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return locsearch.Errorf(locsearch.ECONFLICT, "domain %q already exists", domain.Name)
	}
	return err
}

// FindDomains returns all configured domains in creation order.
func (s *DomainService) FindDomains(ctx context.Context) ([]*locsearch.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, created_at FROM domains ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []*locsearch.Domain
	for rows.Next() {
		var d locsearch.Domain
		var createdAt string
		if err := rows.Scan(&d.Name, &createdAt); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}
		domains = append(domains, &d)
	}
	return domains, rows.Err()
}

// DeleteDomain removes a domain and all of its records.
func (s *DomainService) DeleteDomain(ctx context.Context, name string) error {
	name = locsearch.NormalizeDomain(name)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM domains WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return locsearch.Errorf(locsearch.ENOTFOUND, "domain not found")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE domain = ?`, name); err != nil {
		return err
	}

	return tx.Commit()
}
