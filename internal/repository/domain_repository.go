package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"securelink/internal/database"
	"securelink/internal/entities"
)

// DomainRepository defines the interface for custom domain database operations
type DomainRepository interface {
	Create(ctx context.Context, domain *entities.Domain) error
	FindByID(ctx context.Context, id string) (*entities.Domain, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Domain, error)
	MarkVerified(ctx context.Context, id string) error
}

type domainRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(db *sql.DB, dialect database.Dialect) DomainRepository {
	return &domainRepository{db: db, dialect: dialect}
}

const domainColumns = `id, hostname, owner_id, txt_record, verified, created_at`

func scanDomain(row rowScanner) (*entities.Domain, error) {
	var domain entities.Domain
	err := row.Scan(
		&domain.ID,
		&domain.Hostname,
		&domain.OwnerID,
		&domain.TXTRecord,
		&domain.Verified,
		&domain.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// Create registers a hostname; a hostname already registered by anyone yields ErrDuplicate
func (r *domainRepository) Create(ctx context.Context, domain *entities.Domain) error {
	query := rebind(r.dialect, `
		INSERT INTO domains (id, hostname, owner_id, txt_record, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		domain.ID,
		domain.Hostname,
		domain.OwnerID,
		domain.TXTRecord,
		domain.Verified,
		domain.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("domain %q: %w", domain.Hostname, ErrDuplicate)
		}
		return fmt.Errorf("failed to create domain: %w", err)
	}
	return nil
}

func (r *domainRepository) FindByID(ctx context.Context, id string) (*entities.Domain, error) {
	query := rebind(r.dialect, `SELECT `+domainColumns+` FROM domains WHERE id = ?`)

	domain, err := scanDomain(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find domain: %w", err)
	}
	return domain, nil
}

func (r *domainRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Domain, error) {
	query := rebind(r.dialect, `SELECT `+domainColumns+` FROM domains WHERE owner_id = ? ORDER BY created_at DESC`)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	domains := make([]*entities.Domain, 0)
	for rows.Next() {
		domain, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domain)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domains: %w", err)
	}
	return domains, nil
}

func (r *domainRepository) MarkVerified(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, rebind(r.dialect, `UPDATE domains SET verified = ? WHERE id = ?`), true, id)
	if err != nil {
		return fmt.Errorf("failed to verify domain: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
