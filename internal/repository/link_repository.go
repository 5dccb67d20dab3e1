package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"securelink/internal/database"
	"securelink/internal/entities"
)

// LinkRepository defines the interface for link and visit database operations
type LinkRepository interface {
	Create(ctx context.Context, link *entities.Link) error
	FindByShortCode(ctx context.Context, shortCode string) (*entities.Link, error)
	FindByID(ctx context.Context, id string) (*entities.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	Update(ctx context.Context, link *entities.Link) error
	Delete(ctx context.Context, id, ownerID string) ([]string, error)
	DeleteMany(ctx context.Context, ids []string, ownerID string) ([]string, error)
	ClaimUnowned(ctx context.Context, shortCodes []string, ownerID string) (int64, error)
	RecordVisit(ctx context.Context, visit *entities.Visit) error
	ListVisits(ctx context.Context, linkID string) ([]*entities.Visit, error)
}

type linkRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *sql.DB, dialect database.Dialect) LinkRepository {
	return &linkRepository{db: db, dialect: dialect}
}

const linkColumns = `id, short_code, original_url, owner_id, title, password_hash, expiry_time, clicks, domain_id, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row rowScanner) (*entities.Link, error) {
	var link entities.Link
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.OwnerID,
		&link.Title,
		&link.PasswordHash,
		&link.ExpiryTime,
		&link.Clicks,
		&link.DomainID,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) q(query string) string {
	return rebind(r.dialect, query)
}

// Create inserts a new link. The unique index on short_code decides concurrent races.
func (r *linkRepository) Create(ctx context.Context, link *entities.Link) error {
	query := r.q(`
		INSERT INTO links (id, short_code, original_url, owner_id, title, password_hash, expiry_time, clicks, domain_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.ShortCode,
		link.OriginalURL,
		link.OwnerID,
		link.Title,
		link.PasswordHash,
		utcPtr(link.ExpiryTime),
		link.DomainID,
		link.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("short code %q: %w", link.ShortCode, ErrDuplicate)
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	link.Clicks = 0
	return nil
}

// FindByShortCode finds a link by its short code, expired links included
func (r *linkRepository) FindByShortCode(ctx context.Context, shortCode string) (*entities.Link, error) {
	query := r.q(`SELECT ` + linkColumns + ` FROM links WHERE short_code = ?`)

	link, err := scanLink(r.db.QueryRowContext(ctx, query, shortCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return link, nil
}

// FindByID finds a link by its ID
func (r *linkRepository) FindByID(ctx context.Context, id string) (*entities.Link, error) {
	query := r.q(`SELECT ` + linkColumns + ` FROM links WHERE id = ?`)

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return link, nil
}

// ListByOwner retrieves all links of an account, newest first
func (r *linkRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error) {
	query := r.q(`SELECT ` + linkColumns + ` FROM links WHERE owner_id = ? ORDER BY created_at DESC`)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := make([]*entities.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}

func (r *linkRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM links WHERE owner_id = ?`), ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// Update writes the mutable fields (title, password, expiry) of a link owned by link.OwnerID
func (r *linkRepository) Update(ctx context.Context, link *entities.Link) error {
	if link.OwnerID == nil {
		return ErrNotFound
	}

	query := r.q(`
		UPDATE links
		SET title = ?, password_hash = ?, expiry_time = ?
		WHERE id = ? AND owner_id = ?
	`)

	result, err := r.db.ExecContext(ctx, query, link.Title, link.PasswordHash, utcPtr(link.ExpiryTime), link.ID, *link.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
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

// Delete removes one link owned by ownerID together with its visits and returns the
// deleted short code.
func (r *linkRepository) Delete(ctx context.Context, id, ownerID string) ([]string, error) {
	return r.DeleteMany(ctx, []string{id}, ownerID)
}

// DeleteMany removes the links among ids that are owned by ownerID, plus their visits.
// Ids that are missing or owned by someone else are skipped. It returns the short codes
// of the deleted links.
func (r *linkRepository) DeleteMany(ctx context.Context, ids []string, ownerID string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := append(stringArgs(ids), ownerID)
	owned := `SELECT id FROM links WHERE id IN (` + placeholders(len(ids)) + `) AND owner_id = ?`

	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM visits WHERE link_id IN (`+owned+`)`), args...); err != nil {
		return nil, fmt.Errorf("failed to delete visits: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		r.q(`DELETE FROM links WHERE id IN (`+placeholders(len(ids))+`) AND owner_id = ? RETURNING short_code`),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete links: %w", err)
	}

	codes := make([]string, 0, len(ids))
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan deleted link: %w", err)
		}
		codes = append(codes, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deleted links: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return codes, nil
}

// ClaimUnowned assigns ownerID to every guest link whose short code is in shortCodes.
// Links that already have an owner are left untouched.
func (r *linkRepository) ClaimUnowned(ctx context.Context, shortCodes []string, ownerID string) (int64, error) {
	if len(shortCodes) == 0 {
		return 0, nil
	}

	query := r.q(`UPDATE links SET owner_id = ? WHERE owner_id IS NULL AND short_code IN (` + placeholders(len(shortCodes)) + `)`)
	args := append([]interface{}{ownerID}, stringArgs(shortCodes)...)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to claim links: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// RecordVisit increments the click counter and stores the visit in one transaction
func (r *linkRepository) RecordVisit(ctx context.Context, visit *entities.Visit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, r.q(`UPDATE links SET clicks = clicks + 1 WHERE id = ?`), visit.LinkID)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		r.q(`INSERT INTO visits (id, link_id, device, referrer, user_agent, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		visit.ID,
		visit.LinkID,
		string(visit.Device),
		visit.Referrer,
		visit.UserAgent,
		visit.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit visit: %w", err)
	}
	return nil
}

// ListVisits returns every visit of a link, newest first
func (r *linkRepository) ListVisits(ctx context.Context, linkID string) ([]*entities.Visit, error) {
	query := r.q(`
		SELECT id, link_id, device, referrer, user_agent, created_at
		FROM visits
		WHERE link_id = ?
		ORDER BY created_at DESC
	`)

	rows, err := r.db.QueryContext(ctx, query, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	visits := make([]*entities.Visit, 0)
	for rows.Next() {
		var (
			visit  entities.Visit
			device string
		)
		if err := rows.Scan(&visit.ID, &visit.LinkID, &device, &visit.Referrer, &visit.UserAgent, &visit.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visit.Device = entities.Device(device)
		visits = append(visits, &visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visits: %w", err)
	}
	return visits, nil
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
