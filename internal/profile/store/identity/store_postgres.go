package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
	"calldex/pkg/platform/sentinel"
)

// PostgresStore persists number identities in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `id, phone, resolved_name, verified_name, verification_level,
	confidence, contribution_count, tags, role, last_resolved_at, created_at`

func (s *PostgresStore) GetByPhone(ctx context.Context, number phone.Number) (*models.NumberIdentity, error) {
	query := `SELECT ` + identityColumns + ` FROM number_identities WHERE phone = $1`
	return scanIdentity(s.db.QueryRowContext(ctx, query, number.String()))
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, number phone.Number) (*models.NumberIdentity, error) {
	query := `
		INSERT INTO number_identities (id, phone, verification_level, tags, created_at)
		VALUES ($1, $2, $3, '{}', $4)
		ON CONFLICT (phone) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.New(), number.String(), models.VerificationNone, time.Now()); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return s.GetByPhone(ctx, number)
}

func (s *PostgresStore) UpdateResolution(ctx context.Context, identityID id.IdentityID, resolvedName string, confidence float64, contributionCount int, resolvedAt time.Time) error {
	query := `
		UPDATE number_identities
		SET resolved_name = $2, confidence = $3, contribution_count = $4, last_resolved_at = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(identityID), resolvedName, confidence, contributionCount, resolvedAt)
	if err != nil {
		return fmt.Errorf("update resolution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetVerifiedName(ctx context.Context, number phone.Number, name string, level models.VerificationLevel) (*models.NumberIdentity, error) {
	query := `
		INSERT INTO number_identities (id, phone, verified_name, verification_level, confidence, tags, created_at)
		VALUES ($1, $2, $3, $4, 100, '{}', $5)
		ON CONFLICT (phone) DO UPDATE SET
			verified_name = EXCLUDED.verified_name,
			verification_level = EXCLUDED.verification_level,
			confidence = 100
		RETURNING ` + identityColumns
	return scanIdentity(s.db.QueryRowContext(ctx, query, uuid.New(), number.String(), name, level, time.Now()))
}

func (s *PostgresStore) AddTags(ctx context.Context, identityID id.IdentityID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	// Union into the existing set; tags are never removed.
	query := `
		UPDATE number_identities
		SET tags = ARRAY(SELECT DISTINCT unnest(tags || $2::text[]) ORDER BY 1)
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(identityID), pq.Array(tags))
	if err != nil {
		return fmt.Errorf("add tags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetRoleIfUnset(ctx context.Context, identityID id.IdentityID, role models.RelationshipRole) error {
	// First assignment wins; an established role is never overwritten.
	query := `
		UPDATE number_identities
		SET role = $2
		WHERE id = $1 AND (role IS NULL OR role = '')
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.UUID(identityID), string(role)); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPhones(ctx context.Context, after phone.Number, limit int) ([]phone.Number, error) {
	query := `SELECT phone FROM number_identities WHERE phone > $1 ORDER BY phone LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, after.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	defer rows.Close()

	var numbers []phone.Number
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		numbers = append(numbers, phone.Number(n))
	}
	return numbers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*models.NumberIdentity, error) {
	var (
		ident        models.NumberIdentity
		identityID   uuid.UUID
		phoneStr     string
		resolved     sql.NullString
		verified     sql.NullString
		role         sql.NullString
		lastResolved sql.NullTime
		tags         pq.StringArray
	)
	err := row.Scan(&identityID, &phoneStr, &resolved, &verified, &ident.VerificationLevel,
		&ident.Confidence, &ident.ContributionCount, &tags, &role, &lastResolved, &ident.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	ident.ID = id.IdentityID(identityID)
	ident.Phone = phone.Number(phoneStr)
	ident.ResolvedName = resolved.String
	ident.VerifiedName = verified.String
	ident.Role = models.RelationshipRole(role.String)
	ident.Tags = tags
	if lastResolved.Valid {
		ident.LastResolvedAt = lastResolved.Time
	}
	return &ident, nil
}
