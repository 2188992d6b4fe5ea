package contributor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
	"calldex/pkg/platform/sentinel"
)

// PostgresStore persists contributor accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, contributorID id.ContributorID) (*models.Contributor, error) {
	query := `
		SELECT id, phone_verified, document_verified, trust_score, suspicious, created_at
		FROM contributors
		WHERE id = $1
	`
	var (
		c   models.Contributor
		cID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(contributorID)).
		Scan(&cID, &c.PhoneVerified, &c.DocumentVerified, &c.TrustScore, &c.Suspicious, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contributor: %w", err)
	}
	c.ID = id.ContributorID(cID)
	return &c, nil
}

func (s *PostgresStore) Put(ctx context.Context, c models.Contributor) error {
	query := `
		INSERT INTO contributors (id, phone_verified, document_verified, trust_score, suspicious, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			phone_verified = EXCLUDED.phone_verified,
			document_verified = EXCLUDED.document_verified,
			trust_score = EXCLUDED.trust_score,
			suspicious = EXCLUDED.suspicious
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), c.PhoneVerified, c.DocumentVerified, c.TrustScore, c.Suspicious, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("put contributor: %w", err)
	}
	return nil
}
