package contribution

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
)

// PostgresStore persists name contributions in PostgreSQL. Rows are
// append-only; the unique index on (identity_id, contributor_id, cleaned_name)
// performs write-time deduplication.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, c models.NameContribution) (bool, error) {
	query := `
		INSERT INTO name_contributions
			(id, identity_id, contributor_id, raw_name, cleaned_name, source, trust_weight, device_fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (identity_id, contributor_id, cleaned_name) DO NOTHING
	`
	var contributorID any
	if !c.ContributorID.IsNil() {
		contributorID = uuid.UUID(c.ContributorID)
	}
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.IdentityID), contributorID,
		c.RawName, c.CleanedName, c.Source, c.TrustWeight, c.DeviceFingerprint, c.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("add contribution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add contribution: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]models.NameContribution, error) {
	query := `
		SELECT id, identity_id, contributor_id, raw_name, cleaned_name, source, trust_weight, device_fingerprint, created_at
		FROM name_contributions
		WHERE identity_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(identityID))
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var out []models.NameContribution
	for rows.Next() {
		var (
			c             models.NameContribution
			cID, identID  uuid.UUID
			contributorID uuid.NullUUID
			fingerprint   sql.NullString
		)
		if err := rows.Scan(&cID, &identID, &contributorID, &c.RawName, &c.CleanedName,
			&c.Source, &c.TrustWeight, &fingerprint, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		c.ID = id.ContributionID(cID)
		c.IdentityID = id.IdentityID(identID)
		if contributorID.Valid {
			c.ContributorID = id.ContributorID(contributorID.UUID)
		}
		c.DeviceFingerprint = fingerprint.String
		out = append(out, c)
	}
	return out, rows.Err()
}
