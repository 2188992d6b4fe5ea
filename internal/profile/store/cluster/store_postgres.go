package cluster

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
)

// PostgresStore persists derived name clusters in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ReplaceForIdentity deletes the identity's clusters and inserts the new set
// in one transaction, so readers never observe a half-replaced pass.
func (s *PostgresStore) ReplaceForIdentity(ctx context.Context, identityID id.IdentityID, clusters []models.NameCluster) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace clusters: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM name_clusters WHERE identity_id = $1`, uuid.UUID(identityID)); err != nil {
		return fmt.Errorf("delete clusters: %w", err)
	}

	insert := `
		INSERT INTO name_clusters (identity_id, representative, variants, total_weight, occurrence_count)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, c := range clusters {
		if _, err := tx.ExecContext(ctx, insert,
			uuid.UUID(identityID), c.Representative, pq.Array(c.Variants), c.TotalWeight, c.OccurrenceCount); err != nil {
			return fmt.Errorf("insert cluster: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace clusters: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]models.NameCluster, error) {
	query := `
		SELECT representative, variants, total_weight, occurrence_count
		FROM name_clusters
		WHERE identity_id = $1
		ORDER BY total_weight DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(identityID))
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var out []models.NameCluster
	for rows.Next() {
		c := models.NameCluster{IdentityID: identityID}
		var variants pq.StringArray
		if err := rows.Scan(&c.Representative, &variants, &c.TotalWeight, &c.OccurrenceCount); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		c.Variants = variants
		out = append(out, c)
	}
	return out, rows.Err()
}
