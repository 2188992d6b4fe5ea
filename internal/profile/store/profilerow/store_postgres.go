package profilerow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"calldex/internal/profile/models"
	"calldex/pkg/phone"
	"calldex/pkg/platform/sentinel"
)

// PostgresStore persists derived number profiles in PostgreSQL. This is the
// durable tier of the profile cache; a single indexed read by phone number.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByPhone(ctx context.Context, number phone.Number) (*models.NumberProfile, error) {
	query := `
		SELECT phone, name, description, confidence, spam_score, spam_category,
			caller_category, tags, relationship_hint, source_count, verified, version, updated_at
		FROM number_profiles
		WHERE phone = $1
	`
	var (
		p        models.NumberProfile
		phoneStr string
		tags     pq.StringArray
		hint     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, number.String()).Scan(
		&phoneStr, &p.Name, &p.Description, &p.Confidence, &p.SpamScore, &p.SpamCategory,
		&p.CallerCategory, &tags, &hint, &p.SourceCount, &p.Verified, &p.Version, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.Phone = phone.Number(phoneStr)
	p.Tags = tags
	p.RelationshipHint = models.RelationshipRole(hint.String)
	return &p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, p models.NumberProfile) (int64, error) {
	query := `
		INSERT INTO number_profiles
			(phone, name, description, confidence, spam_score, spam_category, caller_category,
			 tags, relationship_hint, source_count, verified, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12)
		ON CONFLICT (phone) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			confidence = EXCLUDED.confidence,
			spam_score = EXCLUDED.spam_score,
			spam_category = EXCLUDED.spam_category,
			caller_category = EXCLUDED.caller_category,
			tags = EXCLUDED.tags,
			relationship_hint = EXCLUDED.relationship_hint,
			source_count = EXCLUDED.source_count,
			verified = EXCLUDED.verified,
			version = number_profiles.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING version
	`
	var version int64
	err := s.db.QueryRowContext(ctx, query,
		p.Phone.String(), p.Name, p.Description, p.Confidence, p.SpamScore, p.SpamCategory,
		p.CallerCategory, pq.Array(p.Tags), string(p.RelationshipHint), p.SourceCount, p.Verified,
		p.UpdatedAt).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("upsert profile: %w", err)
	}
	return version, nil
}
