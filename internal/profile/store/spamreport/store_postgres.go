package spamreport

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
)

// PostgresStore persists spam reports in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, report models.SpamReport) error {
	query := `
		INSERT INTO spam_reports (id, phone, reporter_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(report.ID), report.Phone.String(), uuid.UUID(report.ReporterID), report.Reason, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("add spam report: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, number phone.Number, reporterID id.ContributorID, at time.Time) error {
	query := `
		UPDATE spam_reports
		SET removed_at = $3
		WHERE phone = $1 AND reporter_id = $2 AND removed_at IS NULL
	`
	if _, err := s.db.ExecContext(ctx, query, number.String(), uuid.UUID(reporterID), at); err != nil {
		return fmt.Errorf("remove spam report: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActiveByPhone(ctx context.Context, number phone.Number) ([]models.SpamReport, error) {
	query := `
		SELECT id, phone, reporter_id, reason, created_at, removed_at
		FROM spam_reports
		WHERE phone = $1 AND removed_at IS NULL
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, number.String())
	if err != nil {
		return nil, fmt.Errorf("list spam reports: %w", err)
	}
	defer rows.Close()

	var out []models.SpamReport
	for rows.Next() {
		var (
			r          models.SpamReport
			rID, repID uuid.UUID
			phoneStr   string
			reason     sql.NullString
			removedAt  sql.NullTime
		)
		if err := rows.Scan(&rID, &phoneStr, &repID, &reason, &r.CreatedAt, &removedAt); err != nil {
			return nil, fmt.Errorf("scan spam report: %w", err)
		}
		r.ID = id.ReportID(rID)
		r.Phone = phone.Number(phoneStr)
		r.ReporterID = id.ContributorID(repID)
		r.Reason = reason.String
		if removedAt.Valid {
			t := removedAt.Time
			r.RemovedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) HasActiveReport(ctx context.Context, number phone.Number, reporterID id.ContributorID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM spam_reports
			WHERE phone = $1 AND reporter_id = $2 AND removed_at IS NULL
		)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, number.String(), uuid.UUID(reporterID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check spam report: %w", err)
	}
	return exists, nil
}
