//go:build integration

package spamreport_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"calldex/internal/profile/models"
	"calldex/internal/profile/store/spamreport"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
	"calldex/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *spamreport.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = spamreport.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "spam_reports"))
}

func (s *PostgresStoreSuite) report(number phone.Number, reporter id.ContributorID) models.SpamReport {
	return models.SpamReport{
		ID:         id.NewReportID(),
		Phone:      number,
		ReporterID: reporter,
		Reason:     "unwanted calls",
		CreatedAt:  time.Now(),
	}
}

func (s *PostgresStoreSuite) TestRemovalMarksInsteadOfDeleting() {
	ctx := context.Background()
	number := phone.MustNormalize("+919876543210")
	reporter := id.NewContributorID()

	s.Require().NoError(s.store.Add(ctx, s.report(number, reporter)))

	has, err := s.store.HasActiveReport(ctx, number, reporter)
	s.Require().NoError(err)
	s.True(has)

	s.Require().NoError(s.store.Remove(ctx, number, reporter, time.Now()))

	has, err = s.store.HasActiveReport(ctx, number, reporter)
	s.Require().NoError(err)
	s.False(has)

	// The row survives removal; only its active flag changes.
	var total int
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx,
		"SELECT count(*) FROM spam_reports WHERE phone = $1", number.String()).Scan(&total))
	s.Equal(1, total)
}

func (s *PostgresStoreSuite) TestListActiveSkipsRemoved() {
	ctx := context.Background()
	number := phone.MustNormalize("+919876543210")
	removed := id.NewContributorID()

	s.Require().NoError(s.store.Add(ctx, s.report(number, removed)))
	s.Require().NoError(s.store.Add(ctx, s.report(number, id.NewContributorID())))
	s.Require().NoError(s.store.Remove(ctx, number, removed, time.Now()))

	active, err := s.store.ListActiveByPhone(ctx, number)
	s.Require().NoError(err)
	s.Len(active, 1)
}

func (s *PostgresStoreSuite) TestRemoveMissingReportIsNoop() {
	ctx := context.Background()
	s.NoError(s.store.Remove(ctx, phone.MustNormalize("+919876543210"), id.NewContributorID(), time.Now()))
}
