//go:build integration

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"calldex/internal/profile/models"
	"calldex/internal/profile/store/identity"
	"calldex/pkg/phone"
	"calldex/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *identity.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = identity.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"name_contributions", "name_clusters", "number_identities"))
}

func (s *PostgresStoreSuite) TestGetOrCreateIsIdempotent() {
	ctx := context.Background()
	number := phone.MustNormalize("+919876543210")

	first, err := s.store.GetOrCreate(ctx, number)
	s.Require().NoError(err)
	second, err := s.store.GetOrCreate(ctx, number)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(number, second.Phone)
}

func (s *PostgresStoreSuite) TestUpdateResolution() {
	ctx := context.Background()
	number := phone.MustNormalize("+919876543210")

	ident, err := s.store.GetOrCreate(ctx, number)
	s.Require().NoError(err)

	now := time.Now().UTC().Truncate(time.Second)
	s.Require().NoError(s.store.UpdateResolution(ctx, ident.ID, "Rahul Sharma", 82.5, 4, now))

	got, err := s.store.GetByPhone(ctx, number)
	s.Require().NoError(err)
	s.Equal("Rahul Sharma", got.ResolvedName)
	s.Equal(82.5, got.Confidence)
	s.Equal(4, got.ContributionCount)
}

func (s *PostgresStoreSuite) TestSetVerifiedNameUpsertsUnknownNumber() {
	ctx := context.Background()
	number := phone.MustNormalize("+919876543210")

	got, err := s.store.SetVerifiedName(ctx, number, "Rahul Sharma", models.VerificationPhone)
	s.Require().NoError(err)
	s.Equal("Rahul Sharma", got.VerifiedName)
	s.Equal(models.VerificationPhone, got.VerificationLevel)
	s.Equal(100.0, got.Confidence)
}

func (s *PostgresStoreSuite) TestAddTagsUnions() {
	ctx := context.Background()
	ident, err := s.store.GetOrCreate(ctx, phone.MustNormalize("+919876543210"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.AddTags(ctx, ident.ID, []string{"family", "service"}))
	s.Require().NoError(s.store.AddTags(ctx, ident.ID, []string{"family", "work"}))

	got, err := s.store.GetByPhone(ctx, ident.Phone)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"family", "service", "work"}, got.Tags)
}

func (s *PostgresStoreSuite) TestSetRoleFirstAssignmentWins() {
	ctx := context.Background()
	ident, err := s.store.GetOrCreate(ctx, phone.MustNormalize("+919876543210"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetRoleIfUnset(ctx, ident.ID, models.RoleFamily))
	s.Require().NoError(s.store.SetRoleIfUnset(ctx, ident.ID, models.RoleWork))

	got, err := s.store.GetByPhone(ctx, ident.Phone)
	s.Require().NoError(err)
	s.Equal(models.RoleFamily, got.Role)
}

func (s *PostgresStoreSuite) TestListPhonesPages() {
	ctx := context.Background()
	numbers := []string{"+919876543210", "+919876543211", "+919876543212"}
	for _, n := range numbers {
		_, err := s.store.GetOrCreate(ctx, phone.MustNormalize(n))
		s.Require().NoError(err)
	}

	page, err := s.store.ListPhones(ctx, "", 2)
	s.Require().NoError(err)
	s.Len(page, 2)

	rest, err := s.store.ListPhones(ctx, page[len(page)-1], 2)
	s.Require().NoError(err)
	s.Len(rest, 1)
}
