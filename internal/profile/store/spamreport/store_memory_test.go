package spamreport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
)

func TestMemoryStoreRemovePreservesHistory(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	number := phone.MustNormalize("+919876543210")
	reporter := id.NewContributorID()

	require.NoError(t, store.Add(ctx, models.SpamReport{
		ID:         id.NewReportID(),
		Phone:      number,
		ReporterID: reporter,
		Reason:     "telemarketing calls",
		CreatedAt:  time.Now(),
	}))

	has, err := store.HasActiveReport(ctx, number, reporter)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.Remove(ctx, number, reporter, time.Now()))

	has, err = store.HasActiveReport(ctx, number, reporter)
	require.NoError(t, err)
	assert.False(t, has)

	active, err := store.ListActiveByPhone(ctx, number)
	require.NoError(t, err)
	assert.Empty(t, active, "removed report must no longer count")

	// History stays: a second remove of a missing report is not an error.
	assert.NoError(t, store.Remove(ctx, number, reporter, time.Now()))
}
