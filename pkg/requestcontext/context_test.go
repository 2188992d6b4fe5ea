package requestcontext_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	id "calldex/pkg/domain"
	"calldex/pkg/requestcontext"
)

func TestCallerIDRoundTrip(t *testing.T) {
	caller := id.NewContributorID()
	ctx := requestcontext.WithCallerID(context.Background(), caller)

	assert.Equal(t, caller, requestcontext.CallerID(ctx))
}

func TestCallerIDDefaultsToAnonymous(t *testing.T) {
	caller := requestcontext.CallerID(context.Background())

	assert.True(t, caller.IsNil(), "missing caller means anonymous")
}

func TestClientMetadataRoundTrip(t *testing.T) {
	ctx := requestcontext.WithClientMetadata(context.Background(), "203.0.113.9", "calldex-android/2.1")

	assert.Equal(t, "203.0.113.9", requestcontext.ClientIP(ctx))
	assert.Equal(t, "calldex-android/2.1", requestcontext.UserAgent(ctx))
}

func TestClientMetadataDefaultsToEmpty(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, requestcontext.ClientIP(ctx))
	assert.Empty(t, requestcontext.UserAgent(ctx))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")

	assert.Equal(t, "req-42", requestcontext.RequestID(ctx))
	assert.Empty(t, requestcontext.RequestID(context.Background()))
}
