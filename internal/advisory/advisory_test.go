package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calldex/internal/profile/models"
)

func TestAssessSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req assessRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+919876543210", req.PhoneNumber)
		assert.Equal(t, 12, req.Signals.UniqueReporters)

		json.NewEncoder(w).Encode(assessResponse{
			Score:     90,
			Label:     "scam",
			Rationale: "known fraud ring",
		})
	}))
	defer srv.Close()

	c := NewHTTP(srv.URL)
	got := c.Assess(context.Background(), "+919876543210", SignalSummary{UniqueReporters: 12})

	require.NotNil(t, got)
	assert.Equal(t, 90.0, got.Score)
	assert.Equal(t, models.CategoryScam, got.Label)
	assert.Equal(t, "known fraud ring", got.Rationale)
}

func TestAssessTimeoutIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewHTTP(srv.URL, WithTimeout(20*time.Millisecond))
	assert.Nil(t, c.Assess(context.Background(), "+919876543210", SignalSummary{}))
}

func TestAssessBadResponsesAreAbsent(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-200": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		},
		"score out of range": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(assessResponse{Score: 250})
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			c := NewHTTP(srv.URL)
			assert.Nil(t, c.Assess(context.Background(), "+919876543210", SignalSummary{}))
		})
	}
}

func TestAssessUnknownLabelDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(assessResponse{Score: 55, Label: "robocaller"})
	}))
	defer srv.Close()

	got := NewHTTP(srv.URL).Assess(context.Background(), "+919876543210", SignalSummary{})
	require.NotNil(t, got)
	assert.Empty(t, got.Label)
}

func TestAssessStopsCallingWhileCircuitOpen(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewHTTP(srv.URL, WithTimeout(10*time.Millisecond))
	for i := 0; i < 5; i++ {
		assert.Nil(t, c.Assess(context.Background(), "+919876543210", SignalSummary{}))
	}
	require.Equal(t, 5, calls)

	// Circuit is open now; further calls return immediately without a request.
	assert.Nil(t, c.Assess(context.Background(), "+919876543210", SignalSummary{}))
	assert.Equal(t, 5, calls)
}

func TestDisabled(t *testing.T) {
	assert.Nil(t, Disabled().Assess(context.Background(), "+919876543210", SignalSummary{}))
}
