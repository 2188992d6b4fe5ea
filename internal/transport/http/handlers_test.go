package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"calldex/internal/events"
	"calldex/internal/intake"
	"calldex/internal/intake/device"
	"calldex/internal/lookup"
	"calldex/internal/profile/cache"
	"calldex/internal/profile/models"
	"calldex/internal/profile/store/contribution"
	"calldex/internal/profile/store/contributor"
	"calldex/internal/profile/store/identity"
	"calldex/internal/profile/store/profilerow"
	"calldex/internal/profile/store/spamreport"
	"calldex/internal/ratelimit"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
)

type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	profiles *profilerow.MemoryStore
	bus      *events.MemoryBus
	caller   id.ContributorID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	identities := identity.NewMemory()
	contributors := contributor.NewMemory()
	contributions := contribution.NewMemory()
	reports := spamreport.NewMemory()
	s.profiles = profilerow.NewMemory()
	s.bus = events.NewMemoryBus(64)
	s.caller = id.NewContributorID()

	logger := slog.New(slog.DiscardHandler)

	intakeSvc, err := intake.New(identities, contributors, contributions, reports, s.bus,
		intake.WithLogger(logger))
	s.Require().NoError(err)

	lookupSvc, err := lookup.New(cache.New(s.profiles, nil, cache.Config{}), reports,
		lookup.WithLogger(logger))
	s.Require().NoError(err)

	probes := map[string]HealthProbe{
		"postgres": func(context.Context) error { return nil },
	}

	s.router = NewRouter(logger, probes, nil,
		NewLookupHandler(lookupSvc, logger),
		NewIntakeHandler(intakeSvc, device.NewService(true), logger),
		NewAdminHandler(intakeSvc, logger),
	)
}

func (s *HandlerSuite) do(method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0.0.0")
	if authenticated {
		req.Header.Set(callerHeader, s.caller.String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) seedProfile(p models.NumberProfile) {
	_, err := s.profiles.Upsert(context.Background(), p)
	s.Require().NoError(err)
}

func (s *HandlerSuite) TestLookup() {
	s.seedProfile(models.NumberProfile{
		Phone:      phone.MustNormalize("+919876543210"),
		Name:       "Rahul Sharma",
		Confidence: 82,
		UpdatedAt:  time.Now(),
	})

	rec := s.do(http.MethodGet, "/v1/lookup/+919876543210", nil, false)
	s.Equal(http.StatusOK, rec.Code)

	var resp lookup.Response
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("Rahul Sharma", resp.Name)
	s.Equal(82.0, resp.Confidence)
}

func (s *HandlerSuite) TestLookupUnknownIs404() {
	rec := s.do(http.MethodGet, "/v1/lookup/+919876543210", nil, false)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestLookupInvalidIs400() {
	rec := s.do(http.MethodGet, "/v1/lookup/bogus", nil, false)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSubmitContribution() {
	rec := s.do(http.MethodPost, "/v1/contributions", map[string]string{
		"phoneNumber": "+919876543210",
		"name":        "Rahul Sharma",
	}, true)
	s.Equal(http.StatusAccepted, rec.Code)

	env := <-s.bus.Inbox()
	s.Equal(events.TypeNameContribution, env.Type)
}

func (s *HandlerSuite) TestSubmitContributionJunkNameIs400() {
	rec := s.do(http.MethodPost, "/v1/contributions", map[string]string{
		"phoneNumber": "+919876543210",
		"name":        "Unknown",
	}, true)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSpamReportRequiresCaller() {
	body := map[string]string{"phoneNumber": "+919876543210", "reason": "robocall"}

	rec := s.do(http.MethodPost, "/v1/spam-reports", body, false)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/spam-reports", body, true)
	s.Equal(http.StatusAccepted, rec.Code)

	env := <-s.bus.Inbox()
	s.Equal(events.TypeSpamReport, env.Type)
}

func (s *HandlerSuite) TestRemoveSpamReport() {
	s.do(http.MethodPost, "/v1/spam-reports",
		map[string]string{"phoneNumber": "+919876543210", "reason": "robocall"}, true)
	<-s.bus.Inbox()

	rec := s.do(http.MethodDelete, "/v1/spam-reports/+919876543210", nil, true)
	s.Equal(http.StatusAccepted, rec.Code)

	env := <-s.bus.Inbox()
	s.Equal(events.TypeSpamReport, env.Type)
}

func (s *HandlerSuite) TestSetVerifiedName() {
	rec := s.do(http.MethodPut, "/v1/identities/+919876543210/name", map[string]string{
		"name":              "Rahul Sharma",
		"verificationLevel": "phone",
	}, true)
	s.Equal(http.StatusOK, rec.Code)

	env := <-s.bus.Inbox()
	s.Equal(events.TypeProfileEdit, env.Type)
}

func (s *HandlerSuite) TestContactSync() {
	rec := s.do(http.MethodPost, "/v1/contacts/sync", map[string]any{
		"contacts": []map[string]string{
			{"phoneNumber": "+919876543210", "name": "Papa"},
			{"phoneNumber": "bogus", "name": "Anyone"},
		},
	}, true)
	s.Equal(http.StatusAccepted, rec.Code)

	var resp map[string]int
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(1, resp["accepted"])
	s.Equal(1, resp["skipped"])

	env := <-s.bus.Inbox()
	s.Equal(events.TypeContactSync, env.Type)
}

func (s *HandlerSuite) TestAdminRebuild() {
	rec := s.do(http.MethodPost, "/admin/rebuild", map[string]any{
		"phoneNumbers": []string{"+919876543210"},
	}, true)
	s.Equal(http.StatusAccepted, rec.Code)

	env := <-s.bus.Inbox()
	s.Equal(events.TypeBatchRebuild, env.Type)
}

func (s *HandlerSuite) TestLookupRateLimited() {
	logger := slog.New(slog.DiscardHandler)
	lookupSvc, err := lookup.New(cache.New(s.profiles, nil, cache.Config{}), spamreport.NewMemory(),
		lookup.WithLogger(logger))
	s.Require().NoError(err)

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(),
		ratelimit.WithLimit(ratelimit.ClassLookup, ratelimit.Limit{Requests: 1, Window: time.Minute}))
	router := NewRouter(logger, nil, ratelimit.NewMiddleware(limiter, logger),
		NewLookupHandler(lookupSvc, logger))

	s.seedProfile(models.NumberProfile{
		Phone:     phone.MustNormalize("+919876543210"),
		Name:      "Rahul Sharma",
		UpdatedAt: time.Now(),
	})

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/v1/lookup/+919876543210", nil)
		req.Header.Set(callerHeader, s.caller.String())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		s.Equal(want, rec.Code, "request %d", i)
	}
}

func (s *HandlerSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", nil, false)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "ok")
}

func (s *HandlerSuite) TestHealthzFailingProbe() {
	logger := slog.New(slog.DiscardHandler)
	router := NewRouter(logger, map[string]HealthProbe{
		"redis": func(context.Context) error { return fmt.Errorf("connection refused") },
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}
