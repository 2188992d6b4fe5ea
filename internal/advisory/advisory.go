// Package advisory calls the optional external scoring service. The service
// is a best-effort collaborator: any failure, malformed response, or timeout
// is reported as "no signal" and never fails a profile rebuild.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"calldex/internal/profile/models"
	"calldex/internal/spam"
	"calldex/pkg/phone"
	"calldex/pkg/platform/circuit"
)

const (
	defaultTimeout       = 2 * time.Second
	defaultProbeInterval = 30 * time.Second
)

// Client fetches an advisory spam assessment for a number.
type Client interface {
	// Assess returns nil (never an error) when no usable signal is available.
	Assess(ctx context.Context, number phone.Number, summary SignalSummary) *spam.AdvisorySignal
}

// SignalSummary is the aggregate evidence shared with the advisory service.
type SignalSummary struct {
	UniqueReporters int     `json:"uniqueReporters"`
	ReportsLast7d   int     `json:"reportsLast7d"`
	SpamNameRatio   float64 `json:"spamNameRatio"`
}

// Disabled returns a client that always reports no signal. Used when no
// advisory endpoint is configured.
func Disabled() Client { return noop{} }

type noop struct{}

func (noop) Assess(context.Context, phone.Number, SignalSummary) *spam.AdvisorySignal {
	return nil
}

type httpClient struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger

	breaker       *circuit.Breaker
	probeInterval time.Duration
	probeMu       sync.Mutex
	lastProbe     time.Time
}

// allow reports whether a request may go out. While the circuit is open, one
// probe request per probe interval is let through so the breaker can close
// again once the service recovers.
func (c *httpClient) allow() bool {
	if !c.breaker.IsOpen() {
		return true
	}
	c.probeMu.Lock()
	defer c.probeMu.Unlock()
	if time.Since(c.lastProbe) < c.probeInterval {
		return false
	}
	c.lastProbe = time.Now()
	return true
}

// Option configures the HTTP advisory client.
type Option func(*httpClient)

func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *httpClient) { c.logger = l }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.client = hc }
}

// NewHTTP builds a client against the given endpoint. A circuit breaker
// skips calls entirely after repeated transport failures so a down advisory
// service does not add its timeout to every rebuild.
func NewHTTP(endpoint string, opts ...Option) Client {
	c := &httpClient{
		endpoint: endpoint,
		client:   &http.Client{},
		timeout:  defaultTimeout,
		logger:   slog.Default(),

		breaker:       circuit.New("advisory"),
		probeInterval: defaultProbeInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type assessRequest struct {
	PhoneNumber string        `json:"phoneNumber"`
	Signals     SignalSummary `json:"signals"`
}

type assessResponse struct {
	Score     float64 `json:"score"`
	Label     string  `json:"label"`
	Rationale string  `json:"rationale"`
}

func (c *httpClient) Assess(ctx context.Context, number phone.Number, summary SignalSummary) *spam.AdvisorySignal {
	if !c.allow() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(assessRequest{PhoneNumber: string(number), Signals: summary})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.WarnContext(ctx, "advisory request build failed", "error", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.probeMu.Lock()
			c.lastProbe = time.Now()
			c.probeMu.Unlock()
			c.logger.WarnContext(ctx, "advisory circuit opened", "error", err)
		} else {
			c.logger.WarnContext(ctx, "advisory unavailable", "error", err)
		}
		return nil
	}
	defer resp.Body.Close()

	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "advisory circuit closed")
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "advisory returned non-200", "status", resp.StatusCode)
		return nil
	}

	var out assessResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.WarnContext(ctx, "advisory response malformed", "error", err)
		return nil
	}
	if out.Score < 0 || out.Score > 100 {
		c.logger.WarnContext(ctx, "advisory score out of range", "score", out.Score)
		return nil
	}

	return &spam.AdvisorySignal{
		Score:     out.Score,
		Label:     parseLabel(out.Label),
		Rationale: out.Rationale,
	}
}

// parseLabel maps the service's free-form label onto a known category; an
// unknown label keeps the score but drops the label so the score bands decide.
func parseLabel(label string) models.SpamCategory {
	switch models.SpamCategory(label) {
	case models.CategoryLegitimate, models.CategorySuspected,
		models.CategoryTelemarketer, models.CategoryScam:
		return models.SpamCategory(label)
	}
	return ""
}
