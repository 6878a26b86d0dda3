// Package classifier calls an external safety-classification service and
// turns flagged spans into prompt-injection findings.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/boshu2/taskguard/internal/finding"
)

// RulePrefix prefixes the rule of every classifier finding.
const RulePrefix = "classifier:"

// ErrUnexpectedStatus is returned for a non-2xx classifier response.
var ErrUnexpectedStatus = errors.New("unexpected classifier status")

// Span is one region the service flagged.
type Span struct {
	Label string `json:"label"`
	Line  int    `json:"line"`
	Text  string `json:"text"`
}

// Response is the service's verdict for one text.
type Response struct {
	Flagged bool   `json:"flagged"`
	Spans   []Span `json:"spans"`
}

type request struct {
	Text string `json:"text"`
}

// Options configures a Client.
type Options struct {
	URL           string
	Timeout       time.Duration
	RatePerSecond float64
	Retries       int
	Logger        hclog.Logger

	// Redact masks secrets in excerpts taken from flagged spans.
	Redact func(string) string
}

// Client talks to the classification service.
type Client struct {
	httpc   *resty.Client
	url     string
	limiter *RateLimiter
	logger  hclog.Logger
	redact  func(string) string
}

// New builds a client from opts.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	httpc := resty.New()
	httpc.SetLogger(NewHclogAdapter(logger))
	httpc.
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		httpc:   httpc,
		url:     opts.URL,
		limiter: NewRateLimiter(opts.RatePerSecond, 1),
		logger:  logger,
		redact:  opts.Redact,
	}
}

// Classify sends text to the service.
func (c *Client) Classify(ctx context.Context, text string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var r Response
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(request{Text: text}).
		SetResult(&r).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}
	return &r, nil
}

// Findings classifies text and converts flagged spans to Critical
// prompt-injection findings with lines relative to text. Failures are logged
// and yield no findings.
func (c *Client) Findings(ctx context.Context, text string) []finding.Finding {
	r, err := c.Classify(ctx, text)
	if err != nil {
		c.logger.Warn("classifier unavailable, skipping", "error", err)
		return nil
	}
	if !r.Flagged {
		return nil
	}

	out := make([]finding.Finding, 0, len(r.Spans))
	for _, s := range r.Spans {
		loc := finding.InSection("body")
		if s.Line > 0 {
			loc = finding.AtLine(s.Line)
		}
		excerpt := s.Text
		if c.redact != nil {
			excerpt = c.redact(excerpt)
		}
		label := s.Label
		if label == "" {
			label = "flagged"
		}
		out = append(out, finding.New(
			finding.KindPromptInjection,
			finding.SeverityCritical,
			loc,
			RulePrefix+label,
			"flagged by safety classifier: "+label,
			excerpt,
		))
	}
	return out
}
