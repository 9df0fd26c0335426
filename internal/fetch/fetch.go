// Package fetch downloads text datasets over HTTP with a fixed attempt budget.
//
// Every failure counts as one attempt and is retried immediately, whatever
// its cause: transport errors, non-2xx statuses, truncated bodies and bodies
// that do not decode in the declared encoding are all treated alike.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgrafuwsp/COVIDer/internal/table"
)

// Defaults for Config fields left zero.
const (
	DefaultMaxAttempts = 10
	DefaultTimeout     = 60 * time.Second
	DefaultUserAgent   = "COVIDer/1.0 (+https://github.com/dgrafuwsp/COVIDer)"
)

// Status classifies a fetch result.
type Status string

// Fetch statuses.
const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Config controls a Client.
type Config struct {
	MaxAttempts int
	Timeout     time.Duration
	UserAgent   string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Result is the outcome of one Fetch call.
type Result struct {
	URL      string
	Lines    []string
	Attempts int
	Status   Status
	Err      error
}

// OK reports whether the fetch produced lines.
func (r *Result) OK() bool { return r.Status == StatusOK }

// Client performs bounded-retry GET requests.
type Client struct {
	http        *http.Client
	maxAttempts int
	userAgent   string
	logger      *slog.Logger
}

// New creates a Client. A nil logger discards log output.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:        hc,
		maxAttempts: cfg.MaxAttempts,
		userAgent:   cfg.UserAgent,
		logger:      logger,
	}
}

// MaxAttempts returns the attempt budget per URL.
func (c *Client) MaxAttempts() int { return c.maxAttempts }

// Fetch downloads url as UTF-8 text.
func (c *Client) Fetch(ctx context.Context, url string) *Result {
	return c.FetchEncoded(ctx, url, EncodingUTF8)
}

// FetchEncoded downloads url, decodes the body with enc and splits it into
// lines. It tries at most MaxAttempts times with no delay between attempts.
// When the budget is spent the result is StatusFailed and Err is an
// *AttemptsError wrapping the last failure. A cancelled context stops the
// loop before the next attempt.
func (c *Client) FetchEncoded(ctx context.Context, url string, enc Encoding) *Result {
	res := &Result{URL: url, Status: StatusFailed}

	var last error
	for res.Attempts < c.maxAttempts {
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("fetch %s: %w", url, err)
			return res
		}

		res.Attempts++
		text, err := c.get(ctx, url, enc)
		if err != nil {
			last = err
			c.logger.Debug("fetch attempt failed",
				slog.String("url", url),
				slog.Int("attempt", res.Attempts),
				slog.String("error", err.Error()))
			continue
		}

		res.Lines = table.SplitLines(text)
		if len(res.Lines) == 0 {
			res.Status = StatusEmpty
		} else {
			res.Status = StatusOK
		}
		c.logger.Debug("fetched",
			slog.String("url", url),
			slog.Int("attempts", res.Attempts),
			slog.Int("lines", len(res.Lines)))
		return res
	}

	res.Err = &AttemptsError{URL: url, Attempts: res.Attempts, Last: last}
	c.logger.Warn("giving up on download",
		slog.String("url", url),
		slog.Int("attempts", res.Attempts),
		slog.String("error", fmt.Sprint(last)))
	return res
}

func (c *Client) get(ctx context.Context, url string, enc Encoding) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused by the next attempt.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return enc.Decode(body)
}
