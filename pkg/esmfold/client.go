// Package esmfold provides a client for the ESM Metagenomic Atlas folding API.
package esmfold

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/proviewer/internal/resilience"
)

const (
	defaultBaseURL = "https://api.esmatlas.com"
	foldPath       = "/foldSequence/v1/pdb/"
	serviceName    = "esmfold"
)

// Client folds amino-acid sequences into PDB structures.
type Client interface {
	// Fold submits sequence and returns the predicted structure as PDB text.
	Fold(ctx context.Context, sequence string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit limits outbound requests to rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetry sets the retry policy. The default makes a single attempt.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates an ESMFold client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		retry:   resilience.NewRetryConfig(1),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger(serviceName)
	}
	return c
}

func (c *httpClient) Fold(ctx context.Context, sequence string) (string, error) {
	return resilience.Do(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.fold(ctx, sequence)
	})
}

func (c *httpClient) fold(ctx context.Context, sequence string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "esmfold: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+foldPath, strings.NewReader(sequence))
	if err != nil {
		return "", eris.Wrap(err, "esmfold: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "esmfold: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "esmfold: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &resilience.StatusError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if len(body) == 0 {
		return "", eris.New("esmfold: empty response body")
	}
	if !utf8.Valid(body) {
		return "", eris.New("esmfold: response is not valid UTF-8")
	}

	zap.L().Debug("esmfold: folded sequence",
		zap.Int("sequence_len", len(sequence)),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return string(body), nil
}
