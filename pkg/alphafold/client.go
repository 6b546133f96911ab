// Package alphafold provides a client for downloading predicted models from the
// AlphaFold Protein Structure Database.
package alphafold

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/proviewer/internal/resilience"
)

const (
	defaultBaseURL      = "https://alphafold.ebi.ac.uk"
	defaultModelVersion = 4
	serviceName         = "alphafold"
)

// Client downloads AlphaFold DB model files.
type Client interface {
	// FetchModel downloads the mmCIF model for a UniProt accession.
	FetchModel(ctx context.Context, accession string) (*Model, error)
}

// Model is a downloaded AlphaFold DB model file.
type Model struct {
	Accession string
	FileName  string
	URL       string
	Content   string
}

// FileName returns the AlphaFold DB file name for accession at version.
func FileName(accession string, version int) string {
	return fmt.Sprintf("AF-%s-F1-model_v%d.cif", accession, version)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the database base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithModelVersion selects the model file version.
func WithModelVersion(v int) Option {
	return func(c *httpClient) {
		if v > 0 {
			c.version = v
		}
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
			c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	version int
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates an AlphaFold DB client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		version: defaultModelVersion,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		retry:   resilience.NewRetryConfig(2),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger(serviceName)
	}
	return c
}

func (c *httpClient) modelURL(accession string) string {
	return c.baseURL + "/files/" + url.PathEscape(FileName(accession, c.version))
}

func (c *httpClient) FetchModel(ctx context.Context, accession string) (*Model, error) {
	modelURL := c.modelURL(accession)
	content, err := resilience.Do(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.get(ctx, modelURL)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("alphafold: fetched model",
		zap.String("accession", accession),
		zap.Int("bytes", len(content)),
	)
	return &Model{
		Accession: accession,
		FileName:  FileName(accession, c.version),
		URL:       modelURL,
		Content:   content,
	}, nil
}

func (c *httpClient) get(ctx context.Context, rawURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "alphafold: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "alphafold: create request")
	}
	req.Header.Set("Accept", "chemical/x-mmcif, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "alphafold: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "alphafold: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &resilience.StatusError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !utf8.Valid(body) {
		return "", eris.New("alphafold: response is not valid UTF-8")
	}
	return string(body), nil
}
