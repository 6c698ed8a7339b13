package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sstli/attendance-gateway/pkg/config"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

// Doer abstracts *http.Client for testing.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives timing and outcome for each upstream call. The endpoint
// is a fixed logical name per operation, never the request URL: URLs embed
// identifiers, which would blow up label cardinality and leak them into the
// metrics output.
type Observer interface {
	ObserveUpstream(endpoint string, duration time.Duration, err error)
}

// Client is the shared HTTP plumbing for the upstream services. Failures are
// mapped onto the gateway error taxonomy: transport errors and non-2xx
// replies become ErrUpstream, missing lookups become ErrNotFound at the call
// sites that require a hit.
type Client struct {
	httpClient     Doer
	registryBase   string
	studyBase      string
	retryOnNetwork bool
	logger         *zap.Logger
	metrics        Observer
}

// NewClient builds an upstream client from configuration.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		registryBase:   cfg.RegistryBaseURL,
		studyBase:      cfg.StudyBaseURL,
		retryOnNetwork: cfg.RetryOnNetwork,
		logger:         logger,
	}
}

// NewClientWithDoer injects a custom Doer, used by tests.
func NewClientWithDoer(doer Doer, cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	c := NewClient(cfg, logger)
	c.httpClient = doer
	return c
}

// WithMetrics attaches an observer for upstream call timings.
func (c *Client) WithMetrics(observer Observer) *Client {
	c.metrics = observer
	return c
}

func (c *Client) getJSON(ctx context.Context, endpoint, url string, out interface{}) error {
	return c.roundTrip(ctx, endpoint, http.MethodGet, url, nil, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request")
	}
	return c.roundTrip(ctx, endpoint, http.MethodPost, url, payload, out)
}

// roundTrip performs the request, retrying once on a transport error when
// configured. Non-2xx replies are never retried.
func (c *Client) roundTrip(ctx context.Context, endpoint, method, url string, body []byte, out interface{}) error {
	start := time.Now()
	err := c.attempt(ctx, method, url, body, out)
	if c.metrics != nil {
		c.metrics.ObserveUpstream(endpoint, time.Since(start), err)
	}
	return err
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte, out interface{}) error {
	attempts := 1
	if c.retryOnNetwork {
		attempts = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build request")
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			c.logger.Warn("upstream request failed",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		return c.consume(resp, url, out)
	}

	return appErrors.Wrap(lastErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "upstream unreachable")
}

func (c *Client) consume(resp *http.Response, url string, out interface{}) error {
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("upstream returned status %d", resp.StatusCode))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unexpected upstream response shape")
	}
	return nil
}

func (c *Client) registryURL(path string) string {
	return c.registryBase + path
}

func (c *Client) studyURL(path string) string {
	return c.studyBase + path
}
