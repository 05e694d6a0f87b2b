package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vocalyze/client-go/internal/core/config"
	"github.com/vocalyze/client-go/internal/infra/metrics"
)

// Client executes logical requests against the analysis service with
// transparent retries. It is an explicit value built once by the
// composition root and passed to all callers.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	policy         RetryPolicy
	errorThreshold int
	defaultTimeout time.Duration
	uploadTimeout  time.Duration
	maxUploadBytes int64
	logger         *slog.Logger

	// sleep is the backoff wait, replaceable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the underlying HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithSleep replaces the backoff wait function.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = fn
	}
}

// New creates a Client from configuration. The configuration is read once
// here and never re-read mid-flight.
func New(cfg config.APIConfig, retryCfg config.RetryConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy: RetryPolicy{
			MaxRetries: retryCfg.MaxRetries,
			BaseDelay:  retryCfg.BaseDelay,
			MaxDelay:   retryCfg.MaxDelay,
			Jitter:     retryCfg.Jitter,
		},
		errorThreshold: cfg.ErrorThreshold,
		defaultTimeout: cfg.Timeout,
		uploadTimeout:  cfg.UploadTimeout,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         slog.Default(),
		sleep:          sleepContext,
	}

	if c.errorThreshold == 0 {
		c.errorThreshold = http.StatusBadRequest
	}
	// MaxRetries is left alone: zero means no retries. The config loader
	// already applies the documented default of 3 for file-based setups.
	if c.policy.BaseDelay == 0 {
		c.policy.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if c.policy.MaxDelay == 0 {
		c.policy.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	if c.maxUploadBytes == 0 {
		c.maxUploadBytes = 50 << 20
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes one logical request, retrying per policy on retryable
// failures. It returns an envelope iff the final attempt received a
// response with a status below the error threshold; otherwise the
// terminal *ErrorRecord.
func (c *Client) Do(ctx context.Context, desc *RequestDescriptor) (*ResponseEnvelope, error) {
	for {
		env, rec := c.dispatch(ctx, desc)
		if rec == nil {
			metrics.RequestsTotal.WithLabelValues(desc.Method, "success").Inc()
			metrics.RequestDuration.WithLabelValues(desc.Method).Observe(env.Elapsed.Seconds())
			return env, nil
		}

		if !c.policy.ShouldRetry(rec, desc.attempt) {
			metrics.RequestsTotal.WithLabelValues(desc.Method, "error").Inc()
			return nil, rec
		}

		desc.attempt++
		delay := c.policy.DelayFor(desc.attempt)
		metrics.RetriesTotal.WithLabelValues(rec.Kind.String()).Inc()
		c.logger.Debug("retrying request",
			"id", desc.ID,
			"method", desc.Method,
			"path", desc.Path,
			"attempt", desc.attempt,
			"delay", delay,
			"error", rec.Message,
		)

		if err := c.sleep(ctx, delay); err != nil {
			metrics.RequestsTotal.WithLabelValues(desc.Method, "error").Inc()
			return nil, &ErrorRecord{
				Kind:      KindNetwork,
				Message:   "backoff interrupted: " + err.Error(),
				Cause:     err,
				Retryable: false,
			}
		}
	}
}

// DoOnce executes a single attempt with no retries. The connection
// monitor uses it for health probes, which get a fresh attempt on the
// next trigger instead of inline retries.
func (c *Client) DoOnce(ctx context.Context, desc *RequestDescriptor) (*ResponseEnvelope, error) {
	env, rec := c.dispatch(ctx, desc)
	if rec != nil {
		return nil, rec
	}
	return env, nil
}

// dispatch performs one transport attempt and classifies its outcome.
func (c *Client) dispatch(ctx context.Context, desc *RequestDescriptor) (*ResponseEnvelope, *ErrorRecord) {
	timeout := desc.Timeout
	if timeout == 0 {
		timeout = c.defaultTimeout
	}

	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := c.buildRequest(reqCtx, desc)
	if err != nil {
		return nil, &ErrorRecord{
			Kind:      KindGeneric,
			Message:   err.Error(),
			Cause:     err,
			Retryable: false,
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ClassifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// The response was cut off mid-body, same as not receiving one
		return nil, &ErrorRecord{
			Kind:      KindNetwork,
			Message:   "read response: " + err.Error(),
			Cause:     err,
			Retryable: true,
		}
	}

	if resp.StatusCode >= c.errorThreshold {
		return nil, ClassifyStatus(resp.StatusCode, body)
	}

	return &ResponseEnvelope{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Elapsed:    time.Since(start),
		Request:    desc,
	}, nil
}

func (c *Client) buildRequest(ctx context.Context, desc *RequestDescriptor) (*http.Request, error) {
	var body io.Reader
	if len(desc.Body) > 0 {
		body = bytes.NewReader(desc.Body)
		if desc.onProgress != nil {
			body = &progressReader{
				r:          body,
				total:      int64(len(desc.Body)),
				onProgress: desc.onProgress,
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, c.baseURL+desc.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if desc.onProgress != nil {
		req.ContentLength = int64(len(desc.Body))
	}

	req.Header.Set("Accept", "application/json")
	// Multipart and binary bodies carry their own content type (with
	// boundary) or none at all; only set what the descriptor declares.
	if desc.ContentType != "" {
		req.Header.Set("Content-Type", desc.ContentType)
	}
	for k, v := range desc.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*ResponseEnvelope, error) {
	return c.Do(ctx, NewRequest(http.MethodGet, path))
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*ResponseEnvelope, error) {
	desc, err := NewJSONRequest(http.MethodPost, path, body)
	if err != nil {
		return nil, &ErrorRecord{Kind: KindGeneric, Message: err.Error(), Cause: err}
	}
	return c.Do(ctx, desc)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*ResponseEnvelope, error) {
	desc, err := NewJSONRequest(http.MethodPut, path, body)
	if err != nil {
		return nil, &ErrorRecord{Kind: KindGeneric, Message: err.Error(), Cause: err}
	}
	return c.Do(ctx, desc)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*ResponseEnvelope, error) {
	return c.Do(ctx, NewRequest(http.MethodDelete, path))
}

// Options issues an OPTIONS request, used for preflight diagnostics.
func (c *Client) Options(ctx context.Context, path string) (*ResponseEnvelope, error) {
	return c.Do(ctx, NewRequest(http.MethodOptions, path))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
