package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/tracing"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "animation-api"

// Recorder receives call metrics.
type Recorder interface {
	RecordServiceCall(service, method, status string, duration time.Duration)
	RecordServiceError(service, method, errorType string)
}

type nopRecorder struct{}

func (nopRecorder) RecordServiceCall(string, string, string, time.Duration) {}
func (nopRecorder) RecordServiceError(string, string, string)               {}

// Config configures the animation service client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	RPS       float64
	UserAgent string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:3000/api",
		Timeout:   60 * time.Second,
		Retries:   2,
		RetryWait: 500 * time.Millisecond,
		RPS:       5,
		UserAgent: "sketchbox/1.0",
	}
}

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource func() string

// Client talks to the animation service.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	metrics Recorder
	log     *logging.Logger

	mu    sync.RWMutex
	token TokenSource
}

// Option customizes a Client.
type Option func(*Client)

// WithMetrics records every call.
func WithMetrics(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.metrics = r
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(l).Named("client") }
}

// WithTokenSource attaches a bearer token to requests.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// New creates a client. Transport errors and 5xx responses are retried by
// go-retryablehttp; repeated failures open a circuit breaker.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = def.RetryWait
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(cfg.Retries, 0)
	retryClient.RetryWaitMin = cfg.RetryWait
	retryClient.RetryWaitMax = 10 * cfg.RetryWait
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		limiter: rate.NewLimiter(rate.Inf, 0),
		metrics: nopRecorder{},
		log:     logging.NewNop(),
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(int(cfg.RPS), 1))
	}
	c.breaker = resilience.New(serviceName, resilience.Settings{
		Probes:    2,
		Window:    time.Minute,
		Cooldown:  30 * time.Second,
		IsFailure: isBreakerFailure,
		Trip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			c.log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	for _, opt := range opts {
		opt(c)
	}

	c.resty = resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		OnBeforeRequest(c.decorate)

	return c
}

// SetTokenSource replaces the bearer token source.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ts
}

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *Client) decorate(_ *resty.Client, req *resty.Request) error {
	tracing.Inject(req.Context(), req.Header)

	c.mu.RLock()
	ts := c.token
	c.mu.RUnlock()
	if ts != nil {
		if token := ts(); token != "" {
			req.SetAuthToken(token)
		}
	}
	return nil
}

// do sends one request through the limiter and breaker and decodes a JSON
// body into out. Non-2xx responses become RequestFailure.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (int, error) {
	start := time.Now()
	status := 0

	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}

		req := c.resty.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}
		if out != nil {
			req.SetResult(out)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return &RequestFailure{Op: op, Err: err}
		}
		status = resp.StatusCode()
		if resp.IsError() || status < 200 || status >= 300 {
			return &RequestFailure{Op: op, Status: status}
		}
		return nil
	})

	c.observe(op, status, start, err)
	return status, err
}

func (c *Client) observe(op string, status int, start time.Time, err error) {
	label := "success"
	if err != nil {
		label = "error"
		kind := "transport"
		switch {
		case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
			kind = "circuit_open"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			kind = "canceled"
		case status >= 500:
			kind = "server"
		case status >= 400:
			kind = "client"
		}
		c.metrics.RecordServiceError(serviceName, op, kind)
		c.log.Debug("animation service call failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.metrics.RecordServiceCall(serviceName, op, label, time.Since(start))
}
