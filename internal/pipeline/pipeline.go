// Package pipeline executes Aha! API requests with pacing, retry with
// exponential backoff, and failure classification.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/codex-k8s/aha-mcp-server/internal/clock"
	"github.com/codex-k8s/aha-mcp-server/internal/ratelimit"
	"github.com/codex-k8s/aha-mcp-server/internal/security"
)

// ResultOK labels successful attempts and calls for observers.
const ResultOK = "ok"

// Config is the endpoint configuration. It is read-only once New returns.
type Config struct {
	// BaseURL is the API root, e.g. https://example.aha.io/api/v1.
	BaseURL string
	// Credential is the bearer token.
	Credential Credential
	// UserAgent is sent with every request.
	UserAgent string
	// Headers are extra default headers.
	Headers map[string]string
	// Timeout bounds each transport attempt.
	Timeout time.Duration
	// PacingDelay is the minimum spacing between attempts. Zero disables pacing.
	PacingDelay time.Duration
	// Burst is the limiter bucket size.
	Burst int
	// MaxRetries is the retry budget after the first attempt. Zero disables retries.
	MaxRetries int
	// BaseDelay is the first backoff delay.
	BaseDelay time.Duration
	// Multiplier is the backoff growth factor.
	Multiplier float64
	// Jitter randomizes each delay by +/- this fraction.
	Jitter float64
	// MaxDelay caps a single backoff delay.
	MaxDelay time.Duration
	// HonorRetryAfter lets a Retry-After hint stretch the backoff delay.
	HonorRetryAfter bool
}

// DefaultConfig returns the default pacing and retry budget.
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		PacingDelay: 200 * time.Millisecond,
		Burst:       1,
		MaxRetries:  3,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
		MaxDelay:    30 * time.Second,
	}
}

// Observer receives pipeline events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// ObserveWait reports time spent waiting on the rate limiter.
	ObserveWait(d time.Duration)
	// ObserveAttempt reports one transport attempt and its result label.
	ObserveAttempt(method, result string, elapsed time.Duration)
	// ObserveBackoff reports a backoff sleep before a retry.
	ObserveBackoff(method string, kind Kind, delay time.Duration)
	// ObserveCall reports the final outcome of Execute.
	ObserveCall(method, result string, attempts int)
}

type nopObserver struct{}

func (nopObserver) ObserveWait(time.Duration)                   {}
func (nopObserver) ObserveAttempt(string, string, time.Duration) {}
func (nopObserver) ObserveBackoff(string, Kind, time.Duration)   {}
func (nopObserver) ObserveCall(string, string, int)              {}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the clock used for pacing and backoff.
func WithClock(clk clock.Clock) Option {
	return func(p *Pipeline) {
		if clk != nil {
			p.clock = clk
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(p *Pipeline) {
		if doer != nil {
			p.transport.client = doer
		}
	}
}

// WithLimiter shares an existing limiter instead of building one from Config.
func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(p *Pipeline) {
		if limiter != nil {
			p.limiter = limiter
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver sets the event observer.
func WithObserver(observer Observer) Option {
	return func(p *Pipeline) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// Pipeline executes requests against one API root. It is safe for
// concurrent use; all calls share one limiter.
type Pipeline struct {
	cfg       Config
	transport *transport
	limiter   *ratelimit.Limiter
	clock     clock.Clock
	logger    *slog.Logger
	observer  Observer
}

// New validates cfg and builds a pipeline.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(cfg.Headers))
	for key, value := range cfg.Headers {
		headers[key] = value
	}
	p := &Pipeline{
		cfg: cfg,
		transport: &transport{
			baseURL:    cfg.BaseURL,
			credential: cfg.Credential,
			userAgent:  cfg.UserAgent,
			headers:    headers,
			timeout:    cfg.Timeout,
		},
		clock:    clock.Real{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.transport.client == nil {
		p.transport.client = newHTTPClient()
	}
	if p.limiter == nil {
		p.limiter = ratelimit.New(cfg.PacingDelay, cfg.Burst, p.clock)
	}
	return p, nil
}

// Execute runs req until it succeeds, fails with a non-retryable
// classification, or exhausts the retry budget. Failures are returned as
// *Error; a zero Request yields ErrInvalidRequest without any attempt.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Response, error) {
	if !req.valid() {
		return nil, fmt.Errorf("%w: request must be built with NewRequest", ErrInvalidRequest)
	}

	policy := p.newBackOff()
	for attempt := 0; ; attempt++ {
		waited, err := p.limiter.Acquire(ctx)
		p.observer.ObserveWait(waited)
		if err != nil {
			return nil, p.fail(req, canceled(err, attempt))
		}

		started := p.clock.Now()
		raw := p.transport.roundTrip(ctx, req)
		elapsed := p.clock.Now().Sub(started)
		if ctxErr := ctx.Err(); raw.err != nil && ctxErr != nil {
			p.observer.ObserveAttempt(req.method, string(KindNetwork), elapsed)
			return nil, p.fail(req, canceled(ctxErr, attempt+1))
		}

		resp, failure := Classify(raw.status, raw.body, raw.err)
		if failure == nil {
			resp.Header = raw.header
			resp.Attempts = attempt + 1
			p.observer.ObserveAttempt(req.method, ResultOK, elapsed)
			p.observer.ObserveCall(req.method, ResultOK, resp.Attempts)
			p.logger.Debug("aha request ok",
				"method", req.method,
				"path", req.path,
				"status", resp.StatusCode,
				"attempts", resp.Attempts,
			)
			return resp, nil
		}

		failure.Attempts = attempt + 1
		failure.Message = security.ScrubSecret(failure.Message, string(p.cfg.Credential))
		failure.Body = security.ScrubSecretBytes(failure.Body, string(p.cfg.Credential))
		if failure.Kind == KindRateLimited || failure.StatusCode == http.StatusServiceUnavailable {
			failure.RetryAfter = parseRetryAfter(raw.header.Get("Retry-After"), p.clock.Now())
		}
		p.observer.ObserveAttempt(req.method, string(failure.Kind), elapsed)

		if !failure.Retryable {
			return nil, p.fail(req, failure)
		}
		if attempt >= p.cfg.MaxRetries {
			failure.Exhausted = true
			return nil, p.fail(req, failure)
		}

		delay := p.retryDelay(policy, failure)
		p.logger.Warn("aha request retry",
			"method", req.method,
			"path", req.path,
			"attempt", failure.Attempts,
			"kind", failure.Kind,
			"status", failure.StatusCode,
			"delay", delay,
		)
		p.observer.ObserveBackoff(req.method, failure.Kind, delay)
		if err := p.clock.Sleep(ctx, delay); err != nil {
			return nil, p.fail(req, canceled(err, failure.Attempts))
		}
	}
}

func (p *Pipeline) fail(req Request, failure *Error) *Error {
	p.observer.ObserveCall(req.method, string(failure.Kind), failure.Attempts)
	p.logger.Info("aha request failed",
		"method", req.method,
		"path", req.path,
		"kind", failure.Kind,
		"status", failure.StatusCode,
		"attempts", failure.Attempts,
		"exhausted", failure.Exhausted,
	)
	return failure
}

func (p *Pipeline) newBackOff() *backoff.ExponentialBackOff {
	policy := &backoff.ExponentialBackOff{
		InitialInterval:     p.cfg.BaseDelay,
		RandomizationFactor: p.cfg.Jitter,
		Multiplier:          p.cfg.Multiplier,
		MaxInterval:         p.cfg.MaxDelay,
	}
	policy.Reset()
	return policy
}

func (p *Pipeline) retryDelay(policy *backoff.ExponentialBackOff, failure *Error) time.Duration {
	delay := policy.NextBackOff()
	if delay < 0 || delay > p.cfg.MaxDelay {
		delay = p.cfg.MaxDelay
	}
	if p.cfg.HonorRetryAfter && failure.RetryAfter > delay {
		delay = min(failure.RetryAfter, p.cfg.MaxDelay)
	}
	return delay
}

func canceled(err error, attempts int) *Error {
	message := "request canceled"
	if errors.Is(err, context.DeadlineExceeded) {
		message = "request deadline exceeded"
	}
	return &Error{
		Kind:     KindNetwork,
		Message:  message,
		Attempts: attempts,
		cause:    err,
	}
}

func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func normalizeConfig(cfg Config) (Config, error) {
	defaults := DefaultConfig()

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Config{}, fmt.Errorf("base url %q must be an absolute http(s) url", cfg.BaseURL)
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return Config{}, fmt.Errorf("base url %q must not carry a query or fragment", cfg.BaseURL)
	}
	cfg.BaseURL = base

	if cfg.Credential.Empty() {
		return Config{}, errors.New("credential is required")
	}
	switch {
	case cfg.Timeout < 0:
		return Config{}, errors.New("timeout must be >= 0")
	case cfg.PacingDelay < 0:
		return Config{}, errors.New("pacing delay must be >= 0")
	case cfg.MaxRetries < 0:
		return Config{}, errors.New("max retries must be >= 0")
	case cfg.BaseDelay < 0:
		return Config{}, errors.New("base delay must be >= 0")
	case cfg.MaxDelay < 0:
		return Config{}, errors.New("max delay must be >= 0")
	case cfg.Multiplier != 0 && cfg.Multiplier < 1:
		return Config{}, errors.New("backoff multiplier must be >= 1")
	case cfg.Jitter < 0 || cfg.Jitter >= 1:
		return Config{}, errors.New("jitter must be in [0, 1)")
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Burst < 1 {
		cfg.Burst = defaults.Burst
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = defaults.BaseDelay
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = defaults.Multiplier
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return cfg, nil
}
