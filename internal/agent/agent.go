package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"

	"github.com/nothinghide/nothinghide/internal/correlate"
	"github.com/nothinghide/nothinghide/internal/model"
	"github.com/nothinghide/nothinghide/internal/ratelimit"
	"github.com/nothinghide/nothinghide/internal/source"
)

const (
	// DefaultTimeout bounds one source's entire query, limiter waits and
	// retry backoff included.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxConcurrentSources caps simultaneous in-flight source
	// requests across all Check and CheckBatch calls.
	DefaultMaxConcurrentSources = 10
	// DefaultMaxRetries is the number of additional attempts after the
	// first failed request to a source.
	DefaultMaxRetries = 2
	// DefaultBatchConcurrency caps simultaneous emails in CheckBatch.
	DefaultBatchConcurrency = 3
)

// Config controls orchestration behavior. The zero value is usable; New
// fills in defaults for unset fields.
type Config struct {
	// Timeout is the deadline applied to each source's whole retry
	// sequence, covering rate-limit waits and backoff sleeps.
	Timeout time.Duration
	// MaxConcurrentSources caps in-flight source requests globally.
	MaxConcurrentSources int
	// MaxRetriesPerSource is the retry budget for each source per check.
	MaxRetriesPerSource int
	// XposedOrNotAPIKey optionally authenticates XposedOrNot requests.
	XposedOrNotAPIKey string
	// UserAgent overrides the User-Agent header sent to sources.
	UserAgent string
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxConcurrentSources <= 0 {
		c.MaxConcurrentSources = DefaultMaxConcurrentSources
	}
	if c.MaxRetriesPerSource < 0 {
		c.MaxRetriesPerSource = DefaultMaxRetries
	}
}

// Agent queries all configured breach data sources concurrently and
// correlates their findings into a single canonical result.
type Agent struct {
	cfg     Config
	sources []source.Client
	engine  *correlate.Engine
	limiter *ratelimit.Limiter
	retry   *ratelimit.RetryStrategy
	metrics *Metrics
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the structured logger. The default discards nothing but
// writes at the slog default level.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSources replaces the default source set.
func WithSources(clients ...source.Client) Option {
	return func(a *Agent) { a.sources = clients }
}

// WithEngine replaces the default correlation engine.
func WithEngine(e *correlate.Engine) Option {
	return func(a *Agent) {
		if e != nil {
			a.engine = e
		}
	}
}

// WithLimiter replaces the default rate limiter, e.g. to apply per-source
// window budgets from the config file.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(a *Agent) {
		if l != nil {
			a.limiter = l
		}
	}
}

// WithRetryStrategy replaces the default retry strategy.
func WithRetryStrategy(r *ratelimit.RetryStrategy) Option {
	return func(a *Agent) {
		if r != nil {
			a.retry = r
		}
	}
}

// New creates an Agent with the default six-source set, unless WithSources
// overrides it.
func New(cfg Config, opts ...Option) *Agent {
	cfg.applyDefaults()

	a := &Agent{
		cfg:     cfg,
		engine:  correlate.NewEngine(),
		retry:   ratelimit.NewRetryStrategy(cfg.MaxRetriesPerSource),
		metrics: NewMetrics(),
		logger:  slog.Default(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.limiter == nil {
		a.limiter = ratelimit.NewLimiter(cfg.MaxConcurrentSources,
			ratelimit.WithLimiterLogger(a.logger))
	}
	if a.sources == nil {
		var srcOpts []source.Option
		if cfg.UserAgent != "" {
			srcOpts = append(srcOpts, source.WithUserAgent(cfg.UserAgent))
		}
		srcOpts = append(srcOpts, source.WithTimeout(cfg.Timeout))
		a.sources = source.All(cfg.XposedOrNotAPIKey, srcOpts...)
	}
	return a
}

// Check validates email, queries every available source concurrently, and
// returns the correlated result. It returns model.ValidationError for
// malformed input before any network activity, and model.NetworkError when
// every source failed and nothing can be concluded.
func (a *Agent) Check(ctx context.Context, email string) (*model.CorrelatedResult, error) {
	normalized, domain, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}

	a.logger.Info("checking email", "email", normalized, "sources", len(a.sources))

	// Each source runs to completion independently; a failing sibling must
	// not cancel the rest, so no shared errgroup context is derived.
	results := make([]*model.SourceResult, len(a.sources))
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = a.querySource(ctx, src, normalized)
			return nil
		})
	}
	_ = g.Wait()

	correlated := a.engine.Correlate(results, normalized)
	correlated.Domain = domain
	a.metrics.RecordQuery(correlated)

	if correlated.Inconclusive() {
		a.logger.Warn("all sources failed", "email", normalized,
			"failed", correlated.SourcesFailed)
		return nil, &model.NetworkError{
			Message: fmt.Sprintf("all %d breach data sources failed", len(a.sources)),
		}
	}

	a.logger.Info("check complete", "email", normalized,
		"breached", correlated.Breached,
		"breach_count", correlated.BreachCount,
		"risk_score", correlated.RiskScore,
		"succeeded", len(correlated.SourcesSucceeded),
		"failed", len(correlated.SourcesFailed))
	return correlated, nil
}

// CheckBatch checks several emails with bounded concurrency. Every input
// yields exactly one result at the matching index; a failed element carries
// its error in the result's Error field and never aborts the batch.
func (a *Agent) CheckBatch(ctx context.Context, emails []string, maxConcurrent int) []*model.CorrelatedResult {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultBatchConcurrency
	}

	results := make([]*model.CorrelatedResult, len(emails))
	var g errgroup.Group
	g.SetLimit(maxConcurrent)
	for i, email := range emails {
		g.Go(func() error {
			res, err := a.Check(ctx, email)
			if err != nil {
				res = &model.CorrelatedResult{
					Email:     email,
					Error:     err.Error(),
					Timestamp: time.Now(),
				}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// SourceStatus reports per-source availability, priority, and health.
type SourceStatus struct {
	Available     bool                 `json:"available"`
	Priority      int                  `json:"priority"`
	PriorityScore float64              `json:"priority_score"`
	Health        model.HealthSnapshot `json:"health"`
}

// SourceStatus returns the current status of every configured source,
// keyed by source name.
func (a *Agent) SourceStatus() map[string]SourceStatus {
	status := make(map[string]SourceStatus, len(a.sources))
	for _, src := range a.sources {
		status[src.Name()] = SourceStatus{
			Available:     src.Available(),
			Priority:      src.Priority(),
			PriorityScore: src.PriorityScore(),
			Health:        src.Health().Snapshot(),
		}
	}
	return status
}

// Metrics returns a snapshot of aggregate agent metrics.
func (a *Agent) Metrics() MetricsSnapshot {
	return a.metrics.Snapshot()
}

// Sources returns the configured source clients in priority order.
func (a *Agent) Sources() []source.Client {
	return a.sources
}

// querySource runs one source to completion: availability gate, rate limiter
// acquire/release, and retries with exponential backoff. The whole sequence
// shares one deadline so a rate-limited source cannot hold the fan-out past
// the configured timeout. It always returns a non-nil result.
func (a *Agent) querySource(ctx context.Context, src source.Client, email string) *model.SourceResult {
	if !src.Available() {
		return failedResult(src.Name(), "source unavailable")
	}

	srcCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var last *model.SourceResult
	for attempt := 0; ; attempt++ {
		ok, err := a.limiter.Acquire(srcCtx, src.Name())
		if err != nil {
			return failedResult(src.Name(), expiryMessage(ctx))
		}
		if !ok {
			return failedResult(src.Name(), "Rate limit exceeded")
		}

		res := src.Fetch(srcCtx, email)
		a.limiter.Release(src.Name(), res.Success(), res.RateLimited, res.RetryAfter)

		if res.Success() {
			return res
		}
		last = res

		if !a.retry.ShouldRetry(attempt, errors.New(res.Error)) {
			break
		}
		delay := a.retry.Delay(attempt)
		a.logger.Debug("retrying source", "source", src.Name(),
			"attempt", attempt+1, "delay", delay, "error", res.Error)
		if err := a.sleep(srcCtx, delay); err != nil {
			return failedResult(src.Name(), expiryMessage(ctx))
		}
	}
	return last
}

// expiryMessage reports why a source's context expired: the caller cancelled
// the check, or the per-source timeout ran out.
func expiryMessage(parent context.Context) string {
	if parent.Err() != nil {
		return "Check cancelled"
	}
	return "Request timed out"
}

// ValidateEmail checks structural validity and returns the normalized
// address (domain lowercased) and its registrable domain (eTLD+1). The
// returned error, when non-nil, is a *model.ValidationError.
func ValidateEmail(email string) (normalized, domain string, err error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", "", &model.ValidationError{Field: "email", Message: "email must not be empty"}
	}

	addr, parseErr := mail.ParseAddress(trimmed)
	if parseErr != nil || addr.Address != trimmed {
		return "", "", &model.ValidationError{
			Field:   "email",
			Message: fmt.Sprintf("invalid email address: %s", trimmed),
		}
	}

	at := strings.LastIndex(trimmed, "@")
	local, host := trimmed[:at], strings.ToLower(trimmed[at+1:])
	if !strings.Contains(host, ".") {
		return "", "", &model.ValidationError{
			Field:   "email",
			Message: fmt.Sprintf("email domain %q has no top-level domain", host),
		}
	}

	normalized = local + "@" + host
	if etld, psErr := publicsuffix.EffectiveTLDPlusOne(host); psErr == nil {
		domain = etld
	} else {
		domain = host
	}
	return normalized, domain, nil
}

func failedResult(name, msg string) *model.SourceResult {
	return &model.SourceResult{
		SourceName: name,
		Error:      msg,
		Timestamp:  time.Now(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
