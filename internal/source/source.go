package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nothinghide/nothinghide/internal/model"
)

// Defaults shared by all source clients.
const (
	// DefaultTimeout is the per-request timeout for source calls. The free
	// provider tiers are slow; anything past this is treated as down.
	DefaultTimeout = 10 * time.Second

	// maxBodySize limits the response body size to read. Provider responses
	// are small; anything larger is hostile or broken.
	maxBodySize = 5 * 1024 * 1024

	// latencyPenaltyCeiling is the latency (ms) at which the priority-score
	// penalty saturates at 0.5.
	latencyPenaltyCeiling = 5000
)

// errTimedOut standardizes the timeout message across clients so health
// tracking and reports treat all timeouts alike.
const errTimedOut = "Request timed out"

// Client is the uniform interface over one external breach API.
//
// Design decision: an interface with one fetch method plus static metadata,
// with each provider a distinct implementing type. This keeps provider
// variance (URL, auth, JSON shape) in the concrete types and lets the
// orchestrator treat all sources identically.
type Client interface {
	// Fetch queries the provider for the given email. It never returns a Go
	// error: HTTP and validation failures are captured in the result, and
	// the client's own health state is updated as a side effect.
	Fetch(ctx context.Context, email string) *model.SourceResult

	// Name returns the provider identifier.
	Name() string

	// Priority returns the static base priority (higher is better).
	Priority() int

	// Available reports whether the source should be included in a fan-out.
	Available() bool

	// PriorityScore ranks the source by base priority, health status,
	// latency, and success rate. It weights sources, never excludes them.
	PriorityScore() float64

	// Health exposes the rolling reliability state for introspection.
	Health() *model.SourceHealth
}

// base carries the plumbing shared by every concrete client: HTTP transport,
// identity headers, health tracking, and the canonical status-code handling.
type base struct {
	name           string
	priority       int
	urlTemplate    string
	requiresAPIKey bool
	apiKey         string
	userAgent      string
	httpClient     *http.Client
	health         *model.SourceHealth

	// notFoundStatuses are treated as clean "not breached" responses.
	// 404 for everyone; some providers also use 400.
	notFoundStatuses map[int]bool
}

// Option configures a source client.
type Option func(*base)

// WithHTTPClient replaces the HTTP client. Tests use this together with
// WithBaseURL to point clients at httptest servers.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) {
		b.httpClient = c
	}
}

// WithBaseURL overrides the provider URL template. The template must contain
// exactly one %s verb for the escaped email.
func WithBaseURL(template string) Option {
	return func(b *base) {
		b.urlTemplate = template
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(b *base) {
		b.userAgent = ua
	}
}

// WithAPIKey sets the provider API key for clients that accept one.
func WithAPIKey(key string) Option {
	return func(b *base) {
		b.apiKey = key
	}
}

// WithTimeout sets the per-request timeout on the client's transport.
func WithTimeout(d time.Duration) Option {
	return func(b *base) {
		b.httpClient.Timeout = d
	}
}

// newBase constructs the shared client state with defaults applied.
func newBase(name string, priority int, urlTemplate string, opts ...Option) base {
	b := base{
		name:             name,
		priority:         priority,
		urlTemplate:      urlTemplate,
		userAgent:        "NothingHide/1.0 (Security Exposure Intelligence)",
		httpClient:       &http.Client{Timeout: DefaultTimeout},
		health:           model.NewSourceHealth(),
		notFoundStatuses: map[int]bool{http.StatusNotFound: true},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Name returns the provider identifier.
func (b *base) Name() string { return b.name }

// Priority returns the static base priority.
func (b *base) Priority() int { return b.priority }

// Health exposes the rolling reliability state.
func (b *base) Health() *model.SourceHealth { return b.health }

// Available reports whether the source can be queried right now. Sources
// that require an API key are unavailable without one; otherwise the health
// state machine decides.
func (b *base) Available() bool {
	if b.requiresAPIKey && b.apiKey == "" {
		return false
	}
	return b.health.IsAvailable()
}

// PriorityScore computes
//
//	basePriority × statusMultiplier × (1 − min(avgLatency/5000ms, 0.5)) × successRate
//
// so slow or flaky sources sink without being dropped.
func (b *base) PriorityScore() float64 {
	score := float64(b.priority)
	score *= b.health.StatusMultiplier()

	penalty := b.health.AvgResponseTimeMS() / latencyPenaltyCeiling
	if penalty > 0.5 {
		penalty = 0.5
	}
	score *= 1 - penalty

	return score * b.health.SuccessRate()
}

// parseFunc maps a provider's 200-response body into the canonical breach
// list. Returning an error marks the call failed; a provider whose broken
// payloads should count as clean handles that inside its parser.
type parseFunc func(body []byte) (breached bool, breaches []model.Breach, err error)

// fetch performs one GET against the provider and applies the shared
// status-code contract. All outcomes, including transport errors and
// timeouts, are converted into a SourceResult; health is recorded on the way
// out.
func (b *base) fetch(ctx context.Context, email string, headers map[string]string, parse parseFunc) *model.SourceResult {
	reqURL := fmt.Sprintf(b.urlTemplate, url.PathEscape(email))
	start := time.Now()

	fail := func(msg string) *model.SourceResult {
		b.health.RecordFailure(false, 0)
		return &model.SourceResult{
			SourceName:     b.name,
			Error:          msg,
			ResponseTimeMS: msSince(start),
			Timestamp:      time.Now(),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fail(err.Error())
	}
	req.Header.Set("User-Agent", b.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fail(errTimedOut)
		}
		return fail(err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		b.health.RecordFailure(true, retryAfter)
		return &model.SourceResult{
			SourceName:     b.name,
			Error:          "Rate limited",
			RateLimited:    true,
			RetryAfter:     retryAfter,
			ResponseTimeMS: msSince(start),
			Timestamp:      time.Now(),
		}

	case b.notFoundStatuses[resp.StatusCode]:
		// Not found means not breached, which is a successful answer.
		b.health.RecordSuccess(msSince(start))
		return &model.SourceResult{
			SourceName:     b.name,
			ResponseTimeMS: msSince(start),
			Timestamp:      time.Now(),
		}

	case resp.StatusCode != http.StatusOK:
		return fail(fmt.Sprintf("API returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fail(err.Error())
	}

	breached, breaches, err := parse(body)
	if err != nil {
		return fail(err.Error())
	}

	b.health.RecordSuccess(msSince(start))
	return &model.SourceResult{
		SourceName:     b.name,
		Breached:       breached,
		Breaches:       breaches,
		ResponseTimeMS: msSince(start),
		Timestamp:      time.Now(),
	}
}

// msSince returns elapsed wall-clock time in milliseconds.
func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

// isTimeout reports whether the transport error is a timeout.
func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter parses a Retry-After header given in seconds.
// HTTP-date values are rare on these APIs and are ignored.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// All returns the full configured source set, sorted by descending static
// priority. The opts apply to every client; per-client options (API keys)
// are wired by the caller.
func All(xposedOrNotAPIKey string, opts ...Option) []Client {
	xonOpts := opts
	if xposedOrNotAPIKey != "" {
		xonOpts = append(append([]Option(nil), opts...), WithAPIKey(xposedOrNotAPIKey))
	}

	return []Client{
		NewLeakCheck(opts...),
		NewXposedOrNot(xonOpts...),
		NewHackCheck(opts...),
		NewXposedOrNotAnalytics(opts...),
		NewEmailRep(opts...),
		NewDeXpose(opts...),
	}
}
