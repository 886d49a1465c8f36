package password

import (
	"bufio"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/nothinghide/nothinghide/internal/model"
)

const (
	// DefaultRangeURL is the k-anonymity range endpoint. Only a five
	// character hash prefix is ever appended to it.
	DefaultRangeURL = "https://api.pwnedpasswords.com/range"
	// sourceName labels results from the range API.
	sourceName = "Have I Been Pwned"
	// prefixLen is the number of hash characters transmitted; the
	// remaining 35 stay local.
	prefixLen = 5

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "NothingHide/1.0 (Security Exposure Intelligence)"
	maxBodySize      = 5 << 20
	specialRunes     = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// Result reports whether a password was found in the breach corpus and how
// many times it appeared.
type Result struct {
	Exposed bool   `json:"exposed"`
	Count   int    `json:"count"`
	Source  string `json:"source"`
}

// StrengthResult extends Result with a structural strength assessment.
type StrengthResult struct {
	Result
	Strength string   `json:"strength"`
	Score    int      `json:"strength_score"`
	Feedback []string `json:"feedback"`
}

// Checker queries the k-anonymity range API.
type Checker struct {
	baseURL    string
	userAgent  string
	addPadding bool
	httpClient *http.Client
}

// Option configures a Checker.
type Option func(*Checker)

// WithBaseURL overrides the range endpoint. Intended for tests.
func WithBaseURL(u string) Option {
	return func(c *Checker) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithPadding toggles the Add-Padding request header. Padding hides the
// true response size from network observers and is on by default.
func WithPadding(enabled bool) Option {
	return func(c *Checker) { c.addPadding = enabled }
}

// NewChecker creates a Checker with padding enabled.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		baseURL:    DefaultRangeURL,
		userAgent:  defaultUserAgent,
		addPadding: true,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// hashSHA1 returns the uppercase hex SHA-1 of password.
func hashSHA1(password string) string {
	sum := sha1.Sum([]byte(password))
	return strings.ToUpper(fmt.Sprintf("%x", sum))
}

// splitHash separates a full hash into the transmitted prefix and the
// locally compared suffix.
func splitHash(hash string) (prefix, suffix string) {
	return hash[:prefixLen], hash[prefixLen:]
}

// Check reports whether password appears in the breach corpus. It returns
// model.ValidationError for an empty password, model.RateLimitError on 429,
// model.APIError on any other non-200 status, and model.NetworkError on
// transport failure.
func (c *Checker) Check(ctx context.Context, password string) (*Result, error) {
	if password == "" {
		return nil, &model.ValidationError{Field: "password", Message: "password must not be empty"}
	}

	prefix, suffix := splitHash(hashSHA1(password))
	url := c.baseURL + "/" + prefix

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.NetworkError{Message: "building request failed", URL: url}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.addPadding {
		req.Header.Set("Add-Padding", "true")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &model.NetworkError{Message: "Request timed out", URL: url}
		}
		return nil, &model.NetworkError{Message: "Network error occurred", URL: url}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, model.NewRateLimitError(sourceName, 0)
	case resp.StatusCode != http.StatusOK:
		return nil, &model.APIError{
			Source:     sourceName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API returned status %d", resp.StatusCode),
		}
	}

	count, err := scanRange(io.LimitReader(resp.Body, maxBodySize), suffix)
	if err != nil {
		return nil, &model.NetworkError{Message: "reading response failed", URL: url}
	}

	return &Result{
		Exposed: count > 0,
		Count:   count,
		Source:  sourceName,
	}, nil
}

// scanRange scans "SUFFIX:COUNT" lines for the given suffix and returns its
// occurrence count, or 0 when absent. Padding entries carry a count of zero
// and are naturally treated as absent.
func scanRange(r io.Reader, suffix string) (int, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		candidate, countStr, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(candidate), suffix) {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			count = 1
		}
		return count, nil
	}
	return 0, sc.Err()
}

// CheckWithVariants checks password plus common trivial mutations (the
// lowercase form and "1" / "!" suffixes). Variant lookups are best effort:
// their failures are ignored. The returned count is the maximum observed
// across the password and any exposed variant.
func (c *Checker) CheckWithVariants(ctx context.Context, password string) (*Result, error) {
	result, err := c.Check(ctx, password)
	if err != nil {
		return nil, err
	}

	variants := []string{
		strings.ToLower(password),
		password + "1",
		password + "!",
	}
	seen := map[string]bool{password: true}
	for _, v := range variants {
		if seen[v] {
			continue
		}
		seen[v] = true
		res, err := c.Check(ctx, v)
		if err != nil {
			continue
		}
		if res.Exposed {
			result.Exposed = true
			if res.Count > result.Count {
				result.Count = res.Count
			}
		}
	}
	return result, nil
}

// Strength combines the variant-aware exposure check with a structural
// score from 0 to 7 (length tiers at 8, 12, and 16 characters, plus one
// point each for upper, lower, digit, and special characters). An exposed
// password is always labeled COMPROMISED regardless of its score.
func (c *Checker) Strength(ctx context.Context, password string) (*StrengthResult, error) {
	exposure, err := c.CheckWithVariants(ctx, password)
	if err != nil {
		return nil, err
	}

	score, feedback := scorePassword(password)

	var label string
	switch {
	case score <= 2:
		label = "WEAK"
	case score <= 4:
		label = "FAIR"
	case score <= 5:
		label = "GOOD"
	default:
		label = "STRONG"
	}
	if exposure.Exposed {
		label = "COMPROMISED"
		feedback = append([]string{"This password has been exposed in data breaches"}, feedback...)
	}

	return &StrengthResult{
		Result:   *exposure,
		Strength: label,
		Score:    score,
		Feedback: feedback,
	}, nil
}

func scorePassword(password string) (score int, feedback []string) {
	if len(password) >= 8 {
		score++
	} else {
		feedback = append(feedback, "Use at least 8 characters")
	}
	if len(password) >= 12 {
		score++
	}
	if len(password) >= 16 {
		score++
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialRunes, r):
			hasSpecial = true
		}
	}
	if hasUpper {
		score++
	} else {
		feedback = append(feedback, "Add uppercase letters")
	}
	if hasLower {
		score++
	} else {
		feedback = append(feedback, "Add lowercase letters")
	}
	if hasDigit {
		score++
	} else {
		feedback = append(feedback, "Add numbers")
	}
	if hasSpecial {
		score++
	} else {
		feedback = append(feedback, "Add special characters")
	}
	return score, feedback
}
