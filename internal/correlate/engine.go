package correlate

import (
	"sort"
	"strings"
	"time"

	"github.com/nothinghide/nothinghide/internal/model"
)

// Risk score weights. Each signal is capped before summation and the final
// score is clamped to [0, 100]. These exact values are load-bearing: reports
// and stored history compare against them.
const (
	breachCountWeight = 5
	breachCountCap    = 40
	recentBreachBonus = 15
	recentYears       = 2
	sensitiveBonus    = 10
	highConfidence    = 0.5
	highConfBonus     = 5
	maxRiskScore      = 100
)

// singleSourceConfidence is the confidence assigned when only one source has
// reported a breach.
const singleSourceConfidence = 0.33

// sensitiveDataClasses are the data classes that raise the risk score when
// exposed. Matched case-insensitively against provider class names.
var sensitiveDataClasses = map[string]bool{
	"password":    true,
	"passwords":   true,
	"financial":   true,
	"credit card": true,
	"ssn":         true,
	"health":      true,
}

// Engine merges per-source breach records into canonical breaches keyed by
// normalized name and computes the aggregate risk score.
//
// Engines are stateless apart from the alias table and safe for concurrent
// use.
type Engine struct {
	// aliases maps already-normalized names onto their canonical form,
	// collapsing provider-specific naming variance.
	aliases map[string]string

	// now is stubbed in tests to pin the "recent breach" window.
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's clock. Recency scoring depends on the
// current year, so tests pin it.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithAlias adds a breach-name alias. Both arguments must already be in
// normalized form.
func WithAlias(from, to string) Option {
	return func(e *Engine) {
		e.aliases[from] = to
	}
}

// NewEngine creates a correlation engine with the built-in alias table.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		aliases: map[string]string{
			"adobesystems": "adobe",
			"linkedincom":  "linkedin",
			"dropboxcom":   "dropbox",
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// normalizeWithAliases produces the merge key for a raw breach name.
func (e *Engine) normalizeWithAliases(name string) string {
	normalized := NormalizeBreachName(name)
	if canonical, ok := e.aliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// Correlate merges the breach records of all successful source results into a
// single CorrelatedResult for the given email. Failed results contribute only
// to SourcesFailed and the total response time; their breach lists are
// ignored.
func (e *Engine) Correlate(results []*model.SourceResult, email string) *model.CorrelatedResult {
	merged := make(map[string]*model.CorrelatedBreach)
	sourcesQueried := make([]string, 0, len(results))
	sourcesSucceeded := make([]string, 0, len(results))
	sourcesFailed := make([]string, 0)
	totalResponseTime := 0.0

	for _, result := range results {
		sourcesQueried = append(sourcesQueried, result.SourceName)
		totalResponseTime += result.ResponseTimeMS

		if !result.Success() {
			sourcesFailed = append(sourcesFailed, result.SourceName)
			continue
		}
		sourcesSucceeded = append(sourcesSucceeded, result.SourceName)

		for _, breach := range result.Breaches {
			name := breach.Name
			if name == "" {
				name = "Unknown"
			}
			key := e.normalizeWithAliases(name)

			if existing, ok := merged[key]; ok {
				e.mergeInto(existing, breach, result.SourceName)
				continue
			}

			merged[key] = &model.CorrelatedBreach{
				Name:           name,
				NormalizedName: key,
				Date:           breach.Date,
				Year:           ExtractYear(breach.Date),
				DataClasses:    append([]string(nil), breach.DataClasses...),
				Description:    breach.Description,
				RecordsExposed: breach.RecordsExposed,
				Sources:        []string{result.SourceName},
				Confidence:     singleSourceConfidence,
			}
		}
	}

	breaches := make([]*model.CorrelatedBreach, 0, len(merged))
	for _, b := range merged {
		breaches = append(breaches, b)
	}

	// Most recent year first; within a year, lexicographically later names
	// first. Breaches without a year sort last.
	sort.Slice(breaches, func(i, j int) bool {
		if breaches[i].Year != breaches[j].Year {
			return breaches[i].Year > breaches[j].Year
		}
		return breaches[i].Name > breaches[j].Name
	})

	averageConfidence := 0.0
	if len(breaches) > 0 {
		sum := 0.0
		for _, b := range breaches {
			sum += b.Confidence
		}
		averageConfidence = sum / float64(len(breaches))
	}

	return &model.CorrelatedResult{
		Email:               email,
		Breached:            len(breaches) > 0,
		BreachCount:         len(breaches),
		Breaches:            breaches,
		SourcesQueried:      sourcesQueried,
		SourcesSucceeded:    sourcesSucceeded,
		SourcesFailed:       sourcesFailed,
		TotalResponseTimeMS: totalResponseTime,
		AverageConfidence:   averageConfidence,
		RiskScore:           e.riskScore(breaches),
		Timestamp:           time.Now(),
	}
}

// mergeInto folds one raw breach record into an existing canonical breach:
// first-non-empty wins for scalar fields, set union for data classes,
// append-if-absent for the source list. Confidence is recomputed from the
// distinct source count.
func (e *Engine) mergeInto(existing *model.CorrelatedBreach, breach model.Breach, source string) {
	if !existing.HasSource(source) {
		existing.Sources = append(existing.Sources, source)
	}

	if existing.Date == "" && breach.Date != "" {
		existing.Date = breach.Date
		existing.Year = ExtractYear(breach.Date)
	}
	for _, dc := range breach.DataClasses {
		if !existing.HasDataClass(dc) {
			existing.DataClasses = append(existing.DataClasses, dc)
		}
	}
	if existing.Description == "" && breach.Description != "" {
		existing.Description = breach.Description
	}
	if existing.RecordsExposed == 0 && breach.RecordsExposed != 0 {
		existing.RecordsExposed = breach.RecordsExposed
	}

	existing.Confidence = confidence(len(existing.Sources))
}

// confidence maps the corroborating source count onto [0.33, 1.0].
func confidence(sources int) float64 {
	c := float64(sources) / 3
	if c > 1.0 {
		return 1.0
	}
	return c
}

// riskScore computes the 0-100 weighted severity summary:
// capped breach count, recency, sensitive data classes, and corroboration.
func (e *Engine) riskScore(breaches []*model.CorrelatedBreach) float64 {
	if len(breaches) == 0 {
		return 0
	}

	score := 0.0

	countScore := float64(len(breaches) * breachCountWeight)
	if countScore > breachCountCap {
		countScore = breachCountCap
	}
	score += countScore

	currentYear := e.now().Year()
	for _, b := range breaches {
		if b.Year != 0 && currentYear-b.Year <= recentYears {
			score += recentBreachBonus
		}
	}

	for _, b := range breaches {
		for _, dc := range b.DataClasses {
			if sensitiveDataClasses[strings.ToLower(dc)] {
				score += sensitiveBonus
				break
			}
		}
	}

	for _, b := range breaches {
		if b.Confidence >= highConfidence {
			score += highConfBonus
		}
	}

	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}
