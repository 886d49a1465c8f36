package model

import "time"

// CorrelatedBreach is one canonical breach entity after deduplication across
// sources. NormalizedName is the merge key: two raw breach names that
// normalize identically (after alias resolution) are always merged into one
// CorrelatedBreach, never duplicated.
type CorrelatedBreach struct {
	// Name is the breach name as first reported.
	Name string `json:"name"`

	// NormalizedName is the lower-cased, alphanumeric-only, alias-mapped
	// form of Name used as the merge key.
	NormalizedName string `json:"normalized_name"`

	// Date is the best-effort breach date (first non-empty across sources).
	Date string `json:"date,omitempty"`

	// Year is extracted from Date, 0 if no year could be determined.
	Year int `json:"year,omitempty"`

	// DataClasses is the set union of data classes across all sources.
	DataClasses []string `json:"data_classes,omitempty"`

	// Description is the first non-empty description seen.
	Description string `json:"description,omitempty"`

	// RecordsExposed is the first non-zero record count seen.
	RecordsExposed int64 `json:"records_exposed,omitempty"`

	// Sources lists the distinct providers that reported this breach.
	Sources []string `json:"sources"`

	// Confidence grows with source agreement: min(1.0, len(Sources)/3),
	// starting at 0.33 for a single source.
	Confidence float64 `json:"confidence"`
}

// HasSource reports whether the provider already contributed to this breach.
func (b *CorrelatedBreach) HasSource(source string) bool {
	for _, s := range b.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// HasDataClass reports whether the breach exposes the given data class.
// Comparison is exact; callers normalize case themselves.
func (b *CorrelatedBreach) HasDataClass(class string) bool {
	for _, dc := range b.DataClasses {
		if dc == class {
			return true
		}
	}
	return false
}

// CorrelatedResult is the final answer for one identity query.
// It is constructed once by the correlation engine and is immutable
// afterwards; the caller owns it.
type CorrelatedResult struct {
	// Email is the normalized identity that was checked.
	Email string `json:"email"`

	// Domain is the registrable domain (eTLD+1) of the email address,
	// recorded for domain intelligence. Empty when it could not be derived.
	Domain string `json:"domain,omitempty"`

	// Breached is true iff BreachCount > 0.
	Breached bool `json:"breached"`

	// BreachCount is the number of canonical breaches after deduplication.
	BreachCount int `json:"breach_count"`

	// Breaches is sorted by year descending, tie-broken by name descending.
	Breaches []*CorrelatedBreach `json:"breaches"`

	// SourcesQueried / SourcesSucceeded / SourcesFailed track per-source
	// outcomes so callers can distinguish a clean result from an
	// inconclusive one.
	SourcesQueried   []string `json:"sources_queried"`
	SourcesSucceeded []string `json:"sources_succeeded"`
	SourcesFailed    []string `json:"sources_failed"`

	// TotalResponseTimeMS is the sum of per-source response times.
	TotalResponseTimeMS float64 `json:"total_response_time_ms"`

	// AverageConfidence is the mean of per-breach confidence, 0 when empty.
	AverageConfidence float64 `json:"average_confidence"`

	// RiskScore is the 0-100 weighted severity summary.
	RiskScore float64 `json:"risk_score"`

	// Error carries a failure marker on batch substitutes. A populated Error
	// means this element of a batch could not be checked at all; it is never
	// set on results returned directly from Check.
	Error string `json:"error,omitempty"`

	// Timestamp records when the correlation completed.
	Timestamp time.Time `json:"timestamp"`
}

// Inconclusive reports whether no source produced a usable answer.
// An inconclusive result must never be rendered as "clearly not breached".
func (r *CorrelatedResult) Inconclusive() bool {
	return len(r.SourcesSucceeded) == 0
}
