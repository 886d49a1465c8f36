// Package correlate merges breach records reported independently by multiple
// sources into one canonical breach list and scores the aggregate risk.
//
// Providers name the same breach inconsistently ("LinkedIn", "linkedin.com",
// "LinkedIn Scraped Data"); the engine collapses this variance by normalizing
// names to a lower-cased alphanumeric form and resolving a small table of
// known aliases before merging. Confidence grows with the number of
// corroborating sources.
//
// The risk score formula (weights and caps) is a product decision carried
// over verbatim; report fixtures assert the exact numbers.
package correlate
