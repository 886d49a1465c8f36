package correlate

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes accented characters and strips the combining
// marks, so "Café Leaks" and "Cafe Leaks" normalize to the same key.
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// yearPattern matches a plausible breach year anywhere in a date string.
// Providers return dates as "2016-05-18", "May 2016", or bare years.
var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// NormalizeBreachName converts a raw breach name into its canonical merge
// key: Unicode-folded, lower-cased, with everything outside [a-z0-9] removed.
// The operation is idempotent.
func NormalizeBreachName(name string) string {
	if name == "" {
		return ""
	}

	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		// Fall back to the raw name; the ASCII strip below still applies.
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractYear returns the first four-digit year found in the date string,
// or 0 when none is present.
func ExtractYear(date string) int {
	match := yearPattern.FindString(date)
	if match == "" {
		return 0
	}

	year := 0
	for _, r := range match {
		year = year*10 + int(r-'0')
	}
	return year
}
