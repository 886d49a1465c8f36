package source

import (
	"context"
	"encoding/json"

	"github.com/nothinghide/nothinghide/internal/model"
)

// XposedOrNotAnalytics queries the richer breach-analytics endpoint of the
// same provider. It is the only free source that reports descriptions and
// record counts, so it fills in the scalar fields during correlation even
// though the plain check-email endpoint usually answers first.
type XposedOrNotAnalytics struct {
	base
}

// NewXposedOrNotAnalytics creates the analytics client.
func NewXposedOrNotAnalytics(opts ...Option) *XposedOrNotAnalytics {
	return &XposedOrNotAnalytics{
		base: newBase("XposedOrNot Analytics", 85, "https://api.xposedornot.com/v1/breach-analytics/%s", opts...),
	}
}

// analyticsResponse holds the subset of the breach-analytics payload that
// maps onto canonical breaches.
type analyticsResponse struct {
	ExposedBreaches struct {
		BreachesDetails []struct {
			Breach        string          `json:"breach"`
			XposedDate    string          `json:"xposed_date"`
			XposedData    string          `json:"xposed_data"`
			Details       string          `json:"details"`
			XposedRecords json.RawMessage `json:"xposed_records"`
		} `json:"breaches_details"`
	} `json:"ExposedBreaches"`
}

// Fetch implements Client.
func (s *XposedOrNotAnalytics) Fetch(ctx context.Context, email string) *model.SourceResult {
	return s.fetch(ctx, email, nil, func(body []byte) (bool, []model.Breach, error) {
		var data analyticsResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return false, nil, err
		}

		details := data.ExposedBreaches.BreachesDetails
		if len(details) == 0 {
			return false, nil, nil
		}

		breaches := make([]model.Breach, 0, len(details))
		for _, d := range details {
			name := d.Breach
			if name == "" {
				name = "Unknown"
			}
			breaches = append(breaches, model.Breach{
				Name:           name,
				Date:           d.XposedDate,
				DataClasses:    classList(d.XposedData),
				Description:    d.Details,
				RecordsExposed: recordCount(d.XposedRecords),
				SourceAPI:      s.name,
			})
		}
		return true, breaches, nil
	})
}

// recordCount parses xposed_records, which the provider serializes as either
// a number or a numeric string. Unparseable values count as unknown.
func recordCount(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var fromString int64
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0
			}
			fromString = fromString*10 + int64(r-'0')
		}
		return fromString
	}
	return 0
}
