package source

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nothinghide/nothinghide/internal/model"
)

// LeakCheck queries the leakcheck.io public endpoint. It is the highest
// priority source: no API key, generous free tier, and per-breach source
// names that merge well during correlation.
type LeakCheck struct {
	base
}

// NewLeakCheck creates the LeakCheck client.
func NewLeakCheck(opts ...Option) *LeakCheck {
	return &LeakCheck{
		base: newBase("LeakCheck", 100, "https://leakcheck.io/api/public?check=%s", opts...),
	}
}

// leakCheckResponse mirrors the public API's shape. Each result entry names
// the breach databases ("sources") the account appeared in.
type leakCheckResponse struct {
	Success bool `json:"success"`
	Found   int  `json:"found"`
	Result  []struct {
		Sources    []string `json:"sources"`
		LastBreach string   `json:"last_breach"`
	} `json:"result"`
}

// Fetch implements Client.
func (s *LeakCheck) Fetch(ctx context.Context, email string) *model.SourceResult {
	headers := map[string]string{"Accept": "application/json"}

	return s.fetch(ctx, email, headers, func(body []byte) (bool, []model.Breach, error) {
		var data leakCheckResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return false, nil, err
		}

		if !data.Success || data.Found == 0 {
			return false, nil, nil
		}

		// The same breach database can appear under several result entries;
		// dedupe case-insensitively before handing off to correlation.
		seen := make(map[string]bool)
		var breaches []model.Breach
		for _, entry := range data.Result {
			for _, src := range entry.Sources {
				key := strings.ToLower(src)
				if seen[key] {
					continue
				}
				seen[key] = true
				breaches = append(breaches, model.Breach{
					Name:        src,
					Date:        entry.LastBreach,
					DataClasses: []string{"Credentials", "Email"},
					SourceAPI:   s.name,
				})
			}
		}
		return len(breaches) > 0, breaches, nil
	})
}
