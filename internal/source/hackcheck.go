package source

import (
	"context"
	"encoding/json"

	"github.com/nothinghide/nothinghide/internal/model"
)

// HackCheck queries the HackCheck breached-account endpoint, which returns a
// HIBP-style array of breach objects.
type HackCheck struct {
	base
}

// NewHackCheck creates the HackCheck client.
func NewHackCheck(opts ...Option) *HackCheck {
	return &HackCheck{
		base: newBase("HackCheck", 90, "https://hackcheck.woventeams.com/api/v4/breachedaccount/%s", opts...),
	}
}

// hackCheckBreach is one entry in the response array. Older records use
// "Name" where newer ones use "Title".
type hackCheckBreach struct {
	Title       string   `json:"Title"`
	Name        string   `json:"Name"`
	BreachDate  string   `json:"BreachDate"`
	DataClasses []string `json:"DataClasses"`
}

// Fetch implements Client.
func (s *HackCheck) Fetch(ctx context.Context, email string) *model.SourceResult {
	return s.fetch(ctx, email, nil, func(body []byte) (bool, []model.Breach, error) {
		var entries []hackCheckBreach
		if err := json.Unmarshal(body, &entries); err != nil {
			return false, nil, err
		}

		if len(entries) == 0 {
			return false, nil, nil
		}

		breaches := make([]model.Breach, 0, len(entries))
		for _, entry := range entries {
			name := entry.Title
			if name == "" {
				name = entry.Name
			}
			if name == "" {
				name = "Unknown"
			}
			classes := entry.DataClasses
			if len(classes) == 0 {
				classes = []string{"Unknown"}
			}
			breaches = append(breaches, model.Breach{
				Name:        name,
				Date:        entry.BreachDate,
				DataClasses: classes,
				SourceAPI:   s.name,
			})
		}
		return true, breaches, nil
	})
}
