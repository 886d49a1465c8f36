package source

import (
	"context"
	"encoding/json"

	"github.com/nothinghide/nothinghide/internal/model"
)

// EmailRep queries emailrep.io, a reputation service rather than a breach
// database. It reports boolean exposure flags instead of named breaches, so
// its records are synthetic single-entry breaches that mostly raise
// confidence when other sources agree.
type EmailRep struct {
	base
}

// NewEmailRep creates the EmailRep client.
func NewEmailRep(opts ...Option) *EmailRep {
	return &EmailRep{
		base: newBase("EmailRep", 75, "https://emailrep.io/%s", opts...),
	}
}

// emailRepResponse holds the exposure flags from a reputation lookup.
type emailRepResponse struct {
	Reputation string `json:"reputation"`
	Details    struct {
		CredentialsLeaked bool `json:"credentials_leaked"`
		DataBreach        bool `json:"data_breach"`
	} `json:"details"`
}

// Fetch implements Client.
func (s *EmailRep) Fetch(ctx context.Context, email string) *model.SourceResult {
	headers := map[string]string{"Accept": "application/json"}

	return s.fetch(ctx, email, headers, func(body []byte) (bool, []model.Breach, error) {
		var data emailRepResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return false, nil, err
		}

		var breaches []model.Breach
		if data.Details.CredentialsLeaked {
			breaches = append(breaches, model.Breach{
				Name:        "Credential Leak Detected",
				DataClasses: []string{"Credentials"},
				SourceAPI:   s.name,
			})
		}
		if data.Details.DataBreach {
			breaches = append(breaches, model.Breach{
				Name:        "Data Breach Detected",
				DataClasses: []string{"Email", "Personal Data"},
				SourceAPI:   s.name,
			})
		}
		return len(breaches) > 0, breaches, nil
	})
}
