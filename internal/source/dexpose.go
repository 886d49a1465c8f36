package source

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nothinghide/nothinghide/internal/model"
)

// DeXpose queries dexpose.io. The endpoint is the least reliable of the set:
// it answers 400 for unknown accounts, sometimes returns non-JSON bodies on
// 200, and flips between "exposed" and "breached" flags. The parser is
// deliberately forgiving; an unreadable 200 counts as clean rather than
// failing the source.
type DeXpose struct {
	base
}

// NewDeXpose creates the DeXpose client.
func NewDeXpose(opts ...Option) *DeXpose {
	c := &DeXpose{
		base: newBase("DeXpose", 70, "https://www.dexpose.io/api/check/%s", opts...),
	}
	c.notFoundStatuses[http.StatusBadRequest] = true
	return c
}

// Fetch implements Client.
func (s *DeXpose) Fetch(ctx context.Context, email string) *model.SourceResult {
	headers := map[string]string{"Accept": "application/json"}

	return s.fetch(ctx, email, headers, func(body []byte) (bool, []model.Breach, error) {
		var data map[string]any
		if err := json.Unmarshal(body, &data); err != nil {
			return false, nil, nil
		}

		exposed, _ := data["exposed"].(bool)
		if !exposed {
			exposed, _ = data["breached"].(bool)
		}
		if !exposed {
			return false, nil, nil
		}

		list, ok := data["breaches"].([]any)
		if !ok {
			list, _ = data["results"].([]any)
		}

		var breaches []model.Breach
		for _, item := range list {
			switch v := item.(type) {
			case string:
				breaches = append(breaches, model.Breach{Name: v, SourceAPI: s.name})
			case map[string]any:
				name := stringField(v, "name")
				if name == "" {
					name = stringField(v, "source")
				}
				if name == "" {
					name = "Unknown"
				}
				breaches = append(breaches, model.Breach{
					Name:        name,
					Date:        stringField(v, "date"),
					DataClasses: classList(v["data_types"]),
					SourceAPI:   s.name,
				})
			}
		}

		// Exposure reported without any detail still counts as one finding.
		if len(breaches) == 0 {
			breaches = append(breaches, model.Breach{
				Name:      "DeXpose Exposure Detected",
				SourceAPI: s.name,
			})
		}
		return true, breaches, nil
	})
}
