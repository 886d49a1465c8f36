package source

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nothinghide/nothinghide/internal/model"
)

// XposedOrNot queries the XposedOrNot check-email endpoint. An API key is
// optional; with one, the provider lifts its anonymous rate limits.
//
// The response shape is unstable across provider versions: "breaches" may be
// a flat list of names, a nested list, or the richer breaches_details
// objects. The parser accepts all of them.
type XposedOrNot struct {
	base
}

// NewXposedOrNot creates the XposedOrNot client.
func NewXposedOrNot(opts ...Option) *XposedOrNot {
	return &XposedOrNot{
		base: newBase("XposedOrNot", 95, "https://api.xposedornot.com/v1/check-email/%s", opts...),
	}
}

// Fetch implements Client.
func (s *XposedOrNot) Fetch(ctx context.Context, email string) *model.SourceResult {
	var headers map[string]string
	if s.apiKey != "" {
		headers = map[string]string{"x-api-key": s.apiKey}
	}

	return s.fetch(ctx, email, headers, func(body []byte) (bool, []model.Breach, error) {
		var data map[string]any
		if err := json.Unmarshal(body, &data); err != nil {
			return false, nil, err
		}

		items := breachItems(data)
		if len(items) == 0 {
			return false, nil, nil
		}

		breaches := make([]model.Breach, 0, len(items))
		for _, item := range items {
			breaches = append(breaches, s.mapItem(item))
		}
		return true, breaches, nil
	})
}

// breachItems extracts the breach entries from either response variant,
// flattening the nested list form.
func breachItems(data map[string]any) []any {
	if raw, ok := data["breaches"].([]any); ok && len(raw) > 0 {
		var items []any
		for _, entry := range raw {
			if nested, ok := entry.([]any); ok {
				items = append(items, nested...)
				continue
			}
			items = append(items, entry)
		}
		return items
	}

	if exposed, ok := data["ExposedBreaches"].(map[string]any); ok {
		if details, ok := exposed["breaches_details"].([]any); ok {
			return details
		}
	}
	return nil
}

// mapItem converts one entry (bare string or detail object) into a Breach.
func (s *XposedOrNot) mapItem(item any) model.Breach {
	switch v := item.(type) {
	case string:
		return model.Breach{Name: v, SourceAPI: s.name}
	case map[string]any:
		name := stringField(v, "breach")
		if name == "" {
			name = stringField(v, "name")
		}
		if name == "" {
			name = "Unknown"
		}
		return model.Breach{
			Name:        name,
			Date:        stringField(v, "xposed_date"),
			DataClasses: classList(v["xposed_data"]),
			SourceAPI:   s.name,
		}
	default:
		return model.Breach{Name: "Unknown", SourceAPI: s.name}
	}
}

// stringField returns the string value for key, or "".
func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// classList normalizes the xposed_data field, which is either a
// semicolon-joined string or a list.
func classList(v any) []string {
	switch value := v.(type) {
	case string:
		var classes []string
		for _, part := range strings.Split(value, ";") {
			if part = strings.TrimSpace(part); part != "" {
				classes = append(classes, part)
			}
		}
		if len(classes) == 0 {
			return []string{"Unknown"}
		}
		return classes
	case []any:
		var classes []string
		for _, item := range value {
			if s, ok := item.(string); ok && s != "" {
				classes = append(classes, s)
			}
		}
		if len(classes) == 0 {
			return []string{"Unknown"}
		}
		return classes
	default:
		return []string{"Unknown"}
	}
}
