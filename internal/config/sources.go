package config

// SourceConfig holds per-source overrides from the configuration file.
// This allows disabling individual breach APIs or pointing them at
// alternative endpoints (e.g., a caching proxy).
type SourceConfig struct {
	// Disabled removes the source from the query set entirely.
	Disabled bool `yaml:"disabled,omitempty"`

	// BaseURL overrides the source's endpoint URL template.
	// The template must contain exactly one %s placeholder for the
	// path-escaped email address.
	BaseURL string `yaml:"baseURL,omitempty"`

	// APIKey authenticates requests to sources that support it.
	// Prefer the environment variable over the config file for secrets.
	APIKey string `yaml:"apiKey,omitempty"`

	// RequestsPerMinute overrides the source's rate limit window budget.
	// If zero, the global default is used.
	RequestsPerMinute int `yaml:"requestsPerMinute,omitempty"`
}

// File represents the structure of the .nothinghide configuration file.
type File struct {
	// Sources maps source names (e.g., "LeakCheck") to their overrides.
	Sources map[string]SourceConfig `yaml:"sources,omitempty"`

	// Defaults contains default source configuration applied to all
	// sources unless overridden per source.
	Defaults SourceConfig `yaml:"defaults,omitempty"`
}

// SourceConfig returns the configuration for a named source, merging the
// source-specific configuration with defaults.
func (cf *File) SourceConfig(name string) SourceConfig {
	result := cf.Defaults

	if sc, ok := cf.Sources[name]; ok {
		if sc.Disabled {
			result.Disabled = true
		}
		if sc.BaseURL != "" {
			result.BaseURL = sc.BaseURL
		}
		if sc.APIKey != "" {
			result.APIKey = sc.APIKey
		}
		if sc.RequestsPerMinute != 0 {
			result.RequestsPerMinute = sc.RequestsPerMinute
		}
	}

	return result
}
