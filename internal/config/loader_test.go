package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("parses sources and defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".nothinghide")
		content := `
defaults:
  requestsPerMinute: 30
sources:
  LeakCheck:
    disabled: true
  XposedOrNot:
    apiKey: test-key
    requestsPerMinute: 10
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cf.Sources["LeakCheck"].Disabled {
			t.Error("expected LeakCheck disabled")
		}
		if cf.Sources["XposedOrNot"].APIKey != "test-key" {
			t.Errorf("unexpected api key: %q", cf.Sources["XposedOrNot"].APIKey)
		}
		if cf.Defaults.RequestsPerMinute != 30 {
			t.Errorf("unexpected default budget: %d", cf.Defaults.RequestsPerMinute)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid YAML fails", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".nothinghide")
		if err := os.WriteFile(path, []byte("sources: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("empty file yields a usable File", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".nothinghide")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sources == nil {
			t.Error("Sources map must be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path wins when it exists", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q", path, got)
		}
	})

	t.Run("missing explicit path returns empty", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "absent")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}

func TestFileSourceConfigMerge(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SourceConfig{RequestsPerMinute: 30},
		Sources: map[string]SourceConfig{
			"LeakCheck":   {Disabled: true},
			"XposedOrNot": {APIKey: "key", RequestsPerMinute: 10},
		},
	}

	t.Run("per-source overrides defaults", func(t *testing.T) {
		t.Parallel()
		sc := cf.SourceConfig("XposedOrNot")
		if sc.RequestsPerMinute != 10 {
			t.Errorf("expected override 10, got %d", sc.RequestsPerMinute)
		}
		if sc.APIKey != "key" {
			t.Errorf("expected api key, got %q", sc.APIKey)
		}
	})

	t.Run("unset fields inherit defaults", func(t *testing.T) {
		t.Parallel()
		sc := cf.SourceConfig("LeakCheck")
		if !sc.Disabled {
			t.Error("expected disabled flag")
		}
		if sc.RequestsPerMinute != 30 {
			t.Errorf("expected inherited budget 30, got %d", sc.RequestsPerMinute)
		}
	})

	t.Run("unknown source gets pure defaults", func(t *testing.T) {
		t.Parallel()
		sc := cf.SourceConfig("HackCheck")
		if sc.Disabled || sc.APIKey != "" || sc.RequestsPerMinute != 30 {
			t.Errorf("unexpected merge for unknown source: %+v", sc)
		}
	})
}
