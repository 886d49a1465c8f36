package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nothinghide/nothinghide/internal/config"
	"github.com/nothinghide/nothinghide/internal/log"
)

func TestReadTargetList(t *testing.T) {
	t.Parallel()

	t.Run("skips blanks and comments", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "targets.txt")
		content := "one@example.com\n\n# comment\n  two@example.com  \n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		targets, err := readTargetList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(targets) != 2 {
			t.Fatalf("expected 2 targets, got %v", targets)
		}
		if targets[0] != "one@example.com" || targets[1] != "two@example.com" {
			t.Errorf("unexpected targets: %v", targets)
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Parallel()
		if _, err := readTargetList(filepath.Join(t.TempDir(), "absent")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestBuildSources(t *testing.T) {
	t.Parallel()

	logger := log.NewSecureLogger(os.Stderr, false)

	t.Run("no overrides defers to agent defaults", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Sources = &config.File{Sources: map[string]config.SourceConfig{}}

		_, _, ok := buildSources(cfg, logger)
		if ok {
			t.Error("expected ok=false with an empty config file")
		}
	})

	t.Run("disabled sources are excluded", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Sources = &config.File{
			Sources: map[string]config.SourceConfig{
				"LeakCheck": {Disabled: true},
				"DeXpose":   {Disabled: true},
			},
		}

		clients, limiter, ok := buildSources(cfg, logger)
		if !ok {
			t.Fatal("expected ok=true with overrides present")
		}
		if limiter == nil {
			t.Fatal("expected a limiter")
		}
		if len(clients) != 4 {
			t.Fatalf("expected 4 remaining sources, got %d", len(clients))
		}
		for _, c := range clients {
			if c.Name() == "LeakCheck" || c.Name() == "DeXpose" {
				t.Errorf("disabled source %s was built", c.Name())
			}
		}
	})

	t.Run("sources stay in priority order", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Sources = &config.File{
			Defaults: config.SourceConfig{RequestsPerMinute: 30},
			Sources:  map[string]config.SourceConfig{},
		}

		clients, _, ok := buildSources(cfg, logger)
		if !ok {
			t.Fatal("expected ok=true with defaults present")
		}
		if len(clients) != 6 {
			t.Fatalf("expected all 6 sources, got %d", len(clients))
		}
		for i := 1; i < len(clients); i++ {
			if clients[i].Priority() > clients[i-1].Priority() {
				t.Errorf("source order broken: %s after %s",
					clients[i].Name(), clients[i-1].Name())
			}
		}
	})
}
