package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are sanitized.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{
			name:     "password key is sanitized",
			key:      "password",
			value:    "secretpassword",
			wantMask: true,
		},
		{
			name:     "Password key (uppercase) is sanitized",
			key:      "Password",
			value:    "secretpassword",
			wantMask: true,
		},
		{
			name:     "hash key is sanitized",
			key:      "hash",
			value:    "5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8",
			wantMask: true,
		},
		{
			name:     "hash_suffix key is sanitized",
			key:      "hash_suffix",
			value:    "1E4C9B93F3F0682250B6CF8331B7EE68FD8",
			wantMask: true,
		},
		{
			name:     "api_key key is sanitized",
			key:      "api_key",
			value:    "sk_live_123456789",
			wantMask: true,
		},
		{
			name:     "x-api-key header is sanitized",
			key:      "x-api-key",
			value:    "apikey123",
			wantMask: true,
		},
		{
			name:     "authorization key is sanitized",
			key:      "authorization",
			value:    "Bearer token123",
			wantMask: true,
		},
		{
			name:     "email key is NOT sanitized",
			key:      "email",
			value:    "user@example.com",
			wantMask: false,
		},
		{
			name:     "source key is NOT sanitized",
			key:      "source",
			value:    "LeakCheck",
			wantMask: false,
		},
		{
			name:     "breach_count key is NOT sanitized",
			key:      "breach_count",
			value:    "3",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)

			logger.Info("test message", tt.key, tt.value)

			output := buf.String()

			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be masked, but found in output: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask value %q in output, but not found: %s", MaskValue, output)
				}
			} else {
				if !strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be present in output, but not found: %s", tt.value, output)
				}
			}
		})
	}
}

// TestSecureHandler_SanitizesSensitiveValues tests that sensitive values are
// masked regardless of key name.
func TestSecureHandler_SanitizesSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{
			name:     "full SHA-1 hash is masked under any key",
			key:      "lookup",
			value:    "5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8",
			wantMask: true,
		},
		{
			name:     "JWT token is masked",
			key:      "value",
			value:    "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.abc123",
			wantMask: true,
		},
		{
			name:     "bearer token is masked",
			key:      "header",
			value:    "Bearer abc123def456",
			wantMask: true,
		},
		{
			name:     "short hex value passes through",
			key:      "prefix",
			value:    "5BAA6",
			wantMask: false,
		},
		{
			name:     "breach name passes through",
			key:      "breach",
			value:    "LinkedIn",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)

			logger.Info("test message", tt.key, tt.value)

			output := buf.String()

			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be masked, but found in output: %s", tt.value, output)
				}
			} else {
				if !strings.Contains(output, tt.value) {
					t.Errorf("expected value %q in output, but not found: %s", tt.value, output)
				}
			}
		})
	}
}

// TestSecureHandler_SanitizesGroups tests that attributes inside groups are
// sanitized recursively.
func TestSecureHandler_SanitizesGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)

	logger.Info("test message",
		slog.Group("request",
			slog.String("password", "hunter2"),
			slog.String("email", "user@example.com"),
		),
	)

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("expected grouped password to be masked: %s", output)
	}
	if !strings.Contains(output, "user@example.com") {
		t.Errorf("expected grouped email to pass through: %s", output)
	}
}

// TestSecureHandler_WithAttrs tests that pre-attached attributes are sanitized.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true).With("token", "tok_123456")

	logger.Info("test message")

	output := buf.String()
	if strings.Contains(output, "tok_123456") {
		t.Errorf("expected attached token to be masked: %s", output)
	}
	if !strings.Contains(output, MaskValue) {
		t.Errorf("expected mask value in output: %s", output)
	}
}

// TestNewSecureLogger_Levels tests the verbose flag's level mapping.
func TestNewSecureLogger_Levels(t *testing.T) {
	t.Parallel()

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Error("expected debug output in verbose mode")
		}
	})

	t.Run("quiet suppresses info", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)
		logger.Info("info message")
		if buf.Len() != 0 {
			t.Errorf("expected no output below warn level, got: %s", buf.String())
		}
	})
}

// TestNewSecureJSONLogger tests that the JSON logger also sanitizes.
func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, true)

	logger.Warn("test message", "password", "hunter2")

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("expected password to be masked in JSON output: %s", output)
	}
	if !strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("expected JSON output, got: %s", output)
	}
}
