package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nothinghide/nothinghide/internal/model"
)

func breachedResult() *model.CorrelatedResult {
	return &model.CorrelatedResult{
		Email:       "user@example.com",
		Domain:      "example.com",
		Breached:    true,
		BreachCount: 2,
		Breaches: []*model.CorrelatedBreach{
			{
				Name:           "LinkedIn",
				NormalizedName: "linkedin",
				Date:           "2012-05-05",
				Year:           2012,
				DataClasses:    []string{"Email addresses", "Passwords"},
				Description:    "Credential database leaked and cracked.",
				RecordsExposed: 164000000,
				Sources:        []string{"LeakCheck", "XposedOrNot"},
				Confidence:     0.67,
			},
			{
				Name:           "Adobe",
				NormalizedName: "adobe",
				Year:           2013,
				DataClasses:    []string{"Email addresses"},
				Sources:        []string{"LeakCheck"},
				Confidence:     0.33,
			},
		},
		SourcesQueried:      []string{"LeakCheck", "XposedOrNot", "HackCheck"},
		SourcesSucceeded:    []string{"LeakCheck", "XposedOrNot"},
		SourcesFailed:       []string{"HackCheck"},
		TotalResponseTimeMS: 320,
		AverageConfidence:   0.5,
		RiskScore:           30,
		Timestamp:           time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func cleanResult() *model.CorrelatedResult {
	return &model.CorrelatedResult{
		Email:            "clean@example.com",
		Domain:           "example.com",
		SourcesQueried:   []string{"LeakCheck"},
		SourcesSucceeded: []string{"LeakCheck"},
		Timestamp:        time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func inconclusiveResult() *model.CorrelatedResult {
	return &model.CorrelatedResult{
		Email:          "user@example.com",
		SourcesQueried: []string{"LeakCheck"},
		SourcesFailed:  []string{"LeakCheck"},
		Timestamp:      time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("breached report", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(breachedResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"user@example.com",
			"[!] BREACHED - found in 2 breach(es)",
			"LinkedIn (2012)",
			"Email addresses, Passwords",
			"[+] LeakCheck",
			"[x] HackCheck (failed)",
			"2 of 3 sources responded",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("clean report", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(cleanResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "[+] No known breaches found") {
			t.Errorf("expected clean marker:\n%s", buf.String())
		}
	})

	t.Run("inconclusive report never claims clean", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(inconclusiveResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "INCONCLUSIVE") {
			t.Errorf("expected inconclusive status:\n%s", output)
		}
		if strings.Contains(output, "No known breaches found") {
			t.Errorf("inconclusive result must not render as clean:\n%s", output)
		}
	})

	t.Run("verbose adds description and record count", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(breachedResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Credential database leaked") {
			t.Errorf("expected description in verbose mode:\n%s", output)
		}
		if !strings.Contains(output, "164000000") {
			t.Errorf("expected record count in verbose mode:\n%s", output)
		}
	})

	t.Run("batch concatenates reports", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.WriteBatch([]*model.CorrelatedResult{breachedResult(), cleanResult()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "user@example.com") || !strings.Contains(output, "clean@example.com") {
			t.Errorf("expected both reports:\n%s", output)
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("single result round trips", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(breachedResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got model.CorrelatedResult
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.Email != "user@example.com" || got.BreachCount != 2 {
			t.Errorf("round trip mismatch: %+v", got)
		}
	})

	t.Run("batch serializes as an array", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.WriteBatch([]*model.CorrelatedResult{breachedResult(), cleanResult()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got []*model.CorrelatedResult
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not a valid JSON array: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 elements, got %d", len(got))
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(cleanResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewFullJSONWriter(&buf, "1.2.3")

	if _, err := w.Write(breachedResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got JSONReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.Version != "1.2.3" {
		t.Errorf("expected version in envelope, got %q", got.Version)
	}
	if got.RiskLevel != "MEDIUM" {
		t.Errorf("expected MEDIUM risk level for score 30, got %q", got.RiskLevel)
	}
	if got.Result == nil || got.Result.Email != "user@example.com" {
		t.Errorf("expected embedded result, got %+v", got.Result)
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)

	if _, err := w.Write(breachedResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"NothingHide Exposure Report",
		"LinkedIn",
		"Breaches per Reporting Source",
		"user@example.com",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected markdown to contain %q:\n%s", want, output)
		}
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	w := NewMultiWriter(NewSimpleWriter(&first), NewJSONWriter(&second))

	if _, err := w.Write(cleanResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Len() == 0 || second.Len() == 0 {
		t.Error("expected both writers to receive the result")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := truncateString("short", 10); got != "short" {
		t.Errorf("unexpected truncation: %q", got)
	}
	if got := truncateString("a very long description indeed", 10); len(got) > 10 {
		t.Errorf("expected at most 10 chars, got %q", got)
	}
}
