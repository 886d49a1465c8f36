package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nothinghide/nothinghide/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a check result in human-readable format.
func (w *SimpleWriter) Write(result *model.CorrelatedResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSummary(&sb, result)
	w.writeBreaches(&sb, result)
	w.writeSources(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs one report per result, separated by blank lines.
func (w *SimpleWriter) WriteBatch(results []*model.CorrelatedResult) (int, error) {
	var total int
	for _, result := range results {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeHeader writes the report header with check information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.CorrelatedResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      NOTHINGHIDE EXPOSURE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Email:       %s\n", result.Email))
	if result.Domain != "" {
		sb.WriteString(fmt.Sprintf("Domain:      %s\n", result.Domain))
	}
	sb.WriteString(fmt.Sprintf("Check Date:  %s\n", result.Timestamp.Format("2006-01-02 15:04:05 MST")))

	switch {
	case result.Error != "":
		sb.WriteString(fmt.Sprintf("Status:      ERROR - %s\n", result.Error))
	case result.Inconclusive():
		sb.WriteString("Status:      INCONCLUSIVE (no source responded)\n")
	default:
		sb.WriteString("Status:      Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the exposure summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, result *model.CorrelatedResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("EXPOSURE SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if result.Error != "" || result.Inconclusive() {
		sb.WriteString("  No conclusion possible: every data source failed.\n")
		sb.WriteString("  A clean result could not be established.\n\n")
		return
	}

	if result.Breached {
		sb.WriteString(fmt.Sprintf("  [!] BREACHED - found in %d breach(es)\n", result.BreachCount))
	} else {
		sb.WriteString("  [+] No known breaches found\n")
	}

	level := model.RiskLevelForScore(result.RiskScore)
	sb.WriteString(fmt.Sprintf("  Risk Score:       %.0f / 100 (%s)\n", result.RiskScore, level))
	sb.WriteString(fmt.Sprintf("  Avg Confidence:   %.2f\n", result.AverageConfidence))
	sb.WriteString("\n")
}

// writeBreaches writes the list of correlated breaches.
func (w *SimpleWriter) writeBreaches(sb *strings.Builder, result *model.CorrelatedResult) {
	if len(result.Breaches) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("BREACHES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, b := range result.Breaches {
		sb.WriteString(fmt.Sprintf("  * %s", b.Name))
		if b.Year > 0 {
			sb.WriteString(fmt.Sprintf(" (%d)", b.Year))
		}
		sb.WriteString("\n")
		if len(b.DataClasses) > 0 {
			sb.WriteString(fmt.Sprintf("    Exposed: %s\n", strings.Join(b.DataClasses, ", ")))
		}
		sb.WriteString(fmt.Sprintf("    Confidence: %.2f (reported by %s)\n",
			b.Confidence, strings.Join(b.Sources, ", ")))
		if w.verbose && b.Description != "" {
			sb.WriteString(fmt.Sprintf("    Description: %s\n", b.Description))
		}
		if w.verbose && b.RecordsExposed > 0 {
			sb.WriteString(fmt.Sprintf("    Records: %d\n", b.RecordsExposed))
		}
	}
	sb.WriteString("\n")
}

// writeSources writes the per-source outcome section.
func (w *SimpleWriter) writeSources(sb *strings.Builder, result *model.CorrelatedResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DATA SOURCES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, name := range result.SourcesSucceeded {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", name))
	}
	for _, name := range result.SourcesFailed {
		sb.WriteString(fmt.Sprintf("  [x] %s (failed)\n", name))
	}
	sb.WriteString(fmt.Sprintf("\n  %d of %d sources responded in %.0f ms\n",
		len(result.SourcesSucceeded), len(result.SourcesQueried), result.TotalResponseTimeMS))
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by NothingHide\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
