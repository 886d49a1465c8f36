package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nothinghide/nothinghide/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs a check result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CorrelatedResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeSummary(md, result)
	w.writeBreaches(md, result)
	w.writeSources(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs one Markdown report per result.
func (w *MarkdownWriter) WriteBatch(results []*model.CorrelatedResult) (int, error) {
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
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CorrelatedResult) {
	md.H1("NothingHide Exposure Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Email", "`" + result.Email + "`"},
			{"Domain", "`" + result.Domain + "`"},
			{"Check Date", result.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.statusText(result)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on result state.
func (w *MarkdownWriter) statusText(result *model.CorrelatedResult) string {
	if result.Error != "" {
		return "❌ Error - " + result.Error
	}
	if result.Inconclusive() {
		return "⚠️ Inconclusive (no source responded)"
	}
	return "✅ Complete"
}

// writeSummary writes the exposure summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.CorrelatedResult) {
	md.H2("Exposure Summary")
	md.PlainText("")

	level := model.RiskLevelForScore(result.RiskScore)
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Breached", strconv.FormatBool(result.Breached)},
			{"Breach Count", strconv.Itoa(result.BreachCount)},
			{"Risk Score", fmt.Sprintf("%.0f / 100", result.RiskScore)},
			{"Risk Level", level.String()},
			{"Average Confidence", fmt.Sprintf("%.2f", result.AverageConfidence)},
		},
	})
	md.PlainText("")

	if result.Breached {
		w.writePieChart(md, result)
	}

	w.writeAlert(md, result)
}

// writePieChart writes a mermaid pie chart of breaches per reporting source.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, result *model.CorrelatedResult) {
	counts := make(map[string]int)
	var order []string
	for _, b := range result.Breaches {
		for _, src := range b.Sources {
			if counts[src] == 0 {
				order = append(order, src)
			}
			counts[src]++
		}
	}
	if len(order) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Breaches per Reporting Source"),
		piechart.WithShowData(true),
	)
	for _, src := range order {
		chart.LabelAndIntValue(src, uint64(counts[src]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the risk level.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.CorrelatedResult) {
	if result.Inconclusive() {
		md.Warning("Every data source failed; a clean result could not be established.")
		md.PlainText("")
		return
	}

	switch model.RiskLevelForScore(result.RiskScore) {
	case model.RiskCritical:
		md.Cautionf(
			"Critical exposure! This address appears in %d breach(es). Rotate affected credentials immediately.",
			result.BreachCount,
		)
	case model.RiskHigh:
		md.Warningf(
			"High exposure. %d breach(es) found; change passwords reused across the affected services.",
			result.BreachCount,
		)
	case model.RiskMedium:
		md.Importantf(
			"Moderate exposure. %d breach(es) found for this address.",
			result.BreachCount,
		)
	default:
		if result.Breached {
			md.Note("Low exposure: breaches were found but pose limited risk.")
		} else {
			md.Tip("No known breaches found for this address.")
		}
	}
	md.PlainText("")
}

// writeBreaches writes the correlated breach table.
func (w *MarkdownWriter) writeBreaches(md *markdown.Markdown, result *model.CorrelatedResult) {
	md.H2("Breaches")
	md.PlainText("")

	if len(result.Breaches) == 0 {
		md.PlainText("No breaches detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Breaches))
	for i, b := range result.Breaches {
		year := "-"
		if b.Year > 0 {
			year = strconv.Itoa(b.Year)
		}
		classes := "-"
		if len(b.DataClasses) > 0 {
			classes = truncateString(strings.Join(b.DataClasses, ", "), 60)
		}
		rows[i] = []string{
			b.Name,
			year,
			classes,
			fmt.Sprintf("%.2f", b.Confidence),
			truncateString(strings.Join(b.Sources, ", "), 50),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Breach", "Year", "Exposed Data", "Confidence", "Sources"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, b := range result.Breaches {
		if b.Description != "" {
			md.Details(b.Name, b.Description)
		}
	}
	md.PlainText("")
}

// writeSources writes the per-source outcome section.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, result *model.CorrelatedResult) {
	md.H2("Data Sources")
	md.PlainText("")

	rows := make([][]string, 0, len(result.SourcesQueried))
	for _, name := range result.SourcesSucceeded {
		rows = append(rows, []string{name, "✅ responded"})
	}
	for _, name := range result.SourcesFailed {
		rows = append(rows, []string{name, "❌ failed"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Outcome"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by NothingHide*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
