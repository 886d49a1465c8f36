// Package report handles output formatting for check results.
//
// Three formats are supported: human-readable text for terminal display,
// JSON for tool integration, and GitHub Flavored Markdown for documentation
// and sharing. All writers implement the same Writer interface so output
// destination and format are chosen once at startup.
package report
