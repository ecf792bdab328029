// Package output provides styled terminal output helpers (success, error,
// warning, flag report formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/ldflag/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyles = map[models.FlagStatus]lipgloss.Style{
		models.FlagValid:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.FlagFixed:   lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.FlagSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.FlagFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("✗ " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as indented JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// StatusBadge returns a styled status indicator with symbol
// e.g., "✓ valid", "● fixed", "○ skipped", "✗ failed"
func StatusBadge(status models.FlagStatus) string {
	symbols := map[models.FlagStatus]string{
		models.FlagValid:   "✓",
		models.FlagFixed:   "●",
		models.FlagSkipped: "○",
		models.FlagFailed:  "✗",
	}
	symbol, ok := symbols[status]
	if !ok {
		symbol = "?"
	}
	style, hasStyle := statusStyles[status]
	if hasStyle {
		return style.Render(fmt.Sprintf("%s %s", symbol, status))
	}
	return fmt.Sprintf("%s %s", symbol, status)
}

// ReportView is the machine-readable shape of one bulk-run report.
type ReportView struct {
	Key    string              `json:"key"`
	Name   string              `json:"name,omitempty"`
	Status models.FlagStatus   `json:"status"`
	Errors []models.FieldError `json:"errors,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// NewReportView flattens a report for JSON output, preferring the latest
// validation result when a fix attempt left the flag invalid.
func NewReportView(report models.FlagReport) ReportView {
	view := ReportView{Key: report.Key, Name: report.Name, Status: report.Status}
	result := report.Result
	if report.Outcome != nil && report.Outcome.Kind == models.OutcomeStillInvalid {
		result = report.Outcome.Result
	}
	view.Errors = result.Errors
	if report.Err != nil {
		view.Error = report.Err.Error()
	}
	return view
}

// FormatFlagReport formats one bulk-run report entry, including error
// detail for failed flags.
func FormatFlagReport(report models.FlagReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s  %s (%s)", StatusBadge(report.Status), titleStyle.Render(report.Key), report.Name))

	if report.Err != nil {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render("    remote error: " + report.Err.Error()))
		return sb.String()
	}

	result := report.Result
	if report.Outcome != nil && report.Outcome.Kind == models.OutcomeStillInvalid {
		result = report.Outcome.Result
	}
	if report.Status == models.FlagFailed {
		for _, line := range FormatValidationErrors(result) {
			sb.WriteString("\n    ")
			sb.WriteString(line)
		}
	}
	return sb.String()
}

// FormatValidationErrors renders each field error on its own line.
func FormatValidationErrors(result models.ValidationResult) []string {
	lines := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		lines[i] = e.String()
	}
	return lines
}

// FormatVariationLine returns a one-line listing entry for a variation,
// e.g. `1. Production: {"tcp_port": 443}`.
func FormatVariationLine(index int, v models.Variation) string {
	name := v.Name
	if name == "" {
		name = subtleStyle.Render("(unnamed)")
	}
	value := "null"
	if len(v.Value) > 0 {
		compact := strings.Join(strings.Fields(string(v.Value)), " ")
		value = compact
	}
	return fmt.Sprintf("%d. %s: %s", index+1, name, value)
}

// RunSummaryLine renders the closing line of a bulk run,
// e.g. "3 flags: 1 valid, 1 fixed, 1 failed".
func RunSummaryLine(valid, fixed, skipped, failed int) string {
	total := valid + fixed + skipped + failed
	parts := []string{}
	if valid > 0 {
		parts = append(parts, fmt.Sprintf("%d valid", valid))
	}
	if fixed > 0 {
		parts = append(parts, fmt.Sprintf("%d fixed", fixed))
	}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	if len(parts) == 0 {
		return "no JSON flags found"
	}
	noun := "flags"
	if total == 1 {
		noun = "flag"
	}
	return fmt.Sprintf("%d %s: %s", total, noun, strings.Join(parts, ", "))
}
