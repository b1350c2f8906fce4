package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/temirov/fsaudit/internal/audit"
)

const (
	reportColumnPathConstant       = "path"
	reportColumnStatusConstant     = "status"
	reportColumnSeverityConstant   = "severity"
	reportColumnExpectedConstant   = "expected"
	reportColumnFoundConstant      = "found"
	reportColumnMessageConstant    = "message"
	reportLineTemplateConstant     = "%-8s %-8s %s"
	reportExpectationTemplate      = " (expected %s, found %s)"
	reportMessageTemplateConstant  = " [%s]"
	reportSummaryTemplateConstant  = "\nchecked %d: %d passed, %d strict, %d failed, %d errored\n"
	reportCleanMessageConstant     = "all checks passed\n"
	jsonReportIndentationConstant  = "  "
	jsonReportTrailingNewlineValue = "\n"
)

var reportStatusColorMapping = map[audit.Status]*color.Color{
	audit.StatusPass:   color.New(color.FgGreen),
	audit.StatusStrict: color.New(color.FgCyan),
	audit.StatusFail:   color.New(color.FgRed),
	audit.StatusError:  color.New(color.FgYellow),
}

// ReportTable adapts a report to the Tabular capability so one report can be
// rendered by any tabular format.
type ReportTable struct {
	report audit.Report
}

// NewReportTable wraps the report for tabular rendering.
func NewReportTable(report audit.Report) ReportTable {
	return ReportTable{report: report}
}

// Columns lists the tabular column names in presentation order.
func (table ReportTable) Columns() []string {
	return []string{
		reportColumnPathConstant,
		reportColumnStatusConstant,
		reportColumnSeverityConstant,
		reportColumnExpectedConstant,
		reportColumnFoundConstant,
		reportColumnMessageConstant,
	}
}

// Rows lists one row per result in report order.
func (table ReportTable) Rows() [][]string {
	rows := make([][]string, 0, len(table.report.Results))
	for _, result := range table.report.Results {
		rows = append(rows, []string{
			result.Path,
			string(result.Status),
			string(result.Severity),
			result.Expected,
			result.Found,
			result.Message,
		})
	}
	return rows
}

// WriteReport renders the report to the writer in the requested format. Text
// output colorizes statuses; colorization follows the global color settings,
// so piped output stays plain.
func WriteReport(writer io.Writer, format Format, report audit.Report) error {
	switch format {
	case FormatJSON:
		encoded, marshalError := json.MarshalIndent(report, "", jsonReportIndentationConstant)
		if marshalError != nil {
			return marshalError
		}
		_, writeError := io.WriteString(writer, string(encoded)+jsonReportTrailingNewlineValue)
		return writeError
	case FormatYAML:
		encoded, marshalError := yaml.Marshal(report)
		if marshalError != nil {
			return marshalError
		}
		_, writeError := writer.Write(encoded)
		return writeError
	case FormatCSV:
		return RenderTabular(writer, FormatCSV, NewReportTable(report))
	default:
		return writeReportText(writer, report)
	}
}

func writeReportText(writer io.Writer, report audit.Report) error {
	for _, result := range report.Results {
		statusColor, known := reportStatusColorMapping[result.Status]
		statusLabel := string(result.Status)
		if known {
			statusLabel = statusColor.Sprint(statusLabel)
		}

		line := fmt.Sprintf(reportLineTemplateConstant, statusLabel, result.Severity, result.Path)
		if result.Status != audit.StatusPass && len(result.Expected) > 0 {
			line += fmt.Sprintf(reportExpectationTemplate, result.Expected, result.Found)
		}
		if len(result.Message) > 0 {
			line += fmt.Sprintf(reportMessageTemplateConstant, result.Message)
		}
		if _, writeError := fmt.Fprintln(writer, line); writeError != nil {
			return writeError
		}
	}

	summary := report.Summary
	if _, writeError := fmt.Fprintf(
		writer,
		reportSummaryTemplateConstant,
		summary.Checked,
		summary.Passed,
		summary.Strict,
		summary.Failed,
		summary.Errored,
	); writeError != nil {
		return writeError
	}
	if report.Clean() && summary.Checked > 0 {
		if _, writeError := io.WriteString(writer, reportCleanMessageConstant); writeError != nil {
			return writeError
		}
	}
	return nil
}
