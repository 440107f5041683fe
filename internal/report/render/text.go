package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"github.com/olekukonko/tablewriter"

	"github.com/temirov/auditgate/internal/allowlist"
	"github.com/temirov/auditgate/internal/report"
	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	headerTemplateConstant           = "%s audit (%s report)\n"
	headerWithVersionTemplate        = "%s %s audit (%s report)\n"
	skippedLineConstant              = "Audit skipped: the registry did not perform an audit.\n"
	passedLineConstant               = "Passed: no vulnerabilities at or above the configured severity.\n"
	failedLineTemplateConstant       = "Failed: vulnerable advisories at or above the configured severity: %s.\n"
	noFindingsLineConstant           = "No findings to list.\n"
	foundAllowlistTitleConstant      = "Found allowlisted entries"
	unusedAllowlistTitleConstant     = "Allowlisted entries not found (consider removing them)"
	allowlistSectionTemplateConstant = "%s: %s\n"
	suppressedCountTemplateConstant  = "Suppressed findings: %d\n"
	advisoryListSeparatorConstant    = ", "
	tableBlankCellConstant           = "-"
	columnStatusConstant             = "Status"
	columnSeverityConstant           = "Severity"
	columnAdvisoryConstant           = "Advisory"
	columnModuleConstant             = "Module"
	columnPathConstant               = "Path"
	columnTitleConstant              = "Title"
	columnCountConstant              = "Count"
	newlineConstant                  = "\n"
)

// TextRenderer writes tables for people reading CI logs or terminals.
type TextRenderer struct{}

// Render implements Renderer.
func (TextRenderer) Render(writer io.Writer, auditReport report.Report) error {
	output := NewOutput(writer)
	var builder strings.Builder

	builder.WriteString(header(auditReport))
	if auditReport.AuditSkipped {
		builder.WriteString(colorize(output, skippedLineConstant, output.Color(colorYellowConstant)))
	}

	builder.WriteString(newlineConstant)
	writeCountsTable(&builder, output, auditReport)
	builder.WriteString(fmt.Sprintf(suppressedCountTemplateConstant, auditReport.SuppressedCount))

	if auditReport.Type != report.TypeSummary {
		builder.WriteString(newlineConstant)
		writeFindingsTable(&builder, output, auditReport)
		writeAllowlistSection(&builder, foundAllowlistTitleConstant, auditReport.FoundAllowlist)
		writeAllowlistSection(&builder, unusedAllowlistTitleConstant, auditReport.UnusedAllowlist)
	}

	builder.WriteString(newlineConstant)
	if auditReport.Passed {
		builder.WriteString(colorize(output, passedLineConstant, output.Color(colorGreenConstant)))
	} else {
		failedLine := fmt.Sprintf(failedLineTemplateConstant, strings.Join(auditReport.FailingAdvisoryIDs, advisoryListSeparatorConstant))
		builder.WriteString(colorize(output, failedLine, output.Color(colorRedConstant)))
	}

	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}

func header(auditReport report.Report) string {
	if len(auditReport.ToolVersion) == 0 {
		return fmt.Sprintf(headerTemplateConstant, auditReport.Tool, auditReport.Type)
	}
	return fmt.Sprintf(headerWithVersionTemplate, auditReport.Tool, auditReport.ToolVersion, auditReport.Type)
}

func newTable(writer io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetRowLine(false)
	table.SetColumnSeparator("")
	table.SetAutoWrapText(false)
	return table
}

func writeCountsTable(builder *strings.Builder, output *termenv.Output, auditReport report.Report) {
	table := newTable(builder)
	table.SetHeader([]string{columnSeverityConstant, columnCountConstant})
	for index := len(vulnerability.AllSeverities()) - 1; index >= 0; index-- {
		severity := vulnerability.AllSeverities()[index]
		table.Append([]string{
			colorize(output, severity.String(), severityColor(output, severity)),
			strconv.Itoa(auditReport.Counts[severity]),
		})
	}
	table.Render()
}

func writeFindingsTable(builder *strings.Builder, output *termenv.Output, auditReport report.Report) {
	if len(auditReport.Findings) == 0 {
		builder.WriteString(noFindingsLineConstant)
		return
	}
	showStatus := auditReport.Type == report.TypeFull
	table := newTable(builder)
	headerRow := []string{columnSeverityConstant, columnAdvisoryConstant, columnModuleConstant, columnPathConstant, columnTitleConstant}
	if showStatus {
		headerRow = append([]string{columnStatusConstant}, headerRow...)
	}
	table.SetHeader(headerRow)
	for _, entry := range auditReport.Findings {
		row := []string{
			colorize(output, entry.Severity.String(), severityColor(output, entry.Severity)),
			entry.AdvisoryID,
			entry.ModuleName,
			blankIfEmpty(entry.PathString()),
			blankIfEmpty(entry.Title),
		}
		if showStatus {
			row = append([]string{string(entry.Status)}, row...)
		}
		table.Append(row)
	}
	table.Render()
}

func writeAllowlistSection(builder *strings.Builder, title string, entries []allowlist.Entry) {
	if len(entries) == 0 {
		return
	}
	values := make([]string, 0, len(entries))
	for _, entry := range entries {
		values = append(values, entry.String())
	}
	builder.WriteString(fmt.Sprintf(allowlistSectionTemplateConstant, title, strings.Join(values, advisoryListSeparatorConstant)))
}

func blankIfEmpty(value string) string {
	if len(value) == 0 {
		return tableBlankCellConstant
	}
	return value
}
