package render

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/temirov/auditgate/internal/report"
	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	sarifToolNameConstant        = "auditgate"
	sarifToolInformationURI      = "https://github.com/temirov/auditgate"
	sarifLevelErrorConstant      = "error"
	sarifLevelWarningConstant    = "warning"
	sarifLevelNoteConstant       = "note"
	sarifRuleIDTemplateConstant  = "%s-advisory-%s"
	sarifMessageTemplateConstant = "%s %s in %s (%s): %s"
	sarifDefaultArtifactConstant = "package.json"
)

// SARIFRenderer writes one SARIF run with a rule per advisory and a result per failing finding.
type SARIFRenderer struct{}

// Render implements Renderer.
func (SARIFRenderer) Render(writer io.Writer, auditReport report.Report) error {
	sarifReport, creationError := sarif.New(sarif.Version210)
	if creationError != nil {
		return creationError
	}

	run := sarif.NewRunWithInformationURI(sarifToolNameConstant, sarifToolInformationURI)
	artifact := auditReport.LockFile
	if len(artifact) == 0 {
		artifact = sarifDefaultArtifactConstant
	}

	ruleIndex := map[string]int{}
	for _, entry := range auditReport.FindingsWithStatus(report.StatusFailing) {
		ruleID := fmt.Sprintf(sarifRuleIDTemplateConstant, auditReport.Tool, entry.AdvisoryID)
		if _, exists := ruleIndex[ruleID]; !exists {
			ruleIndex[ruleID] = len(ruleIndex)
			run.AddRule(ruleID).
				WithName(entry.ModuleName).
				WithDescription(ruleDescription(entry.Finding))
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().WithArtifactLocation(sarif.NewSimpleArtifactLocation(artifact)),
		)
		result := sarif.NewRuleResult(ruleID).
			WithRuleIndex(ruleIndex[ruleID]).
			WithMessage(sarif.NewTextMessage(resultMessage(entry.Finding))).
			WithLevel(sarifLevel(entry.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}

	sarifReport.AddRun(run)
	return sarifReport.Write(writer)
}

func ruleDescription(finding vulnerability.Finding) string {
	if len(finding.Title) > 0 {
		return finding.Title
	}
	return finding.ModuleName
}

func resultMessage(finding vulnerability.Finding) string {
	return fmt.Sprintf(sarifMessageTemplateConstant, finding.Severity, finding.AdvisoryID, finding.ModuleName, finding.PathString(), ruleDescription(finding))
}

func sarifLevel(severity vulnerability.Severity) string {
	switch severity {
	case vulnerability.SeverityCritical, vulnerability.SeverityHigh:
		return sarifLevelErrorConstant
	case vulnerability.SeverityModerate:
		return sarifLevelWarningConstant
	default:
		return sarifLevelNoteConstant
	}
}
