package report

import (
	"fmt"
	"strings"

	"github.com/temirov/auditgate/internal/allowlist"
	"github.com/temirov/auditgate/internal/auditors"
	"github.com/temirov/auditgate/internal/gate"
	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	typeSummaryConstant          = "summary"
	typeImportantConstant        = "important"
	typeFullConstant             = "full"
	statusFailingConstant        = "failing"
	statusSuppressedConstant     = "suppressed"
	statusBelowThresholdConstant = "below-threshold"
	invalidReportTypeTemplate    = "Invalid report type: %s. Should be ['important', 'full', 'summary']."
	findingKeySeparatorConstant  = "|"
)

// Type selects report verbosity.
type Type string

// Report verbosities.
const (
	TypeSummary   Type = Type(typeSummaryConstant)
	TypeImportant Type = Type(typeImportantConstant)
	TypeFull      Type = Type(typeFullConstant)
)

// ParseType validates a configured report type.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeSummary:
		return TypeSummary, nil
	case TypeImportant:
		return TypeImportant, nil
	case TypeFull:
		return TypeFull, nil
	default:
		return "", auditors.ConfigurationError{Message: fmt.Sprintf(invalidReportTypeTemplate, raw)}
	}
}

// Status describes how the gate treated a finding.
type Status string

// Finding statuses.
const (
	StatusFailing        Status = Status(statusFailingConstant)
	StatusSuppressed     Status = Status(statusSuppressedConstant)
	StatusBelowThreshold Status = Status(statusBelowThresholdConstant)
)

// Options controls report content.
type Options struct {
	Type         Type
	ShowFound    bool
	ShowNotFound bool
	// LockFile is the lock-file the audit covered, when known.
	LockFile string
}

// FindingEntry is a finding annotated with its gate status.
type FindingEntry struct {
	vulnerability.Finding
	Status Status `json:"status"`
}

// Report is the renderable outcome of one run.
type Report struct {
	Type               Type                           `json:"report_type"`
	Tool               string                         `json:"tool"`
	ToolVersion        string                         `json:"tool_version,omitempty"`
	LockFile           string                         `json:"lock_file,omitempty"`
	Passed             bool                           `json:"passed"`
	AuditSkipped       bool                           `json:"audit_skipped"`
	Counts             map[vulnerability.Severity]int `json:"counts"`
	SuppressedCount    int                            `json:"suppressed_count"`
	FailingAdvisoryIDs []string                       `json:"failing_advisory_ids"`
	Findings           []FindingEntry                 `json:"findings,omitempty"`
	FoundAllowlist     []allowlist.Entry              `json:"found_allowlist,omitempty"`
	UnusedAllowlist    []allowlist.Entry              `json:"unused_allowlist,omitempty"`
}

// Build assembles the report. It does not decide pass or fail; it reflects decision.
func Build(result vulnerability.AuditResult, match allowlist.MatchResult, decision gate.Decision, options Options) Report {
	built := Report{
		Type:               options.Type,
		Tool:               result.Tool,
		ToolVersion:        result.ToolVersion,
		LockFile:           options.LockFile,
		Passed:             decision.Passed,
		Counts:             copyCounts(decision.Counts),
		SuppressedCount:    len(decision.Suppressed),
		FailingAdvisoryIDs: decision.FailingAdvisoryIDs(),
	}

	switch options.Type {
	case TypeSummary:
		return built
	case TypeFull:
		built.Findings = annotateAll(result.Findings, decision)
	default:
		built.Findings = annotate(decision.Failing, StatusFailing)
	}

	if options.ShowFound {
		built.FoundAllowlist = append([]allowlist.Entry{}, match.Found...)
	}
	if options.ShowNotFound {
		built.UnusedAllowlist = append([]allowlist.Entry{}, decision.UnusedAllowlist...)
	}
	return built
}

// Skipped builds the report for an audit that was not performed.
func Skipped(tool string, options Options) Report {
	decision := gate.SkippedDecision()
	skipped := Build(vulnerability.EmptyAuditResult(tool), allowlist.MatchResult{}, decision, options)
	skipped.AuditSkipped = true
	return skipped
}

// FindingsWithStatus filters report findings by status.
func (built Report) FindingsWithStatus(status Status) []FindingEntry {
	filtered := []FindingEntry{}
	for _, entry := range built.Findings {
		if entry.Status == status {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func annotate(findings []vulnerability.Finding, status Status) []FindingEntry {
	entries := make([]FindingEntry, 0, len(findings))
	for _, finding := range findings {
		entries = append(entries, FindingEntry{Finding: finding, Status: status})
	}
	return entries
}

func annotateAll(findings []vulnerability.Finding, decision gate.Decision) []FindingEntry {
	failingKeys := keySet(decision.Failing)
	suppressedKeys := keySet(decision.Suppressed)
	entries := make([]FindingEntry, 0, len(findings))
	for _, finding := range findings {
		status := StatusBelowThreshold
		key := findingKey(finding)
		if _, suppressed := suppressedKeys[key]; suppressed {
			status = StatusSuppressed
		} else if _, failing := failingKeys[key]; failing {
			status = StatusFailing
		}
		entries = append(entries, FindingEntry{Finding: finding, Status: status})
	}
	return entries
}

func keySet(findings []vulnerability.Finding) map[string]struct{} {
	keys := make(map[string]struct{}, len(findings))
	for _, finding := range findings {
		keys[findingKey(finding)] = struct{}{}
	}
	return keys
}

func findingKey(finding vulnerability.Finding) string {
	return strings.Join([]string{finding.AdvisoryID, finding.ModuleName, finding.PathString()}, findingKeySeparatorConstant)
}

func copyCounts(counts gate.SeverityCounts) map[vulnerability.Severity]int {
	copied := make(map[vulnerability.Severity]int, len(vulnerability.AllSeverities()))
	for _, severity := range vulnerability.AllSeverities() {
		copied[severity] = counts[severity]
	}
	return copied
}
