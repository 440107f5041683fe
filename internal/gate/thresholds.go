package gate

import "github.com/temirov/auditgate/internal/vulnerability"

// Thresholds lists which severities fail the build.
type Thresholds struct {
	Low      bool `json:"low"`
	Moderate bool `json:"moderate"`
	High     bool `json:"high"`
	Critical bool `json:"critical"`
}

// ThresholdsFromMinimum enables minimum and every higher severity.
func ThresholdsFromMinimum(minimum vulnerability.Severity) Thresholds {
	return Thresholds{
		Low:      minimum.Rank() <= vulnerability.SeverityLow.Rank(),
		Moderate: minimum.Rank() <= vulnerability.SeverityModerate.Rank(),
		High:     minimum.Rank() <= vulnerability.SeverityHigh.Rank(),
		Critical: minimum.Rank() <= vulnerability.SeverityCritical.Rank(),
	}
}

// Enabled reports whether findings of severity fail the build.
func (thresholds Thresholds) Enabled(severity vulnerability.Severity) bool {
	switch severity {
	case vulnerability.SeverityLow:
		return thresholds.Low
	case vulnerability.SeverityModerate:
		return thresholds.Moderate
	case vulnerability.SeverityHigh:
		return thresholds.High
	case vulnerability.SeverityCritical:
		return thresholds.Critical
	default:
		return false
	}
}

// Normalize enables every severity above the lowest enabled one and reports whether anything changed.
func (thresholds Thresholds) Normalize() (Thresholds, bool) {
	normalized := thresholds
	escalate := false
	for _, severity := range vulnerability.AllSeverities() {
		if normalized.Enabled(severity) {
			escalate = true
			continue
		}
		if escalate {
			normalized = normalized.with(severity)
		}
	}
	return normalized, normalized != thresholds
}

// Minimum returns the lowest enabled severity, or false when nothing is enabled.
func (thresholds Thresholds) Minimum() (vulnerability.Severity, bool) {
	for _, severity := range vulnerability.AllSeverities() {
		if thresholds.Enabled(severity) {
			return severity, true
		}
	}
	return "", false
}

func (thresholds Thresholds) with(severity vulnerability.Severity) Thresholds {
	switch severity {
	case vulnerability.SeverityLow:
		thresholds.Low = true
	case vulnerability.SeverityModerate:
		thresholds.Moderate = true
	case vulnerability.SeverityHigh:
		thresholds.High = true
	case vulnerability.SeverityCritical:
		thresholds.Critical = true
	}
	return thresholds
}
