package vulnerability

import (
	"fmt"
	"strings"
)

const (
	severityLowStringConstant      = "low"
	severityModerateStringConstant = "moderate"
	severityHighStringConstant     = "high"
	severityCriticalStringConstant = "critical"
	severityMediumAliasConstant    = "medium"
	severityInfoAliasConstant      = "info"
	invalidSeverityErrorTemplate   = "invalid severity: %s"
	severityRankUnknownConstant    = 0
	severityRankLowConstant        = 1
	severityRankModerateConstant   = 2
	severityRankHighConstant       = 3
	severityRankCriticalConstant   = 4
)

// Severity enumerates the buckets a finding can fall into.
type Severity string

// Supported severities, lowest first.
const (
	SeverityLow      Severity = Severity(severityLowStringConstant)
	SeverityModerate Severity = Severity(severityModerateStringConstant)
	SeverityHigh     Severity = Severity(severityHighStringConstant)
	SeverityCritical Severity = Severity(severityCriticalStringConstant)
)

// AllSeverities returns every supported severity ordered from lowest to highest.
func AllSeverities() []Severity {
	return []Severity{SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical}
}

// Rank returns an integer for ordering comparisons (low=1, critical=4, unknown=0).
func (severity Severity) Rank() int {
	switch severity {
	case SeverityLow:
		return severityRankLowConstant
	case SeverityModerate:
		return severityRankModerateConstant
	case SeverityHigh:
		return severityRankHighConstant
	case SeverityCritical:
		return severityRankCriticalConstant
	default:
		return severityRankUnknownConstant
	}
}

func (severity Severity) String() string {
	return string(severity)
}

// ParseSeverity parses a tool-reported severity case-insensitively.
// "medium" is accepted as moderate and npm's "info" folds into low.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case severityLowStringConstant, severityInfoAliasConstant:
		return SeverityLow, nil
	case severityModerateStringConstant, severityMediumAliasConstant:
		return SeverityModerate, nil
	case severityHighStringConstant:
		return SeverityHigh, nil
	case severityCriticalStringConstant:
		return SeverityCritical, nil
	default:
		return "", fmt.Errorf(invalidSeverityErrorTemplate, raw)
	}
}
