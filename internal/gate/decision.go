package gate

import (
	"github.com/temirov/auditgate/internal/allowlist"
	"github.com/temirov/auditgate/internal/vulnerability"
)

// SeverityCounts tallies un-suppressed findings per severity.
type SeverityCounts map[vulnerability.Severity]int

// Total sums every severity.
func (counts SeverityCounts) Total() int {
	total := 0
	for _, count := range counts {
		total += count
	}
	return total
}

// Decision is the outcome of one gate evaluation.
type Decision struct {
	Passed          bool
	Failing         []vulnerability.Finding
	Suppressed      []vulnerability.Finding
	UnusedAllowlist []allowlist.Entry
	Counts          SeverityCounts
}

// Evaluate fails every un-suppressed finding whose severity is enabled.
// Failing keeps input order; membership and Passed do not depend on it.
func Evaluate(match allowlist.MatchResult, thresholds Thresholds) Decision {
	decision := Decision{
		Failing:         []vulnerability.Finding{},
		Suppressed:      append([]vulnerability.Finding{}, match.Suppressed...),
		UnusedAllowlist: append([]allowlist.Entry{}, match.Unused...),
		Counts:          emptyCounts(),
	}
	for _, finding := range match.Unsuppressed {
		decision.Counts[finding.Severity]++
		if thresholds.Enabled(finding.Severity) {
			decision.Failing = append(decision.Failing, finding)
		}
	}
	decision.Passed = len(decision.Failing) == 0
	return decision
}

// SkippedDecision is the decision for an audit that could not be performed and was allowed to pass.
func SkippedDecision() Decision {
	return Decision{
		Passed:          true,
		Failing:         []vulnerability.Finding{},
		Suppressed:      []vulnerability.Finding{},
		UnusedAllowlist: []allowlist.Entry{},
		Counts:          emptyCounts(),
	}
}

// FailingAdvisoryIDs lists each failing advisory once, in first-seen order.
func (decision Decision) FailingAdvisoryIDs() []string {
	identifiers := []string{}
	seenIdentifiers := make(map[string]struct{}, len(decision.Failing))
	for _, finding := range decision.Failing {
		if _, seen := seenIdentifiers[finding.AdvisoryID]; seen {
			continue
		}
		seenIdentifiers[finding.AdvisoryID] = struct{}{}
		identifiers = append(identifiers, finding.AdvisoryID)
	}
	return identifiers
}

func emptyCounts() SeverityCounts {
	counts := make(SeverityCounts, len(vulnerability.AllSeverities()))
	for _, severity := range vulnerability.AllSeverities() {
		counts[severity] = 0
	}
	return counts
}
