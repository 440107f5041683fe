package allowlist

import (
	"strings"

	"github.com/temirov/auditgate/internal/vulnerability"
)

const advisoryURLSeparator = "/"

// MatchResult partitions findings by suppression and entries by use.
type MatchResult struct {
	Suppressed   []vulnerability.Finding
	Unsuppressed []vulnerability.Finding
	Found        []Entry
	Unused       []Entry
}

// Match suppresses every finding matched by at least one entry.
// Each finding lands in exactly one partition, in input order; entry order is kept for Found and Unused.
func Match(findings []vulnerability.Finding, entries []Entry) MatchResult {
	result := MatchResult{
		Suppressed:   []vulnerability.Finding{},
		Unsuppressed: []vulnerability.Finding{},
		Found:        []Entry{},
		Unused:       []Entry{},
	}
	usedEntries := make([]bool, len(entries))

	for _, finding := range findings {
		suppressed := false
		for entryIndex, entry := range entries {
			if entry.Matches(finding) {
				usedEntries[entryIndex] = true
				suppressed = true
			}
		}
		if suppressed {
			result.Suppressed = append(result.Suppressed, finding)
		} else {
			result.Unsuppressed = append(result.Unsuppressed, finding)
		}
	}

	for entryIndex, entry := range entries {
		if usedEntries[entryIndex] {
			result.Found = append(result.Found, entry)
		} else {
			result.Unused = append(result.Unused, entry)
		}
	}
	return result
}

// Matches reports whether the entry suppresses finding. Comparisons are exact.
func (entry Entry) Matches(finding vulnerability.Finding) bool {
	switch entry.Kind {
	case KindAdvisory:
		return matchesAdvisory(entry.Value, finding)
	case KindModule:
		return entry.Value == finding.ModuleName
	case KindPath:
		advisoryPart, pathPart, hasAdvisory := strings.Cut(entry.Value, advisoryPathSeparator)
		if !hasAdvisory {
			return entry.Value == finding.PathString()
		}
		return matchesAdvisory(advisoryPart, finding) && pathPart == finding.PathString()
	default:
		return false
	}
}

// matchesAdvisory accepts the reported identifier or the GitHub advisory id that ends the advisory URL.
func matchesAdvisory(identifier string, finding vulnerability.Finding) bool {
	if identifier == finding.AdvisoryID {
		return true
	}
	return len(finding.URL) > 0 && strings.HasSuffix(finding.URL, advisoryURLSeparator+identifier)
}
