package vulnerability

import "strings"

// PathSeparator joins module names in a dependency path.
const PathSeparator = ">"

// Finding is a single reported vulnerability tied to one dependency occurrence.
type Finding struct {
	AdvisoryID      string   `json:"advisory_id"`
	Severity        Severity `json:"severity"`
	ModuleName      string   `json:"module_name"`
	Path            []string `json:"path"`
	Title           string   `json:"title"`
	URL             string   `json:"url,omitempty"`
	VulnerableRange string   `json:"vulnerable_range,omitempty"`
}

// PathString renders the dependency path as "a>b>c".
func (finding Finding) PathString() string {
	return strings.Join(finding.Path, PathSeparator)
}

// SplitPath parses an "a>b>c" dependency path, ignoring blank segments.
func SplitPath(rawPath string) []string {
	segments := strings.Split(rawPath, PathSeparator)
	path := make([]string, 0, len(segments))
	for _, segment := range segments {
		trimmedSegment := strings.TrimSpace(segment)
		if len(trimmedSegment) == 0 {
			continue
		}
		path = append(path, trimmedSegment)
	}
	return path
}

// AuditResult is the normalized output of one audit invocation.
// Findings keep the order in which the underlying tool reported them.
type AuditResult struct {
	Tool        string    `json:"tool"`
	ToolVersion string    `json:"tool_version,omitempty"`
	Findings    []Finding `json:"findings"`
}

// EmptyAuditResult describes an audit that was not performed.
func EmptyAuditResult(tool string) AuditResult {
	return AuditResult{Tool: tool, Findings: []Finding{}}
}
