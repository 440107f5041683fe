package allowlist

import (
	"regexp"
	"strings"

	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	kindModuleConstant           = "module"
	kindAdvisoryConstant         = "advisory"
	kindPathConstant             = "path"
	advisoryPathSeparator        = "|"
	githubAdvisoryPatternSource  = `^GHSA(-[0-9a-z]{4}){3}$`
	numericAdvisoryPatternSource = `^[0-9]+$`
)

var (
	githubAdvisoryPattern  = regexp.MustCompile(githubAdvisoryPatternSource)
	numericAdvisoryPattern = regexp.MustCompile(numericAdvisoryPatternSource)
)

// Kind identifies what an allowlist entry matches against.
type Kind string

// Entry kinds.
const (
	KindModule   Kind = Kind(kindModuleConstant)
	KindAdvisory Kind = Kind(kindAdvisoryConstant)
	KindPath     Kind = Kind(kindPathConstant)
)

// Entry is one operator-declared exception.
type Entry struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// String returns the entry as the operator wrote it.
func (entry Entry) String() string {
	return entry.Value
}

// Parse classifies raw allowlist strings: advisory ids ("1077", "GHSA-..."), dependency
// paths ("a>b>c" or "1077|a>b>c"), and module names. Blank and repeated strings are dropped.
func Parse(rawEntries []string) []Entry {
	entries := make([]Entry, 0, len(rawEntries))
	seenValues := make(map[string]struct{}, len(rawEntries))
	for _, rawEntry := range rawEntries {
		value := strings.TrimSpace(rawEntry)
		if len(value) == 0 {
			continue
		}
		if _, seen := seenValues[value]; seen {
			continue
		}
		seenValues[value] = struct{}{}
		entries = append(entries, Entry{Kind: classify(value), Value: value})
	}
	return entries
}

func classify(value string) Kind {
	switch {
	case isAdvisoryIdentifier(value):
		return KindAdvisory
	case strings.Contains(value, vulnerability.PathSeparator), strings.Contains(value, advisoryPathSeparator):
		return KindPath
	default:
		return KindModule
	}
}

func isAdvisoryIdentifier(value string) bool {
	return numericAdvisoryPattern.MatchString(value) || githubAdvisoryPattern.MatchString(value)
}
