package allowlist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/auditgate/internal/allowlist"
	"github.com/temirov/auditgate/internal/vulnerability"
)

var (
	fooFinding = vulnerability.Finding{
		AdvisoryID: "1077",
		Severity:   vulnerability.SeverityHigh,
		ModuleName: "foo",
		Path:       []string{"bar", "foo"},
	}
	minimistViaMkdirpFinding = vulnerability.Finding{
		AdvisoryID: "1096460",
		Severity:   vulnerability.SeverityCritical,
		ModuleName: "minimist",
		Path:       []string{"mkdirp", "minimist"},
		URL:        "https://github.com/advisories/GHSA-xvch-5gv4-984h",
	}
	minimistViaOptimistFinding = vulnerability.Finding{
		AdvisoryID: "1096460",
		Severity:   vulnerability.SeverityCritical,
		ModuleName: "minimist",
		Path:       []string{"optimist", "minimist"},
		URL:        "https://github.com/advisories/GHSA-xvch-5gv4-984h",
	}
)

func TestParseClassifiesEntries(testInstance *testing.T) {
	entries := allowlist.Parse([]string{
		" 1077 ",
		"GHSA-xvch-5gv4-984h",
		"mkdirp>minimist",
		"1096460|optimist>minimist",
		"lodash",
		"@babel/traverse",
		"",
		"lodash",
	})

	require.Equal(testInstance, []allowlist.Entry{
		{Kind: allowlist.KindAdvisory, Value: "1077"},
		{Kind: allowlist.KindAdvisory, Value: "GHSA-xvch-5gv4-984h"},
		{Kind: allowlist.KindPath, Value: "mkdirp>minimist"},
		{Kind: allowlist.KindPath, Value: "1096460|optimist>minimist"},
		{Kind: allowlist.KindModule, Value: "lodash"},
		{Kind: allowlist.KindModule, Value: "@babel/traverse"},
	}, entries)
}

func TestMatchSuppression(testInstance *testing.T) {
	findings := []vulnerability.Finding{fooFinding, minimistViaMkdirpFinding, minimistViaOptimistFinding}

	testCases := []struct {
		name                 string
		rawEntries           []string
		expectedSuppressed   []vulnerability.Finding
		expectedUnsuppressed []vulnerability.Finding
		expectedFound        []string
		expectedUnused       []string
	}{
		{
			name:                 "empty_allowlist",
			rawEntries:           nil,
			expectedSuppressed:   []vulnerability.Finding{},
			expectedUnsuppressed: findings,
			expectedFound:        []string{},
			expectedUnused:       []string{},
		},
		{
			name:                 "module_name",
			rawEntries:           []string{"foo"},
			expectedSuppressed:   []vulnerability.Finding{fooFinding},
			expectedUnsuppressed: []vulnerability.Finding{minimistViaMkdirpFinding, minimistViaOptimistFinding},
			expectedFound:        []string{"foo"},
			expectedUnused:       []string{},
		},
		{
			name:                 "advisory_identifier",
			rawEntries:           []string{"1096460"},
			expectedSuppressed:   []vulnerability.Finding{minimistViaMkdirpFinding, minimistViaOptimistFinding},
			expectedUnsuppressed: []vulnerability.Finding{fooFinding},
			expectedFound:        []string{"1096460"},
			expectedUnused:       []string{},
		},
		{
			name:                 "github_advisory_identifier",
			rawEntries:           []string{"GHSA-xvch-5gv4-984h"},
			expectedSuppressed:   []vulnerability.Finding{minimistViaMkdirpFinding, minimistViaOptimistFinding},
			expectedUnsuppressed: []vulnerability.Finding{fooFinding},
			expectedFound:        []string{"GHSA-xvch-5gv4-984h"},
			expectedUnused:       []string{},
		},
		{
			name:                 "bare_path",
			rawEntries:           []string{"mkdirp>minimist"},
			expectedSuppressed:   []vulnerability.Finding{minimistViaMkdirpFinding},
			expectedUnsuppressed: []vulnerability.Finding{fooFinding, minimistViaOptimistFinding},
			expectedFound:        []string{"mkdirp>minimist"},
			expectedUnused:       []string{},
		},
		{
			name:                 "advisory_qualified_path",
			rawEntries:           []string{"1096460|optimist>minimist", "1077|optimist>minimist"},
			expectedSuppressed:   []vulnerability.Finding{minimistViaOptimistFinding},
			expectedUnsuppressed: []vulnerability.Finding{fooFinding, minimistViaMkdirpFinding},
			expectedFound:        []string{"1096460|optimist>minimist"},
			expectedUnused:       []string{"1077|optimist>minimist"},
		},
		{
			name:                 "path_is_exact_not_prefix",
			rawEntries:           []string{"mkdirp", "optimist>minimist>extra", "bar>fo"},
			expectedSuppressed:   []vulnerability.Finding{},
			expectedUnsuppressed: findings,
			expectedFound:        []string{},
			expectedUnused:       []string{"mkdirp", "optimist>minimist>extra", "bar>fo"},
		},
		{
			name:                 "multiple_entries_match_one_finding",
			rawEntries:           []string{"foo", "1077", "bar>foo", "1077|bar>foo", "stale"},
			expectedSuppressed:   []vulnerability.Finding{fooFinding},
			expectedUnsuppressed: []vulnerability.Finding{minimistViaMkdirpFinding, minimistViaOptimistFinding},
			expectedFound:        []string{"foo", "1077", "bar>foo", "1077|bar>foo"},
			expectedUnused:       []string{"stale"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			matchResult := allowlist.Match(findings, allowlist.Parse(testCase.rawEntries))

			require.Equal(testInstance, testCase.expectedSuppressed, matchResult.Suppressed)
			require.Equal(testInstance, testCase.expectedUnsuppressed, matchResult.Unsuppressed)
			require.Equal(testInstance, testCase.expectedFound, entryValues(matchResult.Found))
			require.Equal(testInstance, testCase.expectedUnused, entryValues(matchResult.Unused))
		})
	}
}

func TestMatchMembershipIndependentOfOrder(testInstance *testing.T) {
	entries := allowlist.Parse([]string{"foo", "mkdirp>minimist"})
	forward := allowlist.Match([]vulnerability.Finding{fooFinding, minimistViaMkdirpFinding, minimistViaOptimistFinding}, entries)
	reversed := allowlist.Match([]vulnerability.Finding{minimistViaOptimistFinding, minimistViaMkdirpFinding, fooFinding}, entries)

	require.ElementsMatch(testInstance, forward.Suppressed, reversed.Suppressed)
	require.ElementsMatch(testInstance, forward.Unsuppressed, reversed.Unsuppressed)
	require.Equal(testInstance, forward.Found, reversed.Found)
	require.Equal(testInstance, forward.Unused, reversed.Unused)
}

func entryValues(entries []allowlist.Entry) []string {
	values := make([]string, 0, len(entries))
	for _, entry := range entries {
		values = append(values, entry.Value)
	}
	return values
}
