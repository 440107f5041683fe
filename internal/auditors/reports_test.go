package auditors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/auditgate/internal/allowlist"
	"github.com/temirov/auditgate/internal/vulnerability"
)

func readFixture(testInstance *testing.T, fileName string) string {
	testInstance.Helper()
	content, readError := os.ReadFile(filepath.Join("testdata", fileName))
	require.NoError(testInstance, readError)
	return string(content)
}

func TestParseNpmReportModernFormat(testInstance *testing.T) {
	report, parseError := parseNpmReport(readFixture(testInstance, "npm_modern_report.json"))
	require.NoError(testInstance, parseError)
	require.Empty(testInstance, report.failureText)

	require.Equal(testInstance, []vulnerability.Finding{
		{
			AdvisoryID:      "1095264",
			Severity:        vulnerability.SeverityModerate,
			ModuleName:      "@babel/traverse",
			Path:            []string{"@babel/traverse"},
			Title:           "Babel vulnerable to arbitrary code execution",
			URL:             "https://github.com/advisories/GHSA-67hx-6x53-jw92",
			VulnerableRange: "<7.23.2",
		},
		{
			AdvisoryID:      "1096460",
			Severity:        vulnerability.SeverityCritical,
			ModuleName:      "minimist",
			Path:            []string{"mkdirp", "minimist"},
			Title:           "Prototype Pollution in minimist",
			URL:             "https://github.com/advisories/GHSA-xvch-5gv4-984h",
			VulnerableRange: "<0.2.4",
		},
	}, report.findings)
}

func TestParseNpmReportLegacyFormat(testInstance *testing.T) {
	report, parseError := parseNpmReport(readFixture(testInstance, "npm_legacy_report.json"))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, report.findings, 3)

	require.Equal(testInstance, "1077", report.findings[0].AdvisoryID)
	require.Equal(testInstance, "bar>foo", report.findings[0].PathString())
	require.Equal(testInstance, vulnerability.SeverityHigh, report.findings[0].Severity)

	require.Equal(testInstance, "1179", report.findings[1].AdvisoryID)
	require.Equal(testInstance, "mkdirp>minimist", report.findings[1].PathString())
	require.Equal(testInstance, "optimist>minimist", report.findings[2].PathString())
	require.Equal(testInstance, vulnerability.SeverityLow, report.findings[2].Severity)
}

func TestParseNpmReportErrorDocuments(testInstance *testing.T) {
	testCases := []struct {
		name                string
		fixture             string
		expectedFailureText string
	}{
		{
			name:                "npm_enoaudit",
			fixture:             "npm_enoaudit.json",
			expectedFailureText: "ENOAUDIT: Your configured registry (https://registry.example.test/) does not support audit requests.",
		},
		{
			name:                "pnpm_missing_endpoint",
			fixture:             "pnpm_endpoint_missing.json",
			expectedFailureText: "ERR_PNPM_AUDIT_ENDPOINT_NOT_EXISTS: The audit endpoint (at https://registry.example.test/-/npm/v1/security/audits/quick) doesn't exist.",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			report, parseError := parseNpmReport(readFixture(testInstance, testCase.fixture))
			require.NoError(testInstance, parseError)
			require.Empty(testInstance, report.findings)
			require.Equal(testInstance, testCase.expectedFailureText, report.failureText)
		})
	}
}

func TestParseNpmReportRejectsUnrecognizedDocuments(testInstance *testing.T) {
	testCases := []struct {
		name   string
		output string
	}{
		{name: "not_json", output: "npm ERR! code E500"},
		{name: "unknown_document", output: `{"metadata":{}}`},
		{name: "blank", output: "   "},
		{name: "bad_severity", output: `{"advisories":{"1":{"id":1,"module_name":"a","severity":"urgent","findings":[]}}}`},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, parseError := parseNpmReport(testCase.output)
			require.Error(testInstance, parseError)
		})
	}
}

func TestParseYarnClassicStream(testInstance *testing.T) {
	report, parseError := parseYarnClassicStream(readFixture(testInstance, "yarn_classic_report.ndjson"))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, report.findings, 2)
	require.Equal(testInstance, "1077", report.findings[0].AdvisoryID)
	require.Equal(testInstance, []string{"bar", "foo"}, report.findings[0].Path)
	require.Equal(testInstance, "minimist", report.findings[1].ModuleName)
	require.Equal(testInstance, vulnerability.SeverityModerate, report.findings[1].Severity)
}

func TestParseYarnClassicStreamCollectsErrorLines(testInstance *testing.T) {
	report, parseError := parseYarnClassicStream(readFixture(testInstance, "yarn_classic_unavailable.ndjson"))
	require.NoError(testInstance, parseError)
	require.Empty(testInstance, report.findings)
	require.Contains(testInstance, report.failureText, "503 Service Unavailable")
}

func TestParseYarnClassicStreamRequiresAuditLines(testInstance *testing.T) {
	_, parseError := parseYarnClassicStream(`{"type":"info","data":"nothing here"}`)
	require.ErrorIs(testInstance, parseError, errUnrecognizedStream)

	_, parseError = parseYarnClassicStream("Usage Error: unknown command")
	require.Error(testInstance, parseError)
}

func TestParseYarnBerryReport(testInstance *testing.T) {
	report, parseError := parseYarnBerryReport(readFixture(testInstance, "yarn_berry_report.ndjson"))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, report.findings, 2)
	require.Equal(testInstance, "1096460", report.findings[0].AdvisoryID)
	require.Equal(testInstance, "minimist", report.findings[0].ModuleName)
	require.Equal(testInstance, []string{"mkdirp", "minimist"}, report.findings[0].Path)
	require.Equal(testInstance, []string{"semver"}, report.findings[1].Path)
	require.Equal(testInstance, vulnerability.SeverityCritical, report.findings[0].Severity)
	require.Equal(testInstance, ">=7.0.0 <7.5.2", report.findings[1].VulnerableRange)

	legacyReport, legacyError := parseYarnBerryReport(readFixture(testInstance, "npm_legacy_report.json"))
	require.NoError(testInstance, legacyError)
	require.Len(testInstance, legacyReport.findings, 3)
}

func TestModernPathsFallBackToModuleName(testInstance *testing.T) {
	require.Equal(testInstance, [][]string{{"lodash"}}, modernPaths(nil, "lodash"))
	require.Equal(testInstance, [][]string{{"@scope/a", "b"}}, modernPaths([]string{"node_modules/@scope/a/node_modules/b"}, "b"))
}

func TestDependencyChainsFollowEffects(testInstance *testing.T) {
	vulnerabilities := map[string]modernVulnerability{
		"minimist":   {Name: "minimist", Effects: []string{"mkdirp", "optimist"}, Nodes: []string{"node_modules/minimist"}},
		"mkdirp":     {Name: "mkdirp", IsDirect: true, Effects: []string{}},
		"optimist":   {Name: "optimist", Effects: []string{"handlebars"}},
		"handlebars": {Name: "handlebars", IsDirect: true, Effects: []string{"optimist"}},
		"orphan":     {Name: "orphan", Nodes: []string{"packages/web/node_modules/orphan"}},
	}

	testCases := []struct {
		name          string
		packageName   string
		expectedPaths [][]string
	}{
		{
			name:          "hoisted_transitive_module",
			packageName:   "minimist",
			expectedPaths: [][]string{{"mkdirp", "minimist"}, {"handlebars", "optimist", "minimist"}},
		},
		{
			name:          "direct_module_inside_cycle",
			packageName:   "handlebars",
			expectedPaths: [][]string{{"handlebars"}},
		},
		{
			name:          "module_without_dependents_uses_install_location",
			packageName:   "orphan",
			expectedPaths: [][]string{{"orphan"}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedPaths, dependencyChains(vulnerabilities, testCase.packageName))
		})
	}
}

func TestHoistedTransitiveFindingMatchesPathAllowlist(testInstance *testing.T) {
	report, parseError := parseNpmReport(readFixture(testInstance, "npm_modern_report.json"))
	require.NoError(testInstance, parseError)

	matchResult := allowlist.Match(report.findings, allowlist.Parse([]string{"mkdirp>minimist"}))
	require.Len(testInstance, matchResult.Suppressed, 1)
	require.Equal(testInstance, "minimist", matchResult.Suppressed[0].ModuleName)
	require.Empty(testInstance, matchResult.Unused)
	for _, finding := range matchResult.Unsuppressed {
		require.NotEqual(testInstance, "minimist", finding.ModuleName)
	}
}

func TestYarnBerryPathsFromDependents(testInstance *testing.T) {
	testCases := []struct {
		name          string
		dependents    string
		expectedPaths [][]string
	}{
		{name: "transitive", dependents: `["mkdirp@npm:0.5.1","optimist@npm:0.6.1"]`, expectedPaths: [][]string{{"mkdirp", "minimist"}, {"optimist", "minimist"}}},
		{name: "scoped_dependent", dependents: `["@babel/core@npm:7.22.0"]`, expectedPaths: [][]string{{"@babel/core", "minimist"}}},
		{name: "workspace_dependent", dependents: `["app@workspace:."]`, expectedPaths: [][]string{{"minimist"}}},
		{name: "no_dependents", dependents: `[]`, expectedPaths: [][]string{{"minimist"}}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			packageLine := yarnBerryLine{
				Value:    "minimist",
				Children: map[string]json.RawMessage{"Dependents": json.RawMessage(testCase.dependents)},
			}
			require.Equal(testInstance, testCase.expectedPaths, yarnBerryPaths(packageLine))
		})
	}
}
