package auditors

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	nodeModulesSegmentConstant        = "node_modules/"
	nodePathTrimCharactersConstant    = "/"
	yarnLineTypeAdvisoryConstant      = "auditAdvisory"
	yarnLineTypeSummaryConstant       = "auditSummary"
	yarnLineTypeErrorConstant         = "error"
	failureTextSeparatorConstant      = ": "
	failureLineSeparatorConstant      = "\n"
	advisoryURLSegmentSeparator       = "/"
	emptyReportMessageConstant        = "audit output contained no report"
	unrecognizedReportMessageConstant = "audit output is neither a vulnerabilities nor an advisories report"
	unrecognizedStreamMessageConstant = "audit output contained no recognizable audit lines"
	invalidSeverityTemplateConstant   = "advisory %s: %w"
	invalidJSONLineTemplateConstant   = "line %d: %w"
	maximumStreamLineBytesConstant    = 16 * 1024 * 1024
	initialStreamBufferBytesConstant  = 64 * 1024
	missingAdvisoryIdentifierConstant = "unknown"
	yarnBerryIdentifierKeyConstant    = "ID"
	yarnBerrySeverityKeyConstant      = "Severity"
	yarnBerryIssueKeyConstant         = "Issue"
	yarnBerryURLKeyConstant           = "URL"
	yarnBerryVulnerableVersionsKey    = "Vulnerable Versions"
	yarnBerryDependentsKeyConstant    = "Dependents"
	yarnDescriptorSeparatorConstant   = "@"
	yarnWorkspaceProtocolConstant     = "workspace:"
	dependencyPathKeySeparator        = ">"
)

var (
	errEmptyReport        = errors.New(emptyReportMessageConstant)
	errUnrecognizedReport = errors.New(unrecognizedReportMessageConstant)
	errUnrecognizedStream = errors.New(unrecognizedStreamMessageConstant)
)

// parsedReport is either a list of findings or the failure text a tool reported in-band.
type parsedReport struct {
	findings    []vulnerability.Finding
	failureText string
}

type reportParser func(standardOutput string) (parsedReport, error)

type toolErrorDocument struct {
	Code    string `json:"code"`
	Summary string `json:"summary"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (document toolErrorDocument) failureText() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{document.Code, document.Summary, document.Message} {
		trimmedPart := strings.TrimSpace(part)
		if len(trimmedPart) > 0 {
			parts = append(parts, trimmedPart)
		}
	}
	text := strings.Join(parts, failureTextSeparatorConstant)
	if trimmedDetail := strings.TrimSpace(document.Detail); len(trimmedDetail) > 0 {
		text = text + failureLineSeparatorConstant + trimmedDetail
	}
	return text
}

type modernReport struct {
	Error           *toolErrorDocument             `json:"error"`
	Vulnerabilities map[string]modernVulnerability `json:"vulnerabilities"`
	Advisories      map[string]legacyAdvisory      `json:"advisories"`
}

type modernVulnerability struct {
	Name     string            `json:"name"`
	Severity string            `json:"severity"`
	IsDirect bool              `json:"isDirect"`
	Via      []json.RawMessage `json:"via"`
	Effects  []string          `json:"effects"`
	Range    string            `json:"range"`
	Nodes    []string          `json:"nodes"`
}

type modernAdvisory struct {
	Source   json.Number `json:"source"`
	Name     string      `json:"name"`
	Title    string      `json:"title"`
	URL      string      `json:"url"`
	Severity string      `json:"severity"`
	Range    string      `json:"range"`
}

type legacyAdvisory struct {
	ID                 json.Number     `json:"id"`
	ModuleName         string          `json:"module_name"`
	Severity           string          `json:"severity"`
	Title              string          `json:"title"`
	URL                string          `json:"url"`
	VulnerableVersions string          `json:"vulnerable_versions"`
	Findings           []legacyFinding `json:"findings"`
}

type legacyFinding struct {
	Version string   `json:"version"`
	Paths   []string `json:"paths"`
}

type yarnClassicLine struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type yarnClassicAdvisoryData struct {
	Resolution struct {
		ID   json.Number `json:"id"`
		Path string      `json:"path"`
	} `json:"resolution"`
	Advisory legacyAdvisory `json:"advisory"`
}

type yarnBerryLine struct {
	Value    string                     `json:"value"`
	Children map[string]json.RawMessage `json:"children"`
}

// parseNpmReport reads either report generation npm emits with --json.
// npm 7 and later produce a "vulnerabilities" map; npm 6, pnpm, and yarn 2-3 produce "advisories".
func parseNpmReport(standardOutput string) (parsedReport, error) {
	if len(strings.TrimSpace(standardOutput)) == 0 {
		return parsedReport{}, errEmptyReport
	}
	var report modernReport
	decoder := json.NewDecoder(strings.NewReader(standardOutput))
	decoder.UseNumber()
	if decodeError := decoder.Decode(&report); decodeError != nil {
		return parsedReport{}, decodeError
	}
	if report.Error != nil {
		return parsedReport{failureText: report.Error.failureText()}, nil
	}
	switch {
	case report.Vulnerabilities != nil:
		findings, findingsError := modernFindings(report.Vulnerabilities)
		return parsedReport{findings: findings}, findingsError
	case report.Advisories != nil:
		findings, findingsError := legacyFindings(report.Advisories)
		return parsedReport{findings: findings}, findingsError
	default:
		return parsedReport{}, errUnrecognizedReport
	}
}

func modernFindings(vulnerabilities map[string]modernVulnerability) ([]vulnerability.Finding, error) {
	findings := []vulnerability.Finding{}
	for _, packageName := range sortedKeys(vulnerabilities) {
		entry := vulnerabilities[packageName]
		for _, rawVia := range entry.Via {
			var advisory modernAdvisory
			if unmarshalError := unmarshalNumber(rawVia, &advisory); unmarshalError != nil {
				// String entries point at another vulnerable package and carry no advisory of their own.
				continue
			}
			severity, severityError := vulnerability.ParseSeverity(advisory.Severity)
			if severityError != nil {
				return nil, fmt.Errorf(invalidSeverityTemplateConstant, advisory.Source, severityError)
			}
			moduleName := advisory.Name
			if len(moduleName) == 0 {
				moduleName = packageName
			}
			for _, path := range dependencyChains(vulnerabilities, packageName) {
				findings = append(findings, vulnerability.Finding{
					AdvisoryID:      advisoryIdentifier(advisory.Source, advisory.URL),
					Severity:        severity,
					ModuleName:      moduleName,
					Path:            path,
					Title:           advisory.Title,
					URL:             advisory.URL,
					VulnerableRange: advisory.Range,
				})
			}
		}
	}
	return findings, nil
}

// dependencyChains walks the "effects" edges of an npm 7+ report back to direct dependencies and
// returns every chain ending in packageName. Packages that no vulnerable package depends on fall
// back to their install locations.
func dependencyChains(vulnerabilities map[string]modernVulnerability, packageName string) [][]string {
	chains := walkDependents(vulnerabilities, packageName, map[string]bool{})
	if len(chains) == 0 {
		chains = modernPaths(vulnerabilities[packageName].Nodes, packageName)
	}
	return uniquePaths(chains)
}

// walkDependents returns nil for a package already on the current chain.
func walkDependents(vulnerabilities map[string]modernVulnerability, packageName string, visiting map[string]bool) [][]string {
	entry, known := vulnerabilities[packageName]
	if !known {
		return [][]string{{packageName}}
	}
	if visiting[packageName] {
		return nil
	}
	visiting[packageName] = true
	defer delete(visiting, packageName)

	chains := [][]string{}
	if entry.IsDirect {
		chains = append(chains, []string{packageName})
	}
	for _, dependentName := range entry.Effects {
		for _, dependentChain := range walkDependents(vulnerabilities, dependentName, visiting) {
			chain := make([]string, 0, len(dependentChain)+1)
			chain = append(chain, dependentChain...)
			chains = append(chains, append(chain, packageName))
		}
	}
	if len(chains) == 0 && len(entry.Effects) == 0 {
		chains = modernPaths(entry.Nodes, packageName)
	}
	return chains
}

// modernPaths turns install nodes such as "node_modules/a/node_modules/b" into ["a", "b"].
func modernPaths(nodes []string, moduleName string) [][]string {
	if len(nodes) == 0 {
		return [][]string{{moduleName}}
	}
	paths := make([][]string, 0, len(nodes))
	for _, node := range nodes {
		segments := strings.Split(node, nodeModulesSegmentConstant)
		path := make([]string, 0, len(segments))
		// The first segment is the workspace prefix, empty for the root project.
		for _, segment := range segments[1:] {
			trimmedSegment := strings.Trim(segment, nodePathTrimCharactersConstant)
			if len(trimmedSegment) > 0 {
				path = append(path, trimmedSegment)
			}
		}
		if len(path) == 0 {
			path = []string{moduleName}
		}
		paths = append(paths, path)
	}
	return paths
}

func uniquePaths(paths [][]string) [][]string {
	seen := make(map[string]bool, len(paths))
	unique := make([][]string, 0, len(paths))
	for _, path := range paths {
		key := strings.Join(path, dependencyPathKeySeparator)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, path)
	}
	return unique
}

func legacyFindings(advisories map[string]legacyAdvisory) ([]vulnerability.Finding, error) {
	findings := []vulnerability.Finding{}
	for _, advisoryKey := range sortedAdvisoryKeys(advisories) {
		advisory := advisories[advisoryKey]
		severity, severityError := vulnerability.ParseSeverity(advisory.Severity)
		if severityError != nil {
			return nil, fmt.Errorf(invalidSeverityTemplateConstant, advisoryKey, severityError)
		}
		identifier := advisory.ID.String()
		if len(identifier) == 0 {
			identifier = advisoryKey
		}
		paths := legacyPaths(advisory)
		for _, path := range paths {
			findings = append(findings, vulnerability.Finding{
				AdvisoryID:      identifier,
				Severity:        severity,
				ModuleName:      advisory.ModuleName,
				Path:            path,
				Title:           advisory.Title,
				URL:             advisory.URL,
				VulnerableRange: advisory.VulnerableVersions,
			})
		}
	}
	return findings, nil
}

func legacyPaths(advisory legacyAdvisory) [][]string {
	paths := [][]string{}
	for _, finding := range advisory.Findings {
		for _, rawPath := range finding.Paths {
			path := vulnerability.SplitPath(rawPath)
			if len(path) > 0 {
				paths = append(paths, path)
			}
		}
	}
	if len(paths) == 0 {
		paths = append(paths, []string{advisory.ModuleName})
	}
	return paths
}

// parseYarnClassicStream reads the NDJSON stream yarn 1.x writes with --json.
func parseYarnClassicStream(standardOutput string) (parsedReport, error) {
	findings := []vulnerability.Finding{}
	failureLines := []string{}
	recognized := false

	scanner := newLineScanner(standardOutput)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		var streamLine yarnClassicLine
		if unmarshalError := json.Unmarshal([]byte(line), &streamLine); unmarshalError != nil {
			return parsedReport{}, fmt.Errorf(invalidJSONLineTemplateConstant, lineNumber, unmarshalError)
		}
		switch streamLine.Type {
		case yarnLineTypeAdvisoryConstant:
			recognized = true
			var advisoryData yarnClassicAdvisoryData
			if unmarshalError := unmarshalNumber(streamLine.Data, &advisoryData); unmarshalError != nil {
				return parsedReport{}, fmt.Errorf(invalidJSONLineTemplateConstant, lineNumber, unmarshalError)
			}
			finding, findingError := yarnClassicFinding(advisoryData)
			if findingError != nil {
				return parsedReport{}, findingError
			}
			findings = append(findings, finding)
		case yarnLineTypeSummaryConstant:
			recognized = true
		case yarnLineTypeErrorConstant:
			recognized = true
			failureLines = append(failureLines, rawMessageText(streamLine.Data))
		}
	}
	if scanError := scanner.Err(); scanError != nil {
		return parsedReport{}, scanError
	}
	if len(failureLines) > 0 {
		return parsedReport{failureText: strings.Join(failureLines, failureLineSeparatorConstant)}, nil
	}
	if !recognized {
		return parsedReport{}, errUnrecognizedStream
	}
	return parsedReport{findings: findings}, nil
}

func yarnClassicFinding(advisoryData yarnClassicAdvisoryData) (vulnerability.Finding, error) {
	advisory := advisoryData.Advisory
	identifier := advisory.ID.String()
	if len(identifier) == 0 {
		identifier = advisoryData.Resolution.ID.String()
	}
	severity, severityError := vulnerability.ParseSeverity(advisory.Severity)
	if severityError != nil {
		return vulnerability.Finding{}, fmt.Errorf(invalidSeverityTemplateConstant, identifier, severityError)
	}
	path := vulnerability.SplitPath(advisoryData.Resolution.Path)
	if len(path) == 0 {
		path = []string{advisory.ModuleName}
	}
	return vulnerability.Finding{
		AdvisoryID:      identifier,
		Severity:        severity,
		ModuleName:      advisory.ModuleName,
		Path:            path,
		Title:           advisory.Title,
		URL:             advisory.URL,
		VulnerableRange: advisory.VulnerableVersions,
	}, nil
}

// parseYarnBerryReport accepts the advisories document of yarn 2-3 and the
// per-package NDJSON lines of yarn 4.
func parseYarnBerryReport(standardOutput string) (parsedReport, error) {
	report, documentError := parseNpmReport(standardOutput)
	if documentError == nil {
		return report, nil
	}

	findings := []vulnerability.Finding{}
	scanner := newLineScanner(standardOutput)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		var packageLine yarnBerryLine
		if unmarshalError := json.Unmarshal([]byte(line), &packageLine); unmarshalError != nil || packageLine.Children == nil {
			return parsedReport{}, documentError
		}
		packageFindings, findingsError := yarnBerryFindings(packageLine)
		if findingsError != nil {
			return parsedReport{}, findingsError
		}
		findings = append(findings, packageFindings...)
	}
	if scanError := scanner.Err(); scanError != nil {
		return parsedReport{}, scanError
	}
	if lineNumber == 0 {
		return parsedReport{}, documentError
	}
	return parsedReport{findings: findings}, nil
}

func yarnBerryFindings(packageLine yarnBerryLine) ([]vulnerability.Finding, error) {
	identifier := childText(packageLine.Children, yarnBerryIdentifierKeyConstant)
	severity, severityError := vulnerability.ParseSeverity(childText(packageLine.Children, yarnBerrySeverityKeyConstant))
	if severityError != nil {
		return nil, fmt.Errorf(invalidSeverityTemplateConstant, identifier, severityError)
	}
	findings := []vulnerability.Finding{}
	for _, path := range yarnBerryPaths(packageLine) {
		findings = append(findings, vulnerability.Finding{
			AdvisoryID:      identifier,
			Severity:        severity,
			ModuleName:      packageLine.Value,
			Path:            path,
			Title:           childText(packageLine.Children, yarnBerryIssueKeyConstant),
			URL:             childText(packageLine.Children, yarnBerryURLKeyConstant),
			VulnerableRange: childText(packageLine.Children, yarnBerryVulnerableVersionsKey),
		})
	}
	return findings, nil
}

// yarnBerryPaths turns "Dependents" descriptors such as "mkdirp@npm:0.5.1" into ["mkdirp", module].
// A workspace dependent means the module is a direct dependency.
func yarnBerryPaths(packageLine yarnBerryLine) [][]string {
	var dependents []string
	if rawDependents, exists := packageLine.Children[yarnBerryDependentsKeyConstant]; exists {
		if unmarshalError := json.Unmarshal(rawDependents, &dependents); unmarshalError != nil {
			dependents = nil
		}
	}
	paths := [][]string{}
	for _, dependent := range dependents {
		separatorIndex := strings.LastIndex(dependent, yarnDescriptorSeparatorConstant)
		if separatorIndex <= 0 || strings.HasPrefix(dependent[separatorIndex+1:], yarnWorkspaceProtocolConstant) {
			paths = append(paths, []string{packageLine.Value})
			continue
		}
		paths = append(paths, []string{dependent[:separatorIndex], packageLine.Value})
	}
	if len(paths) == 0 {
		paths = append(paths, []string{packageLine.Value})
	}
	return uniquePaths(paths)
}

func childText(children map[string]json.RawMessage, key string) string {
	rawValue, exists := children[key]
	if !exists {
		return ""
	}
	return rawMessageText(rawValue)
}

// rawMessageText returns a JSON string's value, or the raw JSON for any other value.
func rawMessageText(rawValue json.RawMessage) string {
	var text string
	if unmarshalError := json.Unmarshal(rawValue, &text); unmarshalError == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(rawValue))
}

func advisoryIdentifier(source json.Number, advisoryURL string) string {
	if identifier := source.String(); len(identifier) > 0 {
		return identifier
	}
	trimmedURL := strings.TrimRight(strings.TrimSpace(advisoryURL), advisoryURLSegmentSeparator)
	if separatorIndex := strings.LastIndex(trimmedURL, advisoryURLSegmentSeparator); separatorIndex >= 0 && separatorIndex < len(trimmedURL)-1 {
		return trimmedURL[separatorIndex+1:]
	}
	return missingAdvisoryIdentifierConstant
}

func unmarshalNumber(rawValue json.RawMessage, target any) error {
	decoder := json.NewDecoder(strings.NewReader(string(rawValue)))
	decoder.UseNumber()
	return decoder.Decode(target)
}

func newLineScanner(text string) *bufio.Scanner {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, initialStreamBufferBytesConstant), maximumStreamLineBytesConstant)
	return scanner
}

func sortedKeys[Value any](values map[string]Value) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// sortedAdvisoryKeys orders numeric advisory ids numerically and everything else lexically after them.
func sortedAdvisoryKeys(advisories map[string]legacyAdvisory) []string {
	keys := sortedKeys(advisories)
	sort.SliceStable(keys, func(leftIndex int, rightIndex int) bool {
		leftNumber, leftError := strconv.ParseInt(keys[leftIndex], 10, 64)
		rightNumber, rightError := strconv.ParseInt(keys[rightIndex], 10, 64)
		switch {
		case leftError == nil && rightError == nil:
			return leftNumber < rightNumber
		case leftError == nil:
			return true
		default:
			return false
		}
	})
	return keys
}
