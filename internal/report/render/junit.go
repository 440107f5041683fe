package render

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/jstemmer/go-junit-report/v2/junit"

	"github.com/temirov/auditgate/internal/report"
)

const (
	junitSuiteNameTemplate      = "%s dependency audit"
	junitCaseNameTemplate       = "%s %s (%s)"
	junitFailureTypeConstant    = "vulnerability"
	junitFailureMessageTemplate = "%s severity: %s"
	junitSuppressedMessage      = "allowlisted"
	junitBelowThresholdMessage  = "below the configured severity"
	junitAuditSkippedCaseName   = "audit"
	junitAuditSkippedMessage    = "audit could not be performed"
	junitIndentConstant         = "\t"
)

// JUnitRenderer writes a JUnit suite with one testcase per reported finding.
type JUnitRenderer struct{}

// Render implements Renderer.
func (JUnitRenderer) Render(writer io.Writer, auditReport report.Report) error {
	suite := junit.Testsuite{
		Name:      fmt.Sprintf(junitSuiteNameTemplate, auditReport.Tool),
		Testcases: []junit.Testcase{},
	}

	if auditReport.AuditSkipped {
		suite.Tests++
		suite.Skipped++
		suite.Testcases = append(suite.Testcases, junit.Testcase{
			Classname: auditReport.Tool,
			Name:      junitAuditSkippedCaseName,
			Skipped:   &junit.Result{Message: junitAuditSkippedMessage},
		})
	}

	for _, entry := range auditReport.Findings {
		testcase := junit.Testcase{
			Classname: entry.ModuleName,
			Name:      fmt.Sprintf(junitCaseNameTemplate, entry.AdvisoryID, entry.ModuleName, entry.PathString()),
		}
		switch entry.Status {
		case report.StatusFailing:
			suite.Failures++
			testcase.Failure = &junit.Result{
				Type:    junitFailureTypeConstant,
				Message: fmt.Sprintf(junitFailureMessageTemplate, entry.Severity, entry.Title),
				Data:    entry.URL,
			}
		case report.StatusSuppressed:
			suite.Skipped++
			testcase.Skipped = &junit.Result{Message: junitSuppressedMessage}
		case report.StatusBelowThreshold:
			testcase.SystemOut = &junit.Output{Data: junitBelowThresholdMessage}
		}
		suite.Tests++
		suite.Testcases = append(suite.Testcases, testcase)
	}

	suites := junit.Testsuites{
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Skipped:  suite.Skipped,
		Suites:   []junit.Testsuite{suite},
	}

	data, marshalError := xml.MarshalIndent(suites, "", junitIndentConstant)
	if marshalError != nil {
		return marshalError
	}
	if _, writeError := io.WriteString(writer, xml.Header); writeError != nil {
		return writeError
	}
	if _, writeError := writer.Write(data); writeError != nil {
		return writeError
	}
	_, writeError := io.WriteString(writer, newlineConstant)
	return writeError
}
