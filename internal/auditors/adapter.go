package auditors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/execshell"
	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	executorNotConfiguredMessageConstant = "auditor command executor not configured"
	unsupportedAdapterToolTemplate       = "no auditor available for package manager %q"
	malformedOutputTemplateConstant      = "unable to parse %s audit output: %v"
	emptyOutputTemplateConstant          = "%s audit produced no output"
	auditCompletedMessageConstant        = "Audit report parsed"
	auditFailedMessageConstant           = "Audit failed"
	logFieldToolConstant                 = "tool"
	logFieldToolVersionConstant          = "tool_version"
	logFieldFindingCountConstant         = "finding_count"
	logFieldErrorKindConstant            = "error_kind"
	registryFlagTemplateConstant         = "--registry=%s"
	registryFlagConstant                 = "--registry"
	jsonFlagConstant                     = "--json"
	auditSubcommandConstant              = "audit"
)

// ErrExecutorNotConfigured indicates an adapter was requested without a command executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// Request scopes one audit invocation.
type Request struct {
	Directory       string
	Registry        string
	SkipDevelopment bool
}

// Adapter runs one tool's audit and classifies its failures.
type Adapter interface {
	Tool() Tool
	Audit(executionContext context.Context, request Request) (vulnerability.AuditResult, error)
	Classify(failureText string) ErrorKind
}

// CommandExecutor is the subset of execshell.ShellExecutor the adapters need.
type CommandExecutor interface {
	ExecuteNpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteYarn(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecutePnpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

type toolExecution func(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)

// NewAdapter returns the adapter for a concrete tool.
func NewAdapter(tool Tool, executor CommandExecutor, logger *zap.Logger) (Adapter, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	switch tool {
	case ToolNpm:
		return &npmAdapter{execute: executor.ExecuteNpm, logger: logger, classifier: signatureClassifier{tool: ToolNpm}}, nil
	case ToolYarn:
		return &yarnAdapter{execute: executor.ExecuteYarn, logger: logger, classifier: signatureClassifier{tool: ToolYarn}}, nil
	case ToolPnpm:
		return &pnpmAdapter{execute: executor.ExecutePnpm, logger: logger, classifier: signatureClassifier{tool: ToolPnpm}}, nil
	default:
		return nil, ConfigurationError{Message: fmt.Sprintf(unsupportedAdapterToolTemplate, tool)}
	}
}

// interpretAuditExecution turns a drained tool run into findings or an AuditError.
// A non-zero exit code alone is not a failure; only unparsable output or a process-level error is.
func interpretAuditExecution(tool Tool, classifier signatureClassifier, executionResult execshell.ExecutionResult, executionError error, parse reportParser) ([]vulnerability.Finding, error) {
	if executionError != nil {
		var commandFailure execshell.CommandFailedError
		if !errors.As(executionError, &commandFailure) {
			return nil, classifiedError(tool, classifier, executionError.Error(), ProcessFailure, executionError)
		}
		executionResult = commandFailure.Result
	}

	standardOutput := strings.TrimSpace(executionResult.StandardOutput)
	standardError := strings.TrimSpace(executionResult.StandardError)
	if len(standardOutput) == 0 {
		diagnostic := standardError
		if len(diagnostic) == 0 && executionError != nil {
			diagnostic = executionError.Error()
		}
		if len(diagnostic) == 0 {
			diagnostic = fmt.Sprintf(emptyOutputTemplateConstant, tool)
		}
		return nil, classifiedError(tool, classifier, diagnostic, ProcessFailure, executionError)
	}

	report, parseError := parse(standardOutput)
	if parseError != nil {
		combinedText := strings.TrimSpace(standardError + failureLineSeparatorConstant + standardOutput)
		if kind := classifier.Classify(combinedText); kind != ProcessFailure {
			return nil, AuditError{Kind: kind, Tool: tool, Message: combinedText, Cause: parseError}
		}
		return nil, AuditError{
			Kind:    MalformedOutput,
			Tool:    tool,
			Message: fmt.Sprintf(malformedOutputTemplateConstant, tool, parseError),
			Cause:   parseError,
		}
	}

	if len(report.failureText) > 0 {
		return nil, classifiedError(tool, classifier, report.failureText, ProcessFailure, executionError)
	}
	return report.findings, nil
}

func classifiedError(tool Tool, classifier signatureClassifier, diagnostic string, fallbackKind ErrorKind, cause error) AuditError {
	kind := classifier.Classify(diagnostic)
	if kind == ProcessFailure {
		kind = fallbackKind
	}
	return AuditError{Kind: kind, Tool: tool, Message: diagnostic, Cause: cause}
}

func buildAuditResult(tool Tool, toolVersion string, findings []vulnerability.Finding) vulnerability.AuditResult {
	if findings == nil {
		findings = []vulnerability.Finding{}
	}
	return vulnerability.AuditResult{Tool: tool.String(), ToolVersion: toolVersion, Findings: findings}
}

func logAuditOutcome(logger *zap.Logger, tool Tool, toolVersion string, findings []vulnerability.Finding, auditError error) {
	if auditError != nil {
		var classified AuditError
		kindField := zap.Skip()
		if errors.As(auditError, &classified) {
			kindField = zap.String(logFieldErrorKindConstant, classified.Kind.String())
		}
		logger.Debug(auditFailedMessageConstant, zap.String(logFieldToolConstant, tool.String()), kindField, zap.Error(auditError))
		return
	}
	logger.Debug(
		auditCompletedMessageConstant,
		zap.String(logFieldToolConstant, tool.String()),
		zap.String(logFieldToolVersionConstant, toolVersion),
		zap.Int(logFieldFindingCountConstant, len(findings)),
	)
}
