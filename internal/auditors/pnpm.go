package auditors

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/execshell"
	"github.com/temirov/auditgate/internal/vulnerability"
)

const pnpmProductionFlagConstant = "--prod"

type pnpmAdapter struct {
	execute    toolExecution
	logger     *zap.Logger
	classifier signatureClassifier
}

func (adapter *pnpmAdapter) Tool() Tool {
	return ToolPnpm
}

func (adapter *pnpmAdapter) Classify(failureText string) ErrorKind {
	return adapter.classifier.Classify(failureText)
}

// Audit runs "pnpm audit --json", which reports in the npm 6 advisories format.
func (adapter *pnpmAdapter) Audit(executionContext context.Context, request Request) (vulnerability.AuditResult, error) {
	version := probeToolVersion(executionContext, adapter.execute, ToolPnpm, request.Directory, adapter.logger)

	arguments := []string{auditSubcommandConstant, jsonFlagConstant}
	if request.SkipDevelopment {
		arguments = append(arguments, pnpmProductionFlagConstant)
	}
	if registry := strings.TrimSpace(request.Registry); len(registry) > 0 {
		arguments = append(arguments, fmt.Sprintf(registryFlagTemplateConstant, registry))
	}

	executionResult, executionError := adapter.execute(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: request.Directory,
	})
	findings, auditError := interpretAuditExecution(ToolPnpm, adapter.classifier, executionResult, executionError, parseNpmReport)
	logAuditOutcome(adapter.logger, ToolPnpm, version.reported, findings, auditError)
	if auditError != nil {
		return vulnerability.AuditResult{}, auditError
	}
	return buildAuditResult(ToolPnpm, version.reported, findings), nil
}
