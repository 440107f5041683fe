package auditors

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/execshell"
	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	npmModernReportMajorVersionConstant = 7
	npmOmitDevelopmentFlagConstant      = "--omit=dev"
	npmProductionFlagConstant           = "--production"
)

type npmAdapter struct {
	execute    toolExecution
	logger     *zap.Logger
	classifier signatureClassifier
}

func (adapter *npmAdapter) Tool() Tool {
	return ToolNpm
}

func (adapter *npmAdapter) Classify(failureText string) ErrorKind {
	return adapter.classifier.Classify(failureText)
}

// Audit runs "npm audit --json". npm 7 and later report "vulnerabilities"; older releases report "advisories".
func (adapter *npmAdapter) Audit(executionContext context.Context, request Request) (vulnerability.AuditResult, error) {
	version := probeToolVersion(executionContext, adapter.execute, ToolNpm, request.Directory, adapter.logger)

	arguments := []string{auditSubcommandConstant, jsonFlagConstant}
	if request.SkipDevelopment {
		if version.majorAtLeast(npmModernReportMajorVersionConstant) {
			arguments = append(arguments, npmOmitDevelopmentFlagConstant)
		} else {
			arguments = append(arguments, npmProductionFlagConstant)
		}
	}
	if registry := strings.TrimSpace(request.Registry); len(registry) > 0 {
		arguments = append(arguments, fmt.Sprintf(registryFlagTemplateConstant, registry))
	}

	executionResult, executionError := adapter.execute(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: request.Directory,
	})
	findings, auditError := interpretAuditExecution(ToolNpm, adapter.classifier, executionResult, executionError, parseNpmReport)
	logAuditOutcome(adapter.logger, ToolNpm, version.reported, findings, auditError)
	if auditError != nil {
		return vulnerability.AuditResult{}, auditError
	}
	return buildAuditResult(ToolNpm, version.reported, findings), nil
}
