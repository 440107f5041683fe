package auditors

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/execshell"
	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	yarnBerryMajorVersionConstant           = 2
	yarnNpmSubcommandConstant               = "npm"
	yarnRecursiveFlagConstant               = "--recursive"
	yarnGroupsFlagConstant                  = "--groups"
	yarnProductionGroupConstant             = "dependencies"
	yarnEnvironmentFlagConstant             = "--environment"
	yarnProductionEnvironmentConstant       = "production"
	yarnBerryRegistryEnvironmentKeyConstant = "YARN_NPM_REGISTRY_SERVER"
)

type yarnAdapter struct {
	execute    toolExecution
	logger     *zap.Logger
	classifier signatureClassifier
}

func (adapter *yarnAdapter) Tool() Tool {
	return ToolYarn
}

func (adapter *yarnAdapter) Classify(failureText string) ErrorKind {
	return adapter.classifier.Classify(failureText)
}

// Audit runs "yarn audit --json" on yarn 1.x and "yarn npm audit --recursive --json" on later releases.
func (adapter *yarnAdapter) Audit(executionContext context.Context, request Request) (vulnerability.AuditResult, error) {
	version := probeToolVersion(executionContext, adapter.execute, ToolYarn, request.Directory, adapter.logger)
	registry := strings.TrimSpace(request.Registry)

	commandDetails := execshell.CommandDetails{WorkingDirectory: request.Directory}
	parse := parseYarnClassicStream
	if version.majorAtLeast(yarnBerryMajorVersionConstant) {
		parse = parseYarnBerryReport
		commandDetails.Arguments = []string{yarnNpmSubcommandConstant, auditSubcommandConstant, yarnRecursiveFlagConstant, jsonFlagConstant}
		if request.SkipDevelopment {
			commandDetails.Arguments = append(commandDetails.Arguments, yarnEnvironmentFlagConstant, yarnProductionEnvironmentConstant)
		}
		if len(registry) > 0 {
			commandDetails.EnvironmentVariables = map[string]string{yarnBerryRegistryEnvironmentKeyConstant: registry}
		}
	} else {
		commandDetails.Arguments = []string{auditSubcommandConstant, jsonFlagConstant}
		if request.SkipDevelopment {
			commandDetails.Arguments = append(commandDetails.Arguments, yarnGroupsFlagConstant, yarnProductionGroupConstant)
		}
		if len(registry) > 0 {
			commandDetails.Arguments = append(commandDetails.Arguments, registryFlagConstant, registry)
		}
	}

	executionResult, executionError := adapter.execute(executionContext, commandDetails)
	findings, auditError := interpretAuditExecution(ToolYarn, adapter.classifier, executionResult, executionError, parse)
	logAuditOutcome(adapter.logger, ToolYarn, version.reported, findings, auditError)
	if auditError != nil {
		return vulnerability.AuditResult{}, auditError
	}
	return buildAuditResult(ToolYarn, version.reported, findings), nil
}
