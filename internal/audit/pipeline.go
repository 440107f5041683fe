package audit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/allowlist"
	"github.com/temirov/auditgate/internal/auditors"
	"github.com/temirov/auditgate/internal/gate"
	"github.com/temirov/auditgate/internal/report"
	"github.com/temirov/auditgate/internal/retry"
)

const (
	detectorNotConfiguredMessageConstant = "audit pipeline detector not configured"
	toolResolvedMessageConstant          = "Package manager resolved"
	thresholdsEscalatedMessageConstant   = "Severity thresholds escalated to every severity above the lowest enabled one"
	auditEvaluatedMessageConstant        = "Audit evaluated"
	logFieldToolConstant                 = "tool"
	logFieldLockFileConstant             = "lock_file"
	logFieldDirectoryConstant            = "directory"
	logFieldPassedConstant               = "passed"
	logFieldFindingCountConstant         = "finding_count"
	logFieldFailingCountConstant         = "failing_count"
	logFieldSuppressedCountConstant      = "suppressed_count"
	logFieldAttemptsConstant             = "attempts"
	logFieldAuditSkippedConstant         = "audit_skipped"
	logFieldMinimumSeverityConstant      = "minimum_severity"
)

// ErrDetectorNotConfigured indicates the pipeline was built without a detector.
var ErrDetectorNotConfigured = errors.New(detectorNotConfiguredMessageConstant)

// Outcome is the result of one pipeline run.
type Outcome struct {
	Decision     gate.Decision
	Report       report.Report
	AuditSkipped bool
}

// Pipeline chains tool detection, the retrying adapter, the allowlist, the gate, and the report.
type Pipeline struct {
	detector    *auditors.Detector
	executor    auditors.CommandExecutor
	warningSink retry.WarningSink
	logger      *zap.Logger
}

// NewPipeline validates collaborators and builds a Pipeline. A nil sink or logger discards output.
func NewPipeline(detector *auditors.Detector, executor auditors.CommandExecutor, warningSink retry.WarningSink, logger *zap.Logger) (*Pipeline, error) {
	if detector == nil {
		return nil, ErrDetectorNotConfigured
	}
	if executor == nil {
		return nil, auditors.ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{detector: detector, executor: executor, warningSink: warningSink, logger: logger}, nil
}

// Run audits configuration.Directory and evaluates the findings. Fatal errors are returned unchanged.
func (pipeline *Pipeline) Run(executionContext context.Context, configuration Configuration) (Outcome, error) {
	tool, lockFilePath, resolveError := pipeline.detector.Resolve(configuration.Tool, configuration.Directory)
	if resolveError != nil {
		return Outcome{}, resolveError
	}
	pipeline.logger.Debug(
		toolResolvedMessageConstant,
		zap.String(logFieldToolConstant, tool.String()),
		zap.String(logFieldLockFileConstant, lockFilePath),
		zap.String(logFieldDirectoryConstant, configuration.Directory),
	)
	if configuration.ThresholdsEscalated {
		minimumSeverity, _ := configuration.Thresholds.Minimum()
		pipeline.logger.Warn(thresholdsEscalatedMessageConstant, zap.String(logFieldMinimumSeverityConstant, minimumSeverity.String()))
	}

	adapter, adapterError := auditors.NewAdapter(tool, pipeline.executor, pipeline.logger)
	if adapterError != nil {
		return Outcome{}, adapterError
	}

	policy := retry.Policy{
		MaxRetryCount:          configuration.RetryCount,
		PassIfAuditUnavailable: configuration.PassIfAuditUnavailable,
	}
	if configuration.RetryDelay > 0 {
		policy.Backoff = retry.ConstantBackoff(configuration.RetryDelay)
	}
	controller, controllerError := retry.NewController(adapter, policy, pipeline.warningSink, pipeline.logger)
	if controllerError != nil {
		return Outcome{}, controllerError
	}

	retryOutcome, auditError := controller.Run(executionContext, auditors.Request{
		Directory:       configuration.Directory,
		Registry:        configuration.Registry,
		SkipDevelopment: configuration.SkipDevelopment,
	})
	if auditError != nil {
		return Outcome{}, auditError
	}

	reportOptions := report.Options{
		Type:         configuration.ReportType,
		ShowFound:    configuration.ShowFound,
		ShowNotFound: configuration.ShowNotFound,
		LockFile:     lockFilePath,
	}

	if retryOutcome.AuditSkipped {
		pipeline.logger.Info(
			auditEvaluatedMessageConstant,
			zap.String(logFieldToolConstant, tool.String()),
			zap.Int(logFieldAttemptsConstant, retryOutcome.Attempts),
			zap.Bool(logFieldAuditSkippedConstant, true),
		)
		return Outcome{
			Decision:     gate.SkippedDecision(),
			Report:       report.Skipped(tool.String(), reportOptions),
			AuditSkipped: true,
		}, nil
	}

	match := allowlist.Match(retryOutcome.Result.Findings, configuration.Allowlist)
	decision := gate.Evaluate(match, configuration.Thresholds)
	builtReport := report.Build(retryOutcome.Result, match, decision, reportOptions)

	pipeline.logger.Info(
		auditEvaluatedMessageConstant,
		zap.String(logFieldToolConstant, tool.String()),
		zap.Int(logFieldAttemptsConstant, retryOutcome.Attempts),
		zap.Bool(logFieldPassedConstant, decision.Passed),
		zap.Int(logFieldFindingCountConstant, len(retryOutcome.Result.Findings)),
		zap.Int(logFieldFailingCountConstant, len(decision.Failing)),
		zap.Int(logFieldSuppressedCountConstant, len(decision.Suppressed)),
	)

	return Outcome{Decision: decision, Report: builtReport}, nil
}
