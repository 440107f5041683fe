package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/auditors"
	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	adapterNotConfiguredMessageConstant = "retry controller adapter not configured"
	negativeRetryCountTemplateConstant  = "retry count must not be negative, got %d"
	retryingAuditMessageConstant        = "Retrying audit"
	auditSkippedMessageConstant         = "Audit skipped after exhausting retries"
	auditUnavailableWarningTemplate     = "ACTION RECOMMENDED: An audit could not be performed due to %d audits that resulted in ENOAUDIT. Perform an audit manually and verify that no significant vulnerabilities exist before merging."
	logFieldAttemptConstant             = "attempt"
	logFieldMaxRetryCountConstant       = "max_retry_count"
	logFieldToolConstant                = "tool"
	logFieldBackoffConstant             = "backoff"
)

// ErrAdapterNotConfigured indicates the controller was built without an adapter.
var ErrAdapterNotConfigured = errors.New(adapterNotConfiguredMessageConstant)

// WarningSink receives the warning emitted when an audit is skipped.
type WarningSink interface {
	Warn(message string)
}

// WarningSinkFunc adapts a function to WarningSink.
type WarningSinkFunc func(message string)

// Warn calls the function.
func (sinkFunction WarningSinkFunc) Warn(message string) {
	sinkFunction(message)
}

// Backoff returns the delay before the given retry attempt (1-based). Nil means no delay.
type Backoff func(attempt int) time.Duration

// Policy configures the retry behavior.
type Policy struct {
	MaxRetryCount          int
	PassIfAuditUnavailable bool
	Backoff                Backoff
}

// Outcome reports the final result and how many adapter calls it took.
type Outcome struct {
	Result       vulnerability.AuditResult
	Attempts     int
	AuditSkipped bool
}

// Controller runs an adapter under a Policy.
type Controller struct {
	adapter     auditors.Adapter
	policy      Policy
	warningSink WarningSink
	logger      *zap.Logger
}

// NewController validates its inputs and builds a Controller. A nil sink or logger discards output.
func NewController(adapter auditors.Adapter, policy Policy, warningSink WarningSink, logger *zap.Logger) (*Controller, error) {
	if adapter == nil {
		return nil, ErrAdapterNotConfigured
	}
	if policy.MaxRetryCount < 0 {
		return nil, auditors.ConfigurationError{Message: fmt.Sprintf(negativeRetryCountTemplateConstant, policy.MaxRetryCount)}
	}
	if warningSink == nil {
		warningSink = WarningSinkFunc(func(string) {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{adapter: adapter, policy: policy, warningSink: warningSink, logger: logger}, nil
}

// Run calls the adapter until it succeeds, fails with a non-retryable error, or runs out of retries.
// An always-unsupported registry is called exactly MaxRetryCount+1 times.
func (controller *Controller) Run(executionContext context.Context, request auditors.Request) (Outcome, error) {
	tool := controller.adapter.Tool()
	for attempt := 0; ; attempt++ {
		if contextError := executionContext.Err(); contextError != nil {
			return Outcome{Attempts: attempt}, contextError
		}

		auditResult, auditError := controller.adapter.Audit(executionContext, request)
		if auditError == nil {
			return Outcome{Result: auditResult, Attempts: attempt + 1}, nil
		}

		var classified auditors.AuditError
		if !errors.As(auditError, &classified) || !classified.Kind.Retryable() {
			return Outcome{Attempts: attempt + 1}, auditError
		}

		if attempt < controller.policy.MaxRetryCount {
			controller.logger.Info(
				retryingAuditMessageConstant,
				zap.String(logFieldToolConstant, tool.String()),
				zap.Int(logFieldAttemptConstant, attempt+1),
				zap.Int(logFieldMaxRetryCountConstant, controller.policy.MaxRetryCount),
				zap.Error(auditError),
			)
			if waitError := controller.wait(executionContext, attempt+1); waitError != nil {
				return Outcome{Attempts: attempt + 1}, waitError
			}
			continue
		}

		if !controller.policy.PassIfAuditUnavailable {
			return Outcome{Attempts: attempt + 1}, auditError
		}

		controller.warningSink.Warn(WarningMessage(controller.policy.MaxRetryCount))
		controller.logger.Warn(
			auditSkippedMessageConstant,
			zap.String(logFieldToolConstant, tool.String()),
			zap.Int(logFieldAttemptConstant, attempt+1),
			zap.Error(auditError),
		)
		return Outcome{
			Result:       vulnerability.EmptyAuditResult(tool.String()),
			Attempts:     attempt + 1,
			AuditSkipped: true,
		}, nil
	}
}

func (controller *Controller) wait(executionContext context.Context, attempt int) error {
	if controller.policy.Backoff == nil {
		return nil
	}
	delay := controller.policy.Backoff(attempt)
	if delay <= 0 {
		return nil
	}
	controller.logger.Debug(retryingAuditMessageConstant, zap.Int(logFieldAttemptConstant, attempt), zap.Duration(logFieldBackoffConstant, delay))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}

// ConstantBackoff waits the same delay before every retry.
func ConstantBackoff(delay time.Duration) Backoff {
	return func(int) time.Duration {
		return delay
	}
}

// WarningMessage returns the warning emitted after maxRetryCount unsuccessful retries.
func WarningMessage(maxRetryCount int) string {
	return fmt.Sprintf(auditUnavailableWarningTemplate, maxRetryCount)
}
