package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/report/render"
	"github.com/temirov/auditgate/internal/utils"
)

const (
	vulnerabilitiesFoundMessageConstant  = "vulnerabilities found at or above the configured severity"
	pipelineNotConfiguredMessageConstant = "audit service pipeline not configured"
	vulnerabilitiesFoundTemplateConstant = "%w: %d failing findings (advisories %s)"
	auditTimedOutTemplateConstant        = "audit did not finish within %s: %w"
	renderFailedTemplateConstant         = "unable to write %s report: %w"
	advisoryListSeparatorConstant        = ", "
	reportRenderedMessageConstant        = "Report rendered"
	logFieldOutputFormatConstant         = "output_format"
)

var (
	// ErrVulnerabilitiesFound is returned when the gate fails the build.
	ErrVulnerabilitiesFound = errors.New(vulnerabilitiesFoundMessageConstant)
	// ErrPipelineNotConfigured indicates the service was built without a pipeline.
	ErrPipelineNotConfigured = errors.New(pipelineNotConfiguredMessageConstant)
)

// PipelineRunner runs one audit and evaluates it.
type PipelineRunner interface {
	Run(executionContext context.Context, configuration Configuration) (Outcome, error)
}

// Service runs the pipeline under a deadline and renders its report.
type Service struct {
	pipeline PipelineRunner
	output   io.Writer
	logger   *zap.Logger
}

// NewService builds a Service writing reports to output.
func NewService(pipeline PipelineRunner, output io.Writer, logger *zap.Logger) (*Service, error) {
	if pipeline == nil {
		return nil, ErrPipelineNotConfigured
	}
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{pipeline: pipeline, output: utils.NewFlushingWriter(output), logger: logger}, nil
}

// Run executes the audit and renders the report. It returns ErrVulnerabilitiesFound, wrapped with
// the failing advisories, when the gate fails. A skipped audit passes.
func (service *Service) Run(executionContext context.Context, configuration Configuration) (Outcome, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if configuration.Timeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, configuration.Timeout)
		defer cancel()
	}

	outcome, pipelineError := service.pipeline.Run(executionContext, configuration)
	if pipelineError != nil {
		if errors.Is(executionContext.Err(), context.DeadlineExceeded) {
			return Outcome{}, fmt.Errorf(auditTimedOutTemplateConstant, configuration.Timeout, pipelineError)
		}
		return Outcome{}, pipelineError
	}

	renderer, rendererError := render.ForFormat(string(configuration.OutputFormat))
	if rendererError != nil {
		return outcome, rendererError
	}
	if renderError := renderer.Render(service.output, outcome.Report); renderError != nil {
		return outcome, fmt.Errorf(renderFailedTemplateConstant, configuration.OutputFormat, renderError)
	}
	service.logger.Debug(reportRenderedMessageConstant, zap.String(logFieldOutputFormatConstant, string(configuration.OutputFormat)))

	if outcome.AuditSkipped || outcome.Decision.Passed {
		return outcome, nil
	}

	failingAdvisories := outcome.Decision.FailingAdvisoryIDs()
	return outcome, fmt.Errorf(vulnerabilitiesFoundTemplateConstant, ErrVulnerabilitiesFound, len(outcome.Decision.Failing), strings.Join(failingAdvisories, advisoryListSeparatorConstant))
}
