package audit

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/auditors"
	"github.com/temirov/auditgate/internal/execshell"
	"github.com/temirov/auditgate/internal/report"
	"github.com/temirov/auditgate/internal/report/render"
	"github.com/temirov/auditgate/internal/retry"
	"github.com/temirov/auditgate/internal/ui"
	"github.com/temirov/auditgate/internal/utils"
	flagutils "github.com/temirov/auditgate/internal/utils/flags"
)

const (
	commandNameConstant            = "audit"
	commandShortDescription        = "Fail the build on vulnerable dependencies"
	commandLongDescription         = "audit runs npm, yarn, or pnpm audit in a project directory, suppresses allowlisted advisories, and exits non-zero when findings reach the configured severity."
	lowFlagName                    = "low"
	lowFlagShorthand               = "l"
	lowFlagDescription             = "Fail on low severity vulnerabilities or higher"
	moderateFlagName               = "moderate"
	moderateFlagShorthand          = "m"
	moderateFlagDescription        = "Fail on moderate severity vulnerabilities or higher"
	highFlagName                   = "high"
	highFlagDescription            = "Fail on high severity vulnerabilities or higher"
	criticalFlagName               = "critical"
	criticalFlagShorthand          = "c"
	criticalFlagDescription        = "Fail on critical severity vulnerabilities"
	packageManagerFlagName         = "package-manager"
	packageManagerFlagShorthand    = "p"
	packageManagerFlagDescription  = "Package manager running the audit"
	reportFlagName                 = "report"
	reportFlagShorthand            = "r"
	reportFlagDescription          = "Show the full report (same as --report-type full)"
	summaryFlagName                = "summary"
	summaryFlagShorthand           = "s"
	summaryFlagDescription         = "Show only the summary (same as --report-type summary)"
	reportTypeFlagName             = "report-type"
	reportTypeFlagDescription      = "Report verbosity"
	allowlistFlagName              = "allowlist"
	allowlistFlagShorthand         = "a"
	allowlistFlagDescription       = "Allowlisted module names, advisory ids, or dependency paths (repeatable)"
	directoryFlagName              = "directory"
	directoryFlagShorthand         = "d"
	directoryFlagDescription       = "Project directory to audit"
	outputFormatFlagName           = "output-format"
	outputFormatFlagShorthand      = "o"
	outputFormatFlagDescription    = "Report output format"
	showFoundFlagName              = "show-found"
	showFoundFlagDescription       = "List allowlisted entries that matched a finding"
	showNotFoundFlagName           = "show-not-found"
	showNotFoundFlagDescription    = "List allowlisted entries that matched nothing"
	registryFlagName               = "registry"
	registryFlagDescription        = "Registry URL to audit against"
	retryCountFlagName             = "retry-count"
	retryCountFlagDescription      = "Retries when the registry does not support audits"
	retryDelayFlagName             = "retry-delay"
	retryDelayFlagDescription      = "Delay between retries"
	passEnoauditFlagName           = "pass-enoaudit"
	passEnoauditFlagDescription    = "Pass with a warning when the registry never supports the audit"
	skipDevelopmentFlagName        = "skip-dev"
	skipDevelopmentFlagDescription = "Skip development dependencies"
	timeoutFlagName                = "timeout"
	timeoutFlagDescription         = "Abort the audit after this duration (0 disables)"
	reportTypeFullValueConstant    = "full"
	reportTypeSummaryValueConstant = "summary"
	configurationSourceMessage     = "Audit configuration loaded"
	logFieldConfigFile             = "config_file"
	logFieldEmbeddedDefaults       = "embedded_defaults"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current audit configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the audit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        ConfigurationProvider
	Executor                     auditors.CommandExecutor
	FileSystem                   afero.Fs
	CommandEventsObserver        execshell.CommandEventObserver
	WarningSink                  retry.WarningSink
}

// Build constructs the cobra command for dependency audits.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
		// The report stream stays machine-readable when the gate fails.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := DefaultCommandConfiguration()
	flagSet := command.Flags()
	flagutils.AddToggleFlag(flagSet, nil, lowFlagName, lowFlagShorthand, defaults.Low, lowFlagDescription)
	flagutils.AddToggleFlag(flagSet, nil, moderateFlagName, moderateFlagShorthand, defaults.Moderate, moderateFlagDescription)
	flagutils.AddToggleFlag(flagSet, nil, highFlagName, "", defaults.High, highFlagDescription)
	flagutils.AddToggleFlag(flagSet, nil, criticalFlagName, criticalFlagShorthand, defaults.Critical, criticalFlagDescription)
	flagSet.StringP(packageManagerFlagName, packageManagerFlagShorthand, defaults.PackageManager, flagutils.FormatChoiceUsage(defaults.PackageManager, toolChoices(), packageManagerFlagDescription))
	flagSet.BoolP(reportFlagName, reportFlagShorthand, false, reportFlagDescription)
	flagSet.BoolP(summaryFlagName, summaryFlagShorthand, false, summaryFlagDescription)
	flagSet.String(reportTypeFlagName, defaults.ReportType, flagutils.FormatChoiceUsage(defaults.ReportType, reportTypeChoices(), reportTypeFlagDescription))
	flagSet.StringSliceP(allowlistFlagName, allowlistFlagShorthand, nil, allowlistFlagDescription)
	flagSet.StringP(directoryFlagName, directoryFlagShorthand, defaults.Directory, directoryFlagDescription)
	flagSet.StringP(outputFormatFlagName, outputFormatFlagShorthand, defaults.OutputFormat, flagutils.FormatChoiceUsage(defaults.OutputFormat, formatChoices(), outputFormatFlagDescription))
	flagutils.AddToggleFlag(flagSet, nil, showFoundFlagName, "", defaults.ShowFound, showFoundFlagDescription)
	flagutils.AddToggleFlag(flagSet, nil, showNotFoundFlagName, "", defaults.ShowNotFound, showNotFoundFlagDescription)
	flagSet.String(registryFlagName, defaults.Registry, registryFlagDescription)
	flagSet.Int(retryCountFlagName, defaults.RetryCount, retryCountFlagDescription)
	flagSet.Duration(retryDelayFlagName, defaults.RetryDelay, retryDelayFlagDescription)
	flagutils.AddToggleFlag(flagSet, nil, passEnoauditFlagName, "", defaults.PassEnoaudit, passEnoauditFlagDescription)
	flagutils.AddToggleFlag(flagSet, nil, skipDevelopmentFlagName, "", defaults.SkipDev, skipDevelopmentFlagDescription)
	flagSet.Duration(timeoutFlagName, defaults.Timeout, timeoutFlagDescription)

	command.MarkFlagsMutuallyExclusive(reportFlagName, summaryFlagName, reportTypeFlagName)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	commandConfiguration, parseError := builder.parseConfiguration(command)
	if parseError != nil {
		return parseError
	}

	configuration, resolveError := commandConfiguration.Resolve()
	if resolveError != nil {
		return resolveError
	}

	logger := builder.resolveLogger()
	if metadata, available := utils.NewCommandContextAccessor().ConfigurationMetadata(command.Context()); available {
		logger.Debug(
			configurationSourceMessage,
			zap.String(logFieldConfigFile, metadata.ConfigFileUsed),
			zap.Bool(logFieldEmbeddedDefaults, metadata.EmbeddedDefaultsUsed),
		)
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	warningSink := builder.WarningSink
	if warningSink == nil {
		warningSink = ui.NewConsoleWarningSink(command.ErrOrStderr(), logger)
	}

	pipeline, pipelineError := NewPipeline(auditors.NewDetector(builder.FileSystem), executor, warningSink, logger)
	if pipelineError != nil {
		return pipelineError
	}

	service, serviceError := NewService(pipeline, command.OutOrStdout(), logger)
	if serviceError != nil {
		return serviceError
	}

	_, runError := service.Run(command.Context(), configuration)
	return runError
}

// parseConfiguration overlays changed flags on the provided configuration.
func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := builder.resolveConfiguration()
	flagSet := command.Flags()

	overrides := flagutils.Overrides{
		Strings: []flagutils.StringBinding{
			{FlagName: packageManagerFlagName, Target: &configuration.PackageManager},
			{FlagName: directoryFlagName, Target: &configuration.Directory},
			{FlagName: outputFormatFlagName, Target: &configuration.OutputFormat},
			{FlagName: registryFlagName, Target: &configuration.Registry},
			{FlagName: reportTypeFlagName, Target: &configuration.ReportType},
		},
		Booleans: []flagutils.BoolBinding{
			{FlagName: lowFlagName, Target: &configuration.Low},
			{FlagName: moderateFlagName, Target: &configuration.Moderate},
			{FlagName: highFlagName, Target: &configuration.High},
			{FlagName: criticalFlagName, Target: &configuration.Critical},
			{FlagName: showFoundFlagName, Target: &configuration.ShowFound},
			{FlagName: showNotFoundFlagName, Target: &configuration.ShowNotFound},
			{FlagName: passEnoauditFlagName, Target: &configuration.PassEnoaudit},
			{FlagName: skipDevelopmentFlagName, Target: &configuration.SkipDev},
		},
		Integers: []flagutils.IntBinding{
			{FlagName: retryCountFlagName, Target: &configuration.RetryCount},
		},
		Durations: []flagutils.DurationBinding{
			{FlagName: retryDelayFlagName, Target: &configuration.RetryDelay},
			{FlagName: timeoutFlagName, Target: &configuration.Timeout},
		},
		StringSlices: []flagutils.StringSliceBinding{
			{FlagName: allowlistFlagName, Target: &configuration.Allowlist},
		},
	}
	if overrideError := flagutils.ApplyChangedFlags(flagSet, overrides); overrideError != nil {
		return CommandConfiguration{}, overrideError
	}

	if reportRequested, _ := flagSet.GetBool(reportFlagName); reportRequested {
		configuration.ReportType = reportTypeFullValueConstant
	}
	if summaryRequested, _ := flagSet.GetBool(summaryFlagName); summaryRequested {
		configuration.ReportType = reportTypeSummaryValueConstant
	}

	return configuration, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// resolveExecutor also routes command events to the console when human-readable logging is on,
// in which case the executor's own structured entries are dropped to avoid duplicates.
func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (auditors.CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	executorLogger := logger
	observers := []execshell.CommandEventObserver{builder.CommandEventsObserver}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		observers = append(observers, ui.NewConsoleCommandEventLogger(logger))
		executorLogger = zap.NewNop()
	}

	return execshell.NewShellExecutorWithObserver(executorLogger, execshell.NewOSCommandRunner(), execshell.CombineObservers(observers...))
}

func toolChoices() []string {
	choices := []string{auditors.ToolAuto.String()}
	for _, tool := range auditors.SupportedTools() {
		choices = append(choices, tool.String())
	}
	return choices
}

func reportTypeChoices() []string {
	return []string{string(report.TypeImportant), string(report.TypeFull), string(report.TypeSummary)}
}

func formatChoices() []string {
	choices := make([]string, 0, len(render.Formats()))
	for _, format := range render.Formats() {
		choices = append(choices, string(format))
	}
	return choices
}
