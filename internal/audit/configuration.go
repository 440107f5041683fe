package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/auditgate/internal/allowlist"
	"github.com/temirov/auditgate/internal/auditors"
	"github.com/temirov/auditgate/internal/gate"
	"github.com/temirov/auditgate/internal/report"
	"github.com/temirov/auditgate/internal/report/render"
	pathutils "github.com/temirov/auditgate/internal/utils/path"
)

var auditDirectoryNormalizer = pathutils.NewDirectoryNormalizer(defaultDirectoryConstant)

const (
	defaultDirectoryConstant            = "."
	defaultRetryCountConstant           = 5
	negativeRetryCountTemplateConstant  = "retry count must not be negative, got %d"
	negativeDurationTemplateConstant    = "%s must not be negative, got %s"
	retryDelayFieldNameConstant         = "retry delay"
	timeoutFieldNameConstant            = "timeout"
	configurationKeySeparatorConstant   = "."
	packageManagerConfigurationKey      = "package_manager"
	directoryConfigurationKey           = "directory"
	registryConfigurationKey            = "registry"
	lowConfigurationKey                 = "low"
	moderateConfigurationKey            = "moderate"
	highConfigurationKey                = "high"
	criticalConfigurationKey            = "critical"
	allowlistConfigurationKey           = "allowlist"
	retryCountConfigurationKey          = "retry_count"
	retryDelayConfigurationKey          = "retry_delay"
	passEnoauditConfigurationKey        = "pass_enoaudit"
	reportTypeConfigurationKey          = "report_type"
	showFoundConfigurationKey           = "show_found"
	showNotFoundConfigurationKey        = "show_not_found"
	outputFormatConfigurationKey        = "output_format"
	skipDevelopmentConfigurationKey     = "skip_dev"
	timeoutConfigurationKey             = "timeout"
	defaultPackageManagerValueConstant  = "auto"
	defaultReportTypeValueConstant      = "important"
	defaultOutputFormatValueConstant    = "text"
	defaultShowAllowlistStateConstant   = true
	defaultPassEnoauditValueConstant    = false
	defaultSkipDevelopmentValueConstant = false
)

// CommandConfiguration captures persistent settings for the audit command.
type CommandConfiguration struct {
	PackageManager string        `mapstructure:"package_manager"`
	Directory      string        `mapstructure:"directory"`
	Registry       string        `mapstructure:"registry"`
	Low            bool          `mapstructure:"low"`
	Moderate       bool          `mapstructure:"moderate"`
	High           bool          `mapstructure:"high"`
	Critical       bool          `mapstructure:"critical"`
	Allowlist      []string      `mapstructure:"allowlist"`
	RetryCount     int           `mapstructure:"retry_count"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	PassEnoaudit   bool          `mapstructure:"pass_enoaudit"`
	ReportType     string        `mapstructure:"report_type"`
	ShowFound      bool          `mapstructure:"show_found"`
	ShowNotFound   bool          `mapstructure:"show_not_found"`
	OutputFormat   string        `mapstructure:"output_format"`
	SkipDev        bool          `mapstructure:"skip_dev"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// DefaultCommandConfiguration returns baseline configuration values for the audit command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		PackageManager: defaultPackageManagerValueConstant,
		Directory:      defaultDirectoryConstant,
		Allowlist:      []string{},
		RetryCount:     defaultRetryCountConstant,
		PassEnoaudit:   defaultPassEnoauditValueConstant,
		ReportType:     defaultReportTypeValueConstant,
		ShowFound:      defaultShowAllowlistStateConstant,
		ShowNotFound:   defaultShowAllowlistStateConstant,
		OutputFormat:   defaultOutputFormatValueConstant,
		SkipDev:        defaultSkipDevelopmentValueConstant,
	}
}

// DefaultConfigurationValues returns the defaults keyed for the configuration loader under prefix.
// Every key is registered so that environment variables can override it.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	values := map[string]any{
		packageManagerConfigurationKey:  defaults.PackageManager,
		directoryConfigurationKey:       defaults.Directory,
		registryConfigurationKey:        defaults.Registry,
		lowConfigurationKey:             defaults.Low,
		moderateConfigurationKey:        defaults.Moderate,
		highConfigurationKey:            defaults.High,
		criticalConfigurationKey:        defaults.Critical,
		allowlistConfigurationKey:       defaults.Allowlist,
		retryCountConfigurationKey:      defaults.RetryCount,
		retryDelayConfigurationKey:      defaults.RetryDelay,
		passEnoauditConfigurationKey:    defaults.PassEnoaudit,
		reportTypeConfigurationKey:      defaults.ReportType,
		showFoundConfigurationKey:       defaults.ShowFound,
		showNotFoundConfigurationKey:    defaults.ShowNotFound,
		outputFormatConfigurationKey:    defaults.OutputFormat,
		skipDevelopmentConfigurationKey: defaults.SkipDev,
		timeoutConfigurationKey:         defaults.Timeout,
	}

	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return values
	}

	prefixedValues := make(map[string]any, len(values))
	for key, value := range values {
		prefixedValues[trimmedPrefix+configurationKeySeparatorConstant+key] = value
	}
	return prefixedValues
}

// Configuration is the validated input of one audit run.
type Configuration struct {
	Tool                   auditors.Tool
	Directory              string
	Registry               string
	Thresholds             gate.Thresholds
	ThresholdsEscalated    bool
	Allowlist              []allowlist.Entry
	RetryCount             int
	RetryDelay             time.Duration
	PassIfAuditUnavailable bool
	ReportType             report.Type
	ShowFound              bool
	ShowNotFound           bool
	OutputFormat           render.Format
	SkipDevelopment        bool
	Timeout                time.Duration
}

// Sanitize trims whitespace and applies defaults to unset values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.PackageManager = strings.TrimSpace(configuration.PackageManager)
	if len(sanitized.PackageManager) == 0 {
		sanitized.PackageManager = defaultPackageManagerValueConstant
	}

	sanitized.Directory = auditDirectoryNormalizer.Normalize(configuration.Directory)

	sanitized.Registry = strings.TrimSpace(configuration.Registry)

	sanitized.ReportType = strings.TrimSpace(configuration.ReportType)
	if len(sanitized.ReportType) == 0 {
		sanitized.ReportType = defaultReportTypeValueConstant
	}

	sanitized.OutputFormat = strings.TrimSpace(configuration.OutputFormat)
	if len(sanitized.OutputFormat) == 0 {
		sanitized.OutputFormat = defaultOutputFormatValueConstant
	}

	sanitized.Allowlist = sanitizeAllowlist(configuration.Allowlist)
	return sanitized
}

// Resolve validates the configuration and converts it into a Configuration.
func (configuration CommandConfiguration) Resolve() (Configuration, error) {
	sanitized := configuration.Sanitize()

	tool, toolError := auditors.ParseTool(sanitized.PackageManager)
	if toolError != nil {
		return Configuration{}, toolError
	}

	reportType, reportTypeError := report.ParseType(sanitized.ReportType)
	if reportTypeError != nil {
		return Configuration{}, reportTypeError
	}

	outputFormat, outputFormatError := render.ParseFormat(sanitized.OutputFormat)
	if outputFormatError != nil {
		return Configuration{}, outputFormatError
	}

	if sanitized.RetryCount < 0 {
		return Configuration{}, auditors.ConfigurationError{Message: fmt.Sprintf(negativeRetryCountTemplateConstant, sanitized.RetryCount)}
	}
	if sanitized.RetryDelay < 0 {
		return Configuration{}, auditors.ConfigurationError{Message: fmt.Sprintf(negativeDurationTemplateConstant, retryDelayFieldNameConstant, sanitized.RetryDelay)}
	}
	if sanitized.Timeout < 0 {
		return Configuration{}, auditors.ConfigurationError{Message: fmt.Sprintf(negativeDurationTemplateConstant, timeoutFieldNameConstant, sanitized.Timeout)}
	}

	thresholds, escalated := gate.Thresholds{
		Low:      sanitized.Low,
		Moderate: sanitized.Moderate,
		High:     sanitized.High,
		Critical: sanitized.Critical,
	}.Normalize()

	return Configuration{
		Tool:                   tool,
		Directory:              sanitized.Directory,
		Registry:               sanitized.Registry,
		Thresholds:             thresholds,
		ThresholdsEscalated:    escalated,
		Allowlist:              allowlist.Parse(sanitized.Allowlist),
		RetryCount:             sanitized.RetryCount,
		RetryDelay:             sanitized.RetryDelay,
		PassIfAuditUnavailable: sanitized.PassEnoaudit,
		ReportType:             reportType,
		ShowFound:              sanitized.ShowFound,
		ShowNotFound:           sanitized.ShowNotFound,
		OutputFormat:           outputFormat,
		SkipDevelopment:        sanitized.SkipDev,
		Timeout:                sanitized.Timeout,
	}, nil
}

func sanitizeAllowlist(rawEntries []string) []string {
	sanitized := make([]string, 0, len(rawEntries))
	for _, rawEntry := range rawEntries {
		trimmedEntry := strings.TrimSpace(rawEntry)
		if len(trimmedEntry) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmedEntry)
	}
	return sanitized
}
