package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	standardErrorPreviewLimitConstant       = 200
	standardErrorTruncationSuffixConstant   = "..."
)

const (
	auditSubcommandNameConstant    = "audit"
	versionFlagConstant            = "--version"
	yarnBerryNpmSubcommandConstant = "npm"
)

const (
	auditStartTemplateConstant              = "Auditing dependencies with %s in %s"
	auditSuccessTemplateConstant            = "%s audit in %s reported no vulnerabilities"
	auditFailureTemplateConstant            = "%s audit in %s exited with code %d%s"
	auditExecutionFailureTemplateConstant   = "Unable to run %s audit in %s: %s"
	versionStartTemplateConstant            = "Checking %s version"
	versionSuccessTemplateConstant          = "%s version is %s"
	versionFailureTemplateConstant          = "Failed to read %s version (exit code %d%s)"
	versionExecutionFailureTemplateConstant = "Unable to read %s version: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildCompletedMessage formats a success message that can reference the command output.
func (formatter CommandMessageFormatter) BuildCompletedMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	switch {
	case containsArgument(arguments, versionFlagConstant):
		return formatter.describeVersionMessage(command, result, failure, stage)
	case formatter.isAuditCommand(arguments):
		return formatter.describeAuditMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) isAuditCommand(arguments []string) bool {
	if len(arguments) == 0 {
		return false
	}
	primaryArgument := strings.TrimSpace(arguments[0])
	if primaryArgument == auditSubcommandNameConstant {
		return true
	}
	return primaryArgument == yarnBerryNpmSubcommandConstant && len(arguments) > 1 && strings.TrimSpace(arguments[1]) == auditSubcommandNameConstant
}

func (formatter CommandMessageFormatter) describeAuditMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	toolName := string(command.Name)
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(auditStartTemplateConstant, toolName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(auditSuccessTemplateConstant, toolName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(auditFailureTemplateConstant, toolName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(auditExecutionFailureTemplateConstant, toolName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeVersionMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	toolName := string(command.Name)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(versionStartTemplateConstant, toolName)
	case messageStageSuccess:
		reportedVersion := strings.TrimSpace(result.StandardOutput)
		if len(reportedVersion) == 0 {
			return fmt.Sprintf(genericSuccessTemplateConstant, formatter.formatCommandLabel(command))
		}
		return fmt.Sprintf(versionSuccessTemplateConstant, toolName, reportedVersion)
	case messageStageFailure:
		return fmt.Sprintf(versionFailureTemplateConstant, toolName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(versionExecutionFailureTemplateConstant, toolName, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

// formatStandardErrorSuffix keeps only the first line of stderr; audit tools print long banners.
func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	if newlineIndex := strings.IndexByte(trimmedStandardError, '\n'); newlineIndex >= 0 {
		trimmedStandardError = strings.TrimSpace(trimmedStandardError[:newlineIndex])
	}
	if len(trimmedStandardError) > standardErrorPreviewLimitConstant {
		trimmedStandardError = trimmedStandardError[:standardErrorPreviewLimitConstant] + standardErrorTruncationSuffixConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
