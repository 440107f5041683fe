package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageForAuditIncludesToolAndDirectory(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandNpm,
		Details: CommandDetails{
			Arguments:        []string{"audit", "--json"},
			WorkingDirectory: "/workspace/app",
		},
	}

	require.Equal(t, "Auditing dependencies with npm in /workspace/app", formatter.BuildStartedMessage(command))
}

func TestBuildStartedMessageRecognizesYarnBerryAudit(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandYarn,
		Details: CommandDetails{Arguments: []string{"npm", "audit", "--recursive", "--json"}},
	}

	require.Equal(t, "Auditing dependencies with yarn in current directory", formatter.BuildStartedMessage(command))
}

func TestBuildFailureMessageKeepsFirstStandardErrorLine(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandPnpm,
		Details: CommandDetails{Arguments: []string{"audit", "--json"}, WorkingDirectory: "/repo"},
	}
	result := ExecutionResult{ExitCode: 1, StandardError: "ERR_PNPM_AUDIT_BAD_RESPONSE boom\nstack trace line"}

	require.Equal(t, "pnpm audit in /repo exited with code 1: ERR_PNPM_AUDIT_BAD_RESPONSE boom", formatter.BuildFailureMessage(command, result))
}

func TestVersionMessagesReportDetectedVersion(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{Name: CommandNpm, Details: CommandDetails{Arguments: []string{"--version"}}}

	require.Equal(t, "Checking npm version", formatter.BuildStartedMessage(command))
	require.Equal(t, "npm version is 10.2.4", formatter.BuildCompletedMessage(command, ExecutionResult{StandardOutput: "10.2.4\n"}))
	require.Equal(t, "Unable to read npm version: executable file not found", formatter.BuildExecutionFailureMessage(command, errors.New("executable file not found")))
}

func TestGenericMessagesFallBackToCommandLabel(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{Name: CommandYarn, Details: CommandDetails{Arguments: []string{"install"}, WorkingDirectory: "/repo"}}

	require.Equal(t, "Running yarn install (in /repo)", formatter.BuildStartedMessage(command))
	require.Equal(t, "yarn install (in /repo) failed: unknown error", formatter.BuildExecutionFailureMessage(command, nil))
}
