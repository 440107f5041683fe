package audit_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/execshell"
)

const (
	testProjectDirectoryConstant = "/workspace/app"
	testNpmVersionConstant       = "10.2.4"
	testVersionArgumentConstant  = "--version"
	testNpmLockFileConstant      = "/workspace/app/package-lock.json"
	testNpmModernReportConstant  = `{
  "auditReportVersion": 2,
  "vulnerabilities": {
    "minimist": {
      "name": "minimist",
      "severity": "critical",
      "via": [{"source": 1096460, "name": "minimist", "title": "Prototype Pollution in minimist", "url": "https://github.com/advisories/GHSA-xvch-5gv4-984h", "severity": "critical", "range": "<0.2.4"}],
      "nodes": ["node_modules/minimist", "node_modules/mkdirp/node_modules/minimist"]
    },
    "mkdirp": {
      "name": "mkdirp",
      "severity": "critical",
      "via": ["minimist"],
      "nodes": ["node_modules/mkdirp"]
    },
    "@babel/traverse": {
      "name": "@babel/traverse",
      "severity": "moderate",
      "via": [{"source": 1095264, "name": "@babel/traverse", "title": "Babel vulnerable to arbitrary code execution", "url": "https://github.com/advisories/GHSA-67hx-6x53-jw92", "severity": "moderate", "range": "<7.23.2"}],
      "nodes": ["node_modules/@babel/traverse"]
    }
  }
}`
	testNpmCleanReportConstant = `{"auditReportVersion": 2, "vulnerabilities": {}}`
	testNpmEnoauditConstant    = `{"error": {"code": "ENOAUDIT", "summary": "Your configured registry (https://registry.example.test/) does not support audit requests.", "detail": ""}}`
)

// scriptedCommandRunner answers "--version" probes with a fixed version and audits from a queue,
// repeating the last response once the queue is drained.
type scriptedCommandRunner struct {
	version          string
	responses        []execshell.ExecutionResult
	auditInvocations int
	recordedCommands []execshell.ShellCommand
}

func (runner *scriptedCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	if len(command.Details.Arguments) == 1 && command.Details.Arguments[0] == testVersionArgumentConstant {
		return execshell.ExecutionResult{StandardOutput: runner.version + "\n"}, nil
	}
	if len(runner.responses) == 0 {
		return execshell.ExecutionResult{}, errors.New("unexpected command " + strings.Join(command.Details.Arguments, " "))
	}
	runner.auditInvocations++
	response := runner.responses[0]
	if len(runner.responses) > 1 {
		runner.responses = runner.responses[1:]
	}
	return response, nil
}

func newNpmRunner(responses ...execshell.ExecutionResult) *scriptedCommandRunner {
	return &scriptedCommandRunner{version: testNpmVersionConstant, responses: responses}
}

func newShellExecutor(testInstance *testing.T, runner execshell.CommandRunner) *execshell.ShellExecutor {
	testInstance.Helper()
	executor, executorError := execshell.NewShellExecutor(zap.NewNop(), runner)
	require.NoError(testInstance, executorError)
	return executor
}

func newProjectFileSystem(testInstance *testing.T, lockFiles ...string) afero.Fs {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, fileSystem.MkdirAll(testProjectDirectoryConstant, 0o755))
	for _, lockFile := range lockFiles {
		require.NoError(testInstance, afero.WriteFile(fileSystem, lockFile, []byte("{}"), 0o600))
	}
	return fileSystem
}

type recordedWarnings struct {
	messages []string
}

func (warnings *recordedWarnings) Warn(message string) {
	warnings.messages = append(warnings.messages, message)
}
