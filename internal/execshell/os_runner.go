package execshell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const (
	environmentAssignmentTemplateConstant = "%s=%s"
	contextTerminationErrorTemplate       = "%s terminated: %w"
)

// OSCommandRunner executes commands with os/exec. Both output streams are captured in full so
// that large JSON reports are never truncated.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes command and waits for it to exit. A non-zero exit code is reported in the
// result, not as an error; errors mean the process could not run or the context ended first.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	executable.Dir = command.Details.WorkingDirectory
	executable.Env = mergeEnvironment(command.Details.EnvironmentVariables)
	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = strings.NewReader(string(command.Details.StandardInput))
	}

	var standardOutput strings.Builder
	var standardError strings.Builder
	executable.Stdout = &standardOutput
	executable.Stderr = &standardError

	runError := executable.Run()
	if contextError := executionContext.Err(); contextError != nil {
		// a killed process reports exit code -1
		return ExecutionResult{}, fmt.Errorf(contextTerminationErrorTemplate, command.Name, contextError)
	}

	result := ExecutionResult{StandardOutput: standardOutput.String(), StandardError: standardError.String()}
	var exitError *exec.ExitError
	switch {
	case runError == nil:
		return result, nil
	case errors.As(runError, &exitError):
		result.ExitCode = exitError.ExitCode()
		return result, nil
	default:
		return ExecutionResult{}, runError
	}
}

// mergeEnvironment returns nil to inherit the parent environment when there are no overrides.
func mergeEnvironment(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	overrideKeys := make([]string, 0, len(overrides))
	for overrideKey := range overrides {
		overrideKeys = append(overrideKeys, overrideKey)
	}
	sort.Strings(overrideKeys)

	mergedEnvironment := append([]string{}, os.Environ()...)
	for _, overrideKey := range overrideKeys {
		mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, overrideKey, overrides[overrideKey]))
	}
	return mergedEnvironment
}
