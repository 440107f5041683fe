package execshell_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/auditgate/internal/execshell"
)

const osRunnerStubScript = `#!/bin/sh
printf '%s' "$AUDITGATE_STUB_OUTPUT"
printf '%s' "$(basename "$(pwd)")" 1>&2
if [ "$1" = "sleep" ]; then
  sleep 5
fi
exit 3
`

func TestOSCommandRunnerRun(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("stub executable relies on /bin/sh")
	}

	binaryDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(binaryDirectory, "pnpm"), []byte(osRunnerStubScript), 0o755))
	testInstance.Setenv("PATH", binaryDirectory+string(os.PathListSeparator)+os.Getenv("PATH"))
	workingDirectory, resolveError := filepath.EvalSymlinks(testInstance.TempDir())
	require.NoError(testInstance, resolveError)

	testCases := []struct {
		name           string
		arguments      []string
		timeout        time.Duration
		expectError    bool
		expectedResult execshell.ExecutionResult
	}{
		{
			name:      "non_zero_exit_is_not_an_error",
			arguments: []string{"audit"},
			expectedResult: execshell.ExecutionResult{
				StandardOutput: "{\"advisories\":{}}",
				StandardError:  filepath.Base(workingDirectory),
				ExitCode:       3,
			},
		},
		{
			name:        "context_deadline_is_an_error",
			arguments:   []string{"sleep"},
			timeout:     100 * time.Millisecond,
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executionContext := context.Background()
			if testCase.timeout > 0 {
				var cancel context.CancelFunc
				executionContext, cancel = context.WithTimeout(executionContext, testCase.timeout)
				defer cancel()
			}

			result, runError := execshell.NewOSCommandRunner().Run(executionContext, execshell.ShellCommand{
				Name: execshell.CommandPnpm,
				Details: execshell.CommandDetails{
					Arguments:            testCase.arguments,
					WorkingDirectory:     workingDirectory,
					EnvironmentVariables: map[string]string{"AUDITGATE_STUB_OUTPUT": "{\"advisories\":{}}"},
				},
			})
			if testCase.expectError {
				require.ErrorIs(testInstance, runError, context.DeadlineExceeded)
				return
			}
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedResult, result)
		})
	}
}
