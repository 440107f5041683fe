package auditors_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/auditgate/internal/auditors"
)

const testDetectorDirectoryConstant = "/project"

func TestDetectorResolve(testInstance *testing.T) {
	testCases := []struct {
		name             string
		configured       auditors.Tool
		lockFiles        []string
		expectedTool     auditors.Tool
		expectedLockFile string
		expectError      bool
	}{
		{
			name:             "package_lock_wins_over_everything",
			configured:       auditors.ToolAuto,
			lockFiles:        []string{"pnpm-lock.yaml", "yarn.lock", "package-lock.json"},
			expectedTool:     auditors.ToolNpm,
			expectedLockFile: "package-lock.json",
		},
		{
			name:             "shrinkwrap_detected_as_npm",
			configured:       auditors.ToolAuto,
			lockFiles:        []string{"npm-shrinkwrap.json", "yarn.lock"},
			expectedTool:     auditors.ToolNpm,
			expectedLockFile: "npm-shrinkwrap.json",
		},
		{
			name:             "yarn_before_pnpm",
			configured:       auditors.ToolAuto,
			lockFiles:        []string{"pnpm-lock.yaml", "yarn.lock"},
			expectedTool:     auditors.ToolYarn,
			expectedLockFile: "yarn.lock",
		},
		{
			name:             "pnpm_only",
			configured:       auditors.ToolAuto,
			lockFiles:        []string{"pnpm-lock.yaml"},
			expectedTool:     auditors.ToolPnpm,
			expectedLockFile: "pnpm-lock.yaml",
		},
		{
			name:        "no_lock_file",
			configured:  auditors.ToolAuto,
			lockFiles:   []string{"package.json"},
			expectError: true,
		},
		{
			name:             "explicit_tool_skips_detection",
			configured:       auditors.ToolPnpm,
			lockFiles:        []string{"package-lock.json"},
			expectedTool:     auditors.ToolPnpm,
			expectedLockFile: "",
		},
		{
			name:             "explicit_tool_reports_its_lock_file",
			configured:       auditors.ToolYarn,
			lockFiles:        []string{"package-lock.json", "yarn.lock"},
			expectedTool:     auditors.ToolYarn,
			expectedLockFile: "yarn.lock",
		},
		{
			name:        "unknown_explicit_tool",
			configured:  auditors.Tool("bun"),
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			require.NoError(testInstance, fileSystem.MkdirAll(testDetectorDirectoryConstant, 0o755))
			for _, lockFile := range testCase.lockFiles {
				require.NoError(testInstance, afero.WriteFile(fileSystem, filepath.Join(testDetectorDirectoryConstant, lockFile), []byte("{}"), 0o644))
			}

			detector := auditors.NewDetector(fileSystem)
			tool, lockFilePath, resolveError := detector.Resolve(testCase.configured, testDetectorDirectoryConstant)
			if testCase.expectError {
				var configurationError auditors.ConfigurationError
				require.ErrorAs(testInstance, resolveError, &configurationError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedTool, tool)
			if len(testCase.expectedLockFile) == 0 {
				require.Empty(testInstance, lockFilePath)
			} else {
				require.Equal(testInstance, filepath.Join(testDetectorDirectoryConstant, testCase.expectedLockFile), lockFilePath)
			}
		})
	}
}

// unreadableFs fails every Stat with a permission error.
type unreadableFs struct {
	afero.Fs
}

func (unreadableFs) Stat(name string) (os.FileInfo, error) {
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrPermission}
}

func TestDetectorResolveReportsUnreadableDirectory(testInstance *testing.T) {
	for _, configured := range []auditors.Tool{auditors.ToolAuto, auditors.ToolNpm, auditors.ToolYarn} {
		testInstance.Run(configured.String(), func(testInstance *testing.T) {
			detector := auditors.NewDetector(unreadableFs{Fs: afero.NewMemMapFs()})
			tool, lockFilePath, resolveError := detector.Resolve(configured, testDetectorDirectoryConstant)

			var configurationError auditors.ConfigurationError
			require.ErrorAs(testInstance, resolveError, &configurationError)
			require.Contains(testInstance, configurationError.Message, "unable to inspect")
			require.Empty(testInstance, tool)
			require.Empty(testInstance, lockFilePath)
		})
	}
}

func TestParseTool(testInstance *testing.T) {
	for _, raw := range []string{"", "auto", " AUTO "} {
		tool, parseError := auditors.ParseTool(raw)
		require.NoError(testInstance, parseError)
		require.Equal(testInstance, auditors.ToolAuto, tool)
	}

	tool, parseError := auditors.ParseTool("Yarn")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, auditors.ToolYarn, tool)

	_, parseError = auditors.ParseTool("bun")
	require.Error(testInstance, parseError)
}
