package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/auditgate/internal/utils"
)

const (
	testEnvironmentPrefixConstant              = "TESTAUDITGATE"
	testConfigurationNameConstant              = "config"
	testConfigurationTypeConstant              = "yaml"
	testConfigFileNameConstant                 = "config.yaml"
	testRetryCountKeyConstant                  = "tools.audit.retry_count"
	testRetryCountEnvironmentVariableConstant  = testEnvironmentPrefixConstant + "_TOOLS_AUDIT_RETRY_COUNT"
	testRetryCountDocumentTemplateConstant     = "tools:\n  audit:\n    retry_count: %d\n    report_type: %s\n"
	testUserConfigurationDirectoryNameConstant = ".auditgate"
	testXDGConfigHomeDirectoryNameConstant     = "config"
)

type configurationFixture struct {
	Tools struct {
		Audit struct {
			RetryCount int    `mapstructure:"retry_count"`
			ReportType string `mapstructure:"report_type"`
		} `mapstructure:"audit"`
	} `mapstructure:"tools"`
}

// configurationLayers lists the retry count carried by each source; zero means the source is absent.
type configurationLayers struct {
	embedded    int
	file        int
	environment int
}

func retryCountDocument(retryCount int, reportType string) []byte {
	return []byte(fmt.Sprintf(testRetryCountDocumentTemplateConstant, retryCount, reportType))
}

func TestConfigurationLoaderLayering(testInstance *testing.T) {
	testCases := []struct {
		name               string
		layers             configurationLayers
		expectedRetryCount int
		expectedReportType string
	}{
		{
			name:               "defaults_only",
			expectedRetryCount: 5,
			expectedReportType: "important",
		},
		{
			name:               "embedded_over_defaults",
			layers:             configurationLayers{embedded: 3},
			expectedRetryCount: 3,
			expectedReportType: "embedded",
		},
		{
			name:               "file_over_embedded",
			layers:             configurationLayers{embedded: 3, file: 7},
			expectedRetryCount: 7,
			expectedReportType: "file",
		},
		{
			name:               "environment_over_file",
			layers:             configurationLayers{embedded: 3, file: 7, environment: 9},
			expectedRetryCount: 9,
			expectedReportType: "file",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
			if testCase.layers.embedded > 0 {
				configurationLoader.SetEmbeddedConfiguration(retryCountDocument(testCase.layers.embedded, "embedded"), testConfigurationTypeConstant)
			}

			explicitConfigurationPath := ""
			if testCase.layers.file > 0 {
				explicitConfigurationPath = filepath.Join(testInstance.TempDir(), testConfigFileNameConstant)
				require.NoError(testInstance, os.WriteFile(explicitConfigurationPath, retryCountDocument(testCase.layers.file, "file"), 0o600))
			}
			if testCase.layers.environment > 0 {
				testInstance.Setenv(testRetryCountEnvironmentVariableConstant, strconv.Itoa(testCase.layers.environment))
			}

			defaultValues := map[string]any{
				testRetryCountKeyConstant: 5,
				"tools.audit.report_type": "important",
			}
			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(explicitConfigurationPath, defaultValues, &loadedConfiguration)
			require.NoError(testInstance, loadError)

			require.Equal(testInstance, testCase.expectedRetryCount, loadedConfiguration.Tools.Audit.RetryCount)
			require.Equal(testInstance, testCase.expectedReportType, loadedConfiguration.Tools.Audit.ReportType)
			require.Equal(testInstance, testCase.layers.embedded > 0, metadata.EmbeddedDefaultsUsed)
			require.Equal(testInstance, explicitConfigurationPath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderDiscoversFileInSearchPaths(testInstance *testing.T) {
	homeDirectoryPath := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectoryPath)
	testInstance.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDirectoryPath, testXDGConfigHomeDirectoryNameConstant))
	userConfigurationBaseDirectoryPath, userConfigurationDirectoryError := os.UserConfigDir()
	require.NoError(testInstance, userConfigurationDirectoryError)

	projectDirectoryPath := testInstance.TempDir()
	userDirectoryPath := filepath.Join(userConfigurationBaseDirectoryPath, testUserConfigurationDirectoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(userDirectoryPath, 0o755))

	testCases := []struct {
		name               string
		populatedDirectory string
		expectedRetryCount int
	}{
		{name: "project_directory", populatedDirectory: projectDirectoryPath, expectedRetryCount: 2},
		{name: "user_configuration_directory", populatedDirectory: userDirectoryPath, expectedRetryCount: 4},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			discoveredPath := filepath.Join(testCase.populatedDirectory, testConfigFileNameConstant)
			require.NoError(testInstance, os.WriteFile(discoveredPath, retryCountDocument(testCase.expectedRetryCount, "full"), 0o600))
			testInstance.Cleanup(func() { _ = os.Remove(discoveredPath) })

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{projectDirectoryPath, userDirectoryPath})
			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedRetryCount, loadedConfiguration.Tools.Audit.RetryCount)
			require.Equal(testInstance, discoveredPath, metadata.ConfigFileUsed)
		})
	}
}

type auditSettingsFixture struct {
	Tools struct {
		Audit struct {
			RetryDelay time.Duration `mapstructure:"retry_delay"`
			Timeout    time.Duration `mapstructure:"timeout"`
			Allowlist  []string      `mapstructure:"allowlist"`
		} `mapstructure:"audit"`
	} `mapstructure:"tools"`
}

func TestConfigurationLoaderDecodesDurationsAndLists(testInstance *testing.T) {
	testInstance.Setenv(testEnvironmentPrefixConstant+"_TOOLS_AUDIT_ALLOWLIST", "lodash,1077,GHSA-abcd-efgh-ijkl")
	testInstance.Setenv(testEnvironmentPrefixConstant+"_TOOLS_AUDIT_TIMEOUT", "2m")

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
	configurationLoader.SetEmbeddedConfiguration([]byte("tools:\n  audit:\n    retry_delay: 1500ms\n    timeout: 0s\n    allowlist: []\n"), testConfigurationTypeConstant)

	loadedConfiguration := auditSettingsFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, metadata.ConfigFileUsed)
	require.Equal(testInstance, 1500*time.Millisecond, loadedConfiguration.Tools.Audit.RetryDelay)
	require.Equal(testInstance, 2*time.Minute, loadedConfiguration.Tools.Audit.Timeout)
	require.Equal(testInstance, []string{"lodash", "1077", "GHSA-abcd-efgh-ijkl"}, loadedConfiguration.Tools.Audit.Allowlist)
}

func TestConfigurationLoaderRejectsInvalidInput(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})

	_, missingTargetError := configurationLoader.LoadConfiguration("", nil, nil)
	require.ErrorIs(testInstance, missingTargetError, utils.ErrConfigurationTargetMissing)

	configurationLoader.SetEmbeddedConfiguration([]byte("tools: [unterminated"), testConfigurationTypeConstant)
	_, mergeError := configurationLoader.LoadConfiguration("", nil, &configurationFixture{})
	require.Error(testInstance, mergeError)
	require.Contains(testInstance, mergeError.Error(), "failed to merge embedded configuration")

	configurationLoader.SetEmbeddedConfiguration(nil, testConfigurationTypeConstant)
	missingFilePath := filepath.Join(testInstance.TempDir(), "absent.yaml")
	_, readError := configurationLoader.LoadConfiguration(missingFilePath, nil, &configurationFixture{})
	require.Error(testInstance, readError)
	require.Contains(testInstance, readError.Error(), "failed to read configuration")
}

func TestConfigurationSearchPaths(testInstance *testing.T) {
	homeDirectoryPath := testInstance.TempDir()
	xdgConfigHomeDirectoryPath := filepath.Join(homeDirectoryPath, testXDGConfigHomeDirectoryNameConstant)
	testInstance.Setenv("HOME", homeDirectoryPath)
	testInstance.Setenv("XDG_CONFIG_HOME", xdgConfigHomeDirectoryPath)

	userConfigurationBaseDirectoryPath, userConfigurationDirectoryError := os.UserConfigDir()
	require.NoError(testInstance, userConfigurationDirectoryError)

	searchPaths := utils.ConfigurationSearchPaths(testUserConfigurationDirectoryNameConstant)
	require.Equal(testInstance, []string{".", filepath.Join(userConfigurationBaseDirectoryPath, testUserConfigurationDirectoryNameConstant)}, searchPaths)
}
