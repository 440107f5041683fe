package auditors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignatureClassifierClassify(testInstance *testing.T) {
	testCases := []struct {
		name         string
		tool         Tool
		failureText  string
		expectedKind ErrorKind
	}{
		{
			name:         "npm_invalid_credentials_wording",
			tool:         ToolNpm,
			failureText:  "Either your login credentials are invalid or your registry (https://r.test/) does not support audit.",
			expectedKind: RegistryUnsupportedAudit,
		},
		{
			name:         "npm_temporarily_unavailable_wording",
			tool:         ToolNpm,
			failureText:  "Your configured registry (https://r.test/) may not support audit requests, or the audit endpoint may be temporarily unavailable.",
			expectedKind: RegistryUnsupportedAudit,
		},
		{
			name:         "npm_does_not_treat_503_as_unsupported",
			tool:         ToolNpm,
			failureText:  "503 Service Unavailable",
			expectedKind: ProcessFailure,
		},
		{
			name:         "yarn_service_unavailable",
			tool:         ToolYarn,
			failureText:  "Request failed \"503 Service Unavailable\"",
			expectedKind: RegistryUnsupportedAudit,
		},
		{
			name:         "pnpm_missing_endpoint",
			tool:         ToolPnpm,
			failureText:  "ERR_PNPM_AUDIT_ENDPOINT_NOT_EXISTS: The audit endpoint doesn't exist.",
			expectedKind: RegistryUnsupportedAudit,
		},
		{
			name:         "pnpm_service_unavailable",
			tool:         ToolPnpm,
			failureText:  "ERR_PNPM_AUDIT_BAD_RESPONSE The audit endpoint responded with 503: 503 Service Unavailable",
			expectedKind: RegistryUnsupportedAudit,
		},
		{
			name:         "network_lookup_failure",
			tool:         ToolNpm,
			failureText:  "request to https://registry.npmjs.org/-/npm/v1/security/advisories/bulk failed, reason: getaddrinfo ENOTFOUND registry.npmjs.org",
			expectedKind: NetworkUnavailable,
		},
		{
			name:         "network_refused",
			tool:         ToolYarn,
			failureText:  "connect ECONNREFUSED 127.0.0.1:4873",
			expectedKind: NetworkUnavailable,
		},
		{
			name:         "unknown_text",
			tool:         ToolPnpm,
			failureText:  "ERR_PNPM_NO_LOCKFILE Cannot audit a project without a lockfile",
			expectedKind: ProcessFailure,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			classifier := signatureClassifier{tool: testCase.tool}
			require.Equal(testInstance, testCase.expectedKind, classifier.Classify(testCase.failureText))
		})
	}
}

func TestErrorKindRetryable(testInstance *testing.T) {
	require.True(testInstance, RegistryUnsupportedAudit.Retryable())
	require.False(testInstance, NetworkUnavailable.Retryable())
	require.False(testInstance, MalformedOutput.Retryable())
	require.False(testInstance, ProcessFailure.Retryable())
}
