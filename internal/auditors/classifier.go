package auditors

import "strings"

const (
	npmUnsupportedAuditSignatureConstant = "not support audit"
	serviceUnavailableSignatureConstant  = "503 Service Unavailable"
	pnpmMissingEndpointSignatureConstant = "ERR_PNPM_AUDIT_ENDPOINT_NOT_EXISTS"
	networkNotFoundSignatureConstant     = "ENOTFOUND"
	networkRefusedSignatureConstant      = "ECONNREFUSED"
	networkResetSignatureConstant        = "ECONNRESET"
	networkTimedOutSignatureConstant     = "ETIMEDOUT"
	networkLookupRetrySignatureConstant  = "EAI_AGAIN"
)

var networkUnavailableSignatures = []string{
	networkNotFoundSignatureConstant,
	networkRefusedSignatureConstant,
	networkResetSignatureConstant,
	networkTimedOutSignatureConstant,
	networkLookupRetrySignatureConstant,
}

// registryUnsupportedSignatures holds the wording each tool uses when the registry declines an audit.
// npm has three ENOAUDIT messages and all of them contain "not support audit".
var registryUnsupportedSignatures = map[Tool][]string{
	ToolNpm:  {npmUnsupportedAuditSignatureConstant},
	ToolYarn: {serviceUnavailableSignatureConstant},
	ToolPnpm: {pnpmMissingEndpointSignatureConstant, serviceUnavailableSignatureConstant},
}

// signatureClassifier maps raw tool text onto the error taxonomy.
type signatureClassifier struct {
	tool Tool
}

// Classify returns RegistryUnsupportedAudit or NetworkUnavailable on a known signature and
// ProcessFailure otherwise.
func (classifier signatureClassifier) Classify(failureText string) ErrorKind {
	if containsAny(failureText, registryUnsupportedSignatures[classifier.tool]) {
		return RegistryUnsupportedAudit
	}
	if containsAny(failureText, networkUnavailableSignatures) {
		return NetworkUnavailable
	}
	return ProcessFailure
}

func containsAny(text string, signatures []string) bool {
	for _, signature := range signatures {
		if strings.Contains(text, signature) {
			return true
		}
	}
	return false
}
