package auditors

import "fmt"

const (
	errorKindNetworkUnavailableConstant       = "network_unavailable"
	errorKindRegistryUnsupportedAuditConstant = "registry_unsupported_audit"
	errorKindMalformedOutputConstant          = "malformed_output"
	errorKindProcessFailureConstant           = "process_failure"
	auditErrorFallbackTemplateConstant        = "%s audit failed (%s)"
)

// ErrorKind classifies why an audit could not produce findings.
type ErrorKind int

// Audit error classifications.
const (
	// ProcessFailure covers spawn and execution failures unrelated to audit support.
	ProcessFailure ErrorKind = iota
	// MalformedOutput means the tool produced output that could not be parsed.
	MalformedOutput
	// RegistryUnsupportedAudit is the transient "registry cannot audit right now" condition.
	RegistryUnsupportedAudit
	// NetworkUnavailable means the registry could not be reached at all.
	NetworkUnavailable
)

// String returns a stable identifier for the kind.
func (kind ErrorKind) String() string {
	switch kind {
	case NetworkUnavailable:
		return errorKindNetworkUnavailableConstant
	case RegistryUnsupportedAudit:
		return errorKindRegistryUnsupportedAuditConstant
	case MalformedOutput:
		return errorKindMalformedOutputConstant
	default:
		return errorKindProcessFailureConstant
	}
}

// Retryable reports whether a later attempt may succeed.
func (kind ErrorKind) Retryable() bool {
	return kind == RegistryUnsupportedAudit
}

// AuditError is a classified adapter failure. Error returns the tool's diagnostic unchanged.
type AuditError struct {
	Kind    ErrorKind
	Tool    Tool
	Message string
	Cause   error
}

// Error returns the original diagnostic message.
func (auditError AuditError) Error() string {
	if len(auditError.Message) > 0 {
		return auditError.Message
	}
	if auditError.Cause != nil {
		return auditError.Cause.Error()
	}
	return fmt.Sprintf(auditErrorFallbackTemplateConstant, auditError.Tool, auditError.Kind)
}

// Unwrap exposes the underlying cause.
func (auditError AuditError) Unwrap() error {
	return auditError.Cause
}

// ConfigurationError reports configuration that cannot be turned into an audit run.
type ConfigurationError struct {
	Message string
}

// Error returns the configuration problem.
func (configurationError ConfigurationError) Error() string {
	return configurationError.Message
}
