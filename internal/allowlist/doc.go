// Package allowlist suppresses findings an operator has accepted and reports
// which allowlist entries no longer match anything.
package allowlist
