// Package retry wraps an auditor adapter with the bounded retry policy for registries
// that temporarily refuse to audit.
package retry
