// Package vulnerability defines the normalized finding schema shared by every
// auditor adapter, the allowlist matcher, the severity gate, and the report formatter.
package vulnerability
