// Package audit gates a build on the vulnerabilities reported by npm, yarn, or pnpm.
//
// CommandBuilder wires the audit Cobra command. Pipeline detects the package
// manager, runs its audit under the retry policy, applies the allowlist and the
// severity gate, and builds the report. Service adds the deadline, renders the
// report, and turns a failing gate into ErrVulnerabilitiesFound.
package audit
