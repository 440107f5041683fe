// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the abstractions auditgate uses to run
// npm, yarn, and pnpm in a testable manner. Output is always fully buffered
// before a result is returned.
package execshell
