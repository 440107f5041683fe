// Package ui provides helpers for formatting human-readable console output.
//
// Command lifecycle events from the shell executor become concise log lines,
// and operator warnings such as a skipped audit are printed to the console
// while detailed telemetry continues to flow through structured loggers.
package ui
