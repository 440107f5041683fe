// Package report builds the audit report record at the requested verbosity.
// Writing it anywhere is left to package render.
package report
