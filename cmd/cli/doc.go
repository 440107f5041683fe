// Package cli constructs the auditgate command-line interface. It wires the Cobra
// root command to the viper configuration loader and the zap logger factory and
// registers the audit subcommand.
package cli
