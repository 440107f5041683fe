// Package utils holds the process plumbing shared by the CLI: the viper backed
// ConfigurationLoader, the zap LoggerFactory, the CommandContextAccessor that
// hands configuration metadata to subcommands, and FlushingWriter.
package utils
