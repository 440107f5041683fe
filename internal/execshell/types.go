package execshell

import "context"

const (
	commandNpmStringConstant  = "npm"
	commandYarnStringConstant = "yarn"
	commandPnpmStringConstant = "pnpm"
)

// CommandName identifies an executable supported by the shell executor.
type CommandName string

// Supported executables.
const (
	CommandNpm  CommandName = CommandName(commandNpmStringConstant)
	CommandYarn CommandName = CommandName(commandYarnStringConstant)
	CommandPnpm CommandName = CommandName(commandPnpmStringConstant)
)

// CommandDetails describes how an executable should be invoked.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the fully drained output of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}
