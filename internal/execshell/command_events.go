package execshell

// CommandEventObserver receives lifecycle notifications for external commands.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	// CommandCompleted is called for every command that ran to completion, whatever its exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is called when the command could not be run or was interrupted.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// CombineObservers fans events out to every non-nil observer in order.
func CombineObservers(observers ...CommandEventObserver) CommandEventObserver {
	activeObservers := make(observerGroup, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			activeObservers = append(activeObservers, observer)
		}
	}
	switch len(activeObservers) {
	case 0:
		return noopCommandEventObserver{}
	case 1:
		return activeObservers[0]
	default:
		return activeObservers
	}
}

type observerGroup []CommandEventObserver

func (group observerGroup) CommandStarted(command ShellCommand) {
	for _, observer := range group {
		observer.CommandStarted(command)
	}
}

func (group observerGroup) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range group {
		observer.CommandCompleted(command, result)
	}
}

func (group observerGroup) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range group {
		observer.CommandExecutionFailed(command, failure)
	}
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
