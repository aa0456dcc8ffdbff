package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/repofleet/repofleet/internal/execshell"
)

const (
	commandRunningTemplateConstant          = "running %s"
	commandFinishedTemplateConstant         = "finished %s"
	commandExitCodeTemplateConstant         = "%s exited with code %d"
	commandExecutionFailedTemplateConstant  = "%s failed to execute: %s"
	commandWorkingDirectoryTemplateConstant = " (in %s)"
	commandStandardErrorTemplateConstant    = ": %s"
	commandTokenSeparatorConstant           = " "
	unknownExecutionFailureConstant         = "unknown error"
)

// ConsoleCommandEventLogger narrates git and gh invocations on the console so
// an operator watching a fleet run can see which repository is being touched.
// It implements execshell.CommandEventObserver.
type ConsoleCommandEventLogger struct {
	logger *zap.Logger
}

// NewConsoleCommandEventLogger constructs an event logger backed by the
// provided zap logger. A nil logger is replaced with a no-op logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted logs the command about to run.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(fmt.Sprintf(commandRunningTemplateConstant, describeCommand(command)))
}

// CommandCompleted logs a finished command, warning on a non-zero exit code.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode == 0 {
		eventLogger.logger.Info(fmt.Sprintf(commandFinishedTemplateConstant, describeCommand(command)))
		return
	}
	message := fmt.Sprintf(commandExitCodeTemplateConstant, describeCommand(command), result.ExitCode)
	if standardError := strings.TrimSpace(result.StandardError); len(standardError) > 0 {
		message += fmt.Sprintf(commandStandardErrorTemplateConstant, standardError)
	}
	eventLogger.logger.Warn(message)
}

// CommandExecutionFailed logs a command that could not be run at all, such as
// a missing binary or a context cancellation.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	failureMessage := unknownExecutionFailureConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	eventLogger.logger.Error(fmt.Sprintf(commandExecutionFailedTemplateConstant, describeCommand(command), failureMessage))
}

// describeCommand renders the binary name, its arguments, and the repository
// directory the command runs in.
func describeCommand(command execshell.ShellCommand) string {
	tokens := append([]string{string(command.Name)}, command.Details.Arguments...)
	description := strings.Join(tokens, commandTokenSeparatorConstant)
	if workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(workingDirectory) > 0 {
		description += fmt.Sprintf(commandWorkingDirectoryTemplateConstant, workingDirectory)
	}
	return description
}
