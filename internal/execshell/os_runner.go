package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// OSCommandRunner executes shell commands using the operating system.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner.
func NewOSCommandRunner() OSCommandRunner {
	return OSCommandRunner{}
}

// Run executes the provided command and captures its output streams.
func (runner OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	osCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	osCommand.Dir = command.Details.WorkingDirectory

	if len(command.Details.EnvironmentVariables) > 0 {
		environment := os.Environ()
		for variableName, variableValue := range command.Details.EnvironmentVariables {
			environment = append(environment, fmt.Sprintf("%s=%s", variableName, variableValue))
		}
		osCommand.Env = environment
	}

	if len(command.Details.StandardInput) > 0 {
		osCommand.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	osCommand.Stdout = &standardOutputBuffer
	osCommand.Stderr = &standardErrorBuffer

	runError := osCommand.Run()
	executionResult := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}

	if runError != nil {
		var exitError *exec.ExitError
		if errors.As(runError, &exitError) {
			executionResult.ExitCode = exitError.ExitCode()
			return executionResult, nil
		}
		return ExecutionResult{}, runError
	}

	return executionResult, nil
}
