package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	commandStartedMessageConstant   = "external command started"
	commandCompletedMessageConstant = "external command completed"
	commandFailureMessageConstant   = "external command failed"
	logFieldCommandConstant         = "command"
	logFieldArgumentsConstant       = "arguments"
	logFieldExitCodeConstant        = "exit_code"
	logFieldStandardErrorConstant   = "stderr"
	commandFailureTemplateConstant  = "%s %s exited with code %d: %s"
)

// Configuration errors surfaced during executor construction.
var (
	ErrLoggerNotConfigured        = errors.New("logger not configured")
	ErrCommandRunnerNotConfigured = errors.New("command runner not configured")
)

// CommandName identifies an external executable.
type CommandName string

// Executables invoked by fsaudit.
const (
	CommandShell CommandName = "sh"
	CommandSudo  CommandName = "sudo"
	CommandIP    CommandName = "ip"
	CommandARP   CommandName = "arp"
)

// CommandDetails captures the invocation parameters of one external command.
type CommandDetails struct {
	Arguments        []string
	WorkingDirectory string
	StandardInput    []byte
}

// ShellCommand pairs an executable name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the outputs of a completed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes a shell command and reports its outcome.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error renders the failed command with its exit code and captured stderr.
func (failure *CommandFailedError) Error() string {
	return fmt.Sprintf(
		commandFailureTemplateConstant,
		failure.Command.Name,
		strings.Join(failure.Command.Details.Arguments, " "),
		failure.Result.ExitCode,
		strings.TrimSpace(failure.Result.StandardError),
	)
}

// ShellExecutor runs external commands with structured logging around each
// invocation.
type ShellExecutor struct {
	logger *zap.Logger
	runner CommandRunner
}

// NewShellExecutor constructs an executor from the provided logger and runner.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{logger: logger, runner: runner}, nil
}

// Execute runs the command, logging start and completion. A non-zero exit
// code is returned as a CommandFailedError alongside the captured result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
	)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Error(
			commandFailureMessageConstant,
			zap.String(logFieldCommandConstant, string(command.Name)),
			zap.Error(runError),
		)
		return ExecutionResult{}, runError
	}

	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		zap.String(logFieldStandardErrorConstant, executionResult.StandardError),
	)

	if executionResult.ExitCode != 0 {
		return executionResult, &CommandFailedError{Command: command, Result: executionResult}
	}
	return executionResult, nil
}

// ExecuteScript runs a generated shell script, optionally elevating through
// sudo. The script itself is produced and confirmed elsewhere; this helper
// only performs the delegated execution step.
func (executor *ShellExecutor) ExecuteScript(executionContext context.Context, scriptPath string, elevate bool) (ExecutionResult, error) {
	command := ShellCommand{Name: CommandShell, Details: CommandDetails{Arguments: []string{scriptPath}}}
	if elevate {
		command = ShellCommand{Name: CommandSudo, Details: CommandDetails{Arguments: []string{string(CommandShell), scriptPath}}}
	}
	return executor.Execute(executionContext, command)
}
