package remediation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/fsaudit/internal/execshell"
)

const (
	scriptPreviewHeaderConstant     = "The following script would be applied:\n\n"
	scriptReviewPromptConstant      = "Apply these fixes? [y/N]: "
	scriptExecutePromptTemplate     = "Execute %s now? [y/N]: "
	scriptDeclinedMessageConstant   = "remediation declined, no changes made\n"
	scriptNoActionsMessageConstant  = "nothing to fix\n"
	scriptAppliedMessageTemplate    = "applied %d fix(es)\n"
	scriptFileNamePatternConstant   = "fsaudit-fix-*.sh"
	scriptFilePermissionsConstant   = 0o700
	scriptWrittenLogMessageConstant = "remediation script written"
	scriptAppliedLogMessageConstant = "remediation script applied"
	logFieldScriptPathConstant      = "script_path"
	logFieldActionCountConstant     = "actions"
)

// Runner construction and execution errors.
var (
	ErrRunnerLoggerNotConfigured   = errors.New("remediation runner logger not configured")
	ErrRunnerExecutorNotConfigured = errors.New("remediation runner executor not configured")
	ErrRunnerPrompterNotConfigured = errors.New("remediation runner prompter not configured")
)

// RunnerOptions adjusts how a script is confirmed and executed.
type RunnerOptions struct {
	// AssumeYes skips both confirmations. Intended for unattended runs that
	// explicitly requested fixes.
	AssumeYes bool
	// Elevate executes the script through sudo.
	Elevate bool
}

// ScriptExecutor abstracts execshell for script application.
type ScriptExecutor interface {
	ExecuteScript(executionContext context.Context, scriptPath string, elevate bool) (execshell.ExecutionResult, error)
}

// Runner previews, confirms, and applies remediation scripts. No script is
// ever executed without either an explicit confirmation or an explicit
// assume-yes request.
type Runner struct {
	logger   *zap.Logger
	executor ScriptExecutor
	prompter ConfirmationPrompter
	output   io.Writer
}

// NewRunner constructs a runner from its collaborators.
func NewRunner(logger *zap.Logger, executor ScriptExecutor, prompter ConfirmationPrompter, output io.Writer) (*Runner, error) {
	if logger == nil {
		return nil, ErrRunnerLoggerNotConfigured
	}
	if executor == nil {
		return nil, ErrRunnerExecutorNotConfigured
	}
	if prompter == nil {
		return nil, ErrRunnerPrompterNotConfigured
	}
	if output == nil {
		output = os.Stdout
	}
	return &Runner{logger: logger, executor: executor, prompter: prompter, output: output}, nil
}

// Apply previews the script, asks for confirmation, writes the script to a
// private temporary file, asks again, and only then executes it. It returns
// true when the script actually ran.
func (runner *Runner) Apply(executionContext context.Context, script Script, options RunnerOptions) (bool, error) {
	if script.Empty() {
		fmt.Fprint(runner.output, scriptNoActionsMessageConstant)
		return false, nil
	}

	fmt.Fprint(runner.output, scriptPreviewHeaderConstant)
	fmt.Fprint(runner.output, script.Render())

	if !options.AssumeYes {
		confirmed, confirmError := runner.prompter.Confirm(scriptReviewPromptConstant)
		if confirmError != nil {
			return false, confirmError
		}
		if !confirmed {
			fmt.Fprint(runner.output, scriptDeclinedMessageConstant)
			return false, nil
		}
	}

	scriptPath, writeError := runner.writeScriptFile(script)
	if writeError != nil {
		return false, writeError
	}
	defer os.Remove(scriptPath)

	runner.logger.Info(
		scriptWrittenLogMessageConstant,
		zap.String(logFieldScriptPathConstant, scriptPath),
		zap.Int(logFieldActionCountConstant, len(script.Actions)),
	)

	if !options.AssumeYes {
		confirmed, confirmError := runner.prompter.Confirm(fmt.Sprintf(scriptExecutePromptTemplate, scriptPath))
		if confirmError != nil {
			return false, confirmError
		}
		if !confirmed {
			fmt.Fprint(runner.output, scriptDeclinedMessageConstant)
			return false, nil
		}
	}

	if _, executionError := runner.executor.ExecuteScript(executionContext, scriptPath, options.Elevate); executionError != nil {
		return false, executionError
	}

	runner.logger.Info(
		scriptAppliedLogMessageConstant,
		zap.String(logFieldScriptPathConstant, scriptPath),
		zap.Int(logFieldActionCountConstant, len(script.Actions)),
	)
	fmt.Fprintf(runner.output, scriptAppliedMessageTemplate, len(script.Actions))
	return true, nil
}

func (runner *Runner) writeScriptFile(script Script) (string, error) {
	scriptFile, createError := os.CreateTemp("", scriptFileNamePatternConstant)
	if createError != nil {
		return "", createError
	}
	scriptPath := scriptFile.Name()

	if _, writeError := scriptFile.WriteString(script.Render()); writeError != nil {
		scriptFile.Close()
		os.Remove(scriptPath)
		return "", writeError
	}
	if closeError := scriptFile.Close(); closeError != nil {
		os.Remove(scriptPath)
		return "", closeError
	}
	if chmodError := os.Chmod(scriptPath, scriptFilePermissionsConstant); chmodError != nil {
		os.Remove(scriptPath)
		return "", chmodError
	}
	return filepath.Clean(scriptPath), nil
}
