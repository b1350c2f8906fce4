package remediation

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/fsaudit/internal/audit"
	"github.com/temirov/fsaudit/internal/inspect"
)

const (
	scriptShebangConstant         = "#!/bin/sh"
	scriptToolCommentTemplate     = "# generated by fsaudit"
	scriptRunIdentifierTemplate   = "# run: %s"
	scriptGeneratedAtTemplate     = "# generated at: %s"
	scriptEmptyCommentConstant    = "# nothing to fix"
	chmodCommandTemplateConstant  = "chmod %s '%s'"
	chownCommandTemplateConstant  = "chown %s '%s'"
	actionCommentTemplateConstant = "# %s: %s -> %s"
	shellQuoteEscapedConstant     = `'\''`
	shellQuoteCharacterConstant   = "'"
	scriptLineSeparatorConstant   = "\n"
	scriptTimestampLayoutConstant = time.RFC3339
)

// CommandKind identifies the remediation tool an action invokes.
type CommandKind string

// Supported remediation commands.
const (
	CommandKindChangeMode  CommandKind = "chmod"
	CommandKindChangeOwner CommandKind = "chown"
)

// Action is one concrete change that would bring a path back to policy.
type Action struct {
	TargetPath string      `json:"target_path" yaml:"target_path"`
	Kind       CommandKind `json:"kind" yaml:"kind"`
	Current    string      `json:"current" yaml:"current"`
	Desired    string      `json:"desired" yaml:"desired"`
}

// Command renders the action as a single shell command.
func (action Action) Command() string {
	template := chmodCommandTemplateConstant
	if action.Kind == CommandKindChangeOwner {
		template = chownCommandTemplateConstant
	}
	return fmt.Sprintf(template, action.Desired, quoteShellPath(action.TargetPath))
}

// Script is an ordered set of remediation actions tied to the audit run that
// produced them.
type Script struct {
	RunID       string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	Actions     []Action  `json:"actions" yaml:"actions"`
}

// Empty reports whether the script contains no actions.
func (script Script) Empty() bool {
	return len(script.Actions) == 0
}

// Render produces the shell script text. Actions appear in report order, so
// the same report always renders byte-identical output.
func (script Script) Render() string {
	lines := []string{
		scriptShebangConstant,
		scriptToolCommentTemplate,
	}
	if len(script.RunID) > 0 {
		lines = append(lines, fmt.Sprintf(scriptRunIdentifierTemplate, script.RunID))
	}
	if !script.GeneratedAt.IsZero() {
		lines = append(lines, fmt.Sprintf(scriptGeneratedAtTemplate, script.GeneratedAt.Format(scriptTimestampLayoutConstant)))
	}

	if script.Empty() {
		lines = append(lines, scriptEmptyCommentConstant)
		return strings.Join(lines, scriptLineSeparatorConstant) + scriptLineSeparatorConstant
	}

	for _, action := range script.Actions {
		lines = append(lines, fmt.Sprintf(actionCommentTemplateConstant, action.TargetPath, action.Current, action.Desired))
		lines = append(lines, action.Command())
	}
	return strings.Join(lines, scriptLineSeparatorConstant) + scriptLineSeparatorConstant
}

// Generate derives remediation actions from the report's failed results.
// Only mismatched mode and owner dimensions produce actions: link targets
// cannot be fixed in place without destroying the existing link, and errored
// results describe paths whose real state was never observed. Symlink nodes
// never produce actions either, since chmod and chown on a link path rewrite
// the target rather than the link.
func Generate(report audit.Report) Script {
	script := Script{RunID: report.RunID, GeneratedAt: report.GeneratedAt}
	for _, result := range report.Results {
		if result.Status != audit.StatusFail || result.Kind == inspect.KindSymlink {
			continue
		}
		for _, comparison := range result.Comparisons {
			if comparison.Matched {
				continue
			}
			switch comparison.Dimension {
			case audit.DimensionMode:
				script.Actions = append(script.Actions, Action{
					TargetPath: result.Path,
					Kind:       CommandKindChangeMode,
					Current:    comparison.Found,
					Desired:    comparison.Expected,
				})
			case audit.DimensionOwner:
				script.Actions = append(script.Actions, Action{
					TargetPath: result.Path,
					Kind:       CommandKindChangeOwner,
					Current:    comparison.Found,
					Desired:    comparison.Expected,
				})
			}
		}
	}
	return script
}

func quoteShellPath(path string) string {
	return strings.ReplaceAll(path, shellQuoteCharacterConstant, shellQuoteEscapedConstant)
}
