// Package check implements the audit entry point of the command line: it
// assembles rules from profiles, flags, and rule files, runs the audit
// service, renders the report, and hands failures to the remediation flow.
package check

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/fsaudit/internal/audit"
	"github.com/temirov/fsaudit/internal/execshell"
	"github.com/temirov/fsaudit/internal/inspect"
	"github.com/temirov/fsaudit/internal/remediation"
	"github.com/temirov/fsaudit/internal/render"
	"github.com/temirov/fsaudit/internal/rules"
)

const (
	commandNameConstant     = "check"
	commandShortDescription = "Audit filesystem permissions, ownership, and symlink targets"
	commandLongDescription  = "Audits filesystem objects against expected permission bits, ownership, and " +
		"symlink targets. Rules come from built-in profiles (--target), ad-hoc flags (--path with " +
		"--mode/--uid/--gid/--link-target), or rule files (--rules). Failures can be fixed through a " +
		"generated shell script that only runs after explicit confirmation."

	flagTargetName               = "target"
	flagTargetDescription        = "Built-in audit profile: user, sys, net, log, or all"
	flagPathName                 = "path"
	flagPathDescription          = "Audit a single path"
	flagModeName                 = "mode"
	flagModeDescription          = "Expected mode for --path: octal (640), long symbolic (rw-r-----), or short symbolic (u=rw,g=r,o=)"
	flagDirectoryModeName        = "directory-mode"
	flagDirectoryModeDescription = "Expected mode for directory nodes in a recursive --path audit"
	flagImportanceName           = "importance"
	flagImportanceDefault        = "medium"
	flagImportanceDescription    = "Importance of the --path rule: low, medium, high, or critical"
	flagUserIdentifierName       = "uid"
	flagUserIdentifierDesc       = "Expected numeric owner uid for --path (requires --gid)"
	flagGroupIdentifierName      = "gid"
	flagGroupIdentifierDesc      = "Expected numeric owner gid for --path (requires --uid)"
	flagLinkTargetName           = "link-target"
	flagLinkTargetDescription    = "Expected symlink target for --path"
	flagRecursiveName            = "recursive"
	flagRecursiveDescription     = "Audit the --path subtree recursively"
	flagFollowName               = "follow"
	flagFollowDescription        = "Evaluate symlink targets instead of the links themselves"
	flagComparisonName           = "comparison"
	flagComparisonDescription    = "Mode comparison policy for --path: exact or ceiling"
	flagRequireExistsName        = "require-exists"
	flagRequireExistsDescription = "Treat a missing --path as a failure instead of an error"
	flagRulesName                = "rules"
	flagRulesDescription         = "Load audit rules from a YAML, JSON, or TOML file"
	flagFormatName               = "format"
	flagFormatDefault            = "text"
	flagFormatDescription        = "Report format: text, csv, json, or yaml"
	flagOutputName               = "output"
	flagOutputDescription        = "Store the rendered report in a file"
	flagNoFixName                = "no-fix"
	flagNoFixDescription         = "Never offer the remediation flow"
	flagAssumeYesName            = "yes"
	flagAssumeYesDescription     = "Apply fixes without confirmation prompts"
	flagSudoName                 = "sudo"
	flagSudoDescription          = "Run the remediation script under sudo"
	flagInteractiveName          = "interactive"
	flagInteractiveDescription   = "Use dialog prompts for remediation confirmations"

	rejectionMessageTemplateConstant = "rule for %s rejected: %v\n"
	reportStoredTemplateConstant     = "report stored in %s\n"
	storedReportPermissionsConstant  = 0o644
)

// Command outcome errors.
var (
	ErrNoRulesRequested  = errors.New("nothing to audit: provide --target, --path, or --rules")
	ErrOwnershipFlagPair = errors.New("--uid and --gid must be provided together")
	ErrFindingsDetected  = errors.New("audit detected failures or errors")
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the check cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
	Traverser      audit.RuleTraverser
	Clock          audit.Clock
	Prompter       remediation.ConfirmationPrompter
	ScriptExecutor remediation.ScriptExecutor
}

// Build constructs the cobra command for filesystem audits.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  builder.run,
	}

	command.Flags().String(flagTargetName, "", flagTargetDescription)
	command.Flags().String(flagPathName, "", flagPathDescription)
	command.Flags().String(flagModeName, "", flagModeDescription)
	command.Flags().String(flagDirectoryModeName, "", flagDirectoryModeDescription)
	command.Flags().String(flagImportanceName, flagImportanceDefault, flagImportanceDescription)
	command.Flags().Uint32(flagUserIdentifierName, 0, flagUserIdentifierDesc)
	command.Flags().Uint32(flagGroupIdentifierName, 0, flagGroupIdentifierDesc)
	command.Flags().String(flagLinkTargetName, "", flagLinkTargetDescription)
	command.Flags().Bool(flagRecursiveName, false, flagRecursiveDescription)
	command.Flags().Bool(flagFollowName, false, flagFollowDescription)
	command.Flags().String(flagComparisonName, "", flagComparisonDescription)
	command.Flags().Bool(flagRequireExistsName, false, flagRequireExistsDescription)
	command.Flags().String(flagRulesName, "", flagRulesDescription)
	command.Flags().String(flagFormatName, flagFormatDefault, flagFormatDescription)
	command.Flags().String(flagOutputName, "", flagOutputDescription)
	command.Flags().Bool(flagNoFixName, false, flagNoFixDescription)
	command.Flags().Bool(flagAssumeYesName, false, flagAssumeYesDescription)
	command.Flags().Bool(flagSudoName, false, flagSudoDescription)
	command.Flags().Bool(flagInteractiveName, false, flagInteractiveDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	formatName, _ := command.Flags().GetString(flagFormatName)
	outputFormat, formatError := render.ParseFormat(formatName)
	if formatError != nil {
		return formatError
	}

	ruleSet, fileRejections, rulesError := builder.assembleRules(command)
	if rulesError != nil {
		if errors.Is(rulesError, ErrNoRulesRequested) {
			_ = command.Help()
		}
		return rulesError
	}

	logger := builder.resolveLogger()
	service := audit.NewService(builder.resolveTraverser(), logger, builder.Clock)
	report, serviceRejections := service.Run(command.Context(), ruleSet)

	rejections := append(fileRejections, serviceRejections...)
	for _, rejection := range rejections {
		fmt.Fprintf(command.ErrOrStderr(), rejectionMessageTemplateConstant, rejection.Path, rejection.Reason)
	}

	if renderError := render.WriteReport(command.OutOrStdout(), outputFormat, report); renderError != nil {
		return renderError
	}

	outputPath, _ := command.Flags().GetString(flagOutputName)
	if len(outputPath) > 0 {
		if storeError := storeReport(outputPath, outputFormat, report); storeError != nil {
			return storeError
		}
		fmt.Fprintf(command.OutOrStdout(), reportStoredTemplateConstant, outputPath)
	}

	if remediationError := builder.offerRemediation(command, logger, report, outputFormat); remediationError != nil {
		return remediationError
	}

	if !report.Clean() || len(rejections) > 0 {
		return ErrFindingsDetected
	}
	return nil
}

// assembleRules merges rule sources in a fixed order: rule file first, then
// profile rules, then the ad-hoc flag rule. Rule file entries that decode but
// fail conversion come back as rejections so the rest of the file still runs.
func (builder *CommandBuilder) assembleRules(command *cobra.Command) ([]rules.Rule, []audit.RuleRejection, error) {
	var ruleSet []rules.Rule
	var rejections []audit.RuleRejection

	ruleFilePath, _ := command.Flags().GetString(flagRulesName)
	if len(ruleFilePath) > 0 {
		fileRules, fileRejections, loadError := audit.LoadRuleFile(ruleFilePath)
		if loadError != nil {
			return nil, nil, loadError
		}
		ruleSet = append(ruleSet, fileRules...)
		rejections = append(rejections, fileRejections...)
	}

	targetName, _ := command.Flags().GetString(flagTargetName)
	if len(targetName) > 0 {
		profile, profileError := rules.ParseProfile(targetName)
		if profileError != nil {
			return nil, nil, profileError
		}
		profileRules, profileRulesError := rules.ProfileRules(profile)
		if profileRulesError != nil {
			return nil, nil, profileRulesError
		}
		ruleSet = append(ruleSet, profileRules...)
	}

	pathValue, _ := command.Flags().GetString(flagPathName)
	if len(pathValue) > 0 {
		adHocRule, ruleError := builder.buildAdHocRule(command, pathValue)
		if ruleError != nil {
			return nil, nil, ruleError
		}
		ruleSet = append(ruleSet, adHocRule)
	}

	if len(ruleSet) == 0 && len(rejections) == 0 {
		return nil, nil, ErrNoRulesRequested
	}
	return ruleSet, rejections, nil
}

func (builder *CommandBuilder) buildAdHocRule(command *cobra.Command, pathValue string) (rules.Rule, error) {
	importanceValue, _ := command.Flags().GetString(flagImportanceName)
	importance, importanceError := rules.ParseImportance(importanceValue)
	if importanceError != nil {
		return rules.Rule{}, importanceError
	}

	var expectedMode *fs.FileMode
	modeValue, _ := command.Flags().GetString(flagModeName)
	if len(modeValue) > 0 {
		parsedMode, modeError := rules.ParseMode(modeValue)
		if modeError != nil {
			return rules.Rule{}, modeError
		}
		expectedMode = &parsedMode
	}

	var directoryMode *fs.FileMode
	directoryModeValue, _ := command.Flags().GetString(flagDirectoryModeName)
	if len(directoryModeValue) > 0 {
		parsedDirectoryMode, directoryModeError := rules.ParseMode(directoryModeValue)
		if directoryModeError != nil {
			return rules.Rule{}, directoryModeError
		}
		directoryMode = &parsedDirectoryMode
	}

	expectedOwner, ownerError := builder.expectedOwnership(command)
	if ownerError != nil {
		return rules.Rule{}, ownerError
	}

	linkTargetValue, _ := command.Flags().GetString(flagLinkTargetName)
	recursiveValue, _ := command.Flags().GetBool(flagRecursiveName)
	followValue, _ := command.Flags().GetBool(flagFollowName)
	comparisonValue, _ := command.Flags().GetString(flagComparisonName)
	requireExistsValue, _ := command.Flags().GetBool(flagRequireExistsName)

	return rules.Rule{
		Path:                pathValue,
		ExpectedMode:        expectedMode,
		DirectoryMode:       directoryMode,
		ExpectedOwner:       expectedOwner,
		ExpectedLinkTarget:  linkTargetValue,
		Importance:          importance,
		Recursive:           recursiveValue,
		FollowSymlinkTarget: followValue,
		ModeComparison:      rules.ModeComparison(comparisonValue),
		RequireExists:       requireExistsValue,
	}, nil
}

func (builder *CommandBuilder) expectedOwnership(command *cobra.Command) (*rules.Ownership, error) {
	userFlagChanged := command.Flags().Changed(flagUserIdentifierName)
	groupFlagChanged := command.Flags().Changed(flagGroupIdentifierName)
	if !userFlagChanged && !groupFlagChanged {
		return nil, nil
	}
	if userFlagChanged != groupFlagChanged {
		return nil, ErrOwnershipFlagPair
	}

	userIdentifier, _ := command.Flags().GetUint32(flagUserIdentifierName)
	groupIdentifier, _ := command.Flags().GetUint32(flagGroupIdentifierName)
	return &rules.Ownership{UserID: userIdentifier, GroupID: groupIdentifier}, nil
}

func (builder *CommandBuilder) offerRemediation(command *cobra.Command, logger *zap.Logger, report audit.Report, outputFormat render.Format) error {
	noFixRequested, _ := command.Flags().GetBool(flagNoFixName)
	if noFixRequested || report.Summary.Failed == 0 {
		return nil
	}

	script := remediation.Generate(report)
	if script.Empty() {
		return nil
	}

	executor, executorError := builder.resolveScriptExecutor(logger)
	if executorError != nil {
		return executorError
	}

	// Machine-readable formats own stdout; the remediation dialog moves to
	// stderr so piped consumers see only the rendered report.
	remediationWriter := io.Writer(command.OutOrStdout())
	if outputFormat != render.FormatText {
		remediationWriter = command.ErrOrStderr()
	}

	runner, runnerError := remediation.NewRunner(logger, executor, builder.resolvePrompter(command, remediationWriter), remediationWriter)
	if runnerError != nil {
		return runnerError
	}

	assumeYes, _ := command.Flags().GetBool(flagAssumeYesName)
	elevate, _ := command.Flags().GetBool(flagSudoName)
	_, applyError := runner.Apply(command.Context(), script, remediation.RunnerOptions{AssumeYes: assumeYes, Elevate: elevate})
	return applyError
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveTraverser() audit.RuleTraverser {
	if builder.Traverser != nil {
		return builder.Traverser
	}
	return audit.NewTraverser(inspect.NewInspector())
}

func (builder *CommandBuilder) resolveScriptExecutor(logger *zap.Logger) (remediation.ScriptExecutor, error) {
	if builder.ScriptExecutor != nil {
		return builder.ScriptExecutor, nil
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command, promptWriter io.Writer) remediation.ConfirmationPrompter {
	if builder.Prompter != nil {
		return builder.Prompter
	}
	interactiveRequested, _ := command.Flags().GetBool(flagInteractiveName)
	if interactiveRequested {
		return remediation.NewInteractiveConfirmationPrompter()
	}
	return remediation.NewIOConfirmationPrompter(command.InOrStdin(), promptWriter)
}

// storeReport writes the report to a file with colorization disabled so the
// stored copy never carries terminal escape codes.
func storeReport(outputPath string, outputFormat render.Format, report audit.Report) error {
	outputFile, createError := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, storedReportPermissionsConstant)
	if createError != nil {
		return createError
	}
	defer outputFile.Close()
	return writeWithoutColor(outputFile, outputFormat, report)
}

func writeWithoutColor(writer io.Writer, outputFormat render.Format, report audit.Report) error {
	previousSetting := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = previousSetting }()
	return render.WriteReport(writer, outputFormat, report)
}
