package parse

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/fsaudit/internal/render"
)

const (
	commandNameConstant     = "parse <file>"
	commandShortDescription = "Parse a colon-separated key/value record file"
	commandLongDescription  = "Parses files of colon-separated key/value pairs with blank lines between " +
		"records and renders them as text, CSV, JSON, or YAML, optionally keeping only selected fields."
	flagFormatName            = "format"
	flagFormatDefault         = "text"
	flagFormatDescription     = "Output format: text, csv, json, or yaml"
	flagFieldsName            = "fields"
	flagFieldsDescription     = "Comma-separated field names to keep"
	flagOutputName            = "output"
	flagOutputDescription     = "Store rendered output in a file"
	outputFilePermissionsMode = 0o644
	parsedRecordsLogMessage   = "records parsed"
	logFieldSourceConstant    = "source"
	logFieldRecordsConstant   = "records"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the parse cobra command.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
}

// Build constructs the cobra command for record file parsing.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(flagFormatName, flagFormatDefault, flagFormatDescription)
	command.Flags().String(flagFieldsName, "", flagFieldsDescription)
	command.Flags().String(flagOutputName, "", flagOutputDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	formatName, _ := command.Flags().GetString(flagFormatName)
	outputFormat, formatError := render.ParseFormat(formatName)
	if formatError != nil {
		return formatError
	}

	sourcePath := arguments[0]
	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return openError
	}
	defer sourceFile.Close()

	recordSet, parseError := ParseRecords(sourceFile)
	if parseError != nil {
		return parseError
	}

	fieldFilter, _ := command.Flags().GetString(flagFieldsName)
	recordSet = recordSet.Filter(ParseFieldList(fieldFilter))

	builder.resolveLogger().Debug(
		parsedRecordsLogMessage,
		zap.String(logFieldSourceConstant, sourcePath),
		zap.Int(logFieldRecordsConstant, len(recordSet.Records)),
	)

	if renderError := render.RenderTabular(command.OutOrStdout(), outputFormat, NewTable(recordSet)); renderError != nil {
		return renderError
	}

	outputPath, _ := command.Flags().GetString(flagOutputName)
	if len(outputPath) == 0 {
		return nil
	}
	return builder.storeRendering(outputPath, outputFormat, recordSet)
}

func (builder *CommandBuilder) storeRendering(outputPath string, outputFormat render.Format, recordSet RecordSet) error {
	outputFile, createError := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFilePermissionsMode)
	if createError != nil {
		return createError
	}
	defer outputFile.Close()
	return render.RenderTabular(outputFile, outputFormat, NewTable(recordSet))
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
