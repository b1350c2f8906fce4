package netscan

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/fsaudit/internal/execshell"
	"github.com/temirov/fsaudit/internal/render"
)

const (
	commandNameConstant     = "net"
	commandShortDescription = "List devices on the local network"
	commandLongDescription  = "Discovers devices on the local network from the kernel neighbour table " +
		"(ip neigh, falling back to arp -an) and resolves hostnames through reverse DNS."
	flagFormatName        = "format"
	flagFormatDefault     = "text"
	flagFormatDescription = "Output format: text, csv, json, or yaml"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the net cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
	Executor       NeighbourExecutor
	Resolver       HostResolver
}

// Build constructs the cobra command for network device discovery.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  builder.run,
	}

	command.Flags().String(flagFormatName, flagFormatDefault, flagFormatDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	formatName, _ := command.Flags().GetString(flagFormatName)
	outputFormat, formatError := render.ParseFormat(formatName)
	if formatError != nil {
		return formatError
	}

	logger := builder.resolveLogger()
	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	scanner, scannerError := NewScanner(logger, executor, builder.Resolver)
	if scannerError != nil {
		return scannerError
	}

	devices, scanError := scanner.Scan(command.Context())
	if scanError != nil {
		return scanError
	}

	return render.RenderTabular(command.OutOrStdout(), outputFormat, NewDeviceTable(devices))
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

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (NeighbourExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
}
