package netscan

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/fsaudit/internal/execshell"
)

const (
	neighbourSubcommandConstant      = "neigh"
	arpAllNumericFlagConstant        = "-an"
	neighbourFailedStateConstant     = "FAILED"
	neighbourIncompleteStateConstant = "INCOMPLETE"
	unknownHostMarkerConstant        = "?"
	hostnameTrailingDotConstant      = "."
	openParenthesisConstant          = "("
	closeParenthesisConstant         = ")"
	neighbourQueryLogMessage         = "neighbour table query failed, falling back"
	logFieldToolConstant             = "tool"
)

// Scanner construction errors.
var (
	ErrScannerLoggerNotConfigured   = errors.New("scanner logger not configured")
	ErrScannerExecutorNotConfigured = errors.New("scanner executor not configured")
)

// NeighbourExecutor runs the external neighbour table tools.
type NeighbourExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// HostResolver resolves an address to hostnames. It matches the signature of
// net.DefaultResolver.LookupAddr so tests can substitute fixed answers.
type HostResolver func(executionContext context.Context, address string) ([]string, error)

// Scanner reads the kernel neighbour table through external tools.
type Scanner struct {
	logger   *zap.Logger
	executor NeighbourExecutor
	resolver HostResolver
}

// NewScanner constructs a scanner. A nil resolver defaults to reverse DNS
// through the standard resolver.
func NewScanner(logger *zap.Logger, executor NeighbourExecutor, resolver HostResolver) (*Scanner, error) {
	if logger == nil {
		return nil, ErrScannerLoggerNotConfigured
	}
	if executor == nil {
		return nil, ErrScannerExecutorNotConfigured
	}
	if resolver == nil {
		resolver = net.DefaultResolver.LookupAddr
	}
	return &Scanner{logger: logger, executor: executor, resolver: resolver}, nil
}

// Scan lists neighbour table entries. It tries `ip neigh` first and falls
// back to `arp -an` when iproute2 is unavailable; only when both tools fail
// does Scan return an error.
func (scanner *Scanner) Scan(executionContext context.Context) ([]Device, error) {
	neighbourResult, neighbourError := scanner.executor.Execute(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandIP,
		Details: execshell.CommandDetails{Arguments: []string{neighbourSubcommandConstant}},
	})
	if neighbourError == nil {
		return scanner.resolveHostnames(executionContext, parseNeighbourOutput(neighbourResult.StandardOutput)), nil
	}

	scanner.logger.Debug(
		neighbourQueryLogMessage,
		zap.String(logFieldToolConstant, string(execshell.CommandIP)),
		zap.Error(neighbourError),
	)

	arpResult, arpError := scanner.executor.Execute(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandARP,
		Details: execshell.CommandDetails{Arguments: []string{arpAllNumericFlagConstant}},
	})
	if arpError != nil {
		return nil, arpError
	}
	return scanner.resolveHostnames(executionContext, parseARPOutput(arpResult.StandardOutput)), nil
}

// parseNeighbourOutput reads `ip neigh` lines of the form
// "192.168.1.1 dev eth0 lladdr aa:bb:cc:dd:ee:ff REACHABLE". Entries the
// kernel marks failed or incomplete never answered and are skipped.
func parseNeighbourOutput(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if _, parseError := netip.ParseAddr(fields[0]); parseError != nil {
			continue
		}
		lastField := fields[len(fields)-1]
		if lastField == neighbourFailedStateConstant || lastField == neighbourIncompleteStateConstant {
			continue
		}
		devices = append(devices, Device{IP: fields[0]})
	}
	return devices
}

// parseARPOutput reads `arp -an` lines of the form
// "? (192.168.1.1) at aa:bb:cc:dd:ee:ff [ether] on eth0". The address sits in
// parentheses; a leading "?" means the tool had no name for it. Lines without
// a parsable address are skipped.
func parseARPOutput(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		openIndex := strings.Index(line, openParenthesisConstant)
		closeIndex := strings.Index(line, closeParenthesisConstant)
		if openIndex < 0 || closeIndex < openIndex {
			continue
		}
		addressText := line[openIndex+1 : closeIndex]
		if _, parseError := netip.ParseAddr(addressText); parseError != nil {
			continue
		}

		hostText := strings.TrimSpace(line[:openIndex])
		if hostText == unknownHostMarkerConstant {
			hostText = ""
		}
		devices = append(devices, Device{IP: addressText, Host: hostText})
	}
	return devices
}

// resolveHostnames fills missing hostnames through reverse DNS. Resolution is
// best-effort: lookup failures leave the hostname empty.
func (scanner *Scanner) resolveHostnames(executionContext context.Context, devices []Device) []Device {
	for deviceIndex, device := range devices {
		if len(device.Host) > 0 {
			continue
		}
		names, lookupError := scanner.resolver(executionContext, device.IP)
		if lookupError != nil || len(names) == 0 {
			continue
		}
		devices[deviceIndex].Host = strings.TrimSuffix(names[0], hostnameTrailingDotConstant)
	}
	return devices
}
