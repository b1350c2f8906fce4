// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor and exposes OSCommandRunner
// for default process execution. fsaudit uses it to run generated remediation
// scripts (optionally under sudo) and to query the kernel neighbour table,
// keeping every external invocation observable and testable.
package execshell
