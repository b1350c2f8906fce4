// Package remediation turns audit failures into reviewable shell scripts.
//
// Generate derives chmod and chown actions exclusively from failed results;
// errored paths are never touched because their true state is unknown. The
// rendered script is plain POSIX shell that a reader can inspect before
// anything runs. Runner applies a script only after two explicit
// confirmations, delegating execution to execshell.
package remediation
