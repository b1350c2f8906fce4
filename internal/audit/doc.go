// Package audit implements the rule evaluation engine: it compares declared
// policy against observed filesystem state, walks directory subtrees with
// symlink-cycle protection, and aggregates per-path results into a report with
// summary counters. Per-path failures are contained as results; only malformed
// rule definitions abort, and then only for the offending rule.
package audit
