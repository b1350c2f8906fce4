// Package rules defines the declarative policy model for filesystem audits:
// expected permission bits, expected ownership, expected symlink targets, and
// an importance classification. Rules are immutable value types validated
// before any traversal begins; parsing helpers accept octal and symbolic
// permission notations.
package rules
