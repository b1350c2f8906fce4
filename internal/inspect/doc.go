// Package inspect resolves the current on-disk state of filesystem paths
// without interpreting policy. Missing paths and denied access are first-class
// observation outcomes rather than errors, so audits can report on
// inaccessible targets instead of aborting.
package inspect
