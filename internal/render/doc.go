// Package render writes audit reports and tabular data in the formats the
// command line exposes: human-readable text, CSV, JSON, and YAML.
//
// Anything implementing Tabular (ordered columns plus ordered rows) renders
// through RenderTabular in any format; reports additionally get a colorized
// console rendering that highlights status and severity.
package render
