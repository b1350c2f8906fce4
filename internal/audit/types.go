package audit

import (
	"strings"
	"time"

	"github.com/temirov/fsaudit/internal/inspect"
	"github.com/temirov/fsaudit/internal/rules"
)

// Status classifies the outcome of evaluating one path against one rule.
type Status string

// Evaluation outcomes.
const (
	// StatusPass indicates every declared dimension matched policy.
	StatusPass Status = "pass"
	// StatusFail indicates at least one declared dimension mismatched.
	StatusFail Status = "fail"
	// StatusStrict indicates the path is acceptable but tighter than required.
	StatusStrict Status = "strict"
	// StatusError indicates the path could not be observed.
	StatusError Status = "error"
)

// Severity weighs a finding by the importance of the audited path.
type Severity string

// Severity levels from benign to critical.
const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var importanceSeverityMapping = map[rules.Importance]Severity{
	rules.ImportanceLow:      SeverityLow,
	rules.ImportanceMedium:   SeverityMedium,
	rules.ImportanceHigh:     SeverityHigh,
	rules.ImportanceCritical: SeverityCritical,
}

// DeriveSeverity maps a status and rule importance to a severity. It is a pure
// function: severity is never assigned independently of these two inputs.
// Errors floor at medium because an unobservable security-relevant path is
// itself a finding; strict results stay low because a tighter-than-required
// setting is not a security regression.
func DeriveSeverity(status Status, importance rules.Importance) Severity {
	switch status {
	case StatusPass:
		return SeverityNone
	case StatusStrict:
		return SeverityLow
	case StatusError:
		severity := importanceSeverityMapping[importance]
		if severity == SeverityLow || severity == "" {
			return SeverityMedium
		}
		return severity
	default:
		if severity, known := importanceSeverityMapping[importance]; known {
			return severity
		}
		return SeverityMedium
	}
}

// Dimension names one audited aspect of a path.
type Dimension string

// Audited dimensions.
const (
	DimensionMode       Dimension = "mode"
	DimensionOwner      Dimension = "owner"
	DimensionLinkTarget Dimension = "link_target"
)

// Comparison records the expected and found value of one audited dimension.
type Comparison struct {
	Dimension Dimension `json:"dimension" yaml:"dimension"`
	Expected  string    `json:"expected" yaml:"expected"`
	Found     string    `json:"found" yaml:"found"`
	Matched   bool      `json:"matched" yaml:"matched"`
	Stricter  bool      `json:"stricter,omitempty" yaml:"stricter,omitempty"`
}

// Result is the immutable outcome of evaluating one path against one rule.
// Kind records what the evaluation actually measured: the node itself, or the
// resolved target when the rule follows symlinks.
type Result struct {
	Path        string           `json:"path" yaml:"path"`
	Kind        inspect.Kind     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Status      Status           `json:"status" yaml:"status"`
	Severity    Severity         `json:"severity" yaml:"severity"`
	Importance  rules.Importance `json:"importance" yaml:"importance"`
	Expected    string           `json:"expected" yaml:"expected"`
	Found       string           `json:"found" yaml:"found"`
	Comparisons []Comparison     `json:"comparisons,omitempty" yaml:"comparisons,omitempty"`
	Message     string           `json:"message,omitempty" yaml:"message,omitempty"`
}

// Summary carries the per-status counters of one audit run.
type Summary struct {
	Checked int `json:"checked" yaml:"checked"`
	Passed  int `json:"passed" yaml:"passed"`
	Strict  int `json:"strict" yaml:"strict"`
	Failed  int `json:"failed" yaml:"failed"`
	Errored int `json:"errored" yaml:"errored"`
}

// Report is an ordered sequence of results plus summary counters. It belongs
// exclusively to the caller that requested the audit and has no identity
// beyond a single run.
type Report struct {
	RunID       string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	Results     []Result  `json:"results" yaml:"results"`
	Summary     Summary   `json:"summary" yaml:"summary"`
}

// Clean reports whether the run finished with no failures and no errors.
// Strict results do not spoil a clean run.
func (report Report) Clean() bool {
	return report.Summary.Failed == 0 && report.Summary.Errored == 0
}

const (
	comparisonSummarySeparatorConstant = " "
	comparisonSummaryTemplateSeparator = "="
)

// summarizeComparisons renders the expected or found side of the evaluated
// dimensions. A single dimension renders bare; several render as key=value
// pairs for readability.
func summarizeComparisons(comparisons []Comparison, selectFound bool) string {
	if len(comparisons) == 0 {
		return ""
	}

	valueOf := func(comparison Comparison) string {
		if selectFound {
			return comparison.Found
		}
		return comparison.Expected
	}

	if len(comparisons) == 1 {
		return valueOf(comparisons[0])
	}

	parts := make([]string, 0, len(comparisons))
	for _, comparison := range comparisons {
		parts = append(parts, string(comparison.Dimension)+comparisonSummaryTemplateSeparator+valueOf(comparison))
	}
	return strings.Join(parts, comparisonSummarySeparatorConstant)
}
