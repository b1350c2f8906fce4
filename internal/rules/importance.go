package rules

import (
	"fmt"
	"strings"
)

const unknownImportanceTemplateConstant = "unknown importance %q"

// Importance classifies how security-relevant an audited path is.
type Importance string

// Supported importance levels, ordered from least to most relevant.
const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

var importanceRankMapping = map[Importance]int{
	ImportanceLow:      1,
	ImportanceMedium:   2,
	ImportanceHigh:     3,
	ImportanceCritical: 4,
}

// ParseImportance normalizes a textual importance level.
func ParseImportance(raw string) (Importance, error) {
	normalized := Importance(strings.ToLower(strings.TrimSpace(raw)))
	if _, known := importanceRankMapping[normalized]; !known {
		return "", fmt.Errorf(unknownImportanceTemplateConstant, raw)
	}
	return normalized, nil
}

// Rank returns the ordinal position of the importance level; unknown values rank zero.
func (importance Importance) Rank() int {
	return importanceRankMapping[importance]
}

// AtLeast reports whether the importance ranks at or above the provided floor.
func (importance Importance) AtLeast(floor Importance) bool {
	return importance.Rank() >= floor.Rank()
}

// String returns the textual form of the importance level.
func (importance Importance) String() string {
	return string(importance)
}
