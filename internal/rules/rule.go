package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

const (
	ownershipFormatConstant        = "%d:%d"
	ruleValidationTemplateConstant = "invalid rule for %q: %w"
)

// Rule definition errors; any of these aborts the offending rule before traversal.
var (
	ErrEmptyRulePath         = errors.New("rule path is empty")
	ErrNoExpectations        = errors.New("rule declares no expectations")
	ErrLinkTargetRecursive   = errors.New("link target expectations cannot be recursive")
	ErrDirectoryModeScope    = errors.New("directory mode requires a recursive rule")
	ErrUnknownModeComparison = errors.New("unknown mode comparison policy")
	ErrUnknownRuleImportance = errors.New("unknown rule importance")
)

// Ownership pairs the expected numeric owner and group of a path.
type Ownership struct {
	UserID  uint32 `json:"uid" yaml:"uid"`
	GroupID uint32 `json:"gid" yaml:"gid"`
}

// String renders the ownership as the uid:gid form consumed by chown.
func (ownership Ownership) String() string {
	return fmt.Sprintf(ownershipFormatConstant, ownership.UserID, ownership.GroupID)
}

// ModeComparison selects how found permission bits are compared to expected bits.
type ModeComparison string

const (
	// ModeComparisonExact requires a bit-for-bit match; fewer bits classify as strict.
	ModeComparisonExact ModeComparison = "exact"
	// ModeComparisonCeiling accepts any mode no more permissive than expected.
	ModeComparisonCeiling ModeComparison = "ceiling"
)

// Rule declares the expected state of one path or directory subtree. A rule is
// immutable once constructed; evaluation never mutates it.
type Rule struct {
	Path         string
	ExpectedMode *fs.FileMode
	// DirectoryMode replaces ExpectedMode for directory nodes inside a
	// recursive rule, so a tree of 644 files can keep its 755 directories.
	DirectoryMode       *fs.FileMode
	ExpectedOwner       *Ownership
	ExpectedLinkTarget  string
	Importance          Importance
	Recursive           bool
	FollowSymlinkTarget bool
	ModeComparison      ModeComparison
	RequireExists       bool
}

// HasExpectations reports whether the rule declares at least one dimension to audit.
func (rule Rule) HasExpectations() bool {
	return rule.ExpectedMode != nil || rule.ExpectedOwner != nil || len(rule.ExpectedLinkTarget) > 0
}

// Comparison returns the configured mode comparison policy, defaulting to exact.
func (rule Rule) Comparison() ModeComparison {
	if len(rule.ModeComparison) == 0 {
		return ModeComparisonExact
	}
	return rule.ModeComparison
}

// Validate rejects contradictory or malformed rule definitions before any
// filesystem access happens. A failing rule aborts only its own audit.
func (rule Rule) Validate() error {
	if len(strings.TrimSpace(rule.Path)) == 0 {
		return ErrEmptyRulePath
	}
	if !rule.HasExpectations() {
		return fmt.Errorf(ruleValidationTemplateConstant, rule.Path, ErrNoExpectations)
	}
	if rule.ExpectedMode != nil && *rule.ExpectedMode != *rule.ExpectedMode&permissionBitsMaskConstant {
		return fmt.Errorf(ruleValidationTemplateConstant, rule.Path, ErrModeOutOfRange)
	}
	if rule.DirectoryMode != nil {
		if !rule.Recursive {
			return fmt.Errorf(ruleValidationTemplateConstant, rule.Path, ErrDirectoryModeScope)
		}
		if *rule.DirectoryMode != *rule.DirectoryMode&permissionBitsMaskConstant {
			return fmt.Errorf(ruleValidationTemplateConstant, rule.Path, ErrModeOutOfRange)
		}
	}
	if len(rule.ExpectedLinkTarget) > 0 && rule.Recursive {
		return fmt.Errorf(ruleValidationTemplateConstant, rule.Path, ErrLinkTargetRecursive)
	}
	if _, known := importanceRankMapping[rule.Importance]; !known {
		return fmt.Errorf(ruleValidationTemplateConstant, rule.Path, ErrUnknownRuleImportance)
	}
	switch rule.Comparison() {
	case ModeComparisonExact, ModeComparisonCeiling:
	default:
		return fmt.Errorf(ruleValidationTemplateConstant, rule.Path, ErrUnknownModeComparison)
	}
	return nil
}

// ModePointer is a small helper for building rules with literal expected modes.
func ModePointer(mode fs.FileMode) *fs.FileMode {
	return &mode
}
