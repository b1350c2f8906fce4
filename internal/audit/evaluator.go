package audit

import (
	"io/fs"
	"path/filepath"

	"github.com/temirov/fsaudit/internal/inspect"
	"github.com/temirov/fsaudit/internal/rules"
)

const (
	missingPathMessageConstant       = "required path is missing"
	linkTargetUnreadableConstant     = "symlink target could not be observed"
	ownershipUnavailableConstant     = "ownership information unavailable"
	notASymlinkFoundConstant         = "not a symlink"
	missingFoundConstant             = "missing"
	worldWritableMessageConstant     = "world-writable"
	worldWritePermissionBitsConstant = fs.FileMode(0o002)
	linkResolvableExpectedConstant   = "resolvable"
	linkDanglingFoundConstant        = "dangling"
)

// Evaluate compares one rule against one observation and produces a result.
// It is pure and deterministic: identical inputs always yield an identical
// result, and the observation is supplied by the caller.
func Evaluate(rule rules.Rule, observation inspect.Observation) Result {
	result := Result{Path: observation.Path, Kind: observation.Kind, Importance: rule.Importance}

	if observation.AccessError != nil {
		if observation.AccessError.Kind == inspect.AccessErrorNotFound && rule.RequireExists {
			result.Status = StatusFail
			result.Severity = DeriveSeverity(StatusFail, rule.Importance)
			result.Expected = expectedSummaryForRule(rule)
			result.Found = missingFoundConstant
			result.Message = missingPathMessageConstant
			return result
		}
		return errorResult(result, rule, observation.AccessError.Message)
	}

	evaluated := observation
	if rule.FollowSymlinkTarget && observation.Kind == inspect.KindSymlink && len(rule.ExpectedLinkTarget) == 0 {
		if observation.Target == nil || !observation.Target.Accessible() {
			return errorResult(result, rule, linkTargetUnreadableConstant)
		}
		evaluated = *observation.Target
		result.Kind = evaluated.Kind
	}

	if rule.ExpectedOwner != nil && evaluated.Owner == nil {
		return errorResult(result, rule, ownershipUnavailableConstant)
	}

	comparisons := compareDimensions(rule, evaluated, observation)
	result.Comparisons = comparisons
	result.Expected = summarizeComparisons(comparisons, false)
	result.Found = summarizeComparisons(comparisons, true)
	result.Status = statusFromComparisons(comparisons)
	result.Severity = DeriveSeverity(result.Status, rule.Importance)

	if result.Status == StatusFail && evaluated.Kind != inspect.KindSymlink &&
		evaluated.PermissionBits()&worldWritePermissionBitsConstant != 0 {
		result.Message = worldWritableMessageConstant
	}

	return result
}

func compareDimensions(rule rules.Rule, evaluated inspect.Observation, observation inspect.Observation) []Comparison {
	var comparisons []Comparison

	// Mode expectations never apply to a symlink node itself: lstat bits are
	// fixed at 0777 on Linux and a chmod on the link path would rewrite the
	// target instead. An unfollowed link is checked for resolvability.
	if rule.ExpectedMode != nil {
		switch {
		case evaluated.Kind != inspect.KindSymlink:
			expectedBits := *rule.ExpectedMode
			if rule.DirectoryMode != nil && evaluated.Kind == inspect.KindDirectory {
				expectedBits = *rule.DirectoryMode
			}
			comparisons = append(comparisons, compareMode(rule, expectedBits, evaluated.PermissionBits()))
		case len(rule.ExpectedLinkTarget) == 0:
			comparisons = append(comparisons, compareLinkResolution(observation))
		}
	}

	if rule.ExpectedOwner != nil {
		expectedOwner := *rule.ExpectedOwner
		foundOwner := *evaluated.Owner
		comparisons = append(comparisons, Comparison{
			Dimension: DimensionOwner,
			Expected:  expectedOwner.String(),
			Found:     foundOwner.String(),
			Matched:   expectedOwner == foundOwner,
		})
	}

	if len(rule.ExpectedLinkTarget) > 0 {
		comparisons = append(comparisons, compareLinkTarget(rule, observation))
	}

	return comparisons
}

func compareMode(rule rules.Rule, expectedMode fs.FileMode, foundBits fs.FileMode) Comparison {
	expectedBits := expectedMode & fs.ModePerm
	comparison := Comparison{
		Dimension: DimensionMode,
		Expected:  rules.FormatMode(expectedBits),
		Found:     rules.FormatMode(foundBits),
	}

	extraBits := foundBits &^ expectedBits
	switch rule.Comparison() {
	case rules.ModeComparisonCeiling:
		// Anything no more permissive than expected is exactly acceptable.
		comparison.Matched = extraBits == 0
	default:
		comparison.Matched = extraBits == 0
		comparison.Stricter = extraBits == 0 && foundBits != expectedBits
	}

	return comparison
}

// compareLinkResolution checks that an unfollowed symlink resolves to an
// observable target. A dangling link is a mismatch.
func compareLinkResolution(observation inspect.Observation) Comparison {
	comparison := Comparison{
		Dimension: DimensionLinkTarget,
		Expected:  linkResolvableExpectedConstant,
	}
	if observation.Target == nil || !observation.Target.Accessible() {
		comparison.Found = linkDanglingFoundConstant
		return comparison
	}
	comparison.Found = filepath.Clean(observation.LinkTarget)
	comparison.Matched = true
	return comparison
}

func compareLinkTarget(rule rules.Rule, observation inspect.Observation) Comparison {
	comparison := Comparison{
		Dimension: DimensionLinkTarget,
		Expected:  filepath.Clean(rule.ExpectedLinkTarget),
	}

	if observation.Kind != inspect.KindSymlink {
		comparison.Found = notASymlinkFoundConstant
		return comparison
	}

	comparison.Found = filepath.Clean(observation.LinkTarget)
	comparison.Matched = comparison.Found == comparison.Expected
	return comparison
}

func statusFromComparisons(comparisons []Comparison) Status {
	anyStricter := false
	for _, comparison := range comparisons {
		if !comparison.Matched {
			return StatusFail
		}
		if comparison.Stricter {
			anyStricter = true
		}
	}
	if anyStricter {
		return StatusStrict
	}
	return StatusPass
}

func errorResult(result Result, rule rules.Rule, message string) Result {
	result.Status = StatusError
	result.Severity = DeriveSeverity(StatusError, rule.Importance)
	result.Expected = expectedSummaryForRule(rule)
	result.Message = message
	return result
}

func expectedSummaryForRule(rule rules.Rule) string {
	var comparisons []Comparison
	if rule.ExpectedMode != nil {
		comparisons = append(comparisons, Comparison{Dimension: DimensionMode, Expected: rules.FormatMode(*rule.ExpectedMode)})
	}
	if rule.ExpectedOwner != nil {
		comparisons = append(comparisons, Comparison{Dimension: DimensionOwner, Expected: rule.ExpectedOwner.String()})
	}
	if len(rule.ExpectedLinkTarget) > 0 {
		comparisons = append(comparisons, Comparison{Dimension: DimensionLinkTarget, Expected: filepath.Clean(rule.ExpectedLinkTarget)})
	}
	return summarizeComparisons(comparisons, false)
}
