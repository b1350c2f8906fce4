package audit_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fsaudit/internal/audit"
	"github.com/temirov/fsaudit/internal/inspect"
	"github.com/temirov/fsaudit/internal/rules"
)

func observationWithMode(path string, mode fs.FileMode) inspect.Observation {
	return inspect.Observation{Path: path, Kind: inspect.KindFile, Mode: &mode}
}

func TestEvaluateModeDimension(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name             string
		rule             rules.Rule
		observation      inspect.Observation
		expectedStatus   audit.Status
		expectedSeverity audit.Severity
		expectedExpected string
		expectedFound    string
	}{
		{
			name:             "shadow_more_permissive_fails_high",
			rule:             rules.Rule{Path: "/etc/shadow", ExpectedMode: rules.ModePointer(0o600), Importance: rules.ImportanceHigh},
			observation:      observationWithMode("/etc/shadow", 0o640),
			expectedStatus:   audit.StatusFail,
			expectedSeverity: audit.SeverityHigh,
			expectedExpected: "600",
			expectedFound:    "640",
		},
		{
			name:             "exact_match_passes",
			rule:             rules.Rule{Path: "/etc/passwd", ExpectedMode: rules.ModePointer(0o644), Importance: rules.ImportanceMedium},
			observation:      observationWithMode("/etc/passwd", 0o644),
			expectedStatus:   audit.StatusPass,
			expectedSeverity: audit.SeverityNone,
			expectedExpected: "644",
			expectedFound:    "644",
		},
		{
			name:             "tighter_than_expected_is_strict_low",
			rule:             rules.Rule{Path: "/etc/passwd", ExpectedMode: rules.ModePointer(0o644), Importance: rules.ImportanceCritical},
			observation:      observationWithMode("/etc/passwd", 0o600),
			expectedStatus:   audit.StatusStrict,
			expectedSeverity: audit.SeverityLow,
			expectedExpected: "644",
			expectedFound:    "600",
		},
		{
			name:             "ceiling_accepts_tighter_as_pass",
			rule:             rules.Rule{Path: "/etc/passwd", ExpectedMode: rules.ModePointer(0o644), Importance: rules.ImportanceMedium, ModeComparison: rules.ModeComparisonCeiling},
			observation:      observationWithMode("/etc/passwd", 0o600),
			expectedStatus:   audit.StatusPass,
			expectedSeverity: audit.SeverityNone,
			expectedExpected: "644",
			expectedFound:    "600",
		},
		{
			name:             "ceiling_rejects_extra_bits",
			rule:             rules.Rule{Path: "/etc/passwd", ExpectedMode: rules.ModePointer(0o644), Importance: rules.ImportanceLow, ModeComparison: rules.ModeComparisonCeiling},
			observation:      observationWithMode("/etc/passwd", 0o664),
			expectedStatus:   audit.StatusFail,
			expectedSeverity: audit.SeverityLow,
			expectedExpected: "644",
			expectedFound:    "664",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result := audit.Evaluate(testCase.rule, testCase.observation)
			require.Equal(t, testCase.expectedStatus, result.Status)
			require.Equal(t, testCase.expectedSeverity, result.Severity)
			require.Equal(t, testCase.expectedExpected, result.Expected)
			require.Equal(t, testCase.expectedFound, result.Found)
		})
	}
}

func TestEvaluateOwnerDimension(t *testing.T) {
	t.Parallel()

	mode := fs.FileMode(0o600)
	rule := rules.Rule{
		Path:          "/etc/shadow",
		ExpectedOwner: &rules.Ownership{UserID: 0, GroupID: 42},
		Importance:    rules.ImportanceHigh,
	}

	matching := inspect.Observation{Path: "/etc/shadow", Kind: inspect.KindFile, Mode: &mode, Owner: &rules.Ownership{UserID: 0, GroupID: 42}}
	require.Equal(t, audit.StatusPass, audit.Evaluate(rule, matching).Status)

	mismatched := inspect.Observation{Path: "/etc/shadow", Kind: inspect.KindFile, Mode: &mode, Owner: &rules.Ownership{UserID: 1000, GroupID: 1000}}
	mismatchResult := audit.Evaluate(rule, mismatched)
	require.Equal(t, audit.StatusFail, mismatchResult.Status)
	require.Equal(t, "0:42", mismatchResult.Expected)
	require.Equal(t, "1000:1000", mismatchResult.Found)
}

func TestEvaluateLinkTargetDimension(t *testing.T) {
	t.Parallel()

	rule := rules.Rule{
		Path:               "/etc/localtime",
		ExpectedLinkTarget: "/usr/share/zoneinfo/UTC",
		Importance:         rules.ImportanceLow,
	}

	matching := inspect.Observation{Path: "/etc/localtime", Kind: inspect.KindSymlink, LinkTarget: "/usr/share/zoneinfo/UTC"}
	require.Equal(t, audit.StatusPass, audit.Evaluate(rule, matching).Status)

	wrongTarget := inspect.Observation{Path: "/etc/localtime", Kind: inspect.KindSymlink, LinkTarget: "/usr/share/zoneinfo/EST"}
	require.Equal(t, audit.StatusFail, audit.Evaluate(rule, wrongTarget).Status)

	notALink := inspect.Observation{Path: "/etc/localtime", Kind: inspect.KindFile}
	notALinkResult := audit.Evaluate(rule, notALink)
	require.Equal(t, audit.StatusFail, notALinkResult.Status)
	require.Equal(t, "not a symlink", notALinkResult.Found)
}

func TestEvaluateAccessFailures(t *testing.T) {
	t.Parallel()

	deniedObservation := inspect.Observation{
		Path:        "/root/secret",
		Kind:        inspect.KindOther,
		AccessError: &inspect.AccessFailure{Kind: inspect.AccessErrorPermissionDenied, Message: "permission denied"},
	}
	deniedRule := rules.Rule{Path: "/root/secret", ExpectedMode: rules.ModePointer(0o600), Importance: rules.ImportanceLow}
	deniedResult := audit.Evaluate(deniedRule, deniedObservation)
	require.Equal(t, audit.StatusError, deniedResult.Status)
	// Severity floors at medium even for low-importance rules.
	require.Equal(t, audit.SeverityMedium, deniedResult.Severity)

	missingObservation := inspect.Observation{
		Path:        "/etc/absent",
		Kind:        inspect.KindMissing,
		AccessError: &inspect.AccessFailure{Kind: inspect.AccessErrorNotFound, Message: "no such file"},
	}

	optionalRule := rules.Rule{Path: "/etc/absent", ExpectedMode: rules.ModePointer(0o600), Importance: rules.ImportanceHigh}
	require.Equal(t, audit.StatusError, audit.Evaluate(optionalRule, missingObservation).Status)

	mandatoryRule := rules.Rule{Path: "/etc/absent", ExpectedMode: rules.ModePointer(0o600), Importance: rules.ImportanceHigh, RequireExists: true}
	mandatoryResult := audit.Evaluate(mandatoryRule, missingObservation)
	require.Equal(t, audit.StatusFail, mandatoryResult.Status)
	require.Equal(t, audit.SeverityHigh, mandatoryResult.Severity)
	require.Equal(t, "missing", mandatoryResult.Found)
}

func TestEvaluateMultipleDimensions(t *testing.T) {
	t.Parallel()

	mode := fs.FileMode(0o640)
	rule := rules.Rule{
		Path:          "/etc/shadow",
		ExpectedMode:  rules.ModePointer(0o600),
		ExpectedOwner: &rules.Ownership{},
		Importance:    rules.ImportanceCritical,
	}
	observation := inspect.Observation{Path: "/etc/shadow", Kind: inspect.KindFile, Mode: &mode, Owner: &rules.Ownership{}}

	result := audit.Evaluate(rule, observation)
	require.Equal(t, audit.StatusFail, result.Status)
	require.Equal(t, audit.SeverityCritical, result.Severity)
	require.Equal(t, "mode=600 owner=0:0", result.Expected)
	require.Equal(t, "mode=640 owner=0:0", result.Found)
	require.Len(t, result.Comparisons, 2)
}

func TestEvaluateAnnotatesWorldWritableFailures(t *testing.T) {
	t.Parallel()

	rule := rules.Rule{Path: "/etc/motd", ExpectedMode: rules.ModePointer(0o644), Importance: rules.ImportanceLow}
	result := audit.Evaluate(rule, observationWithMode("/etc/motd", 0o666))
	require.Equal(t, audit.StatusFail, result.Status)
	require.Equal(t, "world-writable", result.Message)
}

func TestEvaluateChecksSymlinkResolutionInsteadOfMode(t *testing.T) {
	t.Parallel()

	linkMode := fs.FileMode(0o777)
	targetMode := fs.FileMode(0o644)
	rule := rules.Rule{Path: "/etc/systemd/system/alias.service", ExpectedMode: rules.ModePointer(0o644), Importance: rules.ImportanceHigh}

	resolvable := inspect.Observation{
		Path:       "/etc/systemd/system/alias.service",
		Kind:       inspect.KindSymlink,
		Mode:       &linkMode,
		LinkTarget: "/etc/systemd/system/unit.service",
		Target:     &inspect.Observation{Path: "/etc/systemd/system/alias.service", Kind: inspect.KindFile, Mode: &targetMode},
	}
	resolvableResult := audit.Evaluate(rule, resolvable)
	require.Equal(t, audit.StatusPass, resolvableResult.Status)
	require.Equal(t, inspect.KindSymlink, resolvableResult.Kind)
	require.Equal(t, "resolvable", resolvableResult.Expected)

	dangling := inspect.Observation{
		Path:       "/etc/systemd/system/alias.service",
		Kind:       inspect.KindSymlink,
		Mode:       &linkMode,
		LinkTarget: "/etc/systemd/system/removed.service",
		Target: &inspect.Observation{
			Path:        "/etc/systemd/system/alias.service",
			Kind:        inspect.KindMissing,
			AccessError: &inspect.AccessFailure{Kind: inspect.AccessErrorNotFound, Message: "no such file"},
		},
	}
	danglingResult := audit.Evaluate(rule, dangling)
	require.Equal(t, audit.StatusFail, danglingResult.Status)
	require.Equal(t, "dangling", danglingResult.Found)
	// The link's own 777 bits never trigger the world-writable annotation.
	require.Empty(t, danglingResult.Message)
}

func TestEvaluateAppliesDirectoryModeToDirectoryNodes(t *testing.T) {
	t.Parallel()

	directoryMode := fs.FileMode(0o755)
	rule := rules.Rule{
		Path:          "/etc/pam.d",
		ExpectedMode:  rules.ModePointer(0o644),
		DirectoryMode: rules.ModePointer(0o755),
		Importance:    rules.ImportanceHigh,
		Recursive:     true,
	}

	directory := inspect.Observation{Path: "/etc/pam.d", Kind: inspect.KindDirectory, Mode: &directoryMode}
	directoryResult := audit.Evaluate(rule, directory)
	require.Equal(t, audit.StatusPass, directoryResult.Status)
	require.Equal(t, "755", directoryResult.Expected)

	fileResult := audit.Evaluate(rule, observationWithMode("/etc/pam.d/login", 0o644))
	require.Equal(t, audit.StatusPass, fileResult.Status)
	require.Equal(t, "644", fileResult.Expected)
}

func TestEvaluateFollowsSymlinkTarget(t *testing.T) {
	t.Parallel()

	linkMode := fs.FileMode(0o777)
	targetMode := fs.FileMode(0o600)
	observation := inspect.Observation{
		Path:       "/etc/alias",
		Kind:       inspect.KindSymlink,
		Mode:       &linkMode,
		LinkTarget: "/etc/real",
		Target:     &inspect.Observation{Path: "/etc/alias", Kind: inspect.KindFile, Mode: &targetMode},
	}
	rule := rules.Rule{Path: "/etc/alias", ExpectedMode: rules.ModePointer(0o600), Importance: rules.ImportanceHigh, FollowSymlinkTarget: true}

	result := audit.Evaluate(rule, observation)
	require.Equal(t, audit.StatusPass, result.Status)
	require.Equal(t, "600", result.Found)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	t.Parallel()

	rule := rules.Rule{Path: "/etc/shadow", ExpectedMode: rules.ModePointer(0o600), Importance: rules.ImportanceHigh}
	observation := observationWithMode("/etc/shadow", 0o640)
	require.Equal(t, audit.Evaluate(rule, observation), audit.Evaluate(rule, observation))
}
