package remediation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fsaudit/internal/audit"
	"github.com/temirov/fsaudit/internal/inspect"
	"github.com/temirov/fsaudit/internal/remediation"
	"github.com/temirov/fsaudit/internal/rules"
)

func TestGenerate(testInstance *testing.T) {
	testCases := []struct {
		name            string
		report          audit.Report
		expectedActions []remediation.Action
	}{
		{
			name: "failed_mode_produces_chmod",
			report: audit.Report{Results: []audit.Result{
				{
					Path:       "/etc/shadow",
					Status:     audit.StatusFail,
					Importance: rules.ImportanceHigh,
					Comparisons: []audit.Comparison{
						{Dimension: audit.DimensionMode, Expected: "600", Found: "640", Matched: false},
					},
				},
			}},
			expectedActions: []remediation.Action{
				{TargetPath: "/etc/shadow", Kind: remediation.CommandKindChangeMode, Current: "640", Desired: "600"},
			},
		},
		{
			name: "failed_owner_produces_chown",
			report: audit.Report{Results: []audit.Result{
				{
					Path:   "/var/log/auth.log",
					Status: audit.StatusFail,
					Comparisons: []audit.Comparison{
						{Dimension: audit.DimensionOwner, Expected: "0:4", Found: "1000:1000", Matched: false},
					},
				},
			}},
			expectedActions: []remediation.Action{
				{TargetPath: "/var/log/auth.log", Kind: remediation.CommandKindChangeOwner, Current: "1000:1000", Desired: "0:4"},
			},
		},
		{
			name: "matched_dimensions_are_skipped",
			report: audit.Report{Results: []audit.Result{
				{
					Path:   "/etc/passwd",
					Status: audit.StatusFail,
					Comparisons: []audit.Comparison{
						{Dimension: audit.DimensionMode, Expected: "644", Found: "644", Matched: true},
						{Dimension: audit.DimensionOwner, Expected: "0:0", Found: "1000:0", Matched: false},
					},
				},
			}},
			expectedActions: []remediation.Action{
				{TargetPath: "/etc/passwd", Kind: remediation.CommandKindChangeOwner, Current: "1000:0", Desired: "0:0"},
			},
		},
		{
			name: "errors_strict_and_passes_produce_nothing",
			report: audit.Report{Results: []audit.Result{
				{Path: "/etc/missing", Status: audit.StatusError, Comparisons: []audit.Comparison{
					{Dimension: audit.DimensionMode, Expected: "600", Matched: false},
				}},
				{Path: "/etc/tight", Status: audit.StatusStrict, Comparisons: []audit.Comparison{
					{Dimension: audit.DimensionMode, Expected: "644", Found: "600", Matched: true, Stricter: true},
				}},
				{Path: "/etc/fine", Status: audit.StatusPass, Comparisons: []audit.Comparison{
					{Dimension: audit.DimensionMode, Expected: "644", Found: "644", Matched: true},
				}},
			}},
			expectedActions: nil,
		},
		{
			name: "symlink_nodes_are_never_remediated",
			report: audit.Report{Results: []audit.Result{
				{
					Path:   "/etc/systemd/system/alias.service",
					Kind:   inspect.KindSymlink,
					Status: audit.StatusFail,
					Comparisons: []audit.Comparison{
						{Dimension: audit.DimensionMode, Expected: "644", Found: "777", Matched: false},
						{Dimension: audit.DimensionOwner, Expected: "0:0", Found: "1000:1000", Matched: false},
					},
				},
			}},
			expectedActions: nil,
		},
		{
			name: "link_target_mismatch_is_not_remediated",
			report: audit.Report{Results: []audit.Result{
				{
					Path:   "/etc/resolv.conf",
					Status: audit.StatusFail,
					Comparisons: []audit.Comparison{
						{Dimension: audit.DimensionLinkTarget, Expected: "/run/resolv.conf", Found: "/tmp/resolv.conf", Matched: false},
					},
				},
			}},
			expectedActions: nil,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			script := remediation.Generate(testCase.report)
			require.Equal(subTest, testCase.expectedActions, script.Actions)
		})
	}
}

func TestScriptRender(testInstance *testing.T) {
	generatedAt := time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)

	testInstance.Run("deterministic_output", func(subTest *testing.T) {
		script := remediation.Script{
			RunID:       "run-1234",
			GeneratedAt: generatedAt,
			Actions: []remediation.Action{
				{TargetPath: "/etc/shadow", Kind: remediation.CommandKindChangeMode, Current: "640", Desired: "600"},
				{TargetPath: "/etc/passwd", Kind: remediation.CommandKindChangeOwner, Current: "1000:0", Desired: "0:0"},
			},
		}

		firstRendering := script.Render()
		secondRendering := script.Render()
		require.Equal(subTest, firstRendering, secondRendering)

		lines := strings.Split(strings.TrimRight(firstRendering, "\n"), "\n")
		require.Equal(subTest, "#!/bin/sh", lines[0])
		require.Contains(subTest, firstRendering, "# run: run-1234")
		require.Contains(subTest, firstRendering, "chmod 600 '/etc/shadow'")
		require.Contains(subTest, firstRendering, "chown 0:0 '/etc/passwd'")
	})

	testInstance.Run("empty_script_notes_nothing_to_fix", func(subTest *testing.T) {
		rendered := remediation.Script{}.Render()
		require.Contains(subTest, rendered, "# nothing to fix")
		require.NotContains(subTest, rendered, "chmod")
	})

	testInstance.Run("single_quotes_in_paths_are_escaped", func(subTest *testing.T) {
		action := remediation.Action{
			TargetPath: "/srv/it's-data",
			Kind:       remediation.CommandKindChangeMode,
			Current:    "777",
			Desired:    "750",
		}
		require.Equal(subTest, `chmod 750 '/srv/it'\''s-data'`, action.Command())
	})
}
