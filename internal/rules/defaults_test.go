package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fsaudit/internal/rules"
)

func TestProfileRules(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		profile       rules.Profile
		expectedCount int
	}{
		{name: "user_profile", profile: rules.ProfileUser, expectedCount: 6},
		{name: "system_profile", profile: rules.ProfileSystem, expectedCount: 4},
		{name: "network_profile", profile: rules.ProfileNetwork, expectedCount: 3},
		{name: "log_profile", profile: rules.ProfileLog, expectedCount: 2},
		{name: "all_profile", profile: rules.ProfileAll, expectedCount: 15},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			profileRules, profileError := rules.ProfileRules(testCase.profile)
			require.NoError(t, profileError)
			require.Len(t, profileRules, testCase.expectedCount)
			for _, profileRule := range profileRules {
				require.NoError(t, profileRule.Validate())
			}
		})
	}
}

func TestProfileTreeRulesCarryDirectoryModes(t *testing.T) {
	t.Parallel()

	for _, profile := range []rules.Profile{rules.ProfileUser, rules.ProfileSystem} {
		profileRules, profileError := rules.ProfileRules(profile)
		require.NoError(t, profileError)
		for _, profileRule := range profileRules {
			if !profileRule.Recursive {
				continue
			}
			// Recursive baselines audit files at 644 and directories at 755,
			// never the file mode against a directory node.
			require.NotNil(t, profileRule.DirectoryMode)
			require.Equal(t, rules.ModePointer(0o755), profileRule.DirectoryMode)
		}
	}
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	parsedProfile, parseError := rules.ParseProfile(" Sys ")
	require.NoError(t, parseError)
	require.Equal(t, rules.ProfileSystem, parsedProfile)

	_, unknownError := rules.ParseProfile("kernel")
	require.ErrorIs(t, unknownError, rules.ErrUnknownProfile)
}
