package parse_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fsaudit/internal/parse"
)

const recordFileFixture = `Name: alpha
Mode: 644
Owner: root

Name: beta
Mode: 600

header without separator
Name: gamma
Location: /srv
`

func TestParseRecords(testInstance *testing.T) {
	testCases := []struct {
		name            string
		input           string
		expectedRecords []parse.Record
	}{
		{
			name:  "blank_line_separated_blocks",
			input: recordFileFixture,
			expectedRecords: []parse.Record{
				{Fields: []parse.Field{{Key: "Name", Value: "alpha"}, {Key: "Mode", Value: "644"}, {Key: "Owner", Value: "root"}}},
				{Fields: []parse.Field{{Key: "Name", Value: "beta"}, {Key: "Mode", Value: "600"}}},
				{Fields: []parse.Field{{Key: "Name", Value: "gamma"}, {Key: "Location", Value: "/srv"}}},
			},
		},
		{
			name:            "empty_input",
			input:           "",
			expectedRecords: nil,
		},
		{
			name:  "values_containing_colons_keep_remainder",
			input: "Time: 12:30:45\n",
			expectedRecords: []parse.Record{
				{Fields: []parse.Field{{Key: "Time", Value: "12:30:45"}}},
			},
		},
		{
			name:            "separator_free_lines_are_skipped",
			input:           "no separators here\nstill none\n",
			expectedRecords: nil,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			recordSet, parseError := parse.ParseRecords(strings.NewReader(testCase.input))
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expectedRecords, recordSet.Records)
		})
	}
}

func TestRecordSetFilter(testInstance *testing.T) {
	recordSet, parseError := parse.ParseRecords(strings.NewReader(recordFileFixture))
	require.NoError(testInstance, parseError)

	testInstance.Run("keeps_only_named_fields", func(subTest *testing.T) {
		filtered := recordSet.Filter([]string{"Name", "Mode"})
		require.Len(subTest, filtered.Records, 3)
		require.Equal(subTest, []parse.Field{{Key: "Name", Value: "alpha"}, {Key: "Mode", Value: "644"}}, filtered.Records[0].Fields)
		require.Equal(subTest, []parse.Field{{Key: "Name", Value: "gamma"}}, filtered.Records[2].Fields)
	})

	testInstance.Run("drops_records_without_matches", func(subTest *testing.T) {
		filtered := recordSet.Filter([]string{"Owner"})
		require.Len(subTest, filtered.Records, 1)
	})

	testInstance.Run("empty_filter_keeps_everything", func(subTest *testing.T) {
		require.Equal(subTest, recordSet, recordSet.Filter(nil))
	})
}

func TestParseFieldList(testInstance *testing.T) {
	require.Equal(testInstance, []string{"Name", "Mode"}, parse.ParseFieldList(" Name , Mode ,"))
	require.Nil(testInstance, parse.ParseFieldList(" , "))
}

func TestTable(testInstance *testing.T) {
	recordSet, parseError := parse.ParseRecords(strings.NewReader(recordFileFixture))
	require.NoError(testInstance, parseError)

	table := parse.NewTable(recordSet)
	require.Equal(testInstance, []string{"Name", "Mode", "Owner", "Location"}, table.Columns())

	rows := table.Rows()
	require.Len(testInstance, rows, 3)
	require.Equal(testInstance, []string{"alpha", "644", "root", ""}, rows[0])
	require.Equal(testInstance, []string{"gamma", "", "", "/srv"}, rows[2])
}

func TestParseCommand(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	recordFilePath := filepath.Join(temporaryDirectory, "records.txt")
	require.NoError(testInstance, os.WriteFile(recordFilePath, []byte(recordFileFixture), 0o644))

	testInstance.Run("renders_filtered_csv", func(subTest *testing.T) {
		builder := &parse.CommandBuilder{}
		command, buildError := builder.Build()
		require.NoError(subTest, buildError)

		var outputBuffer bytes.Buffer
		command.SetOut(&outputBuffer)
		command.SetArgs([]string{recordFilePath, "--format", "csv", "--fields", "Name,Mode"})
		require.NoError(subTest, command.Execute())

		lines := strings.Split(strings.TrimSpace(outputBuffer.String()), "\n")
		require.Equal(subTest, "Name,Mode", lines[0])
		require.Equal(subTest, "beta,600", lines[2])
	})

	testInstance.Run("stores_output_when_requested", func(subTest *testing.T) {
		storedPath := filepath.Join(temporaryDirectory, "stored.csv")
		builder := &parse.CommandBuilder{}
		command, buildError := builder.Build()
		require.NoError(subTest, buildError)

		var outputBuffer bytes.Buffer
		command.SetOut(&outputBuffer)
		command.SetArgs([]string{recordFilePath, "--format", "csv", "--output", storedPath})
		require.NoError(subTest, command.Execute())

		storedContents, readError := os.ReadFile(storedPath)
		require.NoError(subTest, readError)
		require.Equal(subTest, outputBuffer.String(), string(storedContents))
	})

	testInstance.Run("missing_file_fails", func(subTest *testing.T) {
		builder := &parse.CommandBuilder{}
		command, buildError := builder.Build()
		require.NoError(subTest, buildError)

		command.SetOut(&bytes.Buffer{})
		command.SetErr(&bytes.Buffer{})
		command.SetArgs([]string{filepath.Join(temporaryDirectory, "absent.txt")})
		require.Error(subTest, command.Execute())
	})
}
