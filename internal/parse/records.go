// Package parse reads colon-separated key/value record files, the format of
// /etc/passwd-style tool output blocks: one "key: value" pair per line,
// records separated by blank lines. Key order inside a record is the file's
// order and is preserved through filtering and rendering.
package parse

import (
	"bufio"
	"io"
	"strings"
)

const (
	keyValueSeparatorConstant = ":"
	fieldSplitSeparatorValue  = ","
)

// Field is one key/value pair of a record.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Record is an ordered list of fields between two blank lines.
type Record struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// Value returns the value of the named field and whether it exists.
func (record Record) Value(key string) (string, bool) {
	for _, field := range record.Fields {
		if field.Key == key {
			return field.Value, true
		}
	}
	return "", false
}

// RecordSet is the ordered sequence of records parsed from one source.
type RecordSet struct {
	Records []Record `json:"records" yaml:"records"`
}

// ParseRecords reads colon-separated key/value records from the reader.
// Lines without a colon are skipped, matching how ad-hoc tool output mixes
// headers into otherwise structured blocks.
func ParseRecords(reader io.Reader) (RecordSet, error) {
	var recordSet RecordSet
	var currentRecord Record

	lineScanner := bufio.NewScanner(reader)
	for lineScanner.Scan() {
		line := lineScanner.Text()
		if len(strings.TrimSpace(line)) == 0 {
			if len(currentRecord.Fields) > 0 {
				recordSet.Records = append(recordSet.Records, currentRecord)
				currentRecord = Record{}
			}
			continue
		}

		key, value, separated := strings.Cut(line, keyValueSeparatorConstant)
		if !separated {
			continue
		}
		currentRecord.Fields = append(currentRecord.Fields, Field{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	if scanError := lineScanner.Err(); scanError != nil {
		return RecordSet{}, scanError
	}

	if len(currentRecord.Fields) > 0 {
		recordSet.Records = append(recordSet.Records, currentRecord)
	}
	return recordSet, nil
}

// ParseFieldList splits a comma-separated field filter into trimmed names.
func ParseFieldList(input string) []string {
	var fieldNames []string
	for _, fieldName := range strings.Split(input, fieldSplitSeparatorValue) {
		trimmedName := strings.TrimSpace(fieldName)
		if len(trimmedName) > 0 {
			fieldNames = append(fieldNames, trimmedName)
		}
	}
	return fieldNames
}

// Filter keeps only the named fields of each record, in the record's own
// order. Records left without any matching field are dropped. An empty
// filter returns the set unchanged.
func (recordSet RecordSet) Filter(fieldNames []string) RecordSet {
	if len(fieldNames) == 0 {
		return recordSet
	}

	wantedNames := make(map[string]struct{}, len(fieldNames))
	for _, fieldName := range fieldNames {
		wantedNames[fieldName] = struct{}{}
	}

	var filteredSet RecordSet
	for _, record := range recordSet.Records {
		var filteredRecord Record
		for _, field := range record.Fields {
			if _, wanted := wantedNames[field.Key]; wanted {
				filteredRecord.Fields = append(filteredRecord.Fields, field)
			}
		}
		if len(filteredRecord.Fields) > 0 {
			filteredSet.Records = append(filteredSet.Records, filteredRecord)
		}
	}
	return filteredSet
}

// Table adapts the record set to tabular rendering. Columns are the union of
// all record keys in first-appearance order; records missing a column render
// an empty cell.
type Table struct {
	recordSet RecordSet
}

// NewTable wraps the record set for rendering.
func NewTable(recordSet RecordSet) Table {
	return Table{recordSet: recordSet}
}

// Columns lists every key seen across the records, in first-appearance order.
func (table Table) Columns() []string {
	var columns []string
	seenColumns := make(map[string]struct{})
	for _, record := range table.recordSet.Records {
		for _, field := range record.Fields {
			if _, seen := seenColumns[field.Key]; seen {
				continue
			}
			seenColumns[field.Key] = struct{}{}
			columns = append(columns, field.Key)
		}
	}
	return columns
}

// Rows lists one row per record aligned to Columns.
func (table Table) Rows() [][]string {
	columns := table.Columns()
	rows := make([][]string, 0, len(table.recordSet.Records))
	for _, record := range table.recordSet.Records {
		row := make([]string, 0, len(columns))
		for _, columnName := range columns {
			value, _ := record.Value(columnName)
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	return rows
}
