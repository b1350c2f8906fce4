package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	tabWriterMinimumWidthConstant = 0
	tabWriterTabWidthConstant     = 8
	tabWriterPaddingConstant      = 2
	tabWriterPaddingCharacter     = ' '
	tabularColumnSeparatorText    = "\t"
	jsonIndentationConstant       = "  "
	rowColumnMismatchTemplate     = "row %d has %d values for %d columns"
)

// Tabular exposes ordered columns and rows for rendering. Column order is the
// author's presentation order and every renderer preserves it.
type Tabular interface {
	Columns() []string
	Rows() [][]string
}

// RenderTabular writes the tabular data to the writer in the requested format.
func RenderTabular(writer io.Writer, format Format, tabular Tabular) error {
	if validationError := validateTabular(tabular); validationError != nil {
		return validationError
	}
	switch format {
	case FormatCSV:
		return renderTabularCSV(writer, tabular)
	case FormatJSON:
		return renderTabularJSON(writer, tabular)
	case FormatYAML:
		return renderTabularYAML(writer, tabular)
	default:
		return renderTabularText(writer, tabular)
	}
}

func validateTabular(tabular Tabular) error {
	columnCount := len(tabular.Columns())
	for rowIndex, row := range tabular.Rows() {
		if len(row) != columnCount {
			return fmt.Errorf(rowColumnMismatchTemplate, rowIndex, len(row), columnCount)
		}
	}
	return nil
}

func renderTabularText(writer io.Writer, tabular Tabular) error {
	alignedWriter := tabwriter.NewWriter(
		writer,
		tabWriterMinimumWidthConstant,
		tabWriterTabWidthConstant,
		tabWriterPaddingConstant,
		tabWriterPaddingCharacter,
		0,
	)
	if _, writeError := fmt.Fprintln(alignedWriter, strings.Join(tabular.Columns(), tabularColumnSeparatorText)); writeError != nil {
		return writeError
	}
	for _, row := range tabular.Rows() {
		if _, writeError := fmt.Fprintln(alignedWriter, strings.Join(row, tabularColumnSeparatorText)); writeError != nil {
			return writeError
		}
	}
	return alignedWriter.Flush()
}

func renderTabularCSV(writer io.Writer, tabular Tabular) error {
	csvWriter := csv.NewWriter(writer)
	if writeError := csvWriter.Write(tabular.Columns()); writeError != nil {
		return writeError
	}
	if writeError := csvWriter.WriteAll(tabular.Rows()); writeError != nil {
		return writeError
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// renderTabularJSON emits an array of objects whose keys appear in column
// order. encoding/json sorts map keys, so objects are assembled by hand from
// individually marshalled strings.
func renderTabularJSON(writer io.Writer, tabular Tabular) error {
	columns := tabular.Columns()
	var builder strings.Builder
	builder.WriteString("[")
	for rowIndex, row := range tabular.Rows() {
		if rowIndex > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("\n" + jsonIndentationConstant + "{")
		for columnIndex, columnName := range columns {
			if columnIndex > 0 {
				builder.WriteString(", ")
			}
			encodedKey, keyError := json.Marshal(columnName)
			if keyError != nil {
				return keyError
			}
			encodedValue, valueError := json.Marshal(row[columnIndex])
			if valueError != nil {
				return valueError
			}
			builder.Write(encodedKey)
			builder.WriteString(": ")
			builder.Write(encodedValue)
		}
		builder.WriteString("}")
	}
	if len(tabular.Rows()) > 0 {
		builder.WriteString("\n")
	}
	builder.WriteString("]\n")
	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}

// renderTabularYAML builds yaml nodes directly so mapping keys keep column
// order instead of yaml.Marshal's map-key sorting.
func renderTabularYAML(writer io.Writer, tabular Tabular) error {
	columns := tabular.Columns()
	sequenceNode := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range tabular.Rows() {
		mappingNode := &yaml.Node{Kind: yaml.MappingNode}
		for columnIndex, columnName := range columns {
			mappingNode.Content = append(mappingNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: columnName},
				&yaml.Node{Kind: yaml.ScalarNode, Value: row[columnIndex]},
			)
		}
		sequenceNode.Content = append(sequenceNode.Content, mappingNode)
	}

	encoder := yaml.NewEncoder(writer)
	if encodeError := encoder.Encode(sequenceNode); encodeError != nil {
		return encodeError
	}
	return encoder.Close()
}
