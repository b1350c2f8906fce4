package render

import (
	"errors"
	"fmt"
	"strings"
)

const unknownFormatTemplateConstant = "%w: %q"

// ErrUnknownFormat reports an output format name outside the supported set.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names one supported output encoding.
type Format string

// Supported output formats.
const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(input string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(input))) {
	case FormatText:
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf(unknownFormatTemplateConstant, ErrUnknownFormat, input)
	}
}
