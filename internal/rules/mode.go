package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

const (
	permissionBitsMaskConstant        fs.FileMode = 0o777
	longSymbolicModeLengthConstant                = 9
	longSymbolicAlphabetConstant                  = "rwx-"
	shortSymbolicPartSeparator                    = ","
	octalModeFormatConstant                       = "%o"
	invalidPermissionCharTemplate                 = "invalid permission character %q"
	invalidPermissionClassTemplate                = "invalid permission class %q"
	invalidPermissionOperatorTemplate             = "invalid permission operator %q"
)

// Mode parsing errors surfaced before any audit begins.
var (
	ErrInvalidOctalMode    = errors.New("invalid octal mode")
	ErrInvalidSymbolicMode = errors.New("invalid symbolic mode")
	ErrInvalidModeFormat   = errors.New("invalid mode format")
	ErrModeOutOfRange      = errors.New("mode exceeds 0777")
)

// ParseMode converts a permission string into permission bits. It accepts
// octal notation ("640"), long symbolic notation ("rw-r-----"), and short
// symbolic notation ("u=rw,g=r,o=" with "=", "+", and "-" operators).
func ParseMode(input string) (fs.FileMode, error) {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) == 0 {
		return 0, ErrInvalidModeFormat
	}

	if isOctalString(trimmed) {
		parsedValue, parseError := strconv.ParseUint(trimmed, 8, 32)
		if parseError != nil {
			return 0, ErrInvalidOctalMode
		}
		mode := fs.FileMode(parsedValue)
		if mode != mode&permissionBitsMaskConstant {
			return 0, ErrModeOutOfRange
		}
		return mode, nil
	}

	if len(trimmed) == longSymbolicModeLengthConstant && containsOnly(trimmed, longSymbolicAlphabetConstant) {
		return parseLongSymbolicMode(trimmed)
	}

	return parseShortSymbolicMode(trimmed)
}

// FormatMode renders permission bits in octal notation without a leading zero.
func FormatMode(mode fs.FileMode) string {
	return fmt.Sprintf(octalModeFormatConstant, uint32(mode&permissionBitsMaskConstant))
}

func isOctalString(candidate string) bool {
	for _, character := range candidate {
		if character < '0' || character > '7' {
			return false
		}
	}
	return true
}

func containsOnly(candidate string, alphabet string) bool {
	for _, character := range candidate {
		if !strings.ContainsRune(alphabet, character) {
			return false
		}
	}
	return true
}

func parseLongSymbolicMode(input string) (fs.FileMode, error) {
	var mode fs.FileMode
	for position, character := range input {
		shift := longSymbolicModeLengthConstant - 1 - position
		switch character {
		case 'r', 'w', 'x':
			mode |= 1 << shift
		case '-':
		default:
			return 0, ErrInvalidSymbolicMode
		}
	}
	return mode, nil
}

func parseShortSymbolicMode(input string) (fs.FileMode, error) {
	classBits := [3]fs.FileMode{}
	anyAssignment := false

	for _, part := range strings.Split(input, shortSymbolicPartSeparator) {
		trimmedPart := strings.TrimSpace(part)
		if len(trimmedPart) == 0 {
			continue
		}

		operatorIndex := strings.IndexAny(trimmedPart, "=+-")
		if operatorIndex < 0 {
			return 0, ErrInvalidSymbolicMode
		}

		classes := trimmedPart[:operatorIndex]
		operator := rune(trimmedPart[operatorIndex])
		permissions := trimmedPart[operatorIndex+1:]

		var mask fs.FileMode
		for _, permissionCharacter := range permissions {
			switch permissionCharacter {
			case 'r':
				mask |= 0b100
			case 'w':
				mask |= 0b010
			case 'x':
				mask |= 0b001
			default:
				return 0, fmt.Errorf(invalidPermissionCharTemplate, permissionCharacter)
			}
		}

		for _, classCharacter := range classes {
			var classIndex int
			switch classCharacter {
			case 'u':
				classIndex = 0
			case 'g':
				classIndex = 1
			case 'o':
				classIndex = 2
			default:
				return 0, fmt.Errorf(invalidPermissionClassTemplate, classCharacter)
			}

			switch operator {
			case '=':
				classBits[classIndex] = mask
			case '+':
				classBits[classIndex] |= mask
			case '-':
				classBits[classIndex] &^= mask
			default:
				return 0, fmt.Errorf(invalidPermissionOperatorTemplate, operator)
			}
			anyAssignment = true
		}
	}

	if !anyAssignment {
		return 0, ErrInvalidModeFormat
	}

	return classBits[0]<<6 | classBits[1]<<3 | classBits[2], nil
}
