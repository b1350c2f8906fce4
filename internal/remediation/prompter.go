package remediation

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

const (
	affirmativeShortResponseConstant = "y"
	affirmativeLongResponseConstant  = "yes"
	affirmativeLabelConstant         = "Yes"
	negativeLabelConstant            = "No"
)

// ConfirmationPrompter asks the operator a yes/no question.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

// IOConfirmationPrompter reads confirmation responses from an io.Reader.
type IOConfirmationPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes).
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (bool, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return false, writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return false, readError
	}

	trimmedResponse := strings.TrimSpace(strings.ToLower(response))
	switch trimmedResponse {
	case affirmativeShortResponseConstant, affirmativeLongResponseConstant:
		return true, nil
	default:
		return false, nil
	}
}

// InteractiveConfirmationPrompter renders confirmations as terminal dialogs.
type InteractiveConfirmationPrompter struct{}

// NewInteractiveConfirmationPrompter constructs a dialog-based prompter.
func NewInteractiveConfirmationPrompter() *InteractiveConfirmationPrompter {
	return &InteractiveConfirmationPrompter{}
}

// Confirm shows a yes/no dialog for the prompt. A declined or aborted dialog
// counts as a refusal rather than an error.
func (prompter *InteractiveConfirmationPrompter) Confirm(prompt string) (bool, error) {
	var confirmed bool
	dialogError := huh.NewConfirm().
		Title(prompt).
		Affirmative(affirmativeLabelConstant).
		Negative(negativeLabelConstant).
		Value(&confirmed).
		Run()
	if dialogError != nil {
		return false, nil
	}
	return confirmed, nil
}
