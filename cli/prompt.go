package cli

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

// ErrAborted is returned when the user interrupts a prompt or declines to
// continue.
var ErrAborted = errors.New("aborted by user")

// Prompter asks the user questions. Interactive reports whether anyone is
// there to answer.
type Prompter interface {
	Interactive() bool
	Confirm(message string, def bool) (bool, error)
	Password(message string) (string, error)
}

// prompter is replaced in tests.
var prompter Prompter = surveyPrompter{}

type surveyPrompter struct{}

func (surveyPrompter) Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Password(message string) (string, error) {
	var out string
	prompt := &survey.Password{
		Message: message,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
