package console

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

// Prompt errors.
var (
	ErrCancelled    = errors.New("prompt cancelled")
	ErrNotATerminal = errors.New("input required but stdin is not a terminal")
)

// Prompter asks the author for input.
type Prompter interface {
	// Input asks for free text. validate may be nil.
	Input(title, placeholder string, validate func(string) error) (string, error)
	// Select asks the author to pick one of options.
	Select(title string, options []string) (string, error)
}

// NewPrompter returns an interactive prompter when stdin is a terminal and a
// prompter that always fails with ErrNotATerminal otherwise.
func NewPrompter() Prompter {
	if IsTerminal(os.Stdin) {
		return HuhPrompter{}
	}
	return headless{}
}

// HuhPrompter prompts with charmbracelet/huh forms.
type HuhPrompter struct{}

// Input implements Prompter.
func (HuhPrompter) Input(title, placeholder string, validate func(string) error) (string, error) {
	var value string
	in := huh.NewInput().Title(title).Placeholder(placeholder).Value(&value)
	if validate != nil {
		in = in.Validate(validate)
	}
	if err := run(in); err != nil {
		return "", err
	}
	return value, nil
}

// Select implements Prompter.
func (HuhPrompter) Select(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: nothing to choose from", title)
	}
	var value string
	sel := huh.NewSelect[string]().Title(title).Options(huh.NewOptions(options...)...).Value(&value)
	if err := run(sel); err != nil {
		return "", err
	}
	return value, nil
}

func run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrCancelled
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

type headless struct{}

func (headless) Input(title, _ string, _ func(string) error) (string, error) {
	return "", fmt.Errorf("%s: %w", title, ErrNotATerminal)
}

func (headless) Select(title string, _ []string) (string, error) {
	return "", fmt.Errorf("%s: %w", title, ErrNotATerminal)
}
