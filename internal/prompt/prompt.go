// Package prompt provides the interactive terminal surface: list
// selection, confirmation, and text input built on huh. Prompts require a
// real terminal; non-interactive contexts must check Interactive first.
package prompt

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/marcus/ldflag/internal/ldapi"
	"github.com/marcus/ldflag/internal/models"
)

// Interactive reports whether stdin is attached to a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// SelectProject asks the user to pick a project and returns its key.
func SelectProject(projects []ldapi.Project) (string, error) {
	if len(projects) == 0 {
		return "", fmt.Errorf("no projects available")
	}

	options := make([]huh.Option[string], len(projects))
	for i, p := range projects {
		options[i] = huh.NewOption(fmt.Sprintf("%s (key: %s)", p.Name, p.Key), p.Key)
	}

	var key string
	err := huh.NewSelect[string]().
		Title("Select a project").
		Options(options...).
		Value(&key).
		Run()
	if err != nil {
		return "", err
	}
	return key, nil
}

// SelectFlag asks the user to pick one of the project's JSON flags and
// returns its key.
func SelectFlag(summaries []models.FlagSummary) (string, error) {
	if len(summaries) == 0 {
		return "", fmt.Errorf("no JSON feature flags available")
	}

	options := make([]huh.Option[string], len(summaries))
	for i, s := range summaries {
		options[i] = huh.NewOption(fmt.Sprintf("%s (key: %s)", s.Name, s.Key), s.Key)
	}

	var key string
	err := huh.NewSelect[string]().
		Title("Select a JSON feature flag").
		Options(options...).
		Value(&key).
		Run()
	if err != nil {
		return "", err
	}
	return key, nil
}

// Confirm asks a yes/no question.
func Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Input asks for a single line of text, pre-filled with a suggestion.
func Input(title, suggestion string) (string, error) {
	value := suggestion
	err := huh.NewInput().
		Title(title).
		Value(&value).
		Run()
	if err != nil {
		return "", err
	}
	return value, nil
}
