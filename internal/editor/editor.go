// Package editor runs the user's external editor on a temp file and hands
// back whatever they saved. The call blocks until the editor process exits;
// there is deliberately no timeout since editing is interactive.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrLaunch indicates the editor process could not be started at all, as
// opposed to the user saving bad content.
var ErrLaunch = errors.New("cannot launch editor")

// Editor presents text in an external editing surface and returns the
// final text once the surface closes.
type Editor interface {
	Edit(text string) (string, error)
}

// External invokes a command line editor (e.g. "vim" or "code --wait") on
// a temp file. It implements Editor.
type External struct {
	Command string
}

// New returns an External editor for the given command, falling back to
// "vi" when the command is empty.
func New(command string) *External {
	if command == "" {
		command = "vi"
	}
	return &External{Command: command}
}

// Edit writes text to a temp file, runs the editor on it, and returns the
// file's content after the editor exits. The content is returned verbatim
// so callers can detect a byte-identical round-trip.
func (e *External) Edit(text string) (string, error) {
	tmpFile, err := os.CreateTemp("", "ldflag-variations-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(text); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmpFile.Close()

	// Split the command in case it includes args (e.g. "code --wait")
	parts := strings.Fields(e.Command)
	cmdArgs := append(parts[1:], tmpFile.Name())
	editorCmd := exec.Command(parts[0], cmdArgs...)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%w: %v", ErrLaunch, err)
		}
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	data, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}

	return string(data), nil
}
