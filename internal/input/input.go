// Package input loads variation lists and targeting rules from files or
// stdin (- syntax).
package input

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marcus/ldflag/internal/editsession"
	"github.com/marcus/ldflag/internal/models"
)

// ReadVariations loads a JSON array of variation objects from a file path,
// or from stdin when path is "-".
func ReadVariations(path string) ([]models.Variation, error) {
	data, err := readAll(path)
	if err != nil {
		return nil, err
	}
	vars, err := editsession.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}
	return vars, nil
}

// ReadTargetingRules loads a JSON document of environment targeting rules.
func ReadTargetingRules(path string) (json.RawMessage, error) {
	data, err := readAll(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: targeting rules must be valid JSON", displayName(path))
	}
	return json.RawMessage(data), nil
}

// ParseEnvRule splits an "environment:rules.json" pair.
func ParseEnvRule(pair string) (envKey, path string, err error) {
	envKey, path, ok := strings.Cut(pair, ":")
	if !ok || envKey == "" || path == "" {
		return "", "", fmt.Errorf("invalid environment rule %q (format is environment:path.json)", pair)
	}
	return envKey, path, nil
}

func readAll(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func displayName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}
