// Package editsession drives one round of the edit-validate workflow:
// present the current variations to the external editor, parse what came
// back, validate it, and classify the outcome. A session performs no retry
// of its own; callers re-invoke Run for another attempt.
package editsession

import (
	"encoding/json"
	"fmt"

	"github.com/marcus/ldflag/internal/editor"
	"github.com/marcus/ldflag/internal/models"
	"github.com/marcus/ldflag/internal/schema"
)

// Session wraps an editor with the parse/validate/decide state machine.
// Confirm, when set, is asked before an otherwise-valid edit is accepted;
// declining yields an Aborted outcome.
type Session struct {
	Editor  editor.Editor
	Confirm func(before, after []models.Variation) bool
}

// New creates a session around the given editor.
func New(ed editor.Editor) *Session {
	return &Session{Editor: ed}
}

// Present renders variations the way they are handed to the editor:
// indented JSON with a trailing newline, _id fields included verbatim so
// they round-trip.
func Present(vars []models.Variation) (string, error) {
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal variations: %w", err)
	}
	return string(data) + "\n", nil
}

// Parse reads edited text back as a JSON array of variation objects.
func Parse(text string) ([]models.Variation, error) {
	var vars []models.Variation
	if err := json.Unmarshal([]byte(text), &vars); err != nil {
		return nil, fmt.Errorf("variations must be a JSON array of objects: %w", err)
	}
	// "null" unmarshals into a nil slice without error.
	if vars == nil {
		return nil, fmt.Errorf("variations must be a JSON array of objects, got null")
	}
	return vars, nil
}

// Run performs one edit round. The returned error is reserved for failures
// of the editing surface itself (launch failure, unreadable temp file);
// everything else is expressed through the outcome.
func (s *Session) Run(vars []models.Variation) (models.EditOutcome, error) {
	text, err := Present(vars)
	if err != nil {
		return models.EditOutcome{}, err
	}

	edited, err := s.Editor.Edit(text)
	if err != nil {
		return models.EditOutcome{}, err
	}

	if edited == text {
		return models.EditOutcome{Kind: models.OutcomeUnchanged}, nil
	}

	parsed, err := Parse(edited)
	if err != nil {
		return models.EditOutcome{
			Kind: models.OutcomeStillInvalid,
			Result: models.ValidationResult{Errors: []models.FieldError{{
				Index:   -1,
				Kind:    models.ErrMalformedJSON,
				Message: err.Error(),
			}}},
		}, nil
	}

	result := schema.ValidateVariations(parsed)
	if !result.Valid() {
		return models.EditOutcome{Kind: models.OutcomeStillInvalid, Result: result}, nil
	}

	if s.Confirm != nil && !s.Confirm(vars, parsed) {
		return models.EditOutcome{Kind: models.OutcomeAborted}, nil
	}

	return models.EditOutcome{Kind: models.OutcomeAccepted, Variations: parsed}, nil
}
