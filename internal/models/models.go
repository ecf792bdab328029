package models

import (
	"encoding/json"
	"fmt"
)

// Variation is one JSON-valued option of a feature flag. ID is assigned
// server-side and must round-trip unchanged through edits; it is empty on
// newly authored variations.
type Variation struct {
	ID          string          `json:"_id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
}

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	ErrMissingField    ErrorKind = "missing_field"
	ErrWrongType       ErrorKind = "wrong_type"
	ErrOutOfRange      ErrorKind = "out_of_range"
	ErrEmptyCollection ErrorKind = "empty_collection"
	ErrMalformedJSON   ErrorKind = "malformed_json"
)

// FieldError describes one validation failure. Index is the variation's
// position in the list as presented to the user, or -1 for list-level
// errors. VariationID carries the _id when the variation has one.
type FieldError struct {
	Index       int       `json:"index"`
	VariationID string    `json:"variation_id,omitempty"`
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
}

func (e FieldError) String() string {
	if e.Index < 0 {
		return e.Message
	}
	if e.VariationID != "" {
		return fmt.Sprintf("variation %d (%s): %s", e.Index+1, e.VariationID, e.Message)
	}
	return fmt.Sprintf("variation %d: %s", e.Index+1, e.Message)
}

// ValidationResult is the outcome of validating a variation or a list of
// variations. The zero value is valid.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// Valid reports whether validation found no errors.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// OutcomeKind is the terminal state of one edit round.
type OutcomeKind string

const (
	OutcomeAccepted     OutcomeKind = "accepted"
	OutcomeUnchanged    OutcomeKind = "unchanged"
	OutcomeStillInvalid OutcomeKind = "still_invalid"
	OutcomeAborted      OutcomeKind = "aborted"
)

// EditOutcome is the result of one edit session round. Variations is set
// only for Accepted; Result carries the failing validation for StillInvalid.
type EditOutcome struct {
	Kind       OutcomeKind
	Variations []Variation
	Result     ValidationResult
}

// FlagSummary is what the flag store hands the bulk reconciler per flag:
// the flag's key, display name, and current variations.
type FlagSummary struct {
	Key        string
	Name       string
	Variations []Variation
}

// FlagStatus is the per-flag outcome of a bulk run.
type FlagStatus string

const (
	FlagValid   FlagStatus = "valid"   // passed validation, untouched
	FlagFixed   FlagStatus = "fixed"   // edited, revalidated, persisted
	FlagSkipped FlagStatus = "skipped" // invalid but user declined or left unchanged
	FlagFailed  FlagStatus = "failed"  // still invalid after editing, or remote error
)

// FlagReport is the per-flag record of a bulk validate run. Reports are
// produced fresh per run and never persisted.
type FlagReport struct {
	Key     string
	Name    string
	Status  FlagStatus
	Result  ValidationResult // validation of the flag as fetched
	Outcome *EditOutcome     // set when a fix was attempted
	Err     error            // remote error, when Status is FlagFailed
}
