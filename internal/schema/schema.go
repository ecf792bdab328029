// Package schema validates flag variations against the fixed TCP port
// schema: value must be a JSON object whose tcp_port is an integer in
// [0, 65535]. Validation is pure and collects every error it finds so a
// single edit round can fix all of them at once.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marcus/ldflag/internal/models"
)

// Port bounds for tcp_port values.
const (
	MinPort = 0
	MaxPort = 65535
)

// ValidateVariation validates a single variation against the schema.
func ValidateVariation(v models.Variation) models.ValidationResult {
	return models.ValidationResult{Errors: variationErrors(v)}
}

// ValidateVariations validates an ordered list of variations: every member
// is checked and all errors are returned, stamped with the member's index
// and _id for correlation with the document the user edited. An empty list
// is itself an error since a flag must ship at least one variation.
func ValidateVariations(list []models.Variation) models.ValidationResult {
	if len(list) == 0 {
		return models.ValidationResult{Errors: []models.FieldError{{
			Index:   -1,
			Kind:    models.ErrEmptyCollection,
			Message: "at least one variation is required",
		}}}
	}

	var errs []models.FieldError
	for i, v := range list {
		for _, e := range variationErrors(v) {
			e.Index = i
			e.VariationID = v.ID
			errs = append(errs, e)
		}
	}
	return models.ValidationResult{Errors: errs}
}

func variationErrors(v models.Variation) []models.FieldError {
	if len(v.Value) == 0 || bytes.Equal(bytes.TrimSpace(v.Value), []byte("null")) {
		return []models.FieldError{{
			Index:   -1,
			Kind:    models.ErrMissingField,
			Message: "value object is missing",
		}}
	}

	// Decode with json.Number so 443 and 443.5 stay distinguishable.
	dec := json.NewDecoder(bytes.NewReader(v.Value))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return []models.FieldError{{
			Index:   -1,
			Kind:    models.ErrWrongType,
			Message: "value must be a JSON object",
		}}
	}

	raw, ok := obj["tcp_port"]
	if !ok {
		return []models.FieldError{{
			Index:   -1,
			Kind:    models.ErrMissingField,
			Message: "value must contain a tcp_port property",
		}}
	}

	num, ok := raw.(json.Number)
	if !ok {
		// Booleans, strings, nested objects and arrays all land here.
		return []models.FieldError{{
			Index:   -1,
			Kind:    models.ErrWrongType,
			Message: fmt.Sprintf("tcp_port must be an integer, got %s", jsonTypeName(raw)),
		}}
	}

	port, err := num.Int64()
	if err != nil {
		// An integer literal too big for int64 is still an integer; it
		// fails the range check, not the type check.
		if !strings.ContainsAny(num.String(), ".eE") {
			return []models.FieldError{{
				Index:   -1,
				Kind:    models.ErrOutOfRange,
				Message: fmt.Sprintf("tcp_port must be between %d and %d, got %s", MinPort, MaxPort, num),
			}}
		}
		return []models.FieldError{{
			Index:   -1,
			Kind:    models.ErrWrongType,
			Message: fmt.Sprintf("tcp_port must be an integer, got %s", num),
		}}
	}

	if port < MinPort || port > MaxPort {
		return []models.FieldError{{
			Index:   -1,
			Kind:    models.ErrOutOfRange,
			Message: fmt.Sprintf("tcp_port must be between %d and %d, got %d", MinPort, MaxPort, port),
		}}
	}

	return nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return "number"
	}
}
