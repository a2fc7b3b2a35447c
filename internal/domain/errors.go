package domain

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid field of an ingestion batch.
type FieldError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("[%d].%s: %s", e.Index, e.Field, e.Reason)
}

// ValidationError rejects a whole ingestion batch before any mutation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid batch: " + strings.Join(parts, "; ")
}

// ParameterError is a malformed client query parameter.
type ParameterError struct {
	Param  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}
