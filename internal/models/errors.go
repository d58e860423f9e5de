package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a commune key is absent from the reference table.
var ErrNotFound = errors.New("commune not found")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ArtifactError is a failure to load a startup artifact. It is fatal.
type ArtifactError struct {
	Kind string
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("failed to load %s artifact %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}
