package gaze

import "fmt"

// SchemaError reports a required input column missing after header
// normalization. Normalization produces no partial output on a schema error.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// ValidationError reports configuration the pipeline cannot run with, such as
// a non-positive screen dimension. It is fatal for the call that received the
// config, never for sibling trials.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// CoercionWarning records one cell that could not be parsed and was degraded
// to NA. Warnings are advisory: callers log and count them, the row stays.
type CoercionWarning struct {
	Row    int
	Column string
	Value  string
}

func (w CoercionWarning) String() string {
	return fmt.Sprintf("row %d column %s: cannot parse %q, using NA", w.Row, w.Column, w.Value)
}
