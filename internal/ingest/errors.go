// Package ingest moves trial tables between the filesystem and the engine:
// CSV readers on the way in, event and metric exporters on the way out.
package ingest

import "fmt"

// SourceReadError reports a trial source that could not be read or parsed.
// It is fatal for that trial only; the batch runner records it and moves on
// to the next file.
type SourceReadError struct {
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read trial source %s: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }
