package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCorpus is returned when no documents are supplied.
	ErrEmptyCorpus = errors.New("empty corpus: no crawled documents supplied")

	// ErrMalformedRecord is returned when a crawled record is structurally
	// invalid. Use errors.As with *MalformedRecordError for details.
	ErrMalformedRecord = errors.New("malformed crawled record")
)

// MalformedRecordError describes a structurally invalid crawled record.
// It aborts the whole build; no partial graph is returned.
type MalformedRecordError struct {
	// Index is the position of the record in the input sequence.
	Index int

	// Source is where the record came from, if known.
	Source string

	// Reason says what is wrong with the record.
	Reason string
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: record %d (%s): %s", ErrMalformedRecord, e.Index, e.Source, e.Reason)
	}
	return fmt.Sprintf("%s: record %d: %s", ErrMalformedRecord, e.Index, e.Reason)
}

// Unwrap returns ErrMalformedRecord so errors.Is works.
func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
