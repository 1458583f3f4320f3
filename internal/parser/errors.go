package parser

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when the anchor table or its body is missing.
var ErrTableNotFound = errors.New("exposure table not found")

// ParseError is a document-level parse failure. It aborts the whole parse.
type ParseError struct {
	Selector string
	Message  string
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error (%s): %s: %v", e.Selector, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error (%s): %s", e.Selector, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// RowError describes a single table row that could not be turned into a record.
// Row errors never abort a parse.
type RowError struct {
	// Index is the zero-based position of the row in the table body.
	Index int
	// Cells holds the trimmed text of the cells that were present.
	Cells []string
	// Reason says what was missing.
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s (cells=%q)", e.Index, e.Reason, e.Cells)
}
