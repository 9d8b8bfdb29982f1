package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySource is wrapped by UnreadableSourceError when the source holds no rows.
var ErrEmptySource = errors.New("source contains no rows")

// MissingColumnsError reports every required column absent from a dataset.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("dataset is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// UnreadableSourceError reports a source that could not be read as a table.
type UnreadableSourceError struct {
	Source string
	Err    error
}

func (e *UnreadableSourceError) Error() string {
	return fmt.Sprintf("unreadable dataset %q: %v", e.Source, e.Err)
}

func (e *UnreadableSourceError) Unwrap() error {
	return e.Err
}

// CellError describes a cell that could not be parsed into its typed field.
type CellError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}
