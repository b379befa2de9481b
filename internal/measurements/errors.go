package measurements

import (
	"errors"
	"fmt"
)

// Error classes. Every loader failure matches exactly one of these with
// errors.Is.
var (
	// ErrInputAccess covers a missing or unreadable input file.
	ErrInputAccess = errors.New("input access error")
	// ErrSchema covers a required header column that is absent.
	ErrSchema = errors.New("schema error")
	// ErrData covers cells that cannot be parsed as numbers.
	ErrData = errors.New("data error")

	// ErrNonFinite is the cause recorded on a ParseError for NaN or
	// infinite cells.
	ErrNonFinite = errors.New("value is not finite")
)

// AccessError wraps a failure to open or read the input.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("read measurements %s: %v", e.Path, e.Err)
}

// Unwrap exposes both the class and the underlying cause, so
// errors.Is(err, fs.ErrNotExist) keeps working.
func (e *AccessError) Unwrap() []error { return []error{ErrInputAccess, e.Err} }

// MissingColumnError reports a required header that was not found.
type MissingColumnError struct {
	Column string
	Header []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q in header %q", e.Column, e.Header)
}

func (e *MissingColumnError) Unwrap() error { return ErrSchema }

// ParseError reports a cell that could not be converted to a float.
// Row is the 1-based data row, not counting the header.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrData, e.Err} }
