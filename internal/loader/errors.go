package loader

import "fmt"

// ParseError reports an upload that could not be read as a sales workbook.
// It is the only error Parse returns for bad input; individual bad cells are
// coerced instead.
type ParseError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Name, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(name, reason string, err error) *ParseError {
	return &ParseError{Name: name, Reason: reason, Err: err}
}
