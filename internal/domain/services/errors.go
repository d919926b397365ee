package services

import (
	"errors"
	"fmt"
)

// ErrNoInput is returned when an analysis request carries neither text nor
// a URL.
var ErrNoInput = errors.New("no text or URL provided for analysis")

// InvalidURLError is returned when an explicitly supplied URL cannot be
// parsed. URLs auto-extracted from text degrade gracefully instead.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() error {
	return e.Err
}
