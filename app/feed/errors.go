package feed

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCatalog = errors.New("feed list is empty")
	ErrInvalidIndex = errors.New("invalid feed index")
)

// FetchError reports a failed upstream request. StatusCode is zero when no
// response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Permanent reports whether retrying the request cannot succeed.
func (e *FetchError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
