package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrStatus marks a non-2xx response.
	ErrStatus = errors.New("unexpected http status")
	// ErrUnsafePath marks an archive entry escaping the extraction directory.
	ErrUnsafePath = errors.New("archive entry escapes target directory")
)

// StatusError carries the status of a rejected response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, ErrStatus)
}

func (e *StatusError) Unwrap() error { return ErrStatus }
