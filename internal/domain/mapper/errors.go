package mapper

import "errors"

// Sentinel kinds for mapping errors.
var (
	ErrMalformed    = errors.New("malformed field")
	ErrShortRecord  = errors.New("record has too few fields")
	ErrMissingField = errors.New("missing field")
)
