package reader

import "errors"

var (
	ErrNoHeader        = errors.New("csv source has no header row")
	ErrUnknownEncoding = errors.New("unknown source encoding")
)
