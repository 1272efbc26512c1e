package repository

import (
	"errors"

	"github.com/okian/ingestor/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrIndexNotFound = model.ErrIndexNotFound
	ErrNotFound      = model.ErrNotFound
	ErrUnavailable   = errors.New("store unavailable")
	ErrResponse      = errors.New("unexpected store response")
	ErrClosed        = errors.New("store closed")
)
