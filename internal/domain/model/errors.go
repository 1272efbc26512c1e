package model

import "errors"

// Lookup outcomes shared by stores and the gates reading them.
var (
	ErrIndexNotFound = errors.New("index not found")
	ErrNotFound      = errors.New("no document found")
)
