package models

import "errors"

var (
	// ErrInvalidRequest marks caller input that cannot be processed.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
)
