package repositories

import "errors"

// Sentinel errors shared by all repositories. Handlers branch on these
// with errors.Is to pick response status codes.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)
