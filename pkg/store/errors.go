package store

import "errors"

// Sentinel errors returned by every Repository backend, so callers can
// use errors.Is instead of string matching.
var (
	ErrReaderNotFound  = errors.New("store: reader not found")
	ErrDuplicateReader = errors.New("store: reader with this name already exists")
	ErrMappingNotFound = errors.New("store: plugin mapping not found")
	ErrDuplicateOrder  = errors.New("store: execution order already used on this reader")
)
