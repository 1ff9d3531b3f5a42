package models

import "errors"

// Sentinel errors shared across packages. Boundaries map these to HTTP
// statuses; internal failures stay distinct from lookup misses.
var (
	ErrTitleNotFound   = errors.New("title not found in catalog")
	ErrUserExists      = errors.New("username already exists")
	ErrUserNotFound    = errors.New("account does not exist")
	ErrWrongPassword   = errors.New("wrong password")
	ErrValidation      = errors.New("validation failed")
	ErrDataUnavailable = errors.New("catalog or similarity matrix unavailable")
)
