package store

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrDuplicateKey = errors.New("duplicate key")
)
