package repository

import "errors"

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (e.g., registering an email twice). Implementations translate their
// backend-specific error into this sentinel.
var ErrDuplicate = errors.New("duplicate record")

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}
