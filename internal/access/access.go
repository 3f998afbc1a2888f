package access

import "filevault/internal/model"

// Package access is the pure policy layer gating every read and mutation of a
// file record. Private resources are reported as absent to non-owners; the
// policy never produces a distinguishable "forbidden" outcome, so existence of
// private records cannot be probed.

// Decision is the outcome of a policy check.
type Decision int

const (
	// Allow grants the operation.
	Allow Decision = iota
	// NotFound denies the operation, indistinguishable from the record not existing.
	NotFound
)

// CanRead decides whether callerID (empty for anonymous callers) may see file.
// Owners always may; anyone else only if the record is public.
func CanRead(callerID string, file *model.File) Decision {
	if file == nil {
		return NotFound
	}
	if callerID != "" && callerID == file.UserID {
		return Allow
	}
	if file.IsPublic {
		return Allow
	}
	return NotFound
}

// CanMutate decides whether callerID may change file (visibility updates).
// Only the owner may; everyone else gets NotFound, public or not.
func CanMutate(callerID string, file *model.File) Decision {
	if file == nil {
		return NotFound
	}
	if callerID != "" && callerID == file.UserID {
		return Allow
	}
	return NotFound
}
