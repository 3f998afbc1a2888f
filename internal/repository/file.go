package repository

import (
	"context"

	"filevault/internal/model"
)

// FileRepository defines data access for file/folder metadata using SQL queries only.
// Hierarchy and visibility rules above single-row semantics live in the service layer.
type FileRepository interface {
	// Create inserts a new file record.
	// The caller should provide required fields (e.g., ID, CreatedAt); insertion
	// order is preserved by the database for stable pagination.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file record by its ID.
	FindByID(ctx context.Context, id string) (*model.File, error)

	// ListChildren returns records under parentID that are either owned by
	// viewerID or public, in insertion order, using limit/offset pagination.
	ListChildren(ctx context.Context, parentID, viewerID string, pq PageQuery) ([]model.File, error)

	// SetVisibility updates the is_public flag atomically and returns the
	// updated record.
	SetVisibility(ctx context.Context, id string, public bool) (*model.File, error)

	// CountAll returns the total number of file records.
	CountAll(ctx context.Context) (int, error)
}
