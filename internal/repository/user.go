package repository

import (
	"context"

	"filevault/internal/model"
)

// UserRepository defines data access for user credentials using SQL queries only.
// No business logic here, strictly persistence operations.
type UserRepository interface {
	// Create inserts a new user record. Returns ErrDuplicate if the email
	// is already registered.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by its ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail returns a user by its unique email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CountAll returns the total number of registered users.
	CountAll(ctx context.Context) (int, error)
}
