// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlstore);
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/avasilyev/commentboard/internal/model"
)

// UserRepository persists user accounts keyed by their external identity.
type UserRepository interface {
	// FindOrCreate resolves an external identity to a user row, inserting
	// one on first login. The passed user carries provider, provider user ID,
	// name and email; on return it reflects the canonical stored row (the
	// existing one if this identity has logged in before). Must never produce
	// two rows for the same (provider, provider_user_id), even under
	// concurrent first logins.
	FindOrCreate(ctx context.Context, user *model.User) error

	// GetByID retrieves a user by internal ID.
	// Returns apperror.ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// CommentRepository persists comments.
type CommentRepository interface {
	// Create inserts a comment, filling in ID and CreatedAt.
	// The owning user must exist — the foreign key rejects orphans.
	Create(ctx context.Context, comment *model.Comment) error

	// List returns all comments newest first, with Author populated
	// from the owning user's display name.
	List(ctx context.Context) ([]model.Comment, error)
}
