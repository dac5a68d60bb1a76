package repository

import (
	"context"

	"github.com/yukikurage/lost-and-found-api/internal/models"
)

// ItemRepository defines the interface for item data access
type ItemRepository interface {
	// Create inserts a new item
	Create(ctx context.Context, item *models.Item) error

	// FindByID finds an item by ID with its owner loaded
	FindByID(ctx context.Context, id uint64) (*models.Item, error)

	// IncrementViews atomically adds one to an item's view counter
	IncrementViews(ctx context.Context, id uint64) error

	// List retrieves items matching the filter, newest first, with the total match count
	List(ctx context.Context, filter ItemFilter) ([]models.Item, int64, error)

	// UpdateOwned loads the item, checks that callerID owns it, applies fn and
	// writes the result, all in one transaction.
	UpdateOwned(ctx context.Context, id, callerID uint64, fn func(item *models.Item) error) (*models.Item, error)

	// DeleteOwned deletes the item if callerID owns it and returns the deleted row
	DeleteOwned(ctx context.Context, id, callerID uint64) (*models.Item, error)
}

// ItemFilter holds filtering options for listing items.
// Category and Status are case-insensitive partial matches.
type ItemFilter struct {
	Category string
	Status   string
	OwnerID  *uint64
	Page     int
	PageSize int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
