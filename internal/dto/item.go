package dto

import (
	"time"

	"github.com/yukikurage/lost-and-found-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID                   uint64    `json:"id"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	Role                 string    `json:"role"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
}

// ItemDTO represents an item in API responses
type ItemDTO struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Location    string            `json:"location"`
	Status      models.ItemStatus `json:"status"`
	ImageURL    *string           `json:"image_url"`
	Views       uint64            `json:"views"`
	DatePosted  time.Time         `json:"date_posted"`
	UserID      uint64            `json:"user_id"`
	Username    string            `json:"username"`
}

// LoginResponse is returned by a successful token login
type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// ImageResolver turns a stored image reference into a public URL
type ImageResolver func(ref *string) *string

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:                   user.ID,
		Username:             user.Username,
		Email:                user.Email,
		Role:                 user.Role,
		NotificationsEnabled: user.NotificationsEnabled,
		CreatedAt:            user.CreatedAt,
	}
}

// ToItemDTO converts an Item model to ItemDTO. The owner must be loaded for
// the username to be filled in.
func ToItemDTO(item models.Item, resolve ImageResolver) ItemDTO {
	var imageURL *string
	if resolve != nil {
		imageURL = resolve(item.ImageRef)
	}
	return ItemDTO{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		Status:      item.Status,
		ImageURL:    imageURL,
		Views:       item.Views,
		DatePosted:  item.CreatedAt.UTC(),
		UserID:      item.OwnerID,
		Username:    item.Owner.Username,
	}
}

// ToItemDTOs converts a slice of items
func ToItemDTOs(items []models.Item, resolve ImageResolver) []ItemDTO {
	result := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		result = append(result, ToItemDTO(item, resolve))
	}
	return result
}
