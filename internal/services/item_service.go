package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/yukikurage/lost-and-found-api/internal/authz"
	"github.com/yukikurage/lost-and-found-api/internal/models"
	"github.com/yukikurage/lost-and-found-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title must be at most 100 characters")
	ErrLocationTooLong = errors.New("location must be at most 100 characters")
	ErrInvalidStatus   = errors.New("status must be one of lost, found, returned")
)

const (
	maxTitleLength    = 100
	maxLocationLength = 100
	maxCategoryLength = 50
)

// FileStore persists uploaded files and removes them again.
type FileStore interface {
	Store(r io.Reader, filename string) (string, error)
	Remove(ref string) error
}

// FileUpload is an uploaded file as received from the client.
type FileUpload struct {
	Filename string
	Content  io.Reader
}

// ItemService handles item business logic
type ItemService struct {
	itemRepo  repository.ItemRepository
	files     FileStore
	suggester CategorySuggester
}

// NewItemService creates a new ItemService. suggester may be nil.
func NewItemService(itemRepo repository.ItemRepository, files FileStore, suggester CategorySuggester) *ItemService {
	return &ItemService{
		itemRepo:  itemRepo,
		files:     files,
		suggester: suggester,
	}
}

// CreateItemInput represents input for reporting an item
type CreateItemInput struct {
	OwnerID     uint64
	Title       string
	Description string
	Category    string
	Location    string
	Status      string
	Image       *FileUpload
}

// UpdateItemInput represents a partial update; nil fields are left unchanged
type UpdateItemInput struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
	Status      *string
	Image       *FileUpload
}

// ListItemsInput represents filters for listing items
type ListItemsInput struct {
	Category string
	Status   string
	OwnerID  *uint64
	Page     int
	PageSize int
}

// CreateItem validates the input, stores the image if any and records the item.
func (s *ItemService) CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	location := strings.TrimSpace(input.Location)
	if len([]rune(location)) > maxLocationLength {
		return nil, ErrLocationTooLong
	}

	status := models.ItemStatusLost
	if strings.TrimSpace(input.Status) != "" {
		parsed, ok := models.ParseItemStatus(input.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		status = parsed
	}

	description := strings.TrimSpace(input.Description)
	category := normalizeCategory(input.Category)
	if category == "" && s.suggester != nil {
		suggested, err := s.suggester.SuggestCategory(ctx, title, description)
		if err != nil {
			slog.WarnContext(ctx, "category suggestion failed", "error", err)
		} else {
			category = suggested
		}
	}

	var imageRef *string
	if input.Image != nil {
		ref, err := s.files.Store(input.Image.Content, input.Image.Filename)
		if err != nil {
			return nil, err
		}
		imageRef = &ref
	}

	item := &models.Item{
		Title:       title,
		Description: description,
		Category:    category,
		Location:    location,
		Status:      status,
		ImageRef:    imageRef,
		OwnerID:     input.OwnerID,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		if imageRef != nil {
			s.removeFile(ctx, *imageRef)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return s.GetItem(ctx, item.ID)
}

// GetItem returns an item without side effects.
func (s *ItemService) GetItem(ctx context.Context, id uint64) (*models.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return item, nil
}

// ViewItem counts a detail view and returns the item.
func (s *ItemService) ViewItem(ctx context.Context, id uint64) (*models.Item, error) {
	if err := s.itemRepo.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to record view: %w", err)
	}
	return s.GetItem(ctx, id)
}

// ListItems returns items matching the filters, newest first.
func (s *ItemService) ListItems(ctx context.Context, input ListItemsInput) ([]models.Item, int64, error) {
	items, total, err := s.itemRepo.List(ctx, repository.ItemFilter{
		Category: input.Category,
		Status:   input.Status,
		OwnerID:  input.OwnerID,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	return items, total, nil
}

// UpdateItem applies a partial update on behalf of callerID, who must own the item.
func (s *ItemService) UpdateItem(ctx context.Context, id, callerID uint64, input UpdateItemInput) (*models.Item, error) {
	// Anonymous callers never own anything.
	if callerID == 0 {
		return nil, authz.ErrNotOwner
	}

	// Input is checked inside the callback so that a missing item or a
	// foreign owner is reported before anything about the payload.
	var newRef, oldRef *string
	var inputErr error
	item, err := s.itemRepo.UpdateOwned(ctx, id, callerID, func(item *models.Item) error {
		if inputErr = validateUpdate(input); inputErr != nil {
			return inputErr
		}
		if input.Image != nil {
			ref, err := s.files.Store(input.Image.Content, input.Image.Filename)
			if err != nil {
				inputErr = err
				return err
			}
			newRef = &ref
		}

		if input.Title != nil {
			item.Title = strings.TrimSpace(*input.Title)
		}
		if input.Description != nil {
			item.Description = strings.TrimSpace(*input.Description)
		}
		if input.Category != nil {
			item.Category = normalizeCategory(*input.Category)
		}
		if input.Location != nil {
			item.Location = strings.TrimSpace(*input.Location)
		}
		if input.Status != nil {
			item.Status, _ = models.ParseItemStatus(*input.Status)
		}
		if newRef != nil {
			oldRef = item.ImageRef
			item.ImageRef = newRef
		}
		return nil
	})
	if err != nil {
		if newRef != nil {
			s.removeFile(ctx, *newRef)
		}
		switch {
		case inputErr != nil:
			return nil, inputErr
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrItemNotFound
		case errors.Is(err, authz.ErrNotOwner):
			return nil, err
		default:
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
	}

	if oldRef != nil && *oldRef != "" {
		s.removeFile(ctx, *oldRef)
	}

	return item, nil
}

func validateUpdate(input UpdateItemInput) error {
	if input.Title != nil {
		if _, err := normalizeTitle(*input.Title); err != nil {
			return err
		}
	}
	if input.Status != nil {
		if _, ok := models.ParseItemStatus(*input.Status); !ok {
			return ErrInvalidStatus
		}
	}
	if input.Location != nil && len([]rune(strings.TrimSpace(*input.Location))) > maxLocationLength {
		return ErrLocationTooLong
	}
	return nil
}

// UpdateStatus changes only the status of an item.
func (s *ItemService) UpdateStatus(ctx context.Context, id, callerID uint64, status string) (*models.Item, error) {
	return s.UpdateItem(ctx, id, callerID, UpdateItemInput{Status: &status})
}

// DeleteItem removes an item owned by callerID and its stored image.
func (s *ItemService) DeleteItem(ctx context.Context, id, callerID uint64) error {
	item, err := s.itemRepo.DeleteOwned(ctx, id, callerID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrItemNotFound
		case errors.Is(err, authz.ErrNotOwner):
			return err
		default:
			return fmt.Errorf("failed to delete item: %w", err)
		}
	}

	if item.ImageRef != nil && *item.ImageRef != "" {
		s.removeFile(ctx, *item.ImageRef)
	}
	return nil
}

func (s *ItemService) removeFile(ctx context.Context, ref string) {
	if err := s.files.Remove(ref); err != nil {
		slog.WarnContext(ctx, "failed to remove stored file", "ref", ref, "error", err)
	}
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if len([]rune(title)) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func normalizeCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if r := []rune(c); len(r) > maxCategoryLength {
		c = string(r[:maxCategoryLength])
	}
	return c
}
