package repository

import (
	"context"
	"strings"
	"time"

	"github.com/yukikurage/lost-and-found-api/internal/authz"
	"github.com/yukikurage/lost-and-found-api/internal/database"
	"github.com/yukikurage/lost-and-found-api/internal/models"
	"github.com/yukikurage/lost-and-found-api/internal/utils"
	"gorm.io/gorm"
)

// GormItemRepository is a GORM implementation of ItemRepository
type GormItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &GormItemRepository{db: db}
}

// Create inserts a new item
func (r *GormItemRepository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Omit("Owner").Create(item).Error
}

// FindByID finds an item by ID with its owner loaded
func (r *GormItemRepository) FindByID(ctx context.Context, id uint64) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Preload("Owner").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementViews adds one to the view counter in a single UPDATE, so
// concurrent viewers never lose an increment.
func (r *GormItemRepository) IncrementViews(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a case-insensitive substring pattern for use with
// ESCAPE '!', so user input never acts as a wildcard.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// List retrieves items matching the filter
func (r *GormItemRepository) List(ctx context.Context, filter ItemFilter) ([]models.Item, int64, error) {
	var items []models.Item

	query := r.db.WithContext(ctx).Model(&models.Item{})

	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where("LOWER(items.category) LIKE ? ESCAPE '!'", containsPattern(c))
	}
	if s := strings.TrimSpace(filter.Status); s != "" {
		query = query.Where("LOWER(items.status) LIKE ? ESCAPE '!'", containsPattern(s))
	}
	if filter.OwnerID != nil {
		query = query.Where("items.owner_id = ?", *filter.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(database.NewestFirst)
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.Preload("Owner").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// UpdateOwned applies fn to the item inside a transaction. The write is
// conditioned on owner_id as well as id.
func (r *GormItemRepository) UpdateOwned(ctx context.Context, id, callerID uint64, fn func(item *models.Item) error) (*models.Item, error) {
	var item models.Item

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		if err := authz.RequireOwner(item.OwnerID, callerID); err != nil {
			return err
		}
		if err := fn(&item); err != nil {
			return err
		}

		item.UpdatedAt = time.Now()
		result := tx.Model(&models.Item{}).
			Where("id = ? AND owner_id = ?", id, callerID).
			Updates(map[string]interface{}{
				"title":       item.Title,
				"description": item.Description,
				"category":    item.Category,
				"location":    item.Location,
				"status":      item.Status,
				"image_ref":   item.ImageRef,
				"updated_at":  item.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return authz.ErrNotOwner
		}

		return tx.Preload("Owner").First(&item, id).Error
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// DeleteOwned deletes the item if callerID owns it
func (r *GormItemRepository) DeleteOwned(ctx context.Context, id, callerID uint64) (*models.Item, error) {
	var item models.Item

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		if err := authz.RequireOwner(item.OwnerID, callerID); err != nil {
			return err
		}

		result := tx.Where("id = ? AND owner_id = ?", id, callerID).Delete(&models.Item{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return authz.ErrNotOwner
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}
