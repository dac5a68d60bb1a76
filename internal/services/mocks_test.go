package services_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/yukikurage/lost-and-found-api/internal/models"
	"github.com/yukikurage/lost-and-found-api/internal/repository"
)

// MockItemRepository is a mock implementation of repository.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id uint64) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) IncrementViews(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemRepository) List(ctx context.Context, filter repository.ItemFilter) ([]models.Item, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Item), args.Get(1).(int64), args.Error(2)
}

func (m *MockItemRepository) UpdateOwned(ctx context.Context, id, callerID uint64, fn func(item *models.Item) error) (*models.Item, error) {
	args := m.Called(ctx, id, callerID, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) DeleteOwned(ctx context.Context, id, callerID uint64) (*models.Item, error) {
	args := m.Called(ctx, id, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

// MockFileStore is a mock implementation of services.FileStore
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Store(r io.Reader, filename string) (string, error) {
	args := m.Called(r, filename)
	return args.String(0), args.Error(1)
}

func (m *MockFileStore) Remove(ref string) error {
	args := m.Called(ref)
	return args.Error(0)
}

// MockSuggester is a mock implementation of services.CategorySuggester
type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) SuggestCategory(ctx context.Context, title, description string) (string, error) {
	args := m.Called(ctx, title, description)
	return args.String(0), args.Error(1)
}
