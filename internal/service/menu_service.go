package service

import (
	"context"
	"fmt"
	"time"

	"agora-express/internal/model"
	"agora-express/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// menuService implements MenuService.
type menuService struct {
	menuRepo repository.MenuRepository
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewMenuService creates a new menu service.
func NewMenuService(menuRepo repository.MenuRepository, validate *validator.Validate, logger zerolog.Logger) MenuService {
	return &menuService{
		menuRepo: menuRepo,
		validate: validate,
		logger:   logger.With().Str("service", "menu").Logger(),
	}
}

// ListItems retrieves all menu items.
func (s *menuService) ListItems(ctx context.Context) ([]model.MenuItem, error) {
	items, err := s.menuRepo.ListItems(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list menu items")
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

// GetItem retrieves a single menu item by ID.
func (s *menuService) GetItem(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	item, err := s.menuRepo.GetItem(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("menu_item_id", id.String()).Msg("failed to get menu item")
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	if item == nil {
		return nil, model.ErrMenuItemNotFound
	}
	return item, nil
}

// ListCategories retrieves all categories.
func (s *menuService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.menuRepo.ListCategories(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateItem creates a menu item.
func (s *menuService) CreateItem(ctx context.Context, req *model.MenuItemRequest) (*model.MenuItem, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Menu item request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &model.MenuItem{
		ID:          uuid.New(),
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Available:   req.Available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.menuRepo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}

	s.logger.Info().Str("menu_item_id", item.ID.String()).Msg("menu item created")

	return item, nil
}

// UpdateItem updates a menu item.
func (s *menuService) UpdateItem(ctx context.Context, id uuid.UUID, req *model.MenuItemRequest) (*model.MenuItem, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Menu item request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	item := &model.MenuItem{
		ID:          id,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Available:   req.Available,
		UpdatedAt:   time.Now(),
	}

	affected, err := s.menuRepo.UpdateItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	if affected == 0 {
		return nil, model.ErrMenuItemNotFound
	}

	return item, nil
}

// DeleteItem removes a menu item.
func (s *menuService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	affected, err := s.menuRepo.DeleteItem(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if affected == 0 {
		return model.ErrMenuItemNotFound
	}

	s.logger.Info().Str("menu_item_id", id.String()).Msg("menu item deleted")

	return nil
}

// CreateCategory creates a category.
func (s *menuService) CreateCategory(ctx context.Context, req *model.CategoryRequest) (*model.Category, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Category request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	category := &model.Category{
		ID:       uuid.New(),
		Name:     req.Name,
		Position: req.Position,
	}

	if err := s.menuRepo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// UpdateCategory updates a category.
func (s *menuService) UpdateCategory(ctx context.Context, id uuid.UUID, req *model.CategoryRequest) (*model.Category, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Category request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	category := &model.Category{
		ID:       id,
		Name:     req.Name,
		Position: req.Position,
	}

	affected, err := s.menuRepo.UpdateCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	if affected == 0 {
		return nil, model.ErrCategoryNotFound
	}

	return category, nil
}

// DeleteCategory removes a category.
func (s *menuService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	affected, err := s.menuRepo.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if affected == 0 {
		return model.ErrCategoryNotFound
	}

	return nil
}
