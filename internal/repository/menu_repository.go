package repository

import (
	"context"
	"fmt"

	"agora-express/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// menuRepository implements the MenuRepository interface using PostgreSQL.
type menuRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMenuRepository creates a new PostgreSQL-backed menu repository.
func NewMenuRepository(pool *pgxpool.Pool, logger zerolog.Logger) MenuRepository {
	return &menuRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "menu").Logger(),
	}
}

// ListItems retrieves all menu items ordered by name.
func (r *menuRepository) ListItems(ctx context.Context) ([]model.MenuItem, error) {
	query := `
		SELECT id, category_id, name, description, price, image_url, available, created_at, updated_at
		FROM menu_items
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query menu items")
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var item model.MenuItem
		err := rows.Scan(&item.ID, &item.CategoryID, &item.Name, &item.Description,
			&item.Price, &item.ImageURL, &item.Available, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan menu item row")
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating menu item rows")
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}

// GetItem retrieves a single menu item by its ID.
func (r *menuRepository) GetItem(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	query := `
		SELECT id, category_id, name, description, price, image_url, available, created_at, updated_at
		FROM menu_items
		WHERE id = $1
	`

	var item model.MenuItem
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.CategoryID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.ImageURL,
		&item.Available,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("menu_item_id", id.String()).Msg("menu item not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("menu_item_id", id.String()).Msg("failed to query menu item")
		return nil, fmt.Errorf("failed to query menu item: %w", err)
	}

	return &item, nil
}

// CreateItem inserts a menu item.
func (r *menuRepository) CreateItem(ctx context.Context, item *model.MenuItem) error {
	query := `
		INSERT INTO menu_items (id, category_id, name, description, price, image_url, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		item.ID, item.CategoryID, item.Name, item.Description,
		item.Price, item.ImageURL, item.Available, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("menu_item_id", item.ID.String()).Msg("failed to create menu item")
		return fmt.Errorf("failed to create menu item: %w", err)
	}

	return nil
}

// UpdateItem updates a menu item.
func (r *menuRepository) UpdateItem(ctx context.Context, item *model.MenuItem) (int64, error) {
	query := `
		UPDATE menu_items
		SET category_id = $2, name = $3, description = $4, price = $5,
			image_url = $6, available = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		item.ID, item.CategoryID, item.Name, item.Description,
		item.Price, item.ImageURL, item.Available, item.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("menu_item_id", item.ID.String()).Msg("failed to update menu item")
		return 0, fmt.Errorf("failed to update menu item: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteItem removes a menu item.
func (r *menuRepository) DeleteItem(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("menu_item_id", id.String()).Msg("failed to delete menu item")
		return 0, fmt.Errorf("failed to delete menu item: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListCategories retrieves all categories ordered by position.
func (r *menuRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	query := `
		SELECT id, name, position
		FROM categories
		ORDER BY position, name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Position); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category row")
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating category rows")
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// CreateCategory inserts a category.
func (r *menuRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (id, name, position)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, category.ID, category.Name, category.Position)
	if err != nil {
		r.logger.Error().Err(err).Str("category_id", category.ID.String()).Msg("failed to create category")
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// UpdateCategory updates a category.
func (r *menuRepository) UpdateCategory(ctx context.Context, category *model.Category) (int64, error) {
	query := `
		UPDATE categories
		SET name = $2, position = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, category.ID, category.Name, category.Position)
	if err != nil {
		r.logger.Error().Err(err).Str("category_id", category.ID.String()).Msg("failed to update category")
		return 0, fmt.Errorf("failed to update category: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteCategory removes a category.
func (r *menuRepository) DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("category_id", id.String()).Msg("failed to delete category")
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}

	return tag.RowsAffected(), nil
}
