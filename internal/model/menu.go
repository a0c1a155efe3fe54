package model

import (
	"time"

	"github.com/google/uuid"
)

// Category groups menu items on the storefront.
type Category struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Position int       `json:"position" db:"position"`
}

// MenuItem represents a purchasable item on the menu.
type MenuItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CategoryID  uuid.UUID `json:"categoryId" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	Available   bool      `json:"available" db:"available"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// MenuItemRequest represents the admin payload for creating or updating a menu item.
type MenuItemRequest struct {
	CategoryID  uuid.UUID `json:"categoryId" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price" validate:"gte=0"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url"`
	Available   bool      `json:"available"`
}

// CategoryRequest represents the admin payload for creating or updating a category.
type CategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}
