package service

import (
	"context"
	"errors"

	"agora-express/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// UserService defines registration and login operations.
type UserService interface {
	// Register creates a new user account and issues a token.
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)

	// Login verifies credentials and issues a token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
}

// MenuService defines operations for menu reference data.
type MenuService interface {
	// ListItems retrieves all menu items.
	ListItems(ctx context.Context) ([]model.MenuItem, error)

	// GetItem retrieves a single menu item by ID.
	GetItem(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)

	// ListCategories retrieves all categories.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CreateItem creates a menu item (admin).
	CreateItem(ctx context.Context, req *model.MenuItemRequest) (*model.MenuItem, error)

	// UpdateItem updates a menu item (admin).
	UpdateItem(ctx context.Context, id uuid.UUID, req *model.MenuItemRequest) (*model.MenuItem, error)

	// DeleteItem removes a menu item (admin).
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// CreateCategory creates a category (admin).
	CreateCategory(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)

	// UpdateCategory updates a category (admin).
	UpdateCategory(ctx context.Context, id uuid.UUID, req *model.CategoryRequest) (*model.Category, error)

	// DeleteCategory removes a category (admin).
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// OrderService defines the order submission and lifecycle operations.
type OrderService interface {
	// CreateOrder atomically persists an order, its items, and any coin
	// ledger updates, returning the new order's identifier.
	CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (uuid.UUID, error)

	// ListByUser retrieves the caller's orders with nested items.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.OrderResponse, error)

	// ListAll retrieves all orders, optionally filtered by status (admin).
	ListAll(ctx context.Context, status *model.OrderStatus) ([]model.OrderResponse, error)

	// TransitionStatus moves an order along its lifecycle (admin).
	TransitionStatus(ctx context.Context, orderID uuid.UUID, req *model.StatusUpdateRequest) error

	// ProcessPayment charges the caller's order through the payment
	// gateway and marks it paid.
	ProcessPayment(ctx context.Context, userID uuid.UUID, req *model.PaymentRequest) (*model.PaymentResponse, error)
}

// CoinService defines read access to the coin ledger.
type CoinService interface {
	// GetBalance returns the caller's current coin balance.
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)

	// ListTransactions returns the caller's ledger history newest-first.
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]model.CoinTransaction, error)
}

// LoyaltyService defines stamp card and gift operations.
type LoyaltyService interface {
	// ActivateCard creates a stamp card from the configured template.
	ActivateCard(ctx context.Context, userID uuid.UUID, req *model.ActivateCardRequest) (*model.StampCard, error)

	// ListCards retrieves the caller's stamp cards.
	ListCards(ctx context.Context, userID uuid.UUID) ([]model.StampCard, error)

	// AddStamp validates a one-time code and adds exactly one stamp to the
	// caller's card, returning any reward stage hit exactly.
	AddStamp(ctx context.Context, userID, cardID uuid.UUID, req *model.AddStampRequest) (*model.AddStampResponse, error)

	// ListGifts retrieves all active gifts.
	ListGifts(ctx context.Context) ([]model.Gift, error)

	// ListUserGifts retrieves the caller's redeemed gifts.
	ListUserGifts(ctx context.Context, userID uuid.UUID) ([]model.UserGift, error)

	// RedeemGift claims a gift by code for the caller.
	RedeemGift(ctx context.Context, userID uuid.UUID, req *model.RedeemGiftRequest) error

	// CreateGift issues a new gift voucher with a generated code (admin).
	CreateGift(ctx context.Context, req *model.CreateGiftRequest) (*model.Gift, error)
}

// validateRequest runs struct-tag validation and converts failures into the
// invalid-argument domain error so handlers map them to 400.
func validateRequest(validate *validator.Validate, req any) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.NewDomainError(model.ErrCodeInvalidArgument, "Invalid field: "+verrs[0].Field())
		}
		return model.NewDomainError(model.ErrCodeInvalidArgument, "Invalid request")
	}
	return nil
}
