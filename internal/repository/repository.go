package repository

import (
	"context"
	"time"

	"agora-express/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves a user by id. Returns nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByPhone retrieves a user by phone number. Returns nil when not found.
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
}

// CoinRepository defines the interface for the coin ledger.
type CoinRepository interface {
	// GetBalanceForUpdate reads a user's balance inside tx with a row lock.
	// Returns model.ErrUserNotFound if the id does not resolve.
	GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)

	// UpdateBalance writes a user's balance inside tx.
	UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int) error

	// AppendTransaction inserts one ledger entry inside tx.
	AppendTransaction(ctx context.Context, tx pgx.Tx, txn *model.CoinTransaction) error

	// GetBalance reads a user's current balance.
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)

	// ListTransactions returns a user's ledger entries newest-first.
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]model.CoinTransaction, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items. Returns
	// nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// ListByUser retrieves a user's orders newest-first, items nested.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.OrderResponse, error)

	// ListAll retrieves all orders newest-first, optionally filtered by status.
	ListAll(ctx context.Context, status *model.OrderStatus) ([]model.OrderResponse, error)

	// TransitionStatus conditionally moves an order to a new status. The
	// update only applies when the stored version matches; it returns the
	// number of rows affected so the caller can detect a stale version.
	TransitionStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus, version int) (int64, error)

	// AppendStatusHistory records one lifecycle edge within tx.
	AppendStatusHistory(ctx context.Context, tx pgx.Tx, change *model.StatusChange) error

	// MarkPaid stores the gateway receipt against an order.
	MarkPaid(ctx context.Context, id uuid.UUID, transactionID string) error
}

// MenuRepository defines the interface for menu reference data.
type MenuRepository interface {
	// ListItems retrieves all menu items ordered by name.
	ListItems(ctx context.Context) ([]model.MenuItem, error)

	// GetItem retrieves a single menu item. Returns nil when not found.
	GetItem(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)

	// CreateItem inserts a menu item.
	CreateItem(ctx context.Context, item *model.MenuItem) error

	// UpdateItem updates a menu item. Returns rows affected.
	UpdateItem(ctx context.Context, item *model.MenuItem) (int64, error)

	// DeleteItem removes a menu item. Returns rows affected.
	DeleteItem(ctx context.Context, id uuid.UUID) (int64, error)

	// ListCategories retrieves all categories ordered by position.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CreateCategory inserts a category.
	CreateCategory(ctx context.Context, category *model.Category) error

	// UpdateCategory updates a category. Returns rows affected.
	UpdateCategory(ctx context.Context, category *model.Category) (int64, error)

	// DeleteCategory removes a category. Returns rows affected.
	DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error)
}

// LoyaltyRepository defines the interface for stamp cards and gifts.
type LoyaltyRepository interface {
	// CreateCard inserts a new stamp card.
	CreateCard(ctx context.Context, card *model.StampCard) error

	// GetCardByID retrieves a stamp card. Returns nil when not found.
	GetCardByID(ctx context.Context, id uuid.UUID) (*model.StampCard, error)

	// ListCardsByUser retrieves a user's stamp cards newest-first.
	ListCardsByUser(ctx context.Context, userID uuid.UUID) ([]model.StampCard, error)

	// IncrementStamps conditionally bumps collected_stamps by one. The
	// update only applies when the stored version matches; it returns the
	// number of rows affected so the caller can detect a stale version.
	IncrementStamps(ctx context.Context, id uuid.UUID, version int) (int64, error)

	// CreateGift inserts a new gift voucher.
	CreateGift(ctx context.Context, gift *model.Gift) error

	// GetGiftByCode retrieves a gift by its code. Returns nil when not found.
	GetGiftByCode(ctx context.Context, code string) (*model.Gift, error)

	// ListActiveGifts retrieves all active gifts.
	ListActiveGifts(ctx context.Context) ([]model.Gift, error)

	// ListUserGifts retrieves the gifts a user has redeemed.
	ListUserGifts(ctx context.Context, userID uuid.UUID) ([]model.UserGift, error)

	// RedeemGift marks a gift used and records the claiming user. The gift
	// row flips active -> false in the same transaction as the user_gifts
	// insert, making redemption one-way.
	RedeemGift(ctx context.Context, giftID, userID uuid.UUID, usedAt time.Time) error
}
