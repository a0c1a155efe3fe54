package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"agora-express/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, total, status, address, phone, payment_method,
			payment_status, used_coins, earned_coins, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.Total, order.Status, order.Address, order.Phone,
		order.PaymentMethod, order.PaymentStatus, order.UsedCoins, order.EarnedCoins,
		order.Version, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided
// transaction. Customization labels are serialized as a JSON text column.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, menu_item_id, name, unit_price, quantity, customizations)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		customizations, err := json.Marshal(item.Customizations)
		if err != nil {
			return fmt.Errorf("failed to serialize customizations: %w", err)
		}
		batch.Queue(query, item.ID, item.OrderID, item.MenuItemID, item.Name,
			item.UnitPrice, item.Quantity, string(customizations))
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("menu_item_id", items[i].MenuItemID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

const orderColumns = `id, user_id, total, status, address, phone, payment_method,
	payment_status, payment_ref, used_coins, earned_coins, version, created_at, updated_at`

func scanOrder(row pgx.Row, order *model.Order) error {
	return row.Scan(
		&order.ID,
		&order.UserID,
		&order.Total,
		&order.Status,
		&order.Address,
		&order.Phone,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.PaymentRef,
		&order.UsedCoins,
		&order.EarnedCoins,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id), &order)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.queryItems(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, nil, err
	}

	return &order, items[id], nil
}

// ListByUser retrieves a user's orders newest-first, items nested.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.OrderResponse, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.listOrders(ctx, query, userID)
}

// ListAll retrieves all orders newest-first, optionally filtered by status.
func (r *orderRepository) ListAll(ctx context.Context, status *model.OrderStatus) ([]model.OrderResponse, error) {
	if status != nil {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC`
		return r.listOrders(ctx, query, *status)
	}
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.listOrders(ctx, query)
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]model.OrderResponse, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.OrderResponse
	var ids []uuid.UUID
	for rows.Next() {
		var order model.Order
		if err := scanOrder(rows, &order); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, model.OrderResponse{Order: order})
		ids = append(ids, order.ID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	itemsByOrder, err := r.queryItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}

	return orders, nil
}

// queryItems fetches the items for a set of orders, keyed by order id.
// Customizations come back as JSON text and are deserialized here.
func (r *orderRepository) queryItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	query := `
		SELECT id, order_id, menu_item_id, name, unit_price, quantity, customizations
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var item model.OrderItem
		var customizations string
		err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name,
			&item.UnitPrice, &item.Quantity, &customizations)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if err := json.Unmarshal([]byte(customizations), &item.Customizations); err != nil {
			r.logger.Error().Err(err).Str("order_id", item.OrderID.String()).Msg("failed to deserialize customizations")
			return nil, fmt.Errorf("failed to deserialize customizations: %w", err)
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return itemsByOrder, nil
}

// TransitionStatus conditionally moves an order to a new status. The WHERE
// clause pins both the expected current status and the version, so a stale
// admin update affects zero rows instead of silently winning.
func (r *orderRepository) TransitionStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus, version int) (int64, error) {
	query := `
		UPDATE orders
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND version = $4
	`

	tag, err := tx.Exec(ctx, query, id, from, to, version)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("to_status", string(to)).
			Msg("failed to transition order status")
		return 0, fmt.Errorf("failed to transition order status: %w", err)
	}

	return tag.RowsAffected(), nil
}

// AppendStatusHistory records one lifecycle edge within tx.
func (r *orderRepository) AppendStatusHistory(ctx context.Context, tx pgx.Tx, change *model.StatusChange) error {
	query := `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query,
		change.ID, change.OrderID, change.FromStatus, change.ToStatus, change.ChangedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", change.OrderID.String()).
			Msg("failed to append status history")
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return nil
}

// MarkPaid stores the gateway receipt against an order.
func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, transactionID string) error {
	query := `
		UPDATE orders
		SET payment_status = $2, payment_ref = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, model.PaymentStatusPaid, transactionID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order paid")
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("transaction_id", transactionID).
		Msg("order marked paid")

	return nil
}
