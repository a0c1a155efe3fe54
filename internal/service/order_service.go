package service

import (
	"context"
	"fmt"
	"time"

	"agora-express/internal/model"
	"agora-express/internal/payment"
	"agora-express/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	coinRepo  repository.CoinRepository
	gateway   payment.Gateway
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	coinRepo repository.CoinRepository,
	gateway payment.Gateway,
	validate *validator.Validate,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		coinRepo:  coinRepo,
		gateway:   gateway,
		validate:  validate,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder atomically persists an order, its line items, and any coin
// ledger updates. This is the one transactional boundary in the system:
// the order insert, item inserts, balance update, and ledger append either
// all commit or all roll back.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (uuid.UUID, error) {
	if req == nil {
		return uuid.Nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Order request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return uuid.Nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return uuid.Nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := time.Now()
	order := &model.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Total:         req.Total,
		Status:        model.OrderStatusNew,
		Address:       req.Address,
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
		UsedCoins:     req.UsedCoins,
		EarnedCoins:   req.EarnedCoins,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return uuid.Nil, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = model.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			MenuItemID:     item.MenuItemID,
			Name:           item.Name,
			UnitPrice:      item.UnitPrice,
			Quantity:       item.Quantity,
			Customizations: item.Customizations,
		}
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return uuid.Nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if req.UsedCoins > 0 || req.EarnedCoins > 0 {
		if err = s.applyCoins(ctx, tx, order); err != nil {
			return uuid.Nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return uuid.Nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Int("item_count", len(items)).
		Int("used_coins", req.UsedCoins).
		Int("earned_coins", req.EarnedCoins).
		Msg("order created successfully")

	return order.ID, nil
}

// applyCoins performs the ledger side of order submission inside tx: reads
// the balance under a row lock, rejects overdrafts, writes the new balance,
// and appends exactly one ledger entry referencing the order.
func (s *orderService) applyCoins(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	balance, err := s.coinRepo.GetBalanceForUpdate(ctx, tx, order.UserID)
	if err != nil {
		return err
	}

	if order.UsedCoins > balance {
		s.logger.Warn().
			Str("user_id", order.UserID.String()).
			Int("used_coins", order.UsedCoins).
			Int("balance", balance).
			Msg("coins to spend exceed balance")
		return model.ErrInsufficientCoins
	}

	newBalance := balance - order.UsedCoins + order.EarnedCoins

	if err := s.coinRepo.UpdateBalance(ctx, tx, order.UserID, newBalance); err != nil {
		return err
	}

	direction := model.CoinDirectionEarned
	if order.UsedCoins > order.EarnedCoins {
		direction = model.CoinDirectionUsed
	}

	orderID := order.ID
	txn := &model.CoinTransaction{
		ID:          uuid.New(),
		UserID:      order.UserID,
		OrderID:     &orderID,
		Direction:   direction,
		UsedCoins:   order.UsedCoins,
		EarnedCoins: order.EarnedCoins,
		Balance:     newBalance,
		CreatedAt:   time.Now(),
	}

	if err := s.coinRepo.AppendTransaction(ctx, tx, txn); err != nil {
		return err
	}

	s.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("balance", newBalance).
		Msg("coin ledger updated")

	return nil
}

// ListByUser retrieves the caller's orders with nested items.
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.OrderResponse, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListAll retrieves all orders, optionally filtered by status.
func (s *orderService) ListAll(ctx context.Context, status *model.OrderStatus) ([]model.OrderResponse, error) {
	if status != nil && !status.Valid() {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Unknown order status")
	}

	orders, err := s.orderRepo.ListAll(ctx, status)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list all orders")
		return nil, fmt.Errorf("failed to list all orders: %w", err)
	}
	return orders, nil
}

// TransitionStatus moves an order along the lifecycle state machine. The
// update is conditional on the version the admin saw; a stale version
// surfaces as a conflict instead of silently overwriting.
func (s *orderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, req *model.StatusUpdateRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidArgument, "Status update request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return err
	}
	if !req.Status.Valid() {
		return model.NewDomainError(model.ErrCodeInvalidArgument, "Unknown order status")
	}

	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to load order")
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	if !order.Status.CanTransitionTo(req.Status) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("from", string(order.Status)).
			Str("to", string(req.Status)).
			Msg("status transition not allowed")
		return model.ErrInvalidTransition
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to transition status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	affected, err := s.orderRepo.TransitionStatus(ctx, tx, orderID, order.Status, req.Status, req.Version)
	if err != nil {
		return fmt.Errorf("failed to transition status: %w", err)
	}
	if affected == 0 {
		err = model.ErrStaleVersion
		return err
	}

	change := &model.StatusChange{
		ID:         uuid.New(),
		OrderID:    orderID,
		FromStatus: order.Status,
		ToStatus:   req.Status,
		ChangedAt:  time.Now(),
	}
	if err = s.orderRepo.AppendStatusHistory(ctx, tx, change); err != nil {
		return fmt.Errorf("failed to transition status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transition")
		return fmt.Errorf("failed to transition status: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(order.Status)).
		Str("to", string(req.Status)).
		Msg("order status transitioned")

	return nil
}

// ProcessPayment charges the caller's order through the gateway and marks
// it paid with the gateway's transaction id.
func (s *orderService) ProcessPayment(ctx context.Context, userID uuid.UUID, req *model.PaymentRequest) (*model.PaymentResponse, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Payment request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	order, _, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", req.OrderID.String()).Msg("failed to load order")
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, model.ErrForbidden
	}

	receipt, err := s.gateway.Charge(ctx, order.ID, order.Total)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("gateway charge failed")
		return nil, fmt.Errorf("gateway charge failed: %w", err)
	}

	if err := s.orderRepo.MarkPaid(ctx, order.ID, receipt.TransactionID); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("transaction_id", receipt.TransactionID).
		Msg("payment processed")

	return &model.PaymentResponse{
		OrderID:       order.ID,
		TransactionID: receipt.TransactionID,
		PaymentStatus: model.PaymentStatusPaid,
	}, nil
}
