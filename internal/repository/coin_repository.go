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

// coinRepository implements the CoinRepository interface using PostgreSQL.
type coinRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCoinRepository creates a new PostgreSQL-backed coin ledger repository.
func NewCoinRepository(pool *pgxpool.Pool, logger zerolog.Logger) CoinRepository {
	return &coinRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coin").Logger(),
	}
}

// GetBalanceForUpdate reads a user's balance inside tx with a row lock. The
// lock holds until the surrounding transaction commits or rolls back, so the
// read-modify-write on the balance cannot interleave with another request.
func (r *coinRepository) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	query := `
		SELECT coin_balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`

	var balance int
	err := tx.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("user_id", userID.String()).Msg("user not found for balance update")
			return 0, model.ErrUserNotFound
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to lock balance row")
		return 0, fmt.Errorf("failed to lock balance row: %w", err)
	}

	return balance, nil
}

// UpdateBalance writes a user's balance inside tx.
func (r *coinRepository) UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int) error {
	query := `
		UPDATE users
		SET coin_balance = $2
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, userID, balance)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to update balance")
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}

	r.logger.Debug().
		Str("user_id", userID.String()).
		Int("balance", balance).
		Msg("balance updated")

	return nil
}

// AppendTransaction inserts one ledger entry inside tx.
func (r *coinRepository) AppendTransaction(ctx context.Context, tx pgx.Tx, txn *model.CoinTransaction) error {
	query := `
		INSERT INTO coin_transactions (id, user_id, order_id, direction, used_coins, earned_coins, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		txn.ID, txn.UserID, txn.OrderID, txn.Direction, txn.UsedCoins, txn.EarnedCoins, txn.Balance, txn.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", txn.UserID.String()).
			Msg("failed to append coin transaction")
		return fmt.Errorf("failed to append coin transaction: %w", err)
	}

	return nil
}

// GetBalance reads a user's current balance.
func (r *coinRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT coin_balance
		FROM users
		WHERE id = $1
	`

	var balance int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, model.ErrUserNotFound
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query balance")
		return 0, fmt.Errorf("failed to query balance: %w", err)
	}

	return balance, nil
}

// ListTransactions returns a user's ledger entries newest-first.
func (r *coinRepository) ListTransactions(ctx context.Context, userID uuid.UUID) ([]model.CoinTransaction, error) {
	query := `
		SELECT id, user_id, order_id, direction, used_coins, earned_coins, balance, created_at
		FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query coin transactions")
		return nil, fmt.Errorf("failed to query coin transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.CoinTransaction
	for rows.Next() {
		var txn model.CoinTransaction
		err := rows.Scan(&txn.ID, &txn.UserID, &txn.OrderID, &txn.Direction, &txn.UsedCoins, &txn.EarnedCoins, &txn.Balance, &txn.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coin transaction row")
			return nil, fmt.Errorf("failed to scan coin transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coin transaction rows")
		return nil, fmt.Errorf("error iterating coin transactions: %w", err)
	}

	return txns, nil
}
