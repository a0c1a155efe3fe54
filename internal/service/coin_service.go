package service

import (
	"context"
	"fmt"

	"agora-express/internal/model"
	"agora-express/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// coinService implements CoinService. Writes to the ledger happen only
// through order submission; this service is read-only by design.
type coinService struct {
	coinRepo repository.CoinRepository
	logger   zerolog.Logger
}

// NewCoinService creates a new coin ledger read service.
func NewCoinService(coinRepo repository.CoinRepository, logger zerolog.Logger) CoinService {
	return &coinService{
		coinRepo: coinRepo,
		logger:   logger.With().Str("service", "coin").Logger(),
	}
}

// GetBalance returns the caller's current coin balance.
func (s *coinService) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	balance, err := s.coinRepo.GetBalance(ctx, userID)
	if err != nil {
		if err == model.ErrUserNotFound {
			return 0, err
		}
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get balance")
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// ListTransactions returns the caller's ledger history newest-first.
func (s *coinService) ListTransactions(ctx context.Context, userID uuid.UUID) ([]model.CoinTransaction, error) {
	txns, err := s.coinRepo.ListTransactions(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list transactions")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}
