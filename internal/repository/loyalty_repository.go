package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agora-express/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// loyaltyRepository implements the LoyaltyRepository interface using PostgreSQL.
type loyaltyRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewLoyaltyRepository creates a new PostgreSQL-backed loyalty repository.
func NewLoyaltyRepository(pool *pgxpool.Pool, logger zerolog.Logger) LoyaltyRepository {
	return &loyaltyRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "loyalty").Logger(),
	}
}

// CreateCard inserts a new stamp card. Reward stages are serialized as a
// JSON text column.
func (r *loyaltyRepository) CreateCard(ctx context.Context, card *model.StampCard) error {
	stages, err := json.Marshal(card.RewardStages)
	if err != nil {
		return fmt.Errorf("failed to serialize reward stages: %w", err)
	}

	query := `
		INSERT INTO stamp_cards (id, user_id, card_number, total_stamps, collected_stamps,
			reward_stages, active, expires_at, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		card.ID, card.UserID, card.CardNumber, card.TotalStamps, card.CollectedStamps,
		string(stages), card.Active, card.ExpiresAt, card.Version, card.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("card_number", card.CardNumber).
			Msg("failed to create stamp card")
		return fmt.Errorf("failed to create stamp card: %w", err)
	}

	r.logger.Debug().
		Str("card_id", card.ID.String()).
		Str("card_number", card.CardNumber).
		Msg("stamp card created")

	return nil
}

const cardColumns = `id, user_id, card_number, total_stamps, collected_stamps,
	reward_stages, active, expires_at, version, created_at`

func scanCard(row pgx.Row, card *model.StampCard) error {
	var stages string
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.CardNumber,
		&card.TotalStamps,
		&card.CollectedStamps,
		&stages,
		&card.Active,
		&card.ExpiresAt,
		&card.Version,
		&card.CreatedAt,
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stages), &card.RewardStages); err != nil {
		return fmt.Errorf("failed to deserialize reward stages: %w", err)
	}
	return nil
}

// GetCardByID retrieves a stamp card by its ID.
func (r *loyaltyRepository) GetCardByID(ctx context.Context, id uuid.UUID) (*model.StampCard, error) {
	query := `SELECT ` + cardColumns + ` FROM stamp_cards WHERE id = $1`

	var card model.StampCard
	err := scanCard(r.pool.QueryRow(ctx, query, id), &card)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("card_id", id.String()).Msg("stamp card not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("card_id", id.String()).Msg("failed to query stamp card")
		return nil, fmt.Errorf("failed to query stamp card: %w", err)
	}

	return &card, nil
}

// ListCardsByUser retrieves a user's stamp cards newest-first.
func (r *loyaltyRepository) ListCardsByUser(ctx context.Context, userID uuid.UUID) ([]model.StampCard, error) {
	query := `SELECT ` + cardColumns + ` FROM stamp_cards WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query stamp cards")
		return nil, fmt.Errorf("failed to query stamp cards: %w", err)
	}
	defer rows.Close()

	var cards []model.StampCard
	for rows.Next() {
		var card model.StampCard
		if err := scanCard(rows, &card); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan stamp card row")
			return nil, fmt.Errorf("failed to scan stamp card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating stamp card rows")
		return nil, fmt.Errorf("error iterating stamp cards: %w", err)
	}

	return cards, nil
}

// IncrementStamps conditionally bumps collected_stamps by one. The version
// pin makes a concurrent increment on the same card fail instead of lose.
func (r *loyaltyRepository) IncrementStamps(ctx context.Context, id uuid.UUID, version int) (int64, error) {
	query := `
		UPDATE stamp_cards
		SET collected_stamps = collected_stamps + 1, version = version + 1
		WHERE id = $1 AND version = $2 AND collected_stamps < total_stamps
	`

	tag, err := r.pool.Exec(ctx, query, id, version)
	if err != nil {
		r.logger.Error().Err(err).Str("card_id", id.String()).Msg("failed to increment stamps")
		return 0, fmt.Errorf("failed to increment stamps: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CreateGift inserts a new gift voucher.
func (r *loyaltyRepository) CreateGift(ctx context.Context, gift *model.Gift) error {
	query := `
		INSERT INTO gifts (id, code, title, active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		gift.ID, gift.Code, gift.Title, gift.Active, gift.ExpiresAt, gift.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("gift_id", gift.ID.String()).Msg("failed to create gift")
		return fmt.Errorf("failed to create gift: %w", err)
	}

	return nil
}

// GetGiftByCode retrieves a gift by its code.
func (r *loyaltyRepository) GetGiftByCode(ctx context.Context, code string) (*model.Gift, error) {
	query := `
		SELECT id, code, title, active, expires_at, created_at
		FROM gifts
		WHERE code = $1
	`

	var gift model.Gift
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&gift.ID,
		&gift.Code,
		&gift.Title,
		&gift.Active,
		&gift.ExpiresAt,
		&gift.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query gift by code")
		return nil, fmt.Errorf("failed to query gift by code: %w", err)
	}

	return &gift, nil
}

// ListActiveGifts retrieves all active gifts.
func (r *loyaltyRepository) ListActiveGifts(ctx context.Context) ([]model.Gift, error) {
	query := `
		SELECT id, code, title, active, expires_at, created_at
		FROM gifts
		WHERE active = TRUE
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query gifts")
		return nil, fmt.Errorf("failed to query gifts: %w", err)
	}
	defer rows.Close()

	var gifts []model.Gift
	for rows.Next() {
		var gift model.Gift
		err := rows.Scan(&gift.ID, &gift.Code, &gift.Title, &gift.Active, &gift.ExpiresAt, &gift.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan gift row")
			return nil, fmt.Errorf("failed to scan gift: %w", err)
		}
		gifts = append(gifts, gift)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating gift rows")
		return nil, fmt.Errorf("error iterating gifts: %w", err)
	}

	return gifts, nil
}

// ListUserGifts retrieves the gifts a user has redeemed.
func (r *loyaltyRepository) ListUserGifts(ctx context.Context, userID uuid.UUID) ([]model.UserGift, error) {
	query := `
		SELECT id, user_id, gift_id, used, used_at
		FROM user_gifts
		WHERE user_id = $1
		ORDER BY used_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query user gifts")
		return nil, fmt.Errorf("failed to query user gifts: %w", err)
	}
	defer rows.Close()

	var userGifts []model.UserGift
	for rows.Next() {
		var ug model.UserGift
		if err := rows.Scan(&ug.ID, &ug.UserID, &ug.GiftID, &ug.Used, &ug.UsedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan user gift row")
			return nil, fmt.Errorf("failed to scan user gift: %w", err)
		}
		userGifts = append(userGifts, ug)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating user gift rows")
		return nil, fmt.Errorf("error iterating user gifts: %w", err)
	}

	return userGifts, nil
}

// RedeemGift marks a gift used and records the claiming user. Both writes
// happen in one transaction; the conditional update on active makes the
// transition one-way even under concurrent redemption attempts.
func (r *loyaltyRepository) RedeemGift(ctx context.Context, giftID, userID uuid.UUID, usedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin redemption transaction")
		return fmt.Errorf("failed to begin redemption transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE gifts SET active = FALSE WHERE id = $1 AND active = TRUE`, giftID)
	if err != nil {
		r.logger.Error().Err(err).Str("gift_id", giftID.String()).Msg("failed to deactivate gift")
		return fmt.Errorf("failed to deactivate gift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrGiftUsed
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_gifts (id, user_id, gift_id, used, used_at) VALUES ($1, $2, $3, TRUE, $4)`,
		uuid.New(), userID, giftID, usedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("gift_id", giftID.String()).Msg("failed to record gift redemption")
		return fmt.Errorf("failed to record gift redemption: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit redemption transaction")
		return fmt.Errorf("failed to commit redemption transaction: %w", err)
	}

	r.logger.Debug().
		Str("gift_id", giftID.String()).
		Str("user_id", userID.String()).
		Msg("gift redeemed")

	return nil
}
