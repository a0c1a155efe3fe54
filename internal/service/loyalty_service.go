package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"agora-express/internal/config"
	"agora-express/internal/model"
	"agora-express/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// stampCodePattern is the shape of the one-time codes handed out at the
// counter: an asterisk followed by exactly five digits.
var stampCodePattern = regexp.MustCompile(`^\*\d{5}$`)

// loyaltyService implements LoyaltyService.
type loyaltyService struct {
	loyaltyRepo repository.LoyaltyRepository
	template    cardTemplate
	validate    *validator.Validate
	logger      zerolog.Logger
}

// cardTemplate is the configured shape applied to every activated card.
type cardTemplate struct {
	totalStamps  int
	validityDays int
	rewardStages []model.RewardStage
}

// NewLoyaltyService creates a new loyalty service. The reward-stage JSON
// from configuration is parsed once here; a malformed value fails startup
// instead of every activation.
func NewLoyaltyService(
	loyaltyRepo repository.LoyaltyRepository,
	cfg config.LoyaltyConfig,
	validate *validator.Validate,
	logger zerolog.Logger,
) (LoyaltyService, error) {
	var stages []model.RewardStage
	if err := json.Unmarshal([]byte(cfg.RewardStages), &stages); err != nil {
		return nil, fmt.Errorf("failed to parse reward stages: %w", err)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].Stamps < stages[j].Stamps })

	for _, stage := range stages {
		if stage.Stamps < 1 || stage.Stamps > cfg.CardTotalStamps {
			return nil, fmt.Errorf("reward stage threshold %d outside card range 1..%d", stage.Stamps, cfg.CardTotalStamps)
		}
	}

	return &loyaltyService{
		loyaltyRepo: loyaltyRepo,
		template: cardTemplate{
			totalStamps:  cfg.CardTotalStamps,
			validityDays: cfg.CardValidityDays,
			rewardStages: stages,
		},
		validate: validate,
		logger:   logger.With().Str("service", "loyalty").Logger(),
	}, nil
}

// ActivateCard creates a stamp card from the configured template.
func (s *loyaltyService) ActivateCard(ctx context.Context, userID uuid.UUID, req *model.ActivateCardRequest) (*model.StampCard, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Activation request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, model.ErrInvalidCardNumber
	}

	now := time.Now()
	card := &model.StampCard{
		ID:              uuid.New(),
		UserID:          userID,
		CardNumber:      req.CardNumber,
		TotalStamps:     s.template.totalStamps,
		CollectedStamps: 0,
		RewardStages:    s.template.rewardStages,
		Active:          true,
		ExpiresAt:       now.AddDate(0, 0, s.template.validityDays),
		Version:         1,
		CreatedAt:       now,
	}

	if err := s.loyaltyRepo.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to activate card: %w", err)
	}

	s.logger.Info().
		Str("card_id", card.ID.String()).
		Str("user_id", userID.String()).
		Msg("stamp card activated")

	return card, nil
}

// ListCards retrieves the caller's stamp cards.
func (s *loyaltyService) ListCards(ctx context.Context, userID uuid.UUID) ([]model.StampCard, error) {
	cards, err := s.loyaltyRepo.ListCardsByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list stamp cards")
		return nil, fmt.Errorf("failed to list stamp cards: %w", err)
	}
	return cards, nil
}

// AddStamp validates a one-time code and adds exactly one stamp to the
// caller's card. A reward is surfaced only when the new count hits a stage
// threshold exactly.
func (s *loyaltyService) AddStamp(ctx context.Context, userID, cardID uuid.UUID, req *model.AddStampRequest) (*model.AddStampResponse, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Stamp request is required")
	}
	if !stampCodePattern.MatchString(req.Code) {
		return nil, model.ErrInvalidStampCode
	}

	card, err := s.loyaltyRepo.GetCardByID(ctx, cardID)
	if err != nil {
		s.logger.Error().Err(err).Str("card_id", cardID.String()).Msg("failed to load stamp card")
		return nil, fmt.Errorf("failed to load stamp card: %w", err)
	}
	if card == nil {
		return nil, model.ErrCardNotFound
	}
	if card.UserID != userID {
		return nil, model.ErrNotCardOwner
	}
	if !card.Active {
		return nil, model.ErrCardInactive
	}
	if card.CollectedStamps >= card.TotalStamps {
		return nil, model.ErrCardFull
	}

	affected, err := s.loyaltyRepo.IncrementStamps(ctx, cardID, card.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to add stamp: %w", err)
	}
	if affected == 0 {
		return nil, model.ErrStaleVersion
	}

	newCount := card.CollectedStamps + 1

	resp := &model.AddStampResponse{CollectedStamps: newCount}
	for _, stage := range card.RewardStages {
		if stage.Stamps == newCount {
			reward := stage.Reward
			resp.UnlockedReward = &reward
			break
		}
	}

	s.logger.Info().
		Str("card_id", cardID.String()).
		Int("collected_stamps", newCount).
		Bool("reward_unlocked", resp.UnlockedReward != nil).
		Msg("stamp added")

	return resp, nil
}

// ListGifts retrieves all active gifts.
func (s *loyaltyService) ListGifts(ctx context.Context) ([]model.Gift, error) {
	gifts, err := s.loyaltyRepo.ListActiveGifts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list gifts")
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}
	return gifts, nil
}

// ListUserGifts retrieves the caller's redeemed gifts.
func (s *loyaltyService) ListUserGifts(ctx context.Context, userID uuid.UUID) ([]model.UserGift, error) {
	userGifts, err := s.loyaltyRepo.ListUserGifts(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list user gifts")
		return nil, fmt.Errorf("failed to list user gifts: %w", err)
	}
	return userGifts, nil
}

// RedeemGift claims a gift by code for the caller. Redemption is one-way:
// a used or expired gift can never be claimed again.
func (s *loyaltyService) RedeemGift(ctx context.Context, userID uuid.UUID, req *model.RedeemGiftRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidArgument, "Redeem request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return err
	}

	gift, err := s.loyaltyRepo.GetGiftByCode(ctx, req.Code)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load gift")
		return fmt.Errorf("failed to load gift: %w", err)
	}
	if gift == nil {
		return model.ErrGiftNotFound
	}
	if !gift.Active {
		return model.ErrGiftUsed
	}
	if time.Now().After(gift.ExpiresAt) {
		return model.ErrGiftExpired
	}

	if err := s.loyaltyRepo.RedeemGift(ctx, gift.ID, userID, time.Now()); err != nil {
		if err == model.ErrGiftUsed {
			return err
		}
		return fmt.Errorf("failed to redeem gift: %w", err)
	}

	s.logger.Info().
		Str("gift_id", gift.ID.String()).
		Str("user_id", userID.String()).
		Msg("gift redeemed")

	return nil
}

// CreateGift issues a new gift voucher with a generated code.
func (s *loyaltyService) CreateGift(ctx context.Context, req *model.CreateGiftRequest) (*model.Gift, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Gift request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if req.ExpiresAt.Before(time.Now()) {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Gift expiry must be in the future")
	}

	gift := &model.Gift{
		ID:        uuid.New(),
		Code:      generateGiftCode(),
		Title:     req.Title,
		Active:    true,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: time.Now(),
	}

	if err := s.loyaltyRepo.CreateGift(ctx, gift); err != nil {
		return nil, fmt.Errorf("failed to create gift: %w", err)
	}

	s.logger.Info().Str("gift_id", gift.ID.String()).Msg("gift created")

	return gift, nil
}

// generateGiftCode produces a short human-readable voucher code.
func generateGiftCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "GIFT-" + raw[:8]
}
