package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"agora-express/internal/config"
	"agora-express/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLoyaltyRepository is a mock implementation of LoyaltyRepository.
type MockLoyaltyRepository struct {
	mock.Mock
}

func (m *MockLoyaltyRepository) CreateCard(ctx context.Context, card *model.StampCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockLoyaltyRepository) GetCardByID(ctx context.Context, id uuid.UUID) (*model.StampCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StampCard), args.Error(1)
}

func (m *MockLoyaltyRepository) ListCardsByUser(ctx context.Context, userID uuid.UUID) ([]model.StampCard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StampCard), args.Error(1)
}

func (m *MockLoyaltyRepository) IncrementStamps(ctx context.Context, id uuid.UUID, version int) (int64, error) {
	args := m.Called(ctx, id, version)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoyaltyRepository) CreateGift(ctx context.Context, gift *model.Gift) error {
	args := m.Called(ctx, gift)
	return args.Error(0)
}

func (m *MockLoyaltyRepository) GetGiftByCode(ctx context.Context, code string) (*model.Gift, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Gift), args.Error(1)
}

func (m *MockLoyaltyRepository) ListActiveGifts(ctx context.Context) ([]model.Gift, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Gift), args.Error(1)
}

func (m *MockLoyaltyRepository) ListUserGifts(ctx context.Context, userID uuid.UUID) ([]model.UserGift, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserGift), args.Error(1)
}

func (m *MockLoyaltyRepository) RedeemGift(ctx context.Context, giftID, userID uuid.UUID, usedAt time.Time) error {
	args := m.Called(ctx, giftID, userID, usedAt)
	return args.Error(0)
}

func testLoyaltyConfig() config.LoyaltyConfig {
	return config.LoyaltyConfig{
		CardTotalStamps:  8,
		CardValidityDays: 180,
		RewardStages:     `[{"stamps":4,"reward":"Free coffee"},{"stamps":8,"reward":"Free dessert"}]`,
	}
}

func newTestLoyaltyService(t *testing.T, repo *MockLoyaltyRepository) LoyaltyService {
	t.Helper()

	service, err := NewLoyaltyService(repo, testLoyaltyConfig(), validator.New(), zerolog.Nop())
	require.NoError(t, err)
	return service
}

func TestNewLoyaltyService_RejectsBadTemplate(t *testing.T) {
	repo := new(MockLoyaltyRepository)

	cfg := testLoyaltyConfig()
	cfg.RewardStages = `not json`
	_, err := NewLoyaltyService(repo, cfg, validator.New(), zerolog.Nop())
	require.Error(t, err)

	// A stage beyond the card size can never be reached.
	cfg = testLoyaltyConfig()
	cfg.RewardStages = `[{"stamps":20,"reward":"Unreachable"}]`
	_, err = NewLoyaltyService(repo, cfg, validator.New(), zerolog.Nop())
	require.Error(t, err)
}

func TestLoyaltyService_ActivateCard(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	repo := new(MockLoyaltyRepository)
	service := newTestLoyaltyService(t, repo)

	repo.On("CreateCard", ctx, mock.MatchedBy(func(card *model.StampCard) bool {
		return card.UserID == userID &&
			card.CardNumber == "1234567" &&
			card.TotalStamps == 8 &&
			card.CollectedStamps == 0 &&
			card.Active &&
			card.Version == 1 &&
			len(card.RewardStages) == 2
	})).Return(nil)

	card, err := service.ActivateCard(ctx, userID, &model.ActivateCardRequest{CardNumber: "1234567"})

	require.NoError(t, err)
	require.NotNil(t, card)
	assert.True(t, card.ExpiresAt.After(time.Now().AddDate(0, 0, 179)))
	repo.AssertExpectations(t)
}

func TestLoyaltyService_ActivateCard_BadNumber(t *testing.T) {
	ctx := context.Background()

	repo := new(MockLoyaltyRepository)
	service := newTestLoyaltyService(t, repo)

	for _, number := range []string{"", "123456", "12345678", "12a4567"} {
		card, err := service.ActivateCard(ctx, uuid.New(), &model.ActivateCardRequest{CardNumber: number})
		require.Error(t, err, "card number %q", number)
		assert.Equal(t, model.ErrInvalidCardNumber, err)
		assert.Nil(t, card)
	}

	repo.AssertNotCalled(t, "CreateCard")
}

func TestLoyaltyService_AddStamp(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	cardID := uuid.New()

	stages := []model.RewardStage{
		{Stamps: 4, Reward: "Free coffee"},
		{Stamps: 8, Reward: "Free dessert"},
	}

	t.Run("plain stamp without reward", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		card := &model.StampCard{
			ID: cardID, UserID: userID, TotalStamps: 8, CollectedStamps: 5,
			RewardStages: stages, Active: true, Version: 6,
		}
		repo.On("GetCardByID", ctx, cardID).Return(card, nil)
		repo.On("IncrementStamps", ctx, cardID, 6).Return(int64(1), nil)

		resp, err := service.AddStamp(ctx, userID, cardID, &model.AddStampRequest{Code: "*12345"})

		require.NoError(t, err)
		assert.Equal(t, 6, resp.CollectedStamps)
		assert.Nil(t, resp.UnlockedReward)
	})

	t.Run("hitting a stage exactly unlocks its reward", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		card := &model.StampCard{
			ID: cardID, UserID: userID, TotalStamps: 8, CollectedStamps: 7,
			RewardStages: stages, Active: true, Version: 8,
		}
		repo.On("GetCardByID", ctx, cardID).Return(card, nil)
		repo.On("IncrementStamps", ctx, cardID, 8).Return(int64(1), nil)

		resp, err := service.AddStamp(ctx, userID, cardID, &model.AddStampRequest{Code: "*54321"})

		require.NoError(t, err)
		assert.Equal(t, 8, resp.CollectedStamps)
		require.NotNil(t, resp.UnlockedReward)
		assert.Equal(t, "Free dessert", *resp.UnlockedReward)
	})

	t.Run("malformed code is rejected before any lookup", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		for _, code := range []string{"", "12345", "*1234", "*123456", "*12a45", "x12345"} {
			resp, err := service.AddStamp(ctx, userID, cardID, &model.AddStampRequest{Code: code})
			require.Error(t, err, "code %q", code)
			assert.Equal(t, model.ErrInvalidStampCode, err)
			assert.Nil(t, resp)
		}

		repo.AssertNotCalled(t, "GetCardByID")
	})

	t.Run("someone else's card", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		card := &model.StampCard{
			ID: cardID, UserID: uuid.New(), TotalStamps: 8, CollectedStamps: 2,
			RewardStages: stages, Active: true, Version: 3,
		}
		repo.On("GetCardByID", ctx, cardID).Return(card, nil)

		resp, err := service.AddStamp(ctx, userID, cardID, &model.AddStampRequest{Code: "*12345"})

		require.Error(t, err)
		assert.Equal(t, model.ErrNotCardOwner, err)
		assert.Nil(t, resp)
		repo.AssertNotCalled(t, "IncrementStamps")
	})

	t.Run("full card", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		card := &model.StampCard{
			ID: cardID, UserID: userID, TotalStamps: 8, CollectedStamps: 8,
			RewardStages: stages, Active: true, Version: 9,
		}
		repo.On("GetCardByID", ctx, cardID).Return(card, nil)

		resp, err := service.AddStamp(ctx, userID, cardID, &model.AddStampRequest{Code: "*12345"})

		require.Error(t, err)
		assert.Equal(t, model.ErrCardFull, err)
		assert.Nil(t, resp)
		repo.AssertNotCalled(t, "IncrementStamps")
	})

	t.Run("inactive card", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		card := &model.StampCard{
			ID: cardID, UserID: userID, TotalStamps: 8, CollectedStamps: 1,
			RewardStages: stages, Active: false, Version: 2,
		}
		repo.On("GetCardByID", ctx, cardID).Return(card, nil)

		resp, err := service.AddStamp(ctx, userID, cardID, &model.AddStampRequest{Code: "*12345"})

		require.Error(t, err)
		assert.Equal(t, model.ErrCardInactive, err)
		assert.Nil(t, resp)
	})

	t.Run("concurrent update loses on version", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		card := &model.StampCard{
			ID: cardID, UserID: userID, TotalStamps: 8, CollectedStamps: 3,
			RewardStages: stages, Active: true, Version: 4,
		}
		repo.On("GetCardByID", ctx, cardID).Return(card, nil)
		repo.On("IncrementStamps", ctx, cardID, 4).Return(int64(0), nil)

		resp, err := service.AddStamp(ctx, userID, cardID, &model.AddStampRequest{Code: "*12345"})

		require.Error(t, err)
		assert.Equal(t, model.ErrStaleVersion, err)
		assert.Nil(t, resp)
	})

	t.Run("unknown card", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		repo.On("GetCardByID", ctx, cardID).Return(nil, nil)

		resp, err := service.AddStamp(ctx, userID, cardID, &model.AddStampRequest{Code: "*12345"})

		require.Error(t, err)
		assert.Equal(t, model.ErrCardNotFound, err)
		assert.Nil(t, resp)
	})
}

func TestLoyaltyService_RedeemGift(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("active gift redeems", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		gift := &model.Gift{
			ID: uuid.New(), Code: "GIFT-AB12CD34", Title: "Free baklava",
			Active: true, ExpiresAt: time.Now().Add(24 * time.Hour),
		}
		repo.On("GetGiftByCode", ctx, "GIFT-AB12CD34").Return(gift, nil)
		repo.On("RedeemGift", ctx, gift.ID, userID, mock.AnythingOfType("time.Time")).Return(nil)

		err := service.RedeemGift(ctx, userID, &model.RedeemGiftRequest{Code: "GIFT-AB12CD34"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("used gift is rejected", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		gift := &model.Gift{
			ID: uuid.New(), Code: "GIFT-USED0000", Title: "Gone",
			Active: false, ExpiresAt: time.Now().Add(24 * time.Hour),
		}
		repo.On("GetGiftByCode", ctx, "GIFT-USED0000").Return(gift, nil)

		err := service.RedeemGift(ctx, userID, &model.RedeemGiftRequest{Code: "GIFT-USED0000"})

		require.Error(t, err)
		assert.Equal(t, model.ErrGiftUsed, err)
		repo.AssertNotCalled(t, "RedeemGift")
	})

	t.Run("expired gift is rejected", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		gift := &model.Gift{
			ID: uuid.New(), Code: "GIFT-EXPIRED1", Title: "Stale",
			Active: true, ExpiresAt: time.Now().Add(-time.Hour),
		}
		repo.On("GetGiftByCode", ctx, "GIFT-EXPIRED1").Return(gift, nil)

		err := service.RedeemGift(ctx, userID, &model.RedeemGiftRequest{Code: "GIFT-EXPIRED1"})

		require.Error(t, err)
		assert.Equal(t, model.ErrGiftExpired, err)
		repo.AssertNotCalled(t, "RedeemGift")
	})

	t.Run("unknown code", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		repo.On("GetGiftByCode", ctx, "GIFT-NOPE0000").Return(nil, nil)

		err := service.RedeemGift(ctx, userID, &model.RedeemGiftRequest{Code: "GIFT-NOPE0000"})

		require.Error(t, err)
		assert.Equal(t, model.ErrGiftNotFound, err)
	})

	t.Run("race between check and claim surfaces as used", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		gift := &model.Gift{
			ID: uuid.New(), Code: "GIFT-RACE0001", Title: "Contested",
			Active: true, ExpiresAt: time.Now().Add(24 * time.Hour),
		}
		repo.On("GetGiftByCode", ctx, "GIFT-RACE0001").Return(gift, nil)
		repo.On("RedeemGift", ctx, gift.ID, userID, mock.AnythingOfType("time.Time")).
			Return(model.ErrGiftUsed)

		err := service.RedeemGift(ctx, userID, &model.RedeemGiftRequest{Code: "GIFT-RACE0001"})

		require.Error(t, err)
		assert.Equal(t, model.ErrGiftUsed, err)
	})
}

func TestLoyaltyService_CreateGift(t *testing.T) {
	ctx := context.Background()

	t.Run("generates a code and persists", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		repo.On("CreateGift", ctx, mock.MatchedBy(func(gift *model.Gift) bool {
			return gift.Active &&
				gift.Title == "Free baklava" &&
				strings.HasPrefix(gift.Code, "GIFT-") &&
				len(gift.Code) == len("GIFT-")+8
		})).Return(nil)

		gift, err := service.CreateGift(ctx, &model.CreateGiftRequest{
			Title:     "Free baklava",
			ExpiresAt: time.Now().Add(48 * time.Hour),
		})

		require.NoError(t, err)
		require.NotNil(t, gift)
		repo.AssertExpectations(t)
	})

	t.Run("past expiry is rejected", func(t *testing.T) {
		repo := new(MockLoyaltyRepository)
		service := newTestLoyaltyService(t, repo)

		gift, err := service.CreateGift(ctx, &model.CreateGiftRequest{
			Title:     "Too late",
			ExpiresAt: time.Now().Add(-time.Hour),
		})

		require.Error(t, err)
		assert.Nil(t, gift)
		repo.AssertNotCalled(t, "CreateGift")
	})
}
