package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"agora-express/internal/model"
	"agora-express/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LoyaltyHandler handles stamp card, gift, and coin ledger HTTP requests.
type LoyaltyHandler struct {
	loyalty service.LoyaltyService
	coins   service.CoinService
	logger  zerolog.Logger
}

// NewLoyaltyHandler creates a new loyalty handler.
func NewLoyaltyHandler(loyalty service.LoyaltyService, coins service.CoinService, logger zerolog.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyalty: loyalty,
		coins:   coins,
		logger:  logger.With().Str("handler", "loyalty").Logger(),
	}
}

// ListCards handles GET /api/loyalty/stamps requests.
func (h *LoyaltyHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrUnauthorised.Message, h.logger)
		return
	}

	cards, err := h.loyalty.ListCards(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

// ActivateCard handles POST /api/loyalty/stamps/activate requests.
func (h *LoyaltyHandler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrUnauthorised.Message, h.logger)
		return
	}

	var req model.ActivateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	card, err := h.loyalty.ActivateCard(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

// AddStamp handles POST /api/loyalty/stamps/{id}/add requests.
func (h *LoyaltyHandler) AddStamp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrUnauthorised.Message, h.logger)
		return
	}

	// Expecting path: /api/loyalty/stamps/{id}/add
	path := strings.TrimPrefix(r.URL.Path, "/api/loyalty/stamps/")
	idStr, ok := strings.CutSuffix(path, "/add")
	if !ok || idStr == "" {
		writeError(w, http.StatusNotFound, "not found", h.logger)
		return
	}

	cardID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusNotFound, model.ErrCardNotFound.Message, h.logger)
		return
	}

	var req model.AddStampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	resp, err := h.loyalty.AddStamp(r.Context(), userID, cardID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListGifts handles GET /api/loyalty/gifts requests.
func (h *LoyaltyHandler) ListGifts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	gifts, err := h.loyalty.ListGifts(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, gifts)
}

// ListUserGifts handles GET /api/loyalty/user-gifts requests.
func (h *LoyaltyHandler) ListUserGifts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrUnauthorised.Message, h.logger)
		return
	}

	userGifts, err := h.loyalty.ListUserGifts(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userGifts)
}

// RedeemGift handles POST /api/loyalty/gifts/redeem requests.
func (h *LoyaltyHandler) RedeemGift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrUnauthorised.Message, h.logger)
		return
	}

	var req model.RedeemGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	if err := h.loyalty.RedeemGift(r.Context(), userID, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"redeemed": true})
}

// CreateGift handles POST /api/admin/gifts requests.
func (h *LoyaltyHandler) CreateGift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req model.CreateGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	gift, err := h.loyalty.CreateGift(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, gift)
}

// Balance handles GET /api/coins/balance requests.
func (h *LoyaltyHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrUnauthorised.Message, h.logger)
		return
	}

	balance, err := h.coins.GetBalance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.BalanceResponse{Balance: balance})
}

// Transactions handles GET /api/coins/transactions requests.
func (h *LoyaltyHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrUnauthorised.Message, h.logger)
		return
	}

	txns, err := h.coins.ListTransactions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, txns)
}
