package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agora-express/internal/auth"
	"agora-express/internal/middleware"
	"agora-express/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (uuid.UUID, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.OrderResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) ListAll(ctx context.Context, status *model.OrderStatus) ([]model.OrderResponse, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, req *model.StatusUpdateRequest) error {
	args := m.Called(ctx, orderID, req)
	return args.Error(0)
}

func (m *MockOrderService) ProcessPayment(ctx context.Context, userID uuid.UUID, req *model.PaymentRequest) (*model.PaymentResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentResponse), args.Error(1)
}

// authedRequest builds a request carrying verified claims, as BearerAuth
// would have left them.
func authedRequest(method, path string, userID uuid.UUID, role string, payload any) *http.Request {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	claims := &auth.Claims{UserID: userID, Role: role}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}

func TestOrderHandler_Create(t *testing.T) {
	logger := zerolog.Nop()
	userID := uuid.New()
	orderID := uuid.New()

	orderReq := &model.OrderRequest{
		Items: []model.OrderItemRequest{
			{MenuItemID: uuid.New(), Name: "Souvlaki Wrap", UnitPrice: 12.50, Quantity: 1},
		},
		Total:         12.50,
		Address:       "1 Harbour St",
		Phone:         "+61400000001",
		PaymentMethod: "card",
	}

	tests := []struct {
		name           string
		mockReturn     uuid.UUID
		mockError      error
		expectedStatus int
	}{
		{
			name:           "Success",
			mockReturn:     orderID,
			mockError:      nil,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Insufficient coins",
			mockReturn:     uuid.Nil,
			mockError:      model.ErrInsufficientCoins,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, logger)

			mockService.On("CreateOrder", mock.Anything, userID, mock.AnythingOfType("*model.OrderRequest")).
				Return(tt.mockReturn, tt.mockError)

			req := authedRequest(http.MethodPost, "/api/orders", userID, model.RoleUser, orderReq)
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				var resp model.CreateOrderResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, orderID, resp.ID)
			}
		})
	}
}

func TestOrderHandler_Create_NoClaims(t *testing.T) {
	mockService := new(MockOrderService)
	handler := NewOrderHandler(mockService, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "CreateOrder")
}

func TestOrderHandler_Create_BadBody(t *testing.T) {
	mockService := new(MockOrderService)
	handler := NewOrderHandler(mockService, zerolog.Nop())

	req := authedRequest(http.MethodPost, "/api/orders", uuid.New(), model.RoleUser, nil)
	req.Body = http.NoBody
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateOrder")
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	logger := zerolog.Nop()
	adminID := uuid.New()
	orderID := uuid.New()

	statusReq := &model.StatusUpdateRequest{Status: model.OrderStatusPreparing, Version: 1}

	tests := []struct {
		name           string
		path           string
		mockError      error
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "Success",
			path:           "/api/admin/orders/" + orderID.String() + "/status",
			mockError:      nil,
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Illegal transition",
			path:           "/api/admin/orders/" + orderID.String() + "/status",
			mockError:      model.ErrInvalidTransition,
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Stale version",
			path:           "/api/admin/orders/" + orderID.String() + "/status",
			mockError:      model.ErrStaleVersion,
			expectService:  true,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Order not found",
			path:           "/api/admin/orders/" + orderID.String() + "/status",
			mockError:      model.ErrOrderNotFound,
			expectService:  true,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Malformed order id",
			path:           "/api/admin/orders/not-a-uuid/status",
			expectService:  false,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, logger)

			if tt.expectService {
				mockService.On("TransitionStatus", mock.Anything, orderID, mock.AnythingOfType("*model.StatusUpdateRequest")).
					Return(tt.mockError)
			}

			req := authedRequest(http.MethodPost, tt.path, adminID, model.RoleAdmin, statusReq)
			w := httptest.NewRecorder()

			handler.UpdateStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if !tt.expectService {
				mockService.AssertNotCalled(t, "TransitionStatus")
			}
		})
	}
}

func TestOrderHandler_ProcessPayment(t *testing.T) {
	logger := zerolog.Nop()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		handler := NewOrderHandler(mockService, logger)

		mockService.On("ProcessPayment", mock.Anything, userID, mock.AnythingOfType("*model.PaymentRequest")).
			Return(&model.PaymentResponse{
				OrderID:       orderID,
				TransactionID: "txn_abc123",
				PaymentStatus: model.PaymentStatusPaid,
			}, nil)

		req := authedRequest(http.MethodPost, "/api/payments", userID, model.RoleUser, &model.PaymentRequest{OrderID: orderID})
		w := httptest.NewRecorder()

		handler.ProcessPayment(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp model.PaymentResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "txn_abc123", resp.TransactionID)
	})

	t.Run("Someone else's order", func(t *testing.T) {
		mockService := new(MockOrderService)
		handler := NewOrderHandler(mockService, logger)

		mockService.On("ProcessPayment", mock.Anything, userID, mock.AnythingOfType("*model.PaymentRequest")).
			Return(nil, model.ErrForbidden)

		req := authedRequest(http.MethodPost, "/api/payments", userID, model.RoleUser, &model.PaymentRequest{OrderID: orderID})
		w := httptest.NewRecorder()

		handler.ProcessPayment(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOrderHandler_ListAll_StatusFilter(t *testing.T) {
	logger := zerolog.Nop()
	adminID := uuid.New()

	mockService := new(MockOrderService)
	handler := NewOrderHandler(mockService, logger)

	preparing := model.OrderStatusPreparing
	mockService.On("ListAll", mock.Anything, &preparing).Return([]model.OrderResponse{}, nil)

	req := authedRequest(http.MethodGet, "/api/admin/orders?status=preparing", adminID, model.RoleAdmin, nil)
	w := httptest.NewRecorder()

	handler.ListAll(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
