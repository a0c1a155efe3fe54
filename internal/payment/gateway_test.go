package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGateway_Charge(t *testing.T) {
	gateway := NewMockGateway(zerolog.Nop())

	receipt, err := gateway.Charge(context.Background(), uuid.New(), 29.50)

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, strings.HasPrefix(receipt.TransactionID, "txn_"))
	assert.False(t, receipt.ChargedAt.IsZero())
}

func TestMockGateway_Charge_UniqueTransactionIDs(t *testing.T) {
	gateway := NewMockGateway(zerolog.Nop())
	orderID := uuid.New()

	first, err := gateway.Charge(context.Background(), orderID, 10)
	require.NoError(t, err)
	second, err := gateway.Charge(context.Background(), orderID, 10)
	require.NoError(t, err)

	assert.NotEqual(t, first.TransactionID, second.TransactionID)
}

func TestMockGateway_Charge_CancelledContext(t *testing.T) {
	gateway := NewMockGateway(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	receipt, err := gateway.Charge(ctx, uuid.New(), 10)
	require.Error(t, err)
	assert.Nil(t, receipt)
}
