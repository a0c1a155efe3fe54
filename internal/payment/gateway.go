// Package payment defines the gateway port the order flow charges through.
// The real provider integration is out of process; the mock adapter stands
// in for it and always authorizes.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Receipt is the gateway's confirmation of a successful charge.
type Receipt struct {
	TransactionID string
	ChargedAt     time.Time
}

// Gateway charges a payment for an order.
type Gateway interface {
	// Charge attempts to collect amount for the given order. A nil error
	// means the charge was captured and the receipt is authoritative.
	Charge(ctx context.Context, orderID uuid.UUID, amount float64) (*Receipt, error)
}

// mockGateway authorizes every charge and fabricates a transaction id.
type mockGateway struct {
	logger zerolog.Logger
}

// NewMockGateway creates the always-succeeds gateway adapter.
func NewMockGateway(logger zerolog.Logger) Gateway {
	return &mockGateway{
		logger: logger.With().Str("gateway", "mock").Logger(),
	}
}

// Charge fabricates a receipt without contacting any provider.
func (g *mockGateway) Charge(ctx context.Context, orderID uuid.UUID, amount float64) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("charge aborted: %w", err)
	}

	receipt := &Receipt{
		TransactionID: "txn_" + uuid.NewString(),
		ChargedAt:     time.Now(),
	}

	g.logger.Info().
		Str("order_id", orderID.String()).
		Float64("amount", amount).
		Str("transaction_id", receipt.TransactionID).
		Msg("mock charge captured")

	return receipt, nil
}
