package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Ledger interface {
	// Check reports whether consumed + amount stays within the limit. It never mutates.
	Check(ctx context.Context, partnerID string, amount decimal.Decimal, period Period) (bool, error)
	// Use adds amount unconditionally.
	Use(ctx context.Context, partnerID string, amount decimal.Decimal, period Period) error
	// TryReserve checks and uses in one step. On refusal it returns an
	// *apperror.LimitExceededError and leaves the ledger untouched.
	TryReserve(ctx context.Context, partnerID string, amount decimal.Decimal, period Period) (Reservation, error)
	Usage(ctx context.Context, partnerID string, period Period) (Usage, error)
}
