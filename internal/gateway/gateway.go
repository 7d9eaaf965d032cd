package gateway

import (
	"context"
	"fmt"
	"math"
)

// Intent is a charge authorization produced by the payment gateway.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Gateway requests charge authorizations from the external processor.
// Implementations must not mutate any local state: a failed call leaves
// cart, catalog and ledger untouched by construction.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error)
}

// Error is a rejection reported by the gateway itself, as opposed to a
// transport failure reaching it.
type Error struct {
	Type    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s (%s)", e.Message, e.Type)
}

// MinorUnits converts a major-unit amount to minor currency units
// (amount x 100), truncated toward zero.
func MinorUnits(amount float64) int64 {
	return int64(math.Trunc(amount * 100))
}
