package paymentgateway

import (
	"context"
	"strings"
)

// Order is the ephemeral gateway-side intent to pay. It is never persisted
// locally; it correlates to a purchase row only after verification.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // gateway minor units
	Currency string `json:"currency"`
}

// Gateway creates orders against one payment provider. Implementations are
// interchangeable; signature verification lives with the entitlement
// verifier and is the same HMAC scheme for both.
type Gateway interface {
	// Name identifies the gateway family in logs and responses.
	Name() string
	// KeyID is the publishable key a client needs to open the gateway's
	// checkout widget. Never the secret.
	KeyID() string
	// CreateOrder registers an intent for amountMinor (minor units) with an
	// opaque receipt reference of at most 40 characters.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error)
}

// Selector routes checkouts to a gateway by item currency: INR goes to the
// domestic gateway, everything else to the international one.
type Selector struct {
	domestic      Gateway
	international Gateway
}

func NewSelector(domestic, international Gateway) *Selector {
	return &Selector{
		domestic:      domestic,
		international: international,
	}
}

func (s *Selector) ForCurrency(currency string) Gateway {
	if strings.EqualFold(currency, "INR") {
		return s.domestic
	}
	return s.international
}
