package checkout

import (
	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
)

// CheckoutResult is what the client needs to open the gateway's payment
// widget, or the free-item sentinel. Free is the control-flow branch callers
// must check before treating the result as a real gateway order.
type CheckoutResult struct {
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"` // gateway minor units; 0 for free items
	Currency   string `json:"currency"`
	GatewayKey string `json:"gateway_key,omitempty"`
	Gateway    string `json:"gateway,omitempty"`
	Free       bool   `json:"free"`

	// Purchase is populated on the free path only: free items enroll
	// directly without a gateway round trip.
	Purchase *purchaseDatamodel.Purchase `json:"purchase,omitempty"`
}
