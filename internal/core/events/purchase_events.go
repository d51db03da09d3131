package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePurchaseCompleted = "purchase.completed"
	EventTypeContentAccessed   = "content.accessed"
)

// PurchaseCompletedEvent fires after the reconciler lands a verified payment
// in the ledger.
type PurchaseCompletedEvent struct {
	BaseEvent
	PurchaseID int64   `json:"purchase_id"`
	UserID     int64   `json:"user_id"`
	ItemType   string  `json:"item_type"`
	ItemID     string  `json:"item_id"`
	Amount     float64 `json:"amount"`
	OrderID    string  `json:"order_id"`
	PaymentID  string  `json:"payment_id"`
}

func NewPurchaseCompletedEvent(purchaseID, userID int64, itemType, itemID string, amount float64, orderID, paymentID string) *PurchaseCompletedEvent {
	return &PurchaseCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePurchaseCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"purchase_id": purchaseID,
				"user_id":     userID,
				"item_type":   itemType,
				"item_id":     itemID,
				"amount":      amount,
				"order_id":    orderID,
				"payment_id":  paymentID,
			},
		},
		PurchaseID: purchaseID,
		UserID:     userID,
		ItemType:   itemType,
		ItemID:     itemID,
		Amount:     amount,
		OrderID:    orderID,
		PaymentID:  paymentID,
	}
}

// ContentAccessedEvent fires on every successful download authorization.
// Consumers persist it for analytics; delivery is best effort.
type ContentAccessedEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	ItemType string `json:"item_type"`
	ItemID   string `json:"item_id"`
}

func NewContentAccessedEvent(userID int64, itemType, itemID string) *ContentAccessedEvent {
	return &ContentAccessedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeContentAccessed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":   userID,
				"item_type": itemType,
				"item_id":   itemID,
			},
		},
		UserID:   userID,
		ItemType: itemType,
		ItemID:   itemID,
	}
}
