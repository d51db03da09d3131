package download

import (
	accessDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/access"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
)

// ItemProvider resolves catalog items for gating.
type ItemProvider interface {
	GetItem(id string) (*itemDatamodel.Item, error)
}

// PurchaseChecker is the read-only entitlement lookup the gate polls.
// Returns (nil, nil) when no record is visible yet.
type PurchaseChecker interface {
	GetByUserAndItem(userID int64, itemType, itemID string) (*purchaseDatamodel.Purchase, error)
}

// AccessRepositoryAPI persists access audit rows off the event bus.
type AccessRepositoryAPI interface {
	Create(e *accessDatamodel.Event) error
}

type ServiceAPI interface {
	Authorize(userID int64, itemID string) (*DownloadResult, error)
}
