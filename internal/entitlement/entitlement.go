package entitlement

import (
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
)

// RepositoryAPI is the entitlement slice of the ledger store.
//
// Create returns ErrDuplicateKey when the (user_id, item_type, item_id)
// unique index rejects the row. GetByUserAndItem returns (nil, nil) when no
// row exists; a non-nil error means the lookup itself failed.
type RepositoryAPI interface {
	Create(p *purchaseDatamodel.Purchase) error
	GetByUserAndItem(userID int64, itemType, itemID string) (*purchaseDatamodel.Purchase, error)
	GetByID(id int64) (*purchaseDatamodel.Purchase, error)
	Update(p *purchaseDatamodel.Purchase) error
	ListByUser(userID int64) ([]*purchaseDatamodel.Purchase, error)
}

type ServiceAPI interface {
	VerifyPayment(userID int64, itemID string, dto *VerifyPaymentDTO) (*purchaseDatamodel.Purchase, error)
	GrantFree(userID int64, it *itemDatamodel.Item) (*purchaseDatamodel.Purchase, error)
	ListPurchases(userID int64) ([]*purchaseDatamodel.Purchase, error)
	UpdateProgress(userID, purchaseID int64, progress int64) (*purchaseDatamodel.Purchase, error)
}
