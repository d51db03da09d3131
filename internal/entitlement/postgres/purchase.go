package postgres

import (
	goerrors "errors"
	"strings"

	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
	"github.com/courseloop/courseloop/internal/entitlement"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) entitlement.RepositoryAPI {
	return &PurchaseRepository{
		db: db,
	}
}

func (r *PurchaseRepository) Create(p *purchaseDatamodel.Purchase) error {
	if err := r.db.Create(p).Error; err != nil {
		if isDuplicateKeyError(err) {
			return entitlement.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *PurchaseRepository) GetByUserAndItem(userID int64, itemType, itemID string) (*purchaseDatamodel.Purchase, error) {
	var p purchaseDatamodel.Purchase
	err := r.db.Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).First(&p).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) GetByID(id int64) (*purchaseDatamodel.Purchase, error) {
	var p purchaseDatamodel.Purchase
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) Update(p *purchaseDatamodel.Purchase) error {
	return r.db.Save(p).Error
}

func (r *PurchaseRepository) ListByUser(userID int64) ([]*purchaseDatamodel.Purchase, error) {
	var purchases []*purchaseDatamodel.Purchase
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&purchases).Error
	return purchases, err
}

// isDuplicateKeyError matches the unique-index violation across drivers.
// gorm translates it when the dialector supports it; the string checks cover
// postgres (23505) and sqlite wording for configurations that do not.
func isDuplicateKeyError(err error) bool {
	if goerrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
