package purchase

import (
	"time"
)

// Payment statuses. Absence of a row is the implicit "pending" state: paid
// checkouts do not write a row until the gateway payment is verified.
const (
	StatusCompleted = "completed"
	StatusFree      = "free"
)

// Purchase is one user's entitlement outcome for one item. The unique index
// on (user_id, item_type, item_id) turns the create/create race between
// concurrent verifications into a duplicate-key error the reconciler
// recovers from; the application-level retry is kept regardless, because
// stores migrated from older schemas may lack the index.
type Purchase struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	UserID   int64  `gorm:"column:user_id;not null;uniqueIndex:idx_user_item" json:"user_id"`
	ItemType string `gorm:"column:item_type;not null;uniqueIndex:idx_user_item" json:"item_type"`
	ItemID   string `gorm:"column:item_id;not null;uniqueIndex:idx_user_item" json:"item_id"`

	// Amount is in the item's display currency (decimal), never gateway
	// minor units. Enforced at write time by the reconciler.
	Amount        float64 `gorm:"column:amount;default:0" json:"amount"`
	PaymentStatus string  `gorm:"column:payment_status;not null" json:"payment_status"`

	// Gateway correlation ids. The raw signature is verified and dropped,
	// only order and payment ids are persisted.
	OrderID   *string `gorm:"column:order_id" json:"order_id,omitempty"`
	PaymentID *string `gorm:"column:payment_id" json:"payment_id,omitempty"`

	// ProgressPercentage is meaningful for course enrollments only.
	ProgressPercentage int `gorm:"column:progress_percentage;default:0" json:"progress_percentage"`

	CreatedAt time.Time `gorm:"column:created_at;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()" json:"updated_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// Entitles reports whether this record authorizes content access.
func (p *Purchase) Entitles() bool {
	return p.PaymentStatus == StatusCompleted || p.PaymentStatus == StatusFree
}
