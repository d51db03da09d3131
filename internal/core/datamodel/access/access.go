package access

import (
	"time"
)

// Event records one successful download authorization. Written
// fire-and-forget off the event bus; a failed insert never blocks the
// download response.
type Event struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	ItemType  string    `gorm:"column:item_type;not null"`
	ItemID    string    `gorm:"column:item_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (Event) TableName() string {
	return "access_events"
}
