package item

import (
	"time"
)

// Item types. One polymorphic table covers courses, downloadable projects
// and study materials; type-specific behavior keys off ItemType.
const (
	TypeCourse   = "course"
	TypeProject  = "project"
	TypeMaterial = "material"
)

type Item struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	ItemType    string  `gorm:"column:item_type;not null;index" json:"item_type"`
	Title       string  `gorm:"column:title;not null" json:"title"`
	Description string  `gorm:"column:description" json:"description"`
	// Price is a decimal amount in the item's display currency, never minor
	// units. Zero or negative means free.
	Price    float64 `gorm:"column:price;default:0" json:"price"`
	Currency string  `gorm:"column:currency;default:INR" json:"currency"`

	// Content pointers returned by the download gate. Either may be empty;
	// both empty on a paid item is a catalog configuration error.
	DownloadURL *string `gorm:"column:download_url" json:"download_url,omitempty"`
	SourceURL   *string `gorm:"column:source_url" json:"source_url,omitempty"`

	CreatedBy string    `gorm:"column:created_by" json:"created_by"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()" json:"updated_at"`
}

func (Item) TableName() string {
	return "items"
}

// IsFree reports whether no payment is required for this item.
func (i *Item) IsFree() bool {
	return i.Price <= 0
}

func ValidType(t string) bool {
	switch t {
	case TypeCourse, TypeProject, TypeMaterial:
		return true
	}
	return false
}
