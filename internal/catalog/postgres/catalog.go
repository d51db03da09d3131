package postgres

import (
	"github.com/courseloop/courseloop/internal/catalog"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) catalog.RepositoryAPI {
	return &ItemRepository{
		db: db,
	}
}

func (r *ItemRepository) Create(it *itemDatamodel.Item) error {
	return r.db.Create(it).Error
}

func (r *ItemRepository) GetByID(id string) (*itemDatamodel.Item, error) {
	var it itemDatamodel.Item
	err := r.db.Where("id = ?", id).First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepository) List(itemType string, limit, offset int) ([]*itemDatamodel.Item, error) {
	var items []*itemDatamodel.Item

	q := r.db.Where("is_active = ?", true)
	if itemType != "" {
		q = q.Where("item_type = ?", itemType)
	}

	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	return items, err
}

func (r *ItemRepository) Update(it *itemDatamodel.Item) error {
	return r.db.Save(it).Error
}
