package postgres

import (
	accessDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/access"
	"github.com/courseloop/courseloop/internal/download"
	"gorm.io/gorm"
)

type AccessEventRepository struct {
	db *gorm.DB
}

func NewAccessEventRepository(db *gorm.DB) download.AccessRepositoryAPI {
	return &AccessEventRepository{
		db: db,
	}
}

func (r *AccessEventRepository) Create(e *accessDatamodel.Event) error {
	return r.db.Create(e).Error
}
