package catalog

import (
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
)

// RepositoryAPI is the catalog's slice of the ledger store.
type RepositoryAPI interface {
	Create(it *itemDatamodel.Item) error
	GetByID(id string) (*itemDatamodel.Item, error)
	List(itemType string, limit, offset int) ([]*itemDatamodel.Item, error)
	Update(it *itemDatamodel.Item) error
}

type ServiceAPI interface {
	CreateItem(dto *CreateItemDTO, createdBy string) (*itemDatamodel.Item, error)
	GetItem(id string) (*itemDatamodel.Item, error)
	ListItems(itemType string, limit, offset int) ([]*itemDatamodel.Item, error)
	UpdateItem(id string, dto *UpdateItemDTO) (*itemDatamodel.Item, error)
}
