package catalog

import (
	errors "github.com/courseloop/courseloop/internal"
	"github.com/courseloop/courseloop/internal/core/common/validation"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
)

type CreateItemDTO struct {
	ItemType    string  `json:"item_type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	DownloadURL *string `json:"download_url,omitempty"`
	SourceURL   *string `json:"source_url,omitempty"`
}

func (d *CreateItemDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("item_type", d.ItemType).Required().Custom(func(v interface{}) *errors.AppError {
		if s, ok := v.(string); ok && s != "" && !itemDatamodel.ValidType(s) {
			return errors.NewValidationFieldError("item_type", "item_type must be course, project or material", errors.ErrCodeInvalidItemType)
		}
		return nil
	})
	validator.Field("title", d.Title).Required().MaxLength(200)
	validator.Field("price", d.Price).NonNegativeFloat(errors.ErrCodeInvalidPrice)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateItemDTO carries partial updates; nil means "leave unchanged".
type UpdateItemDTO struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
	DownloadURL *string  `json:"download_url,omitempty"`
	SourceURL   *string  `json:"source_url,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

func (d *UpdateItemDTO) Validate() error {
	if d.Price != nil && *d.Price < 0 {
		return errors.NewValidationFieldError("price", "price must not be negative", errors.ErrCodeInvalidPrice)
	}
	if d.Title != nil && *d.Title == "" {
		return errors.NewValidationFieldError("title", "title must not be empty", errors.ErrCodeValidationFailed)
	}
	return nil
}
