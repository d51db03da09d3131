package catalog

import (
	"log/slog"
	"strings"
	"time"

	errors "github.com/courseloop/courseloop/internal"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service handles catalog business logic
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateItem(dto *CreateItemDTO, createdBy string) (*itemDatamodel.Item, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("item validation failed", "error", err)
		return nil, err
	}

	currency := strings.ToUpper(dto.Currency)
	if currency == "" {
		currency = "INR"
	}

	it := &itemDatamodel.Item{
		ID:          uuid.NewString(),
		ItemType:    dto.ItemType,
		Title:       dto.Title,
		Description: dto.Description,
		Price:       dto.Price,
		Currency:    currency,
		DownloadURL: dto.DownloadURL,
		SourceURL:   dto.SourceURL,
		CreatedBy:   createdBy,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.repo.Create(it); err != nil {
		s.logger.Error("failed to create item", "error", err, "title", dto.Title)
		return nil, errors.NewInternalError("failed to create item", err)
	}

	s.logger.Info("item created",
		"item_id", it.ID,
		"item_type", it.ItemType,
		"price", it.Price,
		"created_by", createdBy)

	return it, nil
}

func (s *Service) GetItem(id string) (*itemDatamodel.Item, error) {
	it, err := s.repo.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrItemNotFound
		}
		s.logger.Error("failed to get item", "error", err, "item_id", id)
		return nil, errors.NewInternalError("failed to load item", err)
	}
	return it, nil
}

func (s *Service) ListItems(itemType string, limit, offset int) ([]*itemDatamodel.Item, error) {
	if itemType != "" && !itemDatamodel.ValidType(itemType) {
		return nil, errors.NewValidationError("invalid item type filter", errors.ErrCodeInvalidItemType)
	}

	items, err := s.repo.List(itemType, limit, offset)
	if err != nil {
		s.logger.Error("failed to list items", "error", err, "item_type", itemType)
		return nil, errors.NewInternalError("failed to list items", err)
	}
	return items, nil
}

func (s *Service) UpdateItem(id string, dto *UpdateItemDTO) (*itemDatamodel.Item, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	it, err := s.GetItem(id)
	if err != nil {
		return nil, err
	}

	if dto.Title != nil {
		it.Title = *dto.Title
	}
	if dto.Description != nil {
		it.Description = *dto.Description
	}
	if dto.Price != nil {
		it.Price = *dto.Price
	}
	if dto.Currency != nil {
		it.Currency = strings.ToUpper(*dto.Currency)
	}
	if dto.DownloadURL != nil {
		it.DownloadURL = dto.DownloadURL
	}
	if dto.SourceURL != nil {
		it.SourceURL = dto.SourceURL
	}
	if dto.IsActive != nil {
		it.IsActive = *dto.IsActive
	}
	it.UpdatedAt = time.Now()

	if err := s.repo.Update(it); err != nil {
		s.logger.Error("failed to update item", "error", err, "item_id", id)
		return nil, errors.NewInternalError("failed to update item", err)
	}

	s.logger.Info("item updated", "item_id", id)
	return it, nil
}
