package catalog_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	apperrors "github.com/courseloop/courseloop/internal"
	"github.com/courseloop/courseloop/internal/catalog"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
)

func TestCatalogService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Catalog Service Suite")
}

type mockItemRepository struct {
	items       map[string]*itemDatamodel.Item
	createError error
	getError    error
	updateError error
	listError   error
}

func newMockItemRepository() *mockItemRepository {
	return &mockItemRepository{items: make(map[string]*itemDatamodel.Item)}
}

func (m *mockItemRepository) Create(it *itemDatamodel.Item) error {
	if m.createError != nil {
		return m.createError
	}
	m.items[it.ID] = it
	return nil
}

func (m *mockItemRepository) GetByID(id string) (*itemDatamodel.Item, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	it, exists := m.items[id]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return it, nil
}

func (m *mockItemRepository) List(itemType string, limit, offset int) ([]*itemDatamodel.Item, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var out []*itemDatamodel.Item
	for _, it := range m.items {
		if itemType == "" || it.ItemType == itemType {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockItemRepository) Update(it *itemDatamodel.Item) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.items[it.ID] = it
	return nil
}

var _ = Describe("CatalogService", func() {
	var (
		service  *catalog.Service
		mockRepo *mockItemRepository
	)

	BeforeEach(func() {
		mockRepo = newMockItemRepository()
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = catalog.NewService(mockRepo, testLogger)
	})

	Describe("CreateItem", func() {
		Context("when the item is valid", func() {
			It("should create it with a generated id and uppercased currency", func() {
				// Given
				dto := &catalog.CreateItemDTO{
					ItemType: itemDatamodel.TypeCourse,
					Title:    "Distributed Systems",
					Price:    499.00,
					Currency: "inr",
				}

				// When
				it, err := service.CreateItem(dto, "admin-1")

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(it.ID).ToNot(BeEmpty())
				Expect(it.Currency).To(Equal("INR"))
				Expect(it.IsActive).To(BeTrue())
				Expect(it.CreatedBy).To(Equal("admin-1"))
			})

			It("should default the currency when absent", func() {
				// Given
				dto := &catalog.CreateItemDTO{
					ItemType: itemDatamodel.TypeMaterial,
					Title:    "Notes",
					Price:    0,
				}

				// When
				it, err := service.CreateItem(dto, "admin-1")

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(it.Currency).To(Equal("INR"))
			})
		})

		Context("when the item type is unknown", func() {
			It("should reject with a validation error", func() {
				// Given
				dto := &catalog.CreateItemDTO{
					ItemType: "ebook",
					Title:    "Notes",
					Price:    10,
				}

				// When
				it, err := service.CreateItem(dto, "admin-1")

				// Then
				Expect(err).To(HaveOccurred())
				Expect(it).To(BeNil())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
			})
		})

		Context("when the price is negative", func() {
			It("should reject", func() {
				// Given
				dto := &catalog.CreateItemDTO{
					ItemType: itemDatamodel.TypeCourse,
					Title:    "Bad Price",
					Price:    -1,
				}

				// When
				_, err := service.CreateItem(dto, "admin-1")

				// Then
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("GetItem", func() {
		Context("when the item exists", func() {
			It("should return it", func() {
				// Given
				dto := &catalog.CreateItemDTO{ItemType: itemDatamodel.TypeCourse, Title: "DS", Price: 499}
				created, err := service.CreateItem(dto, "admin-1")
				Expect(err).ToNot(HaveOccurred())

				// When
				it, err := service.GetItem(created.ID)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(it.Title).To(Equal("DS"))
			})
		})

		Context("when the item does not exist", func() {
			It("should map the store miss to item not found", func() {
				// When
				it, err := service.GetItem("missing")

				// Then
				Expect(err).To(MatchError(apperrors.ErrItemNotFound))
				Expect(it).To(BeNil())
			})
		})

		Context("when the store fails", func() {
			It("should wrap as an internal error, not not-found", func() {
				// Given
				mockRepo.getError = errors.New("connection refused")

				// When
				_, err := service.GetItem("any")

				// Then
				Expect(err).To(HaveOccurred())
				Expect(err).ToNot(MatchError(apperrors.ErrItemNotFound))
			})
		})
	})

	Describe("ListItems", func() {
		It("should reject an unknown type filter", func() {
			// When
			_, err := service.ListItems("ebook", 20, 0)

			// Then
			Expect(err).To(HaveOccurred())
		})

		It("should pass a valid filter through", func() {
			// Given
			_, err := service.CreateItem(&catalog.CreateItemDTO{ItemType: itemDatamodel.TypeCourse, Title: "DS", Price: 499}, "a")
			Expect(err).ToNot(HaveOccurred())
			_, err = service.CreateItem(&catalog.CreateItemDTO{ItemType: itemDatamodel.TypeProject, Title: "Chat", Price: 199}, "a")
			Expect(err).ToNot(HaveOccurred())

			// When
			items, err := service.ListItems(itemDatamodel.TypeCourse, 20, 0)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].ItemType).To(Equal(itemDatamodel.TypeCourse))
		})
	})

	Describe("UpdateItem", func() {
		var created *itemDatamodel.Item

		BeforeEach(func() {
			var err error
			created, err = service.CreateItem(&catalog.CreateItemDTO{
				ItemType: itemDatamodel.TypeCourse,
				Title:    "DS",
				Price:    499,
			}, "admin-1")
			Expect(err).ToNot(HaveOccurred())
		})

		It("should apply only the provided fields", func() {
			// Given
			newPrice := 599.00

			// When
			it, err := service.UpdateItem(created.ID, &catalog.UpdateItemDTO{Price: &newPrice})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(it.Price).To(Equal(599.00))
			Expect(it.Title).To(Equal("DS")) // untouched
		})

		It("should reject clearing the title", func() {
			// Given
			empty := ""

			// When
			_, err := service.UpdateItem(created.ID, &catalog.UpdateItemDTO{Title: &empty})

			// Then
			Expect(err).To(HaveOccurred())
		})

		It("should return not found for an unknown id", func() {
			// When
			_, err := service.UpdateItem("missing", &catalog.UpdateItemDTO{})

			// Then
			Expect(err).To(MatchError(apperrors.ErrItemNotFound))
		})
	})
})
