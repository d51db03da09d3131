package postgres

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
	"github.com/courseloop/courseloop/internal/entitlement"
)

func TestPurchaseRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Purchase Repository Suite")
}

// PurchaseSQLite drops the postgres-only now() column defaults so
// AutoMigrate works against SQLite. Schema otherwise matches.
type PurchaseSQLite struct {
	ID                 int64   `gorm:"primaryKey"`
	UserID             int64   `gorm:"column:user_id;not null;uniqueIndex:idx_user_item"`
	ItemType           string  `gorm:"column:item_type;not null;uniqueIndex:idx_user_item"`
	ItemID             string  `gorm:"column:item_id;not null;uniqueIndex:idx_user_item"`
	Amount             float64 `gorm:"column:amount;default:0"`
	PaymentStatus      string  `gorm:"column:payment_status;not null"`
	OrderID            *string `gorm:"column:order_id"`
	PaymentID          *string `gorm:"column:payment_id"`
	ProgressPercentage int     `gorm:"column:progress_percentage;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (PurchaseSQLite) TableName() string {
	return "purchases"
}

var _ = ginkgo.Describe("PurchaseRepository", func() {
	var (
		db   *gorm.DB
		repo entitlement.RepositoryAPI
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&PurchaseSQLite{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = NewPurchaseRepository(db)
	})

	ginkgo.Describe("Create", func() {
		ginkgo.Context("when inserting a new purchase", func() {
			ginkgo.It("should insert and set the ID", func() {
				// Given
				p := &purchaseDatamodel.Purchase{
					UserID:        1,
					ItemType:      "course",
					ItemID:        "item-1",
					Amount:        499.00,
					PaymentStatus: purchaseDatamodel.StatusCompleted,
				}

				// When
				err := repo.Create(p)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(p.ID).To(gomega.BeNumerically(">", 0))
			})
		})

		ginkgo.Context("when the (user, item) pair already exists", func() {
			ginkgo.It("should surface the duplicate key sentinel", func() {
				// Given
				first := &purchaseDatamodel.Purchase{
					UserID:        1,
					ItemType:      "course",
					ItemID:        "item-1",
					PaymentStatus: purchaseDatamodel.StatusCompleted,
				}
				second := &purchaseDatamodel.Purchase{
					UserID:        1,
					ItemType:      "course",
					ItemID:        "item-1",
					PaymentStatus: purchaseDatamodel.StatusCompleted,
				}

				// When
				err1 := repo.Create(first)
				err2 := repo.Create(second)

				// Then
				gomega.Expect(err1).ToNot(gomega.HaveOccurred())
				gomega.Expect(err2).To(gomega.MatchError(entitlement.ErrDuplicateKey))
			})
		})

		ginkgo.Context("when the same item id belongs to a different type", func() {
			ginkgo.It("should allow both rows", func() {
				// Given: (user, item_type, item_id) is the uniqueness unit
				course := &purchaseDatamodel.Purchase{
					UserID:        1,
					ItemType:      "course",
					ItemID:        "shared-id",
					PaymentStatus: purchaseDatamodel.StatusCompleted,
				}
				project := &purchaseDatamodel.Purchase{
					UserID:        1,
					ItemType:      "project",
					ItemID:        "shared-id",
					PaymentStatus: purchaseDatamodel.StatusCompleted,
				}

				// When / Then
				gomega.Expect(repo.Create(course)).To(gomega.Succeed())
				gomega.Expect(repo.Create(project)).To(gomega.Succeed())
			})
		})
	})

	ginkgo.Describe("GetByUserAndItem", func() {
		ginkgo.BeforeEach(func() {
			orderID := "order_abc"
			p := &purchaseDatamodel.Purchase{
				UserID:        1,
				ItemType:      "course",
				ItemID:        "item-1",
				Amount:        499.00,
				PaymentStatus: purchaseDatamodel.StatusCompleted,
				OrderID:       &orderID,
			}
			gomega.Expect(repo.Create(p)).To(gomega.Succeed())
		})

		ginkgo.Context("when the row exists", func() {
			ginkgo.It("should return it", func() {
				// When
				result, err := repo.GetByUserAndItem(1, "course", "item-1")

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result).ToNot(gomega.BeNil())
				gomega.Expect(result.Amount).To(gomega.Equal(499.00))
				gomega.Expect(*result.OrderID).To(gomega.Equal("order_abc"))
			})
		})

		ginkgo.Context("when no row exists", func() {
			ginkgo.It("should return nil without error", func() {
				// When
				result, err := repo.GetByUserAndItem(1, "course", "other-item")

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result).To(gomega.BeNil())
			})
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should persist corrective changes", func() {
			// Given
			p := &purchaseDatamodel.Purchase{
				UserID:        1,
				ItemType:      "course",
				ItemID:        "item-1",
				Amount:        0,
				PaymentStatus: purchaseDatamodel.StatusFree,
			}
			gomega.Expect(repo.Create(p)).To(gomega.Succeed())

			// When
			paymentID := "pay_xyz"
			p.PaymentStatus = purchaseDatamodel.StatusCompleted
			p.Amount = 499.00
			p.PaymentID = &paymentID
			err := repo.Update(p)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			reloaded, err := repo.GetByUserAndItem(1, "course", "item-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(reloaded.PaymentStatus).To(gomega.Equal(purchaseDatamodel.StatusCompleted))
			gomega.Expect(reloaded.Amount).To(gomega.Equal(499.00))
			gomega.Expect(*reloaded.PaymentID).To(gomega.Equal("pay_xyz"))
		})
	})

	ginkgo.Describe("ListByUser", func() {
		ginkgo.BeforeEach(func() {
			rows := []*purchaseDatamodel.Purchase{
				{UserID: 1, ItemType: "course", ItemID: "a", PaymentStatus: purchaseDatamodel.StatusCompleted, CreatedAt: time.Now().Add(-2 * time.Hour)},
				{UserID: 1, ItemType: "material", ItemID: "b", PaymentStatus: purchaseDatamodel.StatusFree, CreatedAt: time.Now().Add(-1 * time.Hour)},
				{UserID: 2, ItemType: "course", ItemID: "a", PaymentStatus: purchaseDatamodel.StatusCompleted},
			}
			for _, p := range rows {
				gomega.Expect(repo.Create(p)).To(gomega.Succeed())
			}
		})

		ginkgo.It("should return the user's purchases newest first", func() {
			// When
			results, err := repo.ListByUser(1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(results).To(gomega.HaveLen(2))
			gomega.Expect(results[0].ItemID).To(gomega.Equal("b"))
			gomega.Expect(results[1].ItemID).To(gomega.Equal("a"))
		})

		ginkgo.It("should return empty for a user with no purchases", func() {
			// When
			results, err := repo.ListByUser(99)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(results).To(gomega.BeEmpty())
		})
	})
})
