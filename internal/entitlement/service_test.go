package entitlement_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/courseloop/courseloop/internal"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
	"github.com/courseloop/courseloop/internal/core/events"
	"github.com/courseloop/courseloop/internal/entitlement"
	"github.com/courseloop/courseloop/internal/paymentgateway"
)

func TestEntitlement(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Entitlement Suite")
}

const (
	testRazorpaySecret = "rzp-test-secret"
	testStripeSecret   = "sk-test-secret"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Mock purchase repository for testing
type mockPurchaseRepository struct {
	purchases map[string]*purchaseDatamodel.Purchase
	nextID    int64

	createError error
	getError    error
	updateError error

	// lookupMisses makes the first N lookups report absence even when a row
	// exists, simulating a concurrent insert landing between lookup and create.
	lookupMisses int

	updateCalls int
}

func newMockPurchaseRepository() *mockPurchaseRepository {
	return &mockPurchaseRepository{
		purchases: make(map[string]*purchaseDatamodel.Purchase),
		nextID:    1,
	}
}

func purchaseKey(userID int64, itemType, itemID string) string {
	return fmt.Sprintf("%d|%s|%s", userID, itemType, itemID)
}

func (m *mockPurchaseRepository) Create(p *purchaseDatamodel.Purchase) error {
	if m.createError != nil {
		return m.createError
	}
	key := purchaseKey(p.UserID, p.ItemType, p.ItemID)
	if _, exists := m.purchases[key]; exists {
		return entitlement.ErrDuplicateKey
	}
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.purchases[key] = p
	return nil
}

func (m *mockPurchaseRepository) GetByUserAndItem(userID int64, itemType, itemID string) (*purchaseDatamodel.Purchase, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	if m.lookupMisses > 0 {
		m.lookupMisses--
		return nil, nil
	}
	p, exists := m.purchases[purchaseKey(userID, itemType, itemID)]
	if !exists {
		return nil, nil
	}
	return p, nil
}

func (m *mockPurchaseRepository) GetByID(id int64) (*purchaseDatamodel.Purchase, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, p := range m.purchases {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPurchaseRepository) Update(p *purchaseDatamodel.Purchase) error {
	m.updateCalls++
	if m.updateError != nil {
		return m.updateError
	}
	m.purchases[purchaseKey(p.UserID, p.ItemType, p.ItemID)] = p
	p.UpdatedAt = time.Now()
	return nil
}

func (m *mockPurchaseRepository) ListByUser(userID int64) ([]*purchaseDatamodel.Purchase, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	var out []*purchaseDatamodel.Purchase
	for _, p := range m.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Mock item provider
type mockItemProvider struct {
	items    map[string]*itemDatamodel.Item
	getError error
}

func newMockItemProvider() *mockItemProvider {
	return &mockItemProvider{items: make(map[string]*itemDatamodel.Item)}
}

func (m *mockItemProvider) GetItem(id string) (*itemDatamodel.Item, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	it, exists := m.items[id]
	if !exists {
		return nil, apperrors.ErrItemNotFound
	}
	return it, nil
}

// Fake gateway: only Name and KeyID matter for verification routing.
type fakeGateway struct {
	name string
}

func (f *fakeGateway) Name() string  { return f.name }
func (f *fakeGateway) KeyID() string { return f.name + "-key" }
func (f *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*paymentgateway.Order, error) {
	return nil, errors.New("not used in verification tests")
}

var _ = Describe("EntitlementService", func() {
	var (
		service  *entitlement.Service
		mockRepo *mockPurchaseRepository
		items    *mockItemProvider
		bus      *events.EventBus
		testItem *itemDatamodel.Item
	)

	const userID = int64(42)

	BeforeEach(func() {
		mockRepo = newMockPurchaseRepository()
		items = newMockItemProvider()
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(testLogger)

		verifier := entitlement.NewVerifier(map[string]string{
			"razorpay": testRazorpaySecret,
			"stripe":   testStripeSecret,
		})
		selector := paymentgateway.NewSelector(
			&fakeGateway{name: "razorpay"},
			&fakeGateway{name: "stripe"},
		)

		testItem = &itemDatamodel.Item{
			ID:       "item-1",
			ItemType: itemDatamodel.TypeCourse,
			Title:    "Distributed Systems",
			Price:    499.00,
			Currency: "INR",
			IsActive: true,
		}
		items.items[testItem.ID] = testItem

		service = entitlement.NewService(mockRepo, items, verifier, selector, bus, testLogger)
	})

	Describe("VerifyPayment", func() {
		validDTO := func() *entitlement.VerifyPaymentDTO {
			return &entitlement.VerifyPaymentDTO{
				OrderID:   "order_abc",
				PaymentID: "pay_xyz",
				Signature: sign(testRazorpaySecret, "order_abc", "pay_xyz"),
			}
		}

		Context("when the signature is valid and no record exists", func() {
			It("should create a completed purchase with the item price", func() {
				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, validDTO())

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec).ToNot(BeNil())
				Expect(rec.PaymentStatus).To(Equal(purchaseDatamodel.StatusCompleted))
				Expect(rec.Amount).To(Equal(499.00))
				Expect(rec.UserID).To(Equal(userID))
				Expect(rec.ItemID).To(Equal(testItem.ID))
				Expect(*rec.OrderID).To(Equal("order_abc"))
				Expect(*rec.PaymentID).To(Equal("pay_xyz"))
			})
		})

		Context("when the signature is forged", func() {
			It("should reject and write nothing", func() {
				// Given
				dto := validDTO()
				dto.Signature = sign("wrong-secret", dto.OrderID, dto.PaymentID)

				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, dto)

				// Then
				Expect(err).To(MatchError(apperrors.ErrInvalidSignature))
				Expect(rec).To(BeNil())
				Expect(mockRepo.purchases).To(BeEmpty())
			})
		})

		Context("when verification data is missing", func() {
			It("should reject before any crypto work", func() {
				// Given
				dto := &entitlement.VerifyPaymentDTO{OrderID: "order_abc"}

				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, dto)

				// Then
				Expect(err).To(MatchError(apperrors.ErrMissingVerificationData))
				Expect(rec).To(BeNil())
			})
		})

		Context("when the item does not exist", func() {
			It("should return item not found", func() {
				// When
				rec, err := service.VerifyPayment(userID, "nonexistent", validDTO())

				// Then
				Expect(err).To(MatchError(apperrors.ErrItemNotFound))
				Expect(rec).To(BeNil())
			})
		})

		Context("when the item bills in a foreign currency", func() {
			BeforeEach(func() {
				testItem.Currency = "USD"
			})

			It("should verify against the international gateway secret", func() {
				// Given
				dto := &entitlement.VerifyPaymentDTO{
					OrderID:   "pi_123",
					PaymentID: "py_456",
					Signature: sign(testStripeSecret, "pi_123", "py_456"),
				}

				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, dto)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec.PaymentStatus).To(Equal(purchaseDatamodel.StatusCompleted))
			})

			It("should reject a signature made with the domestic secret", func() {
				// Given
				dto := &entitlement.VerifyPaymentDTO{
					OrderID:   "pi_123",
					PaymentID: "py_456",
					Signature: sign(testRazorpaySecret, "pi_123", "py_456"),
				}

				// When
				_, err := service.VerifyPayment(userID, testItem.ID, dto)

				// Then
				Expect(err).To(MatchError(apperrors.ErrInvalidSignature))
			})
		})

		Context("when the same verification is replayed", func() {
			It("should be idempotent and keep a single record", func() {
				// When
				first, err1 := service.VerifyPayment(userID, testItem.ID, validDTO())
				second, err2 := service.VerifyPayment(userID, testItem.ID, validDTO())

				// Then
				Expect(err1).ToNot(HaveOccurred())
				Expect(err2).ToNot(HaveOccurred())
				Expect(second.ID).To(Equal(first.ID))
				Expect(mockRepo.purchases).To(HaveLen(1))
			})
		})

		Context("when a concurrent verification wins the insert race", func() {
			It("should recover via re-read and return the surviving record", func() {
				// Given: the winner's row exists but this run's lookup misses it
				winner := &purchaseDatamodel.Purchase{
					UserID:        userID,
					ItemType:      testItem.ItemType,
					ItemID:        testItem.ID,
					Amount:        499.00,
					PaymentStatus: purchaseDatamodel.StatusCompleted,
				}
				Expect(mockRepo.Create(winner)).To(Succeed())
				mockRepo.lookupMisses = 1

				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, validDTO())

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec.ID).To(Equal(winner.ID))
				Expect(mockRepo.purchases).To(HaveLen(1))
			})
		})

		Context("when an earlier run left a zero amount", func() {
			It("should repair the amount from the item price", func() {
				// Given
				stale := &purchaseDatamodel.Purchase{
					UserID:        userID,
					ItemType:      testItem.ItemType,
					ItemID:        testItem.ID,
					Amount:        0,
					PaymentStatus: purchaseDatamodel.StatusCompleted,
				}
				Expect(mockRepo.Create(stale)).To(Succeed())

				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, validDTO())

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec.Amount).To(Equal(499.00))
				Expect(*rec.OrderID).To(Equal("order_abc"))
			})
		})

		Context("when the recorded amount is already nonzero", func() {
			It("should never lower it", func() {
				// Given: recorded at an earlier, higher price
				prior := float64(999.00)
				orderID := "order_old"
				paymentID := "pay_old"
				existing := &purchaseDatamodel.Purchase{
					UserID:        userID,
					ItemType:      testItem.ItemType,
					ItemID:        testItem.ID,
					Amount:        prior,
					PaymentStatus: purchaseDatamodel.StatusCompleted,
					OrderID:       &orderID,
					PaymentID:     &paymentID,
				}
				Expect(mockRepo.Create(existing)).To(Succeed())

				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, validDTO())

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec.Amount).To(Equal(prior))
				Expect(*rec.OrderID).To(Equal("order_old")) // populated ids kept
			})
		})

		Context("when a free enrollment exists and a paid verification arrives", func() {
			It("should promote the record to completed", func() {
				// Given
				free := &purchaseDatamodel.Purchase{
					UserID:        userID,
					ItemType:      testItem.ItemType,
					ItemID:        testItem.ID,
					Amount:        0,
					PaymentStatus: purchaseDatamodel.StatusFree,
				}
				Expect(mockRepo.Create(free)).To(Succeed())

				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, validDTO())

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec.PaymentStatus).To(Equal(purchaseDatamodel.StatusCompleted))
				Expect(rec.Amount).To(Equal(499.00))
			})
		})

		Context("when the corrective update fails", func() {
			It("should log and return the best-known record, not an error", func() {
				// Given
				stale := &purchaseDatamodel.Purchase{
					UserID:        userID,
					ItemType:      testItem.ItemType,
					ItemID:        testItem.ID,
					Amount:        0,
					PaymentStatus: purchaseDatamodel.StatusCompleted,
				}
				Expect(mockRepo.Create(stale)).To(Succeed())
				mockRepo.updateError = errors.New("connection reset")

				// When
				rec, err := service.VerifyPayment(userID, testItem.ID, validDTO())

				// Then: the user paid, access is not refused over a repair
				Expect(err).ToNot(HaveOccurred())
				Expect(rec).ToNot(BeNil())
				Expect(mockRepo.updateCalls).To(Equal(1))
			})
		})
	})

	Describe("GrantFree", func() {
		Context("when no enrollment exists", func() {
			It("should create a zero-amount free record", func() {
				// When
				rec, err := service.GrantFree(userID, testItem)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec.PaymentStatus).To(Equal(purchaseDatamodel.StatusFree))
				Expect(rec.Amount).To(BeZero())
				Expect(rec.OrderID).To(BeNil())
			})
		})

		Context("when called twice", func() {
			It("should return the existing record unchanged", func() {
				// When
				first, err1 := service.GrantFree(userID, testItem)
				second, err2 := service.GrantFree(userID, testItem)

				// Then
				Expect(err1).ToNot(HaveOccurred())
				Expect(err2).ToNot(HaveOccurred())
				Expect(second.ID).To(Equal(first.ID))
				Expect(mockRepo.purchases).To(HaveLen(1))
			})
		})

		Context("when losing the insert race", func() {
			It("should re-read and return the winner", func() {
				// Given
				winner := &purchaseDatamodel.Purchase{
					UserID:        userID,
					ItemType:      testItem.ItemType,
					ItemID:        testItem.ID,
					PaymentStatus: purchaseDatamodel.StatusFree,
				}
				Expect(mockRepo.Create(winner)).To(Succeed())
				mockRepo.lookupMisses = 1

				// When
				rec, err := service.GrantFree(userID, testItem)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec.ID).To(Equal(winner.ID))
			})
		})
	})

	Describe("UpdateProgress", func() {
		var owned *purchaseDatamodel.Purchase

		BeforeEach(func() {
			owned = &purchaseDatamodel.Purchase{
				UserID:        userID,
				ItemType:      testItem.ItemType,
				ItemID:        testItem.ID,
				PaymentStatus: purchaseDatamodel.StatusCompleted,
			}
			Expect(mockRepo.Create(owned)).To(Succeed())
		})

		Context("when the purchase belongs to the user", func() {
			It("should record the progress", func() {
				// When
				rec, err := service.UpdateProgress(userID, owned.ID, 60)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(rec.ProgressPercentage).To(Equal(60))
			})
		})

		Context("when the purchase belongs to another user", func() {
			It("should report not found rather than forbidden", func() {
				// When
				rec, err := service.UpdateProgress(userID+1, owned.ID, 60)

				// Then
				Expect(err).To(MatchError(apperrors.ErrPurchaseNotFound))
				Expect(rec).To(BeNil())
			})
		})

		Context("when the purchase does not exist", func() {
			It("should return not found", func() {
				// When
				_, err := service.UpdateProgress(userID, 9999, 60)

				// Then
				Expect(err).To(MatchError(apperrors.ErrPurchaseNotFound))
			})
		})
	})

	Describe("ListPurchases", func() {
		It("should return only the user's purchases", func() {
			// Given
			mine := &purchaseDatamodel.Purchase{UserID: userID, ItemType: "course", ItemID: "a", PaymentStatus: purchaseDatamodel.StatusCompleted}
			theirs := &purchaseDatamodel.Purchase{UserID: userID + 1, ItemType: "course", ItemID: "a", PaymentStatus: purchaseDatamodel.StatusCompleted}
			Expect(mockRepo.Create(mine)).To(Succeed())
			Expect(mockRepo.Create(theirs)).To(Succeed())

			// When
			purchases, err := service.ListPurchases(userID)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(purchases).To(HaveLen(1))
			Expect(purchases[0].UserID).To(Equal(userID))
		})
	})
})
