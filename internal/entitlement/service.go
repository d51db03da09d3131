package entitlement

import (
	"context"
	"log/slog"

	errors "github.com/courseloop/courseloop/internal"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
	"github.com/courseloop/courseloop/internal/core/events"
	"github.com/courseloop/courseloop/internal/paymentgateway"
)

// ItemProvider resolves catalog items for verification and enrollment.
type ItemProvider interface {
	GetItem(id string) (*itemDatamodel.Item, error)
}

// Service ties signature verification to ledger reconciliation. Verification
// is the only paid write path into the purchases table.
type Service struct {
	repo       RepositoryAPI
	items      ItemProvider
	verifier   *Verifier
	reconciler *Reconciler
	gateways   *paymentgateway.Selector
	bus        *events.EventBus
	logger     *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	items ItemProvider,
	verifier *Verifier,
	gateways *paymentgateway.Selector,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		items:      items,
		verifier:   verifier,
		reconciler: NewReconciler(repo, logger),
		gateways:   gateways,
		bus:        bus,
		logger:     logger,
	}
}

// VerifyPayment authenticates the gateway callback and converges the ledger.
// The signing secret is the one belonging to the gateway that would have been
// chosen at checkout, which is a pure function of the item's currency.
func (s *Service) VerifyPayment(userID int64, itemID string, dto *VerifyPaymentDTO) (*purchaseDatamodel.Purchase, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	it, err := s.items.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	gw := s.gateways.ForCurrency(it.Currency)
	if err := s.verifier.Verify(gw.Name(), dto.OrderID, dto.PaymentID, dto.Signature); err != nil {
		s.logger.Warn("payment verification rejected",
			"user_id", userID,
			"item_id", itemID,
			"order_id", dto.OrderID,
			"gateway", gw.Name())
		return nil, err
	}

	rec, err := s.reconciler.RecordCompleted(userID, it, dto.OrderID, dto.PaymentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment verified and recorded",
		"user_id", userID,
		"item_id", itemID,
		"purchase_id", rec.ID,
		"order_id", dto.OrderID)

	event := events.NewPurchaseCompletedEvent(
		rec.ID, userID, it.ItemType, it.ID, rec.Amount, dto.OrderID, dto.PaymentID)
	if err := s.bus.Publish(context.Background(), event); err != nil {
		s.logger.Error("failed to publish purchase completed event",
			"error", err,
			"purchase_id", rec.ID)
	}

	return rec, nil
}

// GrantFree satisfies the checkout flow's free-item short circuit.
func (s *Service) GrantFree(userID int64, it *itemDatamodel.Item) (*purchaseDatamodel.Purchase, error) {
	return s.reconciler.RecordFree(userID, it)
}

func (s *Service) ListPurchases(userID int64) ([]*purchaseDatamodel.Purchase, error) {
	return s.repo.ListByUser(userID)
}

// UpdateProgress records course progress on an owned purchase. Ownership is
// checked against the authenticated user; a foreign purchase id reads as not
// found rather than forbidden so ids cannot be probed.
func (s *Service) UpdateProgress(userID, purchaseID int64, progress int64) (*purchaseDatamodel.Purchase, error) {
	rec, err := s.repo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != userID {
		return nil, errors.ErrPurchaseNotFound
	}

	rec.ProgressPercentage = int(progress)
	if err := s.repo.Update(rec); err != nil {
		return nil, errors.NewInternalError("failed to update progress", err)
	}
	return rec, nil
}
