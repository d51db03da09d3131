package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	errors "github.com/courseloop/courseloop/internal"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
	"github.com/courseloop/courseloop/internal/paymentgateway"
)

// receiptMaxLen is the gateway's hard bound on the receipt field. Truncating
// the item id below is about satisfying this limit, nothing more.
const receiptMaxLen = 40

// ItemProvider resolves catalog items for pricing.
type ItemProvider interface {
	GetItem(id string) (*itemDatamodel.Item, error)
}

// FreeEnroller grants a no-payment entitlement for free items.
type FreeEnroller interface {
	GrantFree(userID int64, it *itemDatamodel.Item) (*purchaseDatamodel.Purchase, error)
}

// Service computes the payable amount for an item and creates a gateway
// order. It writes nothing to the ledger for paid items: the purchase row is
// created lazily at verification time, so the verifier must treat "no prior
// record" as the common case.
type Service struct {
	items     ItemProvider
	gateways  *paymentgateway.Selector
	enroller  FreeEnroller
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(items ItemProvider, gateways *paymentgateway.Selector, enroller FreeEnroller, logger *slog.Logger) *Service {
	return &Service{
		items:    items,
		gateways: gateways,
		enroller: enroller,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateCheckout resolves the item's price, short-circuits free items and
// otherwise registers an order with the currency-matched gateway.
func (s *Service) CreateCheckout(ctx context.Context, userID int64, itemID string) (*CheckoutResult, error) {
	it, err := s.items.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	if it.IsFree() {
		rec, err := s.enroller.GrantFree(userID, it)
		if err != nil {
			s.logger.Error("free enrollment failed",
				"error", err,
				"user_id", userID,
				"item_id", it.ID)
			return nil, err
		}

		s.logger.Info("free item checkout short-circuited",
			"user_id", userID,
			"item_id", it.ID,
			"item_type", it.ItemType)

		return &CheckoutResult{
			OrderID:  fmt.Sprintf("free-%d", s.now().UnixMilli()),
			Amount:   0,
			Currency: it.Currency,
			Free:     true,
			Purchase: rec,
		}, nil
	}

	amountMinor := int64(math.Round(it.Price * 100))
	gw := s.gateways.ForCurrency(it.Currency)

	order, err := gw.CreateOrder(ctx, amountMinor, it.Currency, s.buildReceipt(it.ID))
	if err != nil {
		s.logger.Error("gateway order creation failed",
			"error", err,
			"gateway", gw.Name(),
			"user_id", userID,
			"item_id", it.ID,
			"amount", amountMinor)
		// Never degrade a gateway failure into a free checkout.
		return nil, errors.NewPaymentGatewayError(err)
	}

	s.logger.Info("checkout order created",
		"user_id", userID,
		"item_id", it.ID,
		"gateway", gw.Name(),
		"order_id", order.ID,
		"amount", amountMinor,
		"currency", it.Currency)

	return &CheckoutResult{
		OrderID:    order.ID,
		Amount:     amountMinor,
		Currency:   it.Currency,
		GatewayKey: gw.KeyID(),
		Gateway:    gw.Name(),
	}, nil
}

// buildReceipt is deterministic enough for correlation but bounded to the
// gateway's 40-char limit: 8 chars of the item id plus a timestamp suffix.
func (s *Service) buildReceipt(itemID string) string {
	short := itemID
	if len(short) > 8 {
		short = short[:8]
	}
	receipt := fmt.Sprintf("rcpt-%s-%d", short, s.now().Unix())
	if len(receipt) > receiptMaxLen {
		receipt = receipt[:receiptMaxLen]
	}
	return receipt
}
