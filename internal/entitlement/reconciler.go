package entitlement

import (
	goerrors "errors"
	"log/slog"

	errors "github.com/courseloop/courseloop/internal"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	purchaseDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/purchase"
)

// ErrDuplicateKey is returned by RepositoryAPI.Create when the unique index
// on (user_id, item_type, item_id) rejects a concurrent insert. The
// reconciler recovers from it by re-reading.
var ErrDuplicateKey = goerrors.New("duplicate entitlement key")

// Reconciler converges the purchase ledger to "exactly one completed row per
// (user, item)" no matter how many times a verification lands, in what order,
// or what partial state an earlier run left behind. All writes go through
// here; the verification handler and the free-enrollment path share it.
type Reconciler struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewReconciler(repo RepositoryAPI, logger *slog.Logger) *Reconciler {
	return &Reconciler{repo: repo, logger: logger}
}

// RecordCompleted upserts a completed purchase for a verified payment.
//
// The happy path is a plain insert: paid checkouts write no row until
// verification. When a row already exists (re-verification, a concurrent
// verification losing the insert race, or a free/partial record left by an
// earlier run) it is corrected in place: status forced to completed, gateway
// ids filled in where absent, and a zero amount repaired from the item's
// current price. Populated fields are never overwritten with empty values and
// a nonzero amount is never lowered, so replays are harmless.
func (r *Reconciler) RecordCompleted(userID int64, it *itemDatamodel.Item, orderID, paymentID string) (*purchaseDatamodel.Purchase, error) {
	existing, err := r.repo.GetByUserAndItem(userID, it.ItemType, it.ID)
	if err != nil {
		// A failed lookup is treated as absence: the insert below either
		// succeeds or trips the unique index, both of which we handle.
		r.logger.Warn("entitlement lookup failed, treating as absent",
			"error", err,
			"user_id", userID,
			"item_id", it.ID)
		existing = nil
	}

	if existing == nil {
		rec := &purchaseDatamodel.Purchase{
			UserID:        userID,
			ItemType:      it.ItemType,
			ItemID:        it.ID,
			Amount:        it.Price,
			PaymentStatus: purchaseDatamodel.StatusCompleted,
			OrderID:       &orderID,
			PaymentID:     &paymentID,
		}

		err := r.repo.Create(rec)
		if err == nil {
			return rec, nil
		}
		if !goerrors.Is(err, ErrDuplicateKey) {
			return nil, errors.NewInternalError("failed to record purchase", err)
		}

		// Lost the insert race to a concurrent verification of the same
		// payment. The winner's row is authoritative; fall through and
		// correct it if needed.
		r.logger.Info("concurrent entitlement insert detected, recovering",
			"user_id", userID,
			"item_id", it.ID,
			"order_id", orderID)

		existing, err = r.repo.GetByUserAndItem(userID, it.ItemType, it.ID)
		if err != nil || existing == nil {
			return nil, errors.NewInternalError("failed to reload purchase after duplicate insert", err)
		}
	}

	changed := false
	if existing.PaymentStatus != purchaseDatamodel.StatusCompleted {
		existing.PaymentStatus = purchaseDatamodel.StatusCompleted
		changed = true
	}
	if orderID != "" && (existing.OrderID == nil || *existing.OrderID == "") {
		existing.OrderID = &orderID
		changed = true
	}
	if paymentID != "" && (existing.PaymentID == nil || *existing.PaymentID == "") {
		existing.PaymentID = &paymentID
		changed = true
	}
	// Amount repair is monotonic: only a zero amount is ever rewritten.
	if existing.Amount == 0 && it.Price > 0 {
		existing.Amount = it.Price
		changed = true
	}

	if !changed {
		// Idempotent replay of an already-converged record.
		return existing, nil
	}

	if err := r.repo.Update(existing); err != nil {
		// The user paid; refusing access over a corrective write would be
		// worse than serving slightly stale gateway ids. Log loudly and
		// return the best-known record.
		r.logger.Error("entitlement corrective update failed, returning best-known record",
			"error", err,
			"user_id", userID,
			"item_id", it.ID,
			"purchase_id", existing.ID)

		if fresh, ferr := r.repo.GetByUserAndItem(userID, it.ItemType, it.ID); ferr == nil && fresh != nil {
			return fresh, nil
		}
		return existing, nil
	}

	return existing, nil
}

// RecordFree grants a zero-amount entitlement for a free item. Idempotent:
// an existing row of any status is returned untouched.
func (r *Reconciler) RecordFree(userID int64, it *itemDatamodel.Item) (*purchaseDatamodel.Purchase, error) {
	existing, err := r.repo.GetByUserAndItem(userID, it.ItemType, it.ID)
	if err == nil && existing != nil {
		return existing, nil
	}

	rec := &purchaseDatamodel.Purchase{
		UserID:        userID,
		ItemType:      it.ItemType,
		ItemID:        it.ID,
		Amount:        0,
		PaymentStatus: purchaseDatamodel.StatusFree,
	}

	if err := r.repo.Create(rec); err != nil {
		if goerrors.Is(err, ErrDuplicateKey) {
			if fresh, ferr := r.repo.GetByUserAndItem(userID, it.ItemType, it.ID); ferr == nil && fresh != nil {
				return fresh, nil
			}
		}
		return nil, errors.NewInternalError("failed to record free enrollment", err)
	}
	return rec, nil
}
