package entitlement

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/courseloop/courseloop/internal/auth"
	"github.com/courseloop/courseloop/internal/transport"
	"github.com/courseloop/courseloop/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// VerifyPayment handles POST /items/{id}/payment/verify
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("VerifyPayment: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID := chi.URLParam(r, "id")

	var dto VerifyPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("VerifyPayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Service.VerifyPayment(user.ID, itemID, &dto)
	if err != nil {
		h.Logger.Error("VerifyPayment: verification failed",
			"error", err,
			"user_id", user.ID,
			"item_id", itemID,
			"order_id", dto.OrderID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("VerifyPayment: payment verified",
		"user_id", user.ID,
		"item_id", itemID,
		"purchase_id", rec.ID)

	h.WriteJSON(w, http.StatusOK, rec)
}

// ListPurchases handles GET /purchases
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	purchases, err := h.Service.ListPurchases(user.ID)
	if err != nil {
		h.Logger.Error("ListPurchases: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"purchases": purchases,
		"count":     len(purchases),
	})
}

// UpdateProgress handles PATCH /purchases/{id}/progress
func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	purchaseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid purchase id")
		return
	}

	var dto ProgressUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rec, err := h.Service.UpdateProgress(user.ID, purchaseID, dto.ProgressPercentage)
	if err != nil {
		h.Logger.Error("UpdateProgress: service error",
			"error", err,
			"user_id", user.ID,
			"purchase_id", purchaseID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rec)
}
