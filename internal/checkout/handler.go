package checkout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/courseloop/courseloop/internal/auth"
	"github.com/courseloop/courseloop/internal/transport"
	"github.com/courseloop/courseloop/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateCheckout(ctx context.Context, userID int64, itemID string) (*CheckoutResult, error)
}

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

// CreateCheckout handles POST /items/{id}/checkout
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateCheckout: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID := chi.URLParam(r, "id")

	result, err := h.Service.CreateCheckout(r.Context(), user.ID, itemID)
	if err != nil {
		h.Logger.Error("CreateCheckout: service error", "error", err, "user_id", user.ID, "item_id", itemID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateCheckout: checkout created",
		"user_id", user.ID,
		"item_id", itemID,
		"order_id", result.OrderID,
		"free", result.Free)

	h.WriteJSON(w, http.StatusOK, result)
}
