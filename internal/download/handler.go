package download

import (
	"log/slog"
	"net/http"

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

// Download handles POST /items/{id}/download
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("Download: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID := chi.URLParam(r, "id")

	result, err := h.Service.Authorize(user.ID, itemID)
	if err != nil {
		h.Logger.Error("Download: access denied or failed",
			"error", err,
			"user_id", user.ID,
			"item_id", itemID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Download: access granted",
		"user_id", user.ID,
		"item_id", itemID,
		"item_type", result.ItemType)

	h.WriteJSON(w, http.StatusOK, result)
}
