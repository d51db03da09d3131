package catalog

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

// ListItems handles GET /items (public)
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	items, err := h.Service.ListItems(r.URL.Query().Get("type"), limit, offset)
	if err != nil {
		h.Logger.Error("ListItems: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// GetItem handles GET /items/{id} (public)
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	it, err := h.Service.GetItem(itemID)
	if err != nil {
		h.Logger.Warn("GetItem: service error", "error", err, "item_id", itemID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, it)
}

// CreateItem handles POST /items (manage_catalog permission)
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateItem: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	it, err := h.Service.CreateItem(&dto, strconv.FormatInt(user.ID, 10))
	if err != nil {
		h.Logger.Error("CreateItem: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, it)
}

// UpdateItem handles PATCH /items/{id} (manage_catalog permission)
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	var dto UpdateItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateItem: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	it, err := h.Service.UpdateItem(itemID, &dto)
	if err != nil {
		h.Logger.Error("UpdateItem: service error", "error", err, "item_id", itemID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, it)
}
