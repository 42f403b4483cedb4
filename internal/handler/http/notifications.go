package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/studentsystem/order-processing/internal/store"
)

// NotificationsHandler serves the optional legacy debug read endpoint
// GET /api/v1/notifications/{id}.
type NotificationsHandler struct {
	repo   *store.NotificationRepository
	logger zerolog.Logger
}

// NewNotificationsHandler builds a NotificationsHandler.
func NewNotificationsHandler(repo *store.NotificationRepository, logger zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{repo: repo, logger: logger.With().Str("component", "notifications_handler").Logger()}
}

// Get handles GET /api/v1/notifications/{id}.
func (h *NotificationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid id")
		return
	}

	notification, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Msg("get notification failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if notification == nil {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}

	writeJSON(w, http.StatusOK, notification)
}
