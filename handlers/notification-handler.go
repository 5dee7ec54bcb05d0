package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/middleware"
	"github.com/SamMuaks2/projectsandtasks-backend/models"
	"github.com/SamMuaks2/projectsandtasks-backend/services"

	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List returns the authenticated user's notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifications, err := h.service.ListForUser(actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

type markReadRequest struct {
	CreatedAt string `json:"createdAt"`
}

// MarkRead flags one of the user's notifications as read. The creation
// timestamp is part of the row key and must come with the request.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	createdAt, err := time.Parse(time.RFC3339, req.CreatedAt)
	if err != nil {
		http.Error(w, "Invalid createdAt format", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(actor.ID, mux.Vars(r)["id"], createdAt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}
