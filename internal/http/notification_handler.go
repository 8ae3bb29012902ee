package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuentas-claras/panel/internal/application"
)

type notificationService interface {
	RefreshList(ctx context.Context) ([]application.Notification, error)
	Unread() int
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id int) error
	Open(ctx context.Context, id int) (string, error)
}

// NotificationHandler serves the notification list, the unread counter,
// and the read-state mutations.
type NotificationHandler struct {
	service   notificationService
	responder responder
}

// NewNotificationHandler wires the notification endpoints.
func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

// List refreshes the notification list from the backend and returns it.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items, err := h.service.RefreshList(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]notificationDTO, len(items))
	for i, item := range items {
		out[i] = toNotificationDTO(item)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, notificationListResponse{
		Notifications: out,
		Unread:        h.service.Unread(),
	})
}

// UnreadCount answers with the locally held unread counter. It never hits
// the backend; the poller keeps the value fresh.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, unreadResponse{Unread: h.service.Unread()})
}

// MarkRead acknowledges one notification.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.MarkRead(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, unreadResponse{Unread: h.service.Unread()})
}

// MarkAllRead acknowledges every notification.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.MarkAllRead(r.Context()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, unreadResponse{Unread: h.service.Unread()})
}

// Delete removes one notification.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Open marks a notification read and answers with the panel path its
// subject lives at.
func (h *NotificationHandler) Open(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	destination, err := h.service.Open(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, openResponse{Destination: destination})
}

type notificationDTO struct {
	ID          int    `json:"id"`
	Kind        string `json:"tipo"`
	Title       string `json:"titulo"`
	Message     string `json:"mensaje"`
	Target      string `json:"objeto_tipo,omitempty"`
	IsRead      bool   `json:"leida"`
	CreatedAt   string `json:"fecha_creacion"`
	RelativeAge string `json:"tiempo_relativo"`
}

func toNotificationDTO(item application.Notification) notificationDTO {
	return notificationDTO{
		ID:          item.ID,
		Kind:        item.Kind,
		Title:       item.Title,
		Message:     item.Message,
		Target:      string(item.Target),
		IsRead:      item.IsRead,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339),
		RelativeAge: item.RelativeAge,
	}
}

type notificationListResponse struct {
	Notifications []notificationDTO `json:"notificaciones"`
	Unread        int               `json:"no_leidas"`
}

type unreadResponse struct {
	Unread int `json:"no_leidas"`
}

type openResponse struct {
	Destination string `json:"destino"`
}
