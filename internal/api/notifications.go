package api

import (
	"context"
	"fmt"
	"net/http"
)

// ListNotifications returns the caller's notifications, newest first.
// Admins receive every user's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]Notificacion, error) {
	var notifications []Notificacion
	if err := c.do(ctx, http.MethodGet, "/api/notificaciones/", nil, &notifications, true); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount fetches only the scalar count of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var counter struct {
		NoLeidas int `json:"no_leidas"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notificaciones/contador/", nil, &counter, true); err != nil {
		return 0, err
	}
	return counter.NoLeidas, nil
}

// MarkNotificationRead acknowledges a single notification.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/notificaciones/%d/marcar_como_leida/", id), nil, nil, true)
}

// MarkAllNotificationsRead acknowledges every notification visible to the caller.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notificaciones/marcar_como_leidas/", nil, nil, true)
}

// DeleteNotification removes a notification.
func (c *Client) DeleteNotification(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/notificaciones/%d/", id), nil, nil, true)
}
