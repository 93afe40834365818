package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/crmterm/internal/model"
)

// NotificationFilter selects which server notifications to list.
type NotificationFilter string

const (
	NotificationsAll    NotificationFilter = "all"
	NotificationsUnread NotificationFilter = "unread"
)

// ListNotifications returns the current user's server notifications.
func (c *Client) ListNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error) {
	var q url.Values
	if filter != "" && filter != NotificationsAll {
		q = url.Values{"filter": {string(filter)}}
	}
	var out list[model.Notification]
	if err := c.get(ctx, "/notifications", q, &out); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead flags a notification as seen.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	if err := c.put(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil); err != nil {
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return nil
}

// CreateNotification posts a server notification about a bid.
func (c *Client) CreateNotification(ctx context.Context, bidID int64, message string) error {
	body := map[string]any{"bidId": bidID, "message": message}
	if err := c.post(ctx, "/notifications", body, nil); err != nil {
		return fmt.Errorf("creating notification for bid %d: %w", bidID, err)
	}
	return nil
}
