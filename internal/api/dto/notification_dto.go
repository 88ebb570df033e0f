package dto

import (
	"time"

	"github.com/estatepro/leadsync/internal/domain"
)

// CreateNotificationRequest payload.
type CreateNotificationRequest struct {
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Type     string         `json:"type"`
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata"`
}

// NotificationResponse is one notification.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	IsRead    bool                    `json:"is_read"`
	Metadata  map[string]any          `json:"metadata,omitempty"`
	UserID    string                  `json:"user_id,omitempty"`
	CreatedAt *time.Time              `json:"created_at,omitempty"`
}

// NotificationListResponse is the store snapshot.
type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int                    `json:"unread_count"`
	Loading     bool                   `json:"loading"`
	LastError   string                 `json:"last_error,omitempty"`
}

// NewNotificationResponse maps a notification.
func NewNotificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		IsRead:    n.IsRead,
		Metadata:  n.Metadata,
		UserID:    n.UserID,
		CreatedAt: OptionalTime(n.CreatedAt),
	}
}
