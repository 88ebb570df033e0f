package domain

import (
	"encoding/json"
	"time"
)

// NotificationType enumerates notification kinds.
type NotificationType string

const (
	NotificationAssignment   NotificationType = "ASSIGNMENT"
	NotificationNewLead      NotificationType = "NEW_LEAD"
	NotificationStatusChange NotificationType = "STATUS_CHANGE"
	NotificationFollowUp     NotificationType = "FOLLOW_UP"
	NotificationUnitSold     NotificationType = "UNIT_SOLD"
)

// Notification is a per-user alert held by the notification store.
type Notification struct {
	ID        string
	Title     string
	Message   string
	Type      NotificationType
	IsRead    bool
	Metadata  map[string]any
	UserID    string
	CreatedAt time.Time
}

type notificationWire struct {
	ID        Ref              `json:"id"`
	LegacyID  Ref              `json:"_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"isRead"`
	Metadata  map[string]any   `json:"metadata"`
	UserID    Ref              `json:"userId"`
	CreatedAt json.RawMessage  `json:"createdAt"`
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var wire notificationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id := wire.ID.ID()
	if id == "" {
		id = wire.LegacyID.ID()
	}
	*n = Notification{
		ID:        id,
		Title:     wire.Title,
		Message:   wire.Message,
		Type:      wire.Type,
		IsRead:    wire.IsRead,
		Metadata:  wire.Metadata,
		UserID:    wire.UserID.ID(),
		CreatedAt: parseTime(wire.CreatedAt),
	}
	return nil
}

func (n Notification) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":      n.ID,
		"title":   n.Title,
		"message": n.Message,
		"type":    n.Type,
		"isRead":  n.IsRead,
		"userId":  n.UserID,
	}
	if len(n.Metadata) > 0 {
		out["metadata"] = n.Metadata
	}
	if !n.CreatedAt.IsZero() {
		out["createdAt"] = n.CreatedAt
	}
	return json.Marshal(out)
}

// NotificationInput is the create request body.
type NotificationInput struct {
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Type     NotificationType `json:"type"`
	UserID   string           `json:"userId"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}
