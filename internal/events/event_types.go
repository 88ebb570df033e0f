package events

import (
	"time"

	"github.com/estatepro/leadsync/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadUpdated       EventType = "lead_updated"
	EventLeadStatusChanged EventType = "lead_status_changed"
	EventLeadAssigned      EventType = "lead_assigned"
	EventFollowUpAdded     EventType = "lead_follow_up_added"
)

// AllEventTypes lists every type, for subscribers that want everything.
var AllEventTypes = []EventType{
	EventLeadUpdated,
	EventLeadStatusChanged,
	EventLeadAssigned,
	EventFollowUpAdded,
}

// Actor identifies the staff member behind an event.
type Actor struct {
	StaffID string `json:"staff_id"`
	Name    string `json:"name,omitempty"`
}

// Event represents a domain event emitted by the pipeline and assignment workflow.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	LeadID    string      `json:"lead_id"`
	LeadName  string      `json:"lead_name"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LeadStatusChangedPayload payload.
type LeadStatusChangedPayload struct {
	OldStatus domain.LeadStatus `json:"old_status"`
	NewStatus domain.LeadStatus `json:"new_status"`
	// RecipientID is the staff member to notify.
	RecipientID string `json:"recipient_id"`
	Via         string `json:"via"`
}

// LeadAssignedPayload payload.
type LeadAssignedPayload struct {
	AssigneeStaffID string `json:"assignee_staff_id"`
	AssigneeName    string `json:"assignee_name"`
}

// FollowUpAddedPayload payload.
type FollowUpAddedPayload struct {
	Note        string `json:"note"`
	RecipientID string `json:"recipient_id"`
}

// LeadUpdatedPayload payload.
type LeadUpdatedPayload struct {
	Fields []string `json:"fields"`
}
