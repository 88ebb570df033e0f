package dto

import (
	"time"

	"github.com/estatepro/leadsync/internal/domain"
)

// UpdateLeadRequest is a form edit. Omitted fields are unchanged.
type UpdateLeadRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Status *string `json:"status"`
	Source *string `json:"source"`
}

// DragRequest names a Kanban column.
type DragRequest struct {
	Status string `json:"status"`
}

// AssignLeadRequest payload.
type AssignLeadRequest struct {
	StaffID string `json:"staff_id"`
}

// AddFollowUpRequest payload.
type AddFollowUpRequest struct {
	Note string `json:"note"`
}

// LeadResponse is a lead with its resolved assignee.
type LeadResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email,omitempty"`
	Phone     string             `json:"phone,omitempty"`
	Status    domain.LeadStatus  `json:"status"`
	Source    string             `json:"source,omitempty"`
	ProjectID string             `json:"project_id,omitempty"`
	UnitID    string             `json:"unit_id,omitempty"`
	Assignee  *StaffResponse     `json:"assignee"`
	FollowUps []FollowUpResponse `json:"follow_ups"`
	CreatedAt *time.Time         `json:"created_at,omitempty"`
}

// FollowUpResponse is a follow-up with its resolved author.
type FollowUpResponse struct {
	ID     string     `json:"id,omitempty"`
	Note   string     `json:"note"`
	Date   *time.Time `json:"date,omitempty"`
	Author string     `json:"author"`
}

// LeadPageResponse is one page of leads.
type LeadPageResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// BoardColumnResponse is one Kanban column.
type BoardColumnResponse struct {
	Status domain.LeadStatus `json:"status"`
	Target bool              `json:"target"`
	Count  int               `json:"count"`
	Leads  []LeadResponse    `json:"leads"`
}

// DragStateResponse describes the lead in drag.
type DragStateResponse struct {
	LeadID string            `json:"lead_id"`
	Status domain.LeadStatus `json:"status"`
	Target domain.LeadStatus `json:"target,omitempty"`
}

// DropResponse reports a drop outcome.
type DropResponse struct {
	LeadID  string            `json:"lead_id"`
	From    domain.LeadStatus `json:"from"`
	To      domain.LeadStatus `json:"to"`
	Changed bool              `json:"changed"`
}

// AssignmentResponse reports a successful assignment.
type AssignmentResponse struct {
	LeadID  string        `json:"lead_id"`
	Staff   StaffResponse `json:"staff"`
	Message string        `json:"message"`
}

// OptionalTime returns nil for the zero time.
func OptionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
