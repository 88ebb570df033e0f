package dto

import "github.com/estatepro/leadsync/internal/domain"

// OpenSessionRequest payload.
type OpenSessionRequest struct {
	Token string `json:"token"`
	Path  string `json:"path"`
}

// SessionContextRequest payload for navigation changes.
type SessionContextRequest struct {
	Path string `json:"path"`
}

// SessionResponse describes a live session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	Polling   bool   `json:"polling"`
	ActorID   string `json:"actor_id,omitempty"`
	ActorName string `json:"actor_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// StaffResponse is a canonical directory entry.
type StaffResponse struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Email  string              `json:"email,omitempty"`
	Avatar string              `json:"avatar,omitempty"`
	Role   string              `json:"role,omitempty"`
	Source domain.RosterSource `json:"source"`
}

// NewStaffResponse maps a directory entry.
func NewStaffResponse(s domain.Staff) StaffResponse {
	return StaffResponse{
		ID:     s.ID,
		Name:   s.Name,
		Email:  s.Email,
		Avatar: s.Avatar,
		Role:   s.Role,
		Source: s.Source,
	}
}
