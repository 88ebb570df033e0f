package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LeadStatus enumerates pipeline states. The set is flat; any state may move to any other.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusClosed    LeadStatus = "closed"
	LeadStatusLost      LeadStatus = "lost"
)

// LeadStatuses lists the Kanban columns in display order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusClosed,
	LeadStatusLost,
}

// ParseLeadStatus rejects anything outside the five pipeline states.
func ParseLeadStatus(raw string) (LeadStatus, error) {
	status := LeadStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range LeadStatuses {
		if s == status {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown lead status %q", raw)
}

// CoerceLeadStatus maps unknown inbound values to LeadStatusNew.
func CoerceLeadStatus(raw string) LeadStatus {
	status, err := ParseLeadStatus(raw)
	if err != nil {
		return LeadStatusNew
	}
	return status
}

// AssignedStaffFields is the priority order in which a lead's assigned-staff
// reference is looked up.
var AssignedStaffFields = []string{"assignedTo", "assignedStaff", "assignedAgent", "staffId"}

// Lead is a sales lead as held by the pipeline.
type Lead struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Status    LeadStatus
	Source    string
	Project   Ref
	Unit      Ref
	Assigned  map[string]Ref
	FollowUps []FollowUp
	CreatedAt time.Time
}

// AssignedRef returns the first present assigned-staff reference and its field name.
func (l Lead) AssignedRef() (string, Ref) {
	for _, field := range AssignedStaffFields {
		if ref, ok := l.Assigned[field]; ok && !ref.IsZero() {
			return field, ref
		}
	}
	return "", Ref{}
}

type leadWire struct {
	ID        Ref             `json:"id"`
	LegacyID  Ref             `json:"_id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Status    string          `json:"status"`
	Source    string          `json:"source"`
	Project   Ref             `json:"project"`
	ProjectID Ref             `json:"projectId"`
	Unit      Ref             `json:"unit"`
	UnitID    Ref             `json:"unitId"`
	FollowUps []FollowUp      `json:"followUps"`
	CreatedAt json.RawMessage `json:"createdAt"`
}

// UnmarshalJSON decodes a collaborator lead, coercing unknown statuses and
// capturing every assigned-staff field shape.
func (l *Lead) UnmarshalJSON(data []byte) error {
	var wire leadWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	id := wire.ID.ID()
	if id == "" {
		id = wire.LegacyID.ID()
	}
	*l = Lead{
		ID:        id,
		Name:      strings.TrimSpace(wire.Name),
		Email:     strings.TrimSpace(wire.Email),
		Phone:     strings.TrimSpace(wire.Phone),
		Status:    CoerceLeadStatus(wire.Status),
		Source:    wire.Source,
		Project:   firstRef(wire.Project, wire.ProjectID),
		Unit:      firstRef(wire.Unit, wire.UnitID),
		FollowUps: wire.FollowUps,
		CreatedAt: parseTime(wire.CreatedAt),
	}
	for _, field := range AssignedStaffFields {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		var ref Ref
		if err := json.Unmarshal(raw, &ref); err != nil || ref.IsZero() {
			continue
		}
		if l.Assigned == nil {
			l.Assigned = make(map[string]Ref, 1)
		}
		l.Assigned[field] = ref
	}
	return nil
}

// MarshalJSON writes the lead in the collaborator's shape.
func (l Lead) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":        l.ID,
		"name":      l.Name,
		"email":     l.Email,
		"phone":     l.Phone,
		"status":    l.Status,
		"source":    l.Source,
		"followUps": l.FollowUps,
	}
	if !l.Project.IsZero() {
		out["project"] = l.Project
	}
	if !l.Unit.IsZero() {
		out["unit"] = l.Unit
	}
	for field, ref := range l.Assigned {
		out[field] = ref
	}
	if !l.CreatedAt.IsZero() {
		out["createdAt"] = l.CreatedAt
	}
	return json.Marshal(out)
}

func firstRef(refs ...Ref) Ref {
	for _, r := range refs {
		if !r.IsZero() {
			return r
		}
	}
	return Ref{}
}

// parseTime accepts RFC3339 strings and unix milliseconds; anything else is zero.
func parseTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return t
			}
		}
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
