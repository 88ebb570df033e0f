package domain

import (
	"encoding/json"
	"time"
)

// ActivityEvent is a heterogeneous activity-log record projected for display only.
type ActivityEvent struct {
	ID        string
	Actor     string
	Action    string
	Target    string
	Timestamp time.Time
}

// ActivityPage is one page of the activity log.
type ActivityPage struct {
	Events     []ActivityEvent
	Page       int
	TotalPages int
}

// UnmarshalJSON tolerates the several field names the activity log uses.
func (a *ActivityEvent) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*a = ActivityEvent{
		ID:     refField(fields, "id", "_id"),
		Actor:  nameField(fields, "actor", "user", "performedBy", "actorName", "userName"),
		Action: stringField(fields, "action", "type", "event"),
		Target: nameField(fields, "target", "entity", "description", "details"),
	}
	for _, key := range []string{"timestamp", "createdAt", "date"} {
		if raw, ok := fields[key]; ok {
			if t := parseTime(raw); !t.IsZero() {
				a.Timestamp = t
				break
			}
		}
	}
	return nil
}

func refField(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var ref Ref
		if err := json.Unmarshal(raw, &ref); err == nil {
			if id := ref.ID(); id != "" {
				return id
			}
		}
	}
	return ""
}

func stringField(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		var s string
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// nameField reads a string, or the name/title of a nested object.
func nameField(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
		var obj map[string]any
		if json.Unmarshal(raw, &obj) == nil {
			for _, member := range []string{"name", "title", "fullName", "email"} {
				if v, ok := obj[member].(string); ok && v != "" {
					return v
				}
			}
		}
	}
	return ""
}
