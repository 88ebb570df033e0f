package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// FollowUp is an append-only note on a lead.
type FollowUp struct {
	ID              string
	Note            string
	Date            time.Time
	PerformedBy     Ref
	PerformedByName string
}

type followUpWire struct {
	ID              Ref             `json:"id"`
	LegacyID        Ref             `json:"_id"`
	Note            string          `json:"note"`
	Date            json.RawMessage `json:"date"`
	CreatedAt       json.RawMessage `json:"createdAt"`
	PerformedBy     Ref             `json:"performedBy"`
	PerformedByName string          `json:"performedByName"`
}

func (f *FollowUp) UnmarshalJSON(data []byte) error {
	var wire followUpWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id := wire.ID.ID()
	if id == "" {
		id = wire.LegacyID.ID()
	}
	date := parseTime(wire.Date)
	if date.IsZero() {
		date = parseTime(wire.CreatedAt)
	}
	*f = FollowUp{
		ID:              id,
		Note:            wire.Note,
		Date:            date,
		PerformedBy:     wire.PerformedBy,
		PerformedByName: strings.TrimSpace(wire.PerformedByName),
	}
	return nil
}

func (f FollowUp) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":              f.ID,
		"note":            f.Note,
		"performedBy":     f.PerformedBy,
		"performedByName": f.PerformedByName,
	}
	if !f.Date.IsZero() {
		out["date"] = f.Date
	}
	return json.Marshal(out)
}

// FollowUpInput is the append request body.
type FollowUpInput struct {
	Note            string    `json:"note"`
	Date            time.Time `json:"date"`
	PerformedBy     string    `json:"performedBy"`
	PerformedByName string    `json:"performedByName"`
}
