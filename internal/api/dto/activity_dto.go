package dto

import "time"

// FeedItemResponse is one merged feed entry.
type FeedItemResponse struct {
	ID        string    `json:"id"`
	Icon      string    `json:"icon"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// FeedResponse is the merged recent-activity feed.
type FeedResponse struct {
	Items    []FeedItemResponse `json:"items"`
	Degraded bool               `json:"degraded"`
}

// ActivityEventResponse is one activity-log entry.
type ActivityEventResponse struct {
	ID        string     `json:"id,omitempty"`
	Actor     string     `json:"actor,omitempty"`
	Action    string     `json:"action,omitempty"`
	Target    string     `json:"target,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ActivityPageResponse is the "view all" page.
type ActivityPageResponse struct {
	Events     []ActivityEventResponse `json:"events"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"total_pages"`
	Loading    bool                    `json:"loading"`
	HasNext    bool                    `json:"has_next"`
	HasPrev    bool                    `json:"has_prev"`
}
