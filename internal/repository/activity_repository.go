package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/domain"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// ActivityRepository pages through the activity log.
type ActivityRepository interface {
	List(ctx context.Context, page, limit int) (*domain.ActivityPage, error)
}

type activityRepository struct {
	client *collaborator.Client
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(client *collaborator.Client) ActivityRepository {
	return &activityRepository{client: client}
}

func (r *activityRepository) List(ctx context.Context, page, limit int) (*domain.ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	body, err := r.client.DoRaw(ctx, collaborator.Request{
		Operation: "list_activities",
		Method:    http.MethodGet,
		Path:      "/activities",
		Query:     query,
	})
	if err != nil {
		return nil, err
	}
	result, err := decodeActivityPage(body)
	if err != nil {
		return nil, apperrors.NewTransportError("list_activities: malformed response", err)
	}
	result.Page = page
	return result, nil
}

type pagination struct {
	TotalPages int `json:"totalPages"`
	Pages      int `json:"pages"`
}

type activityEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Activities []domain.ActivityEvent `json:"activities"`
	TotalPages int                    `json:"totalPages"`
	Pagination pagination             `json:"pagination"`
}

func (e activityEnvelope) pages() int {
	if e.TotalPages > 0 {
		return e.TotalPages
	}
	if e.Pagination.TotalPages > 0 {
		return e.Pagination.TotalPages
	}
	return e.Pagination.Pages
}

// decodeActivityPage accepts a bare list, {"data": [...], "totalPages": n},
// {"activities": [...], "pagination": {...}} or either object form wrapped
// in {"data": {...}}.
func decodeActivityPage(body []byte) (*domain.ActivityPage, error) {
	body = bytes.TrimSpace(body)
	var list []domain.ActivityEvent
	if err := json.Unmarshal(body, &list); err == nil {
		return &domain.ActivityPage{Events: list, TotalPages: 1}, nil
	}
	var wrapped activityEnvelope
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}

	data := bytes.TrimSpace(wrapped.Data)
	if len(data) > 0 && data[0] == '{' {
		inner, err := decodeActivityPage(data)
		if err != nil {
			return nil, err
		}
		if outer := wrapped.pages(); outer > 0 && inner.TotalPages <= 1 {
			inner.TotalPages = outer
		}
		return inner, nil
	}

	var events []domain.ActivityEvent
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, err
		}
	}
	if len(events) == 0 {
		events = wrapped.Activities
	}
	total := wrapped.pages()
	if total == 0 {
		total = 1
	}
	return &domain.ActivityPage{Events: events, TotalPages: total}, nil
}
