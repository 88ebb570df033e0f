package repository

import (
	"context"
	"net/http"
	"net/url"

	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/domain"
)

// NotificationRepository reaches the caller's notifications.
type NotificationRepository interface {
	List(ctx context.Context) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Create(ctx context.Context, input domain.NotificationInput) (*domain.Notification, error)
}

type notificationRepository struct {
	client *collaborator.Client
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(client *collaborator.Client) NotificationRepository {
	return &notificationRepository{client: client}
}

func (r *notificationRepository) List(ctx context.Context) ([]domain.Notification, error) {
	var items []domain.Notification
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "list_notifications",
		Method:    http.MethodGet,
		Path:      "/notifications",
	}, &items)
	return items, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.client.Do(ctx, collaborator.Request{
		Operation: "mark_notification_read",
		Method:    http.MethodPatch,
		Path:      "/notifications/" + url.PathEscape(id) + "/read",
	}, nil)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context) error {
	return r.client.Do(ctx, collaborator.Request{
		Operation: "mark_all_notifications_read",
		Method:    http.MethodPatch,
		Path:      "/notifications/read-all",
	}, nil)
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	return r.client.Do(ctx, collaborator.Request{
		Operation: "delete_notification",
		Method:    http.MethodDelete,
		Path:      "/notifications/" + url.PathEscape(id),
	}, nil)
}

func (r *notificationRepository) Create(ctx context.Context, input domain.NotificationInput) (*domain.Notification, error) {
	var created domain.Notification
	err := r.client.Do(ctx, collaborator.Request{
		Operation: "create_notification",
		Method:    http.MethodPost,
		Path:      "/notifications",
		Body:      input,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}
