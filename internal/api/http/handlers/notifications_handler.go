package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/estatepro/leadsync/internal/api/dto"
	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/service"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// NotificationsHandler exposes the session's notification store.
type NotificationsHandler struct{}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler() *NotificationsHandler {
	return &NotificationsHandler{}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationList(ws.Notifications.Snapshot())})
}

// Refresh POST /notifications/refresh. Not coalesced with the poller.
func (h *NotificationsHandler) Refresh(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Notifications.Fetch(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationList(ws.Notifications.Snapshot())})
}

// MarkRead PATCH /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationList(ws.Notifications.Snapshot())})
}

// MarkAllRead PATCH /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Notifications.MarkAllRead(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationList(ws.Notifications.Snapshot())})
}

// Delete DELETE /notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Notifications.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationList(ws.Notifications.Snapshot())})
}

// Create POST /notifications.
func (h *NotificationsHandler) Create(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var req dto.CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.UserID) == "" {
		return apperrors.NewValidationError("title, user_id required", nil)
	}
	notificationType := domain.NotificationType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if notificationType == "" {
		return apperrors.NewValidationError("type required", nil)
	}
	created, err := ws.Notifications.Create(c.UserContext(), domain.NotificationInput{
		Title:    req.Title,
		Message:  req.Message,
		Type:     notificationType,
		UserID:   req.UserID,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}
	if created == nil {
		return c.SendStatus(http.StatusAccepted)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewNotificationResponse(*created)})
}

func notificationList(snap service.NotificationSnapshot) dto.NotificationListResponse {
	items := make([]dto.NotificationResponse, 0, len(snap.Items))
	for _, n := range snap.Items {
		items = append(items, dto.NewNotificationResponse(n))
	}
	resp := dto.NotificationListResponse{
		Items:       items,
		UnreadCount: snap.UnreadCount,
		Loading:     snap.Loading,
	}
	if snap.LastError != nil {
		resp.LastError = snap.LastError.Error()
	}
	return resp
}
