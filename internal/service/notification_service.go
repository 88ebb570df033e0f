package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/events"
)

// NotificationCreator creates a notification with the collaborator.
type NotificationCreator interface {
	Create(ctx context.Context, input domain.NotificationInput) (*domain.Notification, error)
}

// NotificationService turns pipeline and assignment events into notifications.
// Delivery is best-effort: failures are logged by the dispatcher and never
// reach the workflow that published the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	creator    NotificationCreator
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, creator NotificationCreator, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		creator:    creator,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLeadStatusChanged, n.handleLeadStatusChanged)
	n.dispatcher.Subscribe(events.EventLeadAssigned, n.handleLeadAssigned)
	n.dispatcher.Subscribe(events.EventFollowUpAdded, n.handleFollowUpAdded)
}

func (n *NotificationService) handleLeadStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LeadStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.send(ctx, event, domain.NotificationInput{
		Title:   "Lead status updated",
		Message: fmt.Sprintf("%s moved from %s to %s", leadLabel(event), payload.OldStatus, payload.NewStatus),
		Type:    domain.NotificationStatusChange,
		UserID:  recipient(payload.RecipientID, event.Actor.StaffID),
	})
}

func (n *NotificationService) handleLeadAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LeadAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.send(ctx, event, domain.NotificationInput{
		Title:   "New lead assigned",
		Message: fmt.Sprintf("%s has been assigned to you", leadLabel(event)),
		Type:    domain.NotificationAssignment,
		UserID:  payload.AssigneeStaffID,
	})
}

func (n *NotificationService) handleFollowUpAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FollowUpAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	author := event.Actor.Name
	if author == "" {
		author = "A staff member"
	}
	return n.send(ctx, event, domain.NotificationInput{
		Title:   "Follow-up added",
		Message: fmt.Sprintf("%s added a follow-up on %s", author, leadLabel(event)),
		Type:    domain.NotificationFollowUp,
		UserID:  recipient(payload.RecipientID, event.Actor.StaffID),
	})
}

func (n *NotificationService) send(ctx context.Context, event events.Event, input domain.NotificationInput) error {
	if n.creator == nil {
		return nil
	}
	if strings.TrimSpace(input.UserID) == "" {
		n.logger.Debug("notification skipped, no recipient",
			zap.String("lead_id", event.LeadID),
			zap.String("event_type", string(event.Type)))
		return nil
	}
	input.Metadata = map[string]any{
		"leadId":   event.LeadID,
		"leadName": event.LeadName,
	}
	if _, err := n.creator.Create(ctx, input); err != nil {
		return fmt.Errorf("create %s notification: %w", input.Type, err)
	}
	n.logger.Debug("notification created",
		zap.String("lead_id", event.LeadID),
		zap.String("type", string(input.Type)),
		zap.String("user_id", input.UserID))
	return nil
}

func leadLabel(event events.Event) string {
	if event.LeadName != "" {
		return event.LeadName
	}
	return "A lead"
}

func recipient(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
