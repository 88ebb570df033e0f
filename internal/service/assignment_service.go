package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/events"
	"github.com/estatepro/leadsync/internal/repository"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// AssignmentResult is returned after a successful assignment.
type AssignmentResult struct {
	Lead    *domain.Lead
	Staff   domain.Staff
	Message string
}

// FollowUpEntry is a follow-up with its resolved author.
type FollowUpEntry struct {
	domain.FollowUp
	Author string
}

// AssignmentService routes leads to staff and records follow-ups.
// Assignments are never applied locally; the lead list is refreshed instead.
type AssignmentService struct {
	leads      repository.LeadRepository
	directory  DirectoryBuilder
	pipeline   *PipelineService
	dispatcher events.Dispatcher
	actors     ActorSource
	logger     *zap.Logger
	now        func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(leads repository.LeadRepository, directory DirectoryBuilder, pipeline *PipelineService, dispatcher events.Dispatcher, actors ActorSource, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		leads:      leads,
		directory:  directory,
		pipeline:   pipeline,
		dispatcher: dispatcher,
		actors:     actors,
		logger:     logger,
		now:        time.Now,
	}
}

// Assign routes a lead to a staff member. The collaborator owns staff ids,
// so an id the directory cannot resolve is still sent; the directory only
// names the assignee in the result.
func (s *AssignmentService) Assign(ctx context.Context, leadID, staffID string) (*AssignmentResult, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return nil, apperrors.NewValidationError("staffId is required", nil)
	}

	updated, err := s.leads.Assign(ctx, leadID, staffID)
	if err != nil {
		s.logger.Warn("assignment failed",
			zap.String("lead_id", leadID),
			zap.String("staff_id", staffID),
			zap.Error(err))
		s.pipeline.refreshIfStale(ctx, err)
		return nil, err
	}

	staff := domain.Staff{ID: staffID}
	if resolved := s.directory.Build(ctx).Resolve(staffID); resolved != nil {
		staff = *resolved
		staff.ID = staffID
	} else {
		s.logger.Debug("assignee not in directory", zap.String("staff_id", staffID))
	}

	held, _ := s.pipeline.Lead(leadID)
	s.publish(ctx, events.Event{
		Type:     events.EventLeadAssigned,
		LeadID:   leadID,
		LeadName: leadName(held, updated),
		Payload: events.LeadAssignedPayload{
			AssigneeStaffID: staffID,
			AssigneeName:    staff.Name,
		},
	})

	if err := s.pipeline.Refresh(ctx); err != nil {
		s.logger.Warn("lead refresh after assignment failed", zap.Error(err))
	}

	name := staff.Name
	if name == "" {
		name = staffID
	}
	return &AssignmentResult{
		Lead:    updated,
		Staff:   staff,
		Message: fmt.Sprintf("Lead assigned to %s", name),
	}, nil
}

// AddFollowUp appends a note authored by the session's actor and returns the
// lead's follow-ups after the list refresh.
func (s *AssignmentService) AddFollowUp(ctx context.Context, leadID, note string) ([]FollowUpEntry, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperrors.NewValidationError("note is required", nil)
	}
	actor, ok := s.actors.Actor(ctx)
	if !ok {
		return nil, apperrors.NewUnauthorized("no active session")
	}

	created, err := s.leads.AddFollowUp(ctx, leadID, domain.FollowUpInput{
		Note:            note,
		Date:            s.now(),
		PerformedBy:     actor.ID,
		PerformedByName: actor.Name,
	})
	if err != nil {
		s.pipeline.refreshIfStale(ctx, err)
		return nil, err
	}

	dir := s.directory.Build(ctx)
	held, _ := s.pipeline.Lead(leadID)
	recipientID := actor.ID
	if staff := dir.Lookup(held); staff != nil {
		recipientID = staff.ID
	}
	s.publish(ctx, events.Event{
		Type:     events.EventFollowUpAdded,
		LeadID:   leadID,
		LeadName: held.Name,
		Payload:  events.FollowUpAddedPayload{Note: note, RecipientID: recipientID},
	})

	if err := s.pipeline.Refresh(ctx); err != nil {
		s.logger.Warn("lead refresh after follow-up failed", zap.Error(err))
	}

	followUps := []domain.FollowUp{}
	if lead, ok := s.pipeline.Lead(leadID); ok {
		followUps = lead.FollowUps
	} else if created != nil {
		followUps = append(followUps, *created)
	}
	entries := make([]FollowUpEntry, 0, len(followUps))
	for _, f := range followUps {
		entries = append(entries, FollowUpEntry{FollowUp: f, Author: dir.FollowUpAuthor(f)})
	}
	return entries, nil
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if actor, ok := s.actors.Actor(ctx); ok {
		event.Actor = events.Actor{StaffID: actor.ID, Name: actor.Name}
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
