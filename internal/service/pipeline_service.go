package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/events"
	"github.com/estatepro/leadsync/internal/repository"
	"github.com/estatepro/leadsync/internal/session"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// ActorSource yields the staff member acting in the current session.
type ActorSource interface {
	Actor(ctx context.Context) (session.Actor, bool)
}

// DirectoryBuilder produces a fresh staff directory.
type DirectoryBuilder interface {
	Build(ctx context.Context) *Directory
}

// LeadQuery selects the visible page of leads.
type LeadQuery struct {
	Search   string
	Page     int
	PageSize int
}

// LeadPage is one page of the filtered lead list.
type LeadPage struct {
	Items      []domain.Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// BoardColumn is one Kanban column.
type BoardColumn struct {
	Status domain.LeadStatus
	Leads  []domain.Lead
	// Target marks the column currently hovered by a drag.
	Target bool
}

// DragState describes the lead currently in drag.
type DragState struct {
	LeadID string
	Status domain.LeadStatus
	Target domain.LeadStatus
}

// DropResult reports what a drop did.
type DropResult struct {
	LeadID  string
	From    domain.LeadStatus
	To      domain.LeadStatus
	Changed bool
	Lead    *domain.Lead
}

// PipelineService holds the canonical lead list and drives the Kanban state
// machine. At most one lead is in drag at any time.
type PipelineService struct {
	leads           repository.LeadRepository
	directory       DirectoryBuilder
	dispatcher      events.Dispatcher
	actors          ActorSource
	logger          *zap.Logger
	defaultPageSize int

	mu      sync.RWMutex
	items   []domain.Lead
	loaded  bool
	lastErr error
	drag    *DragState
}

// NewPipelineService creates the service.
func NewPipelineService(leads repository.LeadRepository, directory DirectoryBuilder, dispatcher events.Dispatcher, actors ActorSource, logger *zap.Logger, defaultPageSize int) *PipelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	return &PipelineService{
		leads:           leads,
		directory:       directory,
		dispatcher:      dispatcher,
		actors:          actors,
		logger:          logger,
		defaultPageSize: defaultPageSize,
	}
}

// Refresh replaces the local list with the collaborator's. Sales staff only
// ever request their own leads.
func (p *PipelineService) Refresh(ctx context.Context) error {
	actor, ok := p.actors.Actor(ctx)
	if !ok {
		return apperrors.NewUnauthorized("no active session")
	}
	filter := repository.LeadFilter{}
	if actor.Role == domain.StaffRoleSales {
		filter.StaffID = actor.ID
	}

	leads, err := p.leads.List(ctx, filter)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastErr = err
		return err
	}
	p.items = leads
	p.loaded = true
	p.lastErr = nil
	return nil
}

// Loaded reports whether a refresh has ever succeeded.
func (p *PipelineService) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// Lead returns a copy of a locally held lead.
func (p *PipelineService) Lead(id string) (domain.Lead, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.find(id)
}

func (p *PipelineService) find(id string) (domain.Lead, bool) {
	for _, lead := range p.items {
		if lead.ID == id {
			return lead, true
		}
	}
	return domain.Lead{}, false
}

// LastError returns the error of the most recent failed refresh.
func (p *PipelineService) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Visible applies the search predicate and pagination.
func (p *PipelineService) Visible(query LeadQuery) LeadPage {
	matched := p.filter(query.Search)

	size := query.PageSize
	if size <= 0 {
		size = p.defaultPageSize
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	totalPages := (len(matched) + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return LeadPage{
		Items:      matched[start:end],
		Total:      len(matched),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}

// Board groups the searched leads into columns in pipeline order.
func (p *PipelineService) Board(search string) []BoardColumn {
	matched := p.filter(search)

	p.mu.RLock()
	var target domain.LeadStatus
	if p.drag != nil {
		target = p.drag.Target
	}
	p.mu.RUnlock()

	columns := make([]BoardColumn, 0, len(domain.LeadStatuses))
	for _, status := range domain.LeadStatuses {
		column := BoardColumn{Status: status, Leads: []domain.Lead{}, Target: status == target}
		for _, lead := range matched {
			if lead.Status == status {
				column.Leads = append(column.Leads, lead)
			}
		}
		columns = append(columns, column)
	}
	return columns
}

func (p *PipelineService) filter(search string) []domain.Lead {
	needle := strings.ToLower(strings.TrimSpace(search))

	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Lead, 0, len(p.items))
	for _, lead := range p.items {
		if needle == "" ||
			strings.Contains(strings.ToLower(lead.Name), needle) ||
			strings.Contains(strings.ToLower(lead.Email), needle) {
			out = append(out, lead)
		}
	}
	return out
}

// BeginDrag picks up a lead. A lead already in drag is replaced.
func (p *PipelineService) BeginDrag(leadID string) (DragState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lead, ok := p.find(leadID)
	if !ok {
		return DragState{}, apperrors.NewStaleReference("lead", map[string]any{"lead_id": leadID})
	}
	p.drag = &DragState{LeadID: lead.ID, Status: lead.Status}
	return *p.drag, nil
}

// DragOver marks the hovered column. It has no effect beyond display.
func (p *PipelineService) DragOver(status domain.LeadStatus) (DragState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drag == nil {
		return DragState{}, apperrors.NewValidationError("no lead is being dragged", nil)
	}
	p.drag.Target = status
	return *p.drag, nil
}

// EndDrag clears drag state whether or not a drop happened.
func (p *PipelineService) EndDrag() {
	p.mu.Lock()
	p.drag = nil
	p.mu.Unlock()
}

// Drag returns the current drag state.
func (p *PipelineService) Drag() (DragState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.drag == nil {
		return DragState{}, false
	}
	return *p.drag, true
}

// Drop releases the dragged lead over a column. Dropping on the lead's
// current column issues no request. On failure the local list is left as it
// was before the drag.
func (p *PipelineService) Drop(ctx context.Context, status domain.LeadStatus) (DropResult, error) {
	p.mu.Lock()
	drag := p.drag
	p.drag = nil
	var lead domain.Lead
	var held bool
	if drag != nil {
		lead, held = p.find(drag.LeadID)
	}
	p.mu.Unlock()

	if drag == nil {
		return DropResult{}, apperrors.NewValidationError("no lead is being dragged", nil)
	}
	if !held {
		return DropResult{}, apperrors.NewStaleReference("lead", map[string]any{"lead_id": drag.LeadID})
	}

	result := DropResult{LeadID: lead.ID, From: lead.Status, To: status}
	if lead.Status == status {
		return result, nil
	}

	updated, err := p.leads.UpdateStatus(ctx, lead.ID, status)
	if err != nil {
		p.logger.Warn("status transition failed",
			zap.String("lead_id", lead.ID),
			zap.String("to", string(status)),
			zap.Error(err))
		p.refreshIfStale(ctx, err)
		return DropResult{}, err
	}
	result.Changed = true
	result.Lead = updated

	p.publishStatusChange(ctx, lead, status, "drag")
	if err := p.Refresh(ctx); err != nil {
		p.logger.Warn("lead refresh after transition failed", zap.Error(err))
	}
	return result, nil
}

// Update submits a form edit and refreshes the list.
func (p *PipelineService) Update(ctx context.Context, id string, update repository.LeadUpdate) (*domain.Lead, error) {
	before, held := p.Lead(id)

	updated, err := p.leads.Update(ctx, id, update)
	if err != nil {
		p.refreshIfStale(ctx, err)
		return nil, err
	}

	if update.Status != nil && held && before.Status != *update.Status {
		p.publishStatusChange(ctx, before, *update.Status, "form")
	}
	p.publish(ctx, events.Event{
		Type:     events.EventLeadUpdated,
		LeadID:   id,
		LeadName: leadName(before, updated),
		Payload:  events.LeadUpdatedPayload{Fields: update.Fields()},
	})

	if err := p.Refresh(ctx); err != nil {
		p.logger.Warn("lead refresh after update failed", zap.Error(err))
	}
	return updated, nil
}

func (p *PipelineService) publishStatusChange(ctx context.Context, lead domain.Lead, to domain.LeadStatus, via string) {
	p.publish(ctx, events.Event{
		Type:     events.EventLeadStatusChanged,
		LeadID:   lead.ID,
		LeadName: lead.Name,
		Payload: events.LeadStatusChangedPayload{
			OldStatus:   lead.Status,
			NewStatus:   to,
			RecipientID: p.assigneeID(ctx, lead),
			Via:         via,
		},
	})
}

func (p *PipelineService) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if actor, ok := p.actors.Actor(ctx); ok {
		event.Actor = events.Actor{StaffID: actor.ID, Name: actor.Name}
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// assigneeID resolves the lead's assigned staff through the directory,
// falling back to the raw normalized reference.
func (p *PipelineService) assigneeID(ctx context.Context, lead domain.Lead) string {
	_, ref := lead.AssignedRef()
	if ref.IsZero() {
		return ""
	}
	if p.directory != nil {
		if staff := p.directory.Build(ctx).Lookup(lead); staff != nil {
			return staff.ID
		}
	}
	id, _ := domain.NormalizeRef(ref)
	return id
}

func (p *PipelineService) refreshIfStale(ctx context.Context, err error) {
	if !apperrors.IsStale(err) {
		return
	}
	if refreshErr := p.Refresh(ctx); refreshErr != nil {
		p.logger.Warn("refresh after stale reference failed", zap.Error(refreshErr))
	}
}

func leadName(held domain.Lead, updated *domain.Lead) string {
	if held.Name != "" {
		return held.Name
	}
	if updated != nil {
		return updated.Name
	}
	return ""
}
