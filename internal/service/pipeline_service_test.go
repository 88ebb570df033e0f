package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/events"
	"github.com/estatepro/leadsync/internal/repository"
	"github.com/estatepro/leadsync/internal/session"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

type stubActors struct {
	actor session.Actor
	ok    bool
}

func (s stubActors) Actor(context.Context) (session.Actor, bool) { return s.actor, s.ok }

type stubDirectory struct {
	dir *Directory
}

func (s stubDirectory) Build(context.Context) *Directory { return s.dir }

type pipelineHarness struct {
	leads    *MockLeadRepository
	notes    *MockNotificationRepository
	store    *NotificationStore
	pipeline *PipelineService
	assign   *AssignmentService
	calls    *[]string
}

func newPipelineHarness(t *testing.T, actor session.Actor, dir *Directory) *pipelineHarness {
	t.Helper()
	calls := &[]string{}
	leads := new(MockLeadRepository)
	notes := new(MockNotificationRepository)
	dispatcher := events.NewInMemoryDispatcher(nil)
	store := NewNotificationStore(notes, &openGate{allowed: true}, nil, nil, NotificationStoreOptions{})
	NewNotificationService(dispatcher, store, nil).RegisterHandlers()

	actors := stubActors{actor: actor, ok: true}
	directory := stubDirectory{dir: dir}
	pipeline := NewPipelineService(leads, directory, dispatcher, actors, nil, 2)
	return &pipelineHarness{
		leads:    leads,
		notes:    notes,
		store:    store,
		pipeline: pipeline,
		assign:   NewAssignmentService(leads, directory, pipeline, dispatcher, actors, nil),
		calls:    calls,
	}
}

func (h *pipelineHarness) record(name string) func(mock.Arguments) {
	return func(mock.Arguments) { *h.calls = append(*h.calls, name) }
}

var managerActor = session.Actor{ID: "m1", Name: "Maya", Role: domain.StaffRoleManager}

func seedLeads() []domain.Lead {
	return []domain.Lead{
		{ID: "l1", Name: "Mona Haddad", Email: "mona@example.com", Status: domain.LeadStatusNew,
			Assigned: map[string]domain.Ref{"assignedTo": domain.RawRef("u1")}},
		{ID: "l2", Name: "Omar", Email: "omar@corp.io", Status: domain.LeadStatusContacted},
		{ID: "l3", Name: "Lina", Email: "lina@MONA.net", Status: domain.LeadStatusClosed},
	}
}

func TestRefreshAppliesSalesFilter(t *testing.T) {
	h := newPipelineHarness(t, session.Actor{ID: "s7", Role: domain.StaffRoleSales}, MergeRosters(nil, nil))
	h.leads.On("List", mock.Anything, repository.LeadFilter{StaffID: "s7"}).Return(seedLeads(), nil)

	require.NoError(t, h.pipeline.Refresh(context.Background()))
	h.leads.AssertExpectations(t)

	h2 := newPipelineHarness(t, managerActor, MergeRosters(nil, nil))
	h2.leads.On("List", mock.Anything, repository.LeadFilter{}).Return(seedLeads(), nil)
	require.NoError(t, h2.pipeline.Refresh(context.Background()))
	h2.leads.AssertExpectations(t)
}

func TestVisibleSearchAndPagination(t *testing.T) {
	h := newPipelineHarness(t, managerActor, MergeRosters(nil, nil))
	h.leads.On("List", mock.Anything, mock.Anything).Return(seedLeads(), nil)
	require.NoError(t, h.pipeline.Refresh(context.Background()))

	page := h.pipeline.Visible(LeadQuery{Search: "MONA"})
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "l1", page.Items[0].ID)
	assert.Equal(t, "l3", page.Items[1].ID)

	page = h.pipeline.Visible(LeadQuery{Page: 2})
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "l3", page.Items[0].ID)

	page = h.pipeline.Visible(LeadQuery{Page: 9})
	assert.Empty(t, page.Items)
}

func TestBoardGroupsByStatusAndMarksTarget(t *testing.T) {
	h := newPipelineHarness(t, managerActor, MergeRosters(nil, nil))
	h.leads.On("List", mock.Anything, mock.Anything).Return(seedLeads(), nil)
	require.NoError(t, h.pipeline.Refresh(context.Background()))

	_, err := h.pipeline.BeginDrag("l2")
	require.NoError(t, err)
	_, err = h.pipeline.DragOver(domain.LeadStatusQualified)
	require.NoError(t, err)

	board := h.pipeline.Board("")
	require.Len(t, board, 5)
	assert.Equal(t, domain.LeadStatusNew, board[0].Status)
	assert.Len(t, board[0].Leads, 1)
	assert.True(t, board[2].Target)
	assert.Empty(t, board[4].Leads)
}

func TestDropOnSameColumnIsNoOp(t *testing.T) {
	h := newPipelineHarness(t, managerActor, MergeRosters(nil, nil))
	h.leads.On("List", mock.Anything, mock.Anything).Return(seedLeads(), nil).Once()
	require.NoError(t, h.pipeline.Refresh(context.Background()))

	_, err := h.pipeline.BeginDrag("l1")
	require.NoError(t, err)
	result, err := h.pipeline.Drop(context.Background(), domain.LeadStatusNew)
	require.NoError(t, err)
	assert.False(t, result.Changed)

	_, dragging := h.pipeline.Drag()
	assert.False(t, dragging)
	h.leads.AssertNumberOfCalls(t, "List", 1)
	h.leads.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	h.notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDropTransitionsNotifiesThenRefreshes(t *testing.T) {
	dir := MergeRosters([]domain.RosterEntry{rosterA("u1", "Ali")}, nil)
	h := newPipelineHarness(t, managerActor, dir)
	h.leads.On("List", mock.Anything, mock.Anything).Return(seedLeads(), nil).Once()
	require.NoError(t, h.pipeline.Refresh(context.Background()))

	closed := seedLeads()
	closed[0].Status = domain.LeadStatusClosed
	h.leads.On("UpdateStatus", mock.Anything, "l1", domain.LeadStatusClosed).
		Run(h.record("update_status")).
		Return(&closed[0], nil)
	h.notes.On("Create", mock.Anything, mock.MatchedBy(func(in domain.NotificationInput) bool {
		return in.Type == domain.NotificationStatusChange && in.UserID == "u1" && in.Metadata["leadId"] == "l1"
	})).Run(h.record("create_notification")).Return(&domain.Notification{ID: "n1", Type: domain.NotificationStatusChange}, nil)
	h.leads.On("List", mock.Anything, mock.Anything).Run(h.record("list_leads")).Return(closed, nil).Once()

	_, err := h.pipeline.BeginDrag("l1")
	require.NoError(t, err)
	_, err = h.pipeline.DragOver(domain.LeadStatusClosed)
	require.NoError(t, err)
	result, err := h.pipeline.Drop(context.Background(), domain.LeadStatusClosed)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, []string{"update_status", "create_notification", "list_leads"}, *h.calls)
	lead, ok := h.pipeline.Lead("l1")
	require.True(t, ok)
	assert.Equal(t, domain.LeadStatusClosed, lead.Status)
	assert.Equal(t, 1, h.store.UnreadCount())
}

func TestDropFailureLeavesListUntouched(t *testing.T) {
	h := newPipelineHarness(t, managerActor, MergeRosters(nil, nil))
	h.leads.On("List", mock.Anything, mock.Anything).Return(seedLeads(), nil).Once()
	require.NoError(t, h.pipeline.Refresh(context.Background()))
	h.leads.On("UpdateStatus", mock.Anything, "l2", domain.LeadStatusLost).
		Return(nil, apperrors.NewValidationError("not allowed", nil))

	_, err := h.pipeline.BeginDrag("l2")
	require.NoError(t, err)
	_, err = h.pipeline.Drop(context.Background(), domain.LeadStatusLost)
	require.Error(t, err)

	lead, _ := h.pipeline.Lead("l2")
	assert.Equal(t, domain.LeadStatusContacted, lead.Status)
	_, dragging := h.pipeline.Drag()
	assert.False(t, dragging)
	h.notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDragExclusivity(t *testing.T) {
	h := newPipelineHarness(t, managerActor, MergeRosters(nil, nil))
	h.leads.On("List", mock.Anything, mock.Anything).Return(seedLeads(), nil)
	require.NoError(t, h.pipeline.Refresh(context.Background()))

	_, err := h.pipeline.DragOver(domain.LeadStatusLost)
	assert.True(t, apperrors.IsValidation(err))

	_, err = h.pipeline.BeginDrag("l1")
	require.NoError(t, err)
	state, err := h.pipeline.BeginDrag("l2")
	require.NoError(t, err)
	assert.Equal(t, "l2", state.LeadID)

	_, err = h.pipeline.BeginDrag("gone")
	assert.True(t, apperrors.IsStale(err))

	h.pipeline.EndDrag()
	_, dragging := h.pipeline.Drag()
	assert.False(t, dragging)
	_, err = h.pipeline.Drop(context.Background(), domain.LeadStatusLost)
	assert.True(t, apperrors.IsValidation(err))
}

func TestFormStatusEditPublishesStatusChange(t *testing.T) {
	h := newPipelineHarness(t, managerActor, MergeRosters(nil, nil))
	h.leads.On("List", mock.Anything, mock.Anything).Return(seedLeads(), nil)
	require.NoError(t, h.pipeline.Refresh(context.Background()))

	status := domain.LeadStatusQualified
	update := repository.LeadUpdate{Status: &status}
	h.leads.On("Update", mock.Anything, "l1", update).Return(&domain.Lead{ID: "l1", Status: status}, nil)
	h.notes.On("Create", mock.Anything, mock.Anything).Return(&domain.Notification{ID: "n2"}, nil)

	_, err := h.pipeline.Update(context.Background(), "l1", update)
	require.NoError(t, err)
	h.notes.AssertNumberOfCalls(t, "Create", 1)
}
