package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/domain"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newStub(t *testing.T, responses map[string]string) (*collaborator.Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.body))
		}
		calls = append(calls, rec)
		body, ok := responses[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	client := collaborator.NewClient(collaborator.Options{
		BaseURL:       srv.URL,
		TokenProvider: func(context.Context) (string, error) { return "tok", nil },
		BaseDelay:     time.Millisecond,
	})
	return client, &calls
}

func TestLeadRepositoryListWithStaffFilter(t *testing.T) {
	client, calls := newStub(t, map[string]string{
		"GET /leads": `{"data":[{"_id":"l1","name":"Mona","status":"contacted","assignedTo":"u1"}]}`,
	})
	leads, err := NewLeadRepository(client).List(context.Background(), LeadFilter{StaffID: "u1"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, domain.LeadStatusContacted, leads[0].Status)
	assert.Equal(t, "assignedTo=u1", (*calls)[0].query)
}

func TestLeadRepositoryUpdateStatusAndAssign(t *testing.T) {
	client, calls := newStub(t, map[string]string{
		"PATCH /leads/l1/status": `{"id":"l1","status":"closed"}`,
		"PATCH /leads/l1/assign": `{"id":"l1","status":"closed","assignedTo":"u2"}`,
	})
	repo := NewLeadRepository(client)

	lead, err := repo.UpdateStatus(context.Background(), "l1", domain.LeadStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusClosed, lead.Status)
	assert.Equal(t, "closed", (*calls)[0].body["status"])

	_, err = repo.Assign(context.Background(), "l1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", (*calls)[1].body["staffId"])
}

func TestLeadRepositoryAddFollowUpBody(t *testing.T) {
	client, calls := newStub(t, map[string]string{
		"POST /leads/l1/follow-ups": `{"_id":"f1","note":"called"}`,
	})
	fu, err := NewLeadRepository(client).AddFollowUp(context.Background(), "l1", domain.FollowUpInput{
		Note: "called", Date: time.Now(), PerformedBy: "u1", PerformedByName: "Ali",
	})
	require.NoError(t, err)
	assert.Equal(t, "f1", fu.ID)
	body := (*calls)[0].body
	assert.Equal(t, "u1", body["performedBy"])
	assert.Equal(t, "Ali", body["performedByName"])
	assert.NotEmpty(t, body["date"])
}

func TestNotificationRepositoryRoutes(t *testing.T) {
	client, calls := newStub(t, map[string]string{
		"GET /notifications":            `[{"_id":"n1","title":"t","isRead":false}]`,
		"PATCH /notifications/n1/read":  `{}`,
		"PATCH /notifications/read-all": `{}`,
		"DELETE /notifications/n1":      `{}`,
		"POST /notifications":           `{"data":{"_id":"n2","title":"new","type":"ASSIGNMENT","userId":"u2"}}`,
	})
	repo := NewNotificationRepository(client)
	ctx := context.Background()

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, repo.MarkRead(ctx, "n1"))
	require.NoError(t, repo.MarkAllRead(ctx))
	require.NoError(t, repo.Delete(ctx, "n1"))
	created, err := repo.Create(ctx, domain.NotificationInput{Title: "new", Type: domain.NotificationAssignment, UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, "u2", created.UserID)
	assert.Len(t, *calls, 5)
}

func TestStaffRepositoryRosters(t *testing.T) {
	client, _ := newStub(t, map[string]string{
		"GET /staff/assignable": `[{"_id":"u1","name":"Ali"}]`,
		"GET /staff-profiles":   `{"data":[{"_id":"p1","userId":{"_id":"u1"},"name":"Ali (Agent)"}]}`,
	})
	repo := NewStaffRepository(client)

	a, err := repo.ListAssignable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", a[0].OwnID())

	b, err := repo.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p1", b[0].OwnID())
	assert.Equal(t, "u1", b[0].LinkedID())
}

func TestDecodeActivityPageShapes(t *testing.T) {
	page, err := decodeActivityPage([]byte(`{"activities":[{"_id":"a1","action":"created"}],"pagination":{"totalPages":4}}`))
	require.NoError(t, err)
	assert.Len(t, page.Events, 1)
	assert.Equal(t, 4, page.TotalPages)

	page, err = decodeActivityPage([]byte(`{"data":[],"totalPages":2}`))
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)

	page, err = decodeActivityPage([]byte(`[{"_id":"a1"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)

	page, err = decodeActivityPage([]byte(`{"data":null}`))
	require.NoError(t, err)
	assert.Empty(t, page.Events)
}

func TestActivityRepositoryUnwrapsDataObject(t *testing.T) {
	client, _ := newStub(t, map[string]string{
		"GET /activities": `{"success":true,"data":{"activities":[{"_id":"a1","action":"created"},{"_id":"a2"}],"pagination":{"pages":5}}}`,
	})
	page, err := NewActivityRepository(client).List(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "a1", page.Events[0].ID)
	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, 1, page.Page)
}

func TestActivityRepositorySendsPaging(t *testing.T) {
	client, calls := newStub(t, map[string]string{
		"GET /activities": `{"data":[{"_id":"a1"}],"totalPages":3}`,
	})
	page, err := NewActivityRepository(client).List(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, "limit=5&page=2", (*calls)[0].query)
}
