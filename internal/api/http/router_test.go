package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/api/http/handlers"
	"github.com/estatepro/leadsync/internal/auth"
	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/config"
	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/observability"
	"github.com/estatepro/leadsync/internal/service"
	"github.com/estatepro/leadsync/internal/session"
)

type tokenTable map[string]session.Actor

func (t tokenTable) Inspect(token string) (session.Actor, error) {
	actor, ok := t[token]
	if !ok {
		return session.Actor{}, errors.New("invalid")
	}
	return actor, nil
}

type fakeCollaborator struct {
	mu           sync.Mutex
	calls        []string
	unauthorized atomic.Bool
}

func (f *fakeCollaborator) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeCollaborator) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeCollaborator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := r.Method + " " + r.URL.Path
	f.record(call)
	if f.unauthorized.Load() && r.URL.Path == "/leads" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch call {
	case "GET /leads":
		_, _ = w.Write([]byte(`{"data":[{"_id":"l1","name":"Mona","status":"contacted","assignedTo":"u1"}]}`))
	case "GET /staff/assignable":
		_, _ = w.Write([]byte(`[{"id":"u1","name":"Ali"},{"id":"u2","name":"Sara"}]`))
	case "PATCH /leads/l1/status":
		_, _ = w.Write([]byte(`{"data":{"_id":"l1","name":"Mona","status":"qualified","assignedTo":"u1"}}`))
	case "POST /notifications":
		_, _ = w.Write([]byte(`{"data":{"_id":"n9","title":"Lead status updated","isRead":false}}`))
	default:
		_, _ = w.Write([]byte(`[]`))
	}
}

func newTestApp(t *testing.T) (*fiber.App, *fakeCollaborator) {
	t.Helper()
	fake := &fakeCollaborator{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Notification: config.NotificationConfig{PollIntervalSeconds: 3600},
		Session: config.SessionConfig{
			ProtectedPrefixes: []string{"/dashboard"},
			PublicPrefixes:    []string{"/"},
			SignInPath:        "/login",
		},
	}
	metrics := observability.NewMetrics()
	registry := service.NewRegistry(context.Background(), service.RegistryDeps{
		Config: cfg,
		Client: collaborator.NewClient(collaborator.Options{BaseURL: srv.URL, BaseDelay: time.Millisecond}),
		Tokens: session.NewMemoryTokenStore(),
		Inspector: tokenTable{
			"mgr": {ID: "u9", Name: "Nima", Role: domain.StaffRoleManager},
			"rep": {ID: "u1", Name: "Ali", Role: domain.StaffRoleSales},
		},
		Metrics: metrics,
	})
	t.Cleanup(registry.Shutdown)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:            handlers.NewHealthHandler("leadsync", "test", nil),
		Session:           handlers.NewSessionHandler(registry),
		Staff:             handlers.NewStaffHandler(),
		Leads:             handlers.NewLeadsHandler(),
		Notifications:     handlers.NewNotificationsHandler(),
		Activity:          handlers.NewActivityHandler(),
		SessionMiddleware: auth.NewSessionMiddleware(registry),
	})
	return app, fake
}

func doJSON(t *testing.T, app *fiber.App, method, path, sessionID string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(auth.SessionHeader, sessionID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func openSession(t *testing.T, app *fiber.App, token string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/session", "", map[string]string{"token": token, "path": "/dashboard/leads"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["polling"])
	return data["session_id"].(string)
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestHealthLive(t *testing.T) {
	app, _ := newTestApp(t)
	resp, _ := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRouteRequiresSession(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	resp, _ = doJSON(t, app, http.MethodPost, "/session", "", map[string]string{"token": "forged"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListLeadsResolvesAssignee(t *testing.T) {
	app, _ := newTestApp(t)
	id := openSession(t, app, "mgr")

	resp, body := doJSON(t, app, http.MethodGet, "/leads?search=mon", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	lead := items[0].(map[string]any)
	assert.Equal(t, "l1", lead["id"])
	assert.Equal(t, "Ali", lead["assignee"].(map[string]any)["name"])
}

func TestDropOnSameColumnIssuesNoRequest(t *testing.T) {
	app, fake := newTestApp(t)
	id := openSession(t, app, "mgr")

	resp, _ := doJSON(t, app, http.MethodGet, "/leads/board", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/leads/l1/drag", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/leads/drag/drop", id, map[string]string{"status": "contacted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["data"].(map[string]any)["changed"])
	assert.False(t, fake.called("PATCH /leads/l1/status"))
}

func TestDropTransitionsAndNotifies(t *testing.T) {
	app, fake := newTestApp(t)
	id := openSession(t, app, "mgr")

	doJSON(t, app, http.MethodGet, "/leads", id, nil)
	doJSON(t, app, http.MethodPost, "/leads/l1/drag", id, nil)
	resp, body := doJSON(t, app, http.MethodPost, "/leads/drag/drop", id, map[string]string{"status": "qualified"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["data"].(map[string]any)["changed"])
	assert.True(t, fake.called("PATCH /leads/l1/status"))
	assert.True(t, fake.called("POST /notifications"))
}

func TestDropRejectsUnknownStatus(t *testing.T) {
	app, _ := newTestApp(t)
	id := openSession(t, app, "mgr")

	doJSON(t, app, http.MethodGet, "/leads", id, nil)
	doJSON(t, app, http.MethodPost, "/leads/l1/drag", id, nil)
	resp, body := doJSON(t, app, http.MethodPost, "/leads/drag/drop", id, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestAssignRequiresManagerRole(t *testing.T) {
	app, fake := newTestApp(t)
	id := openSession(t, app, "rep")

	resp, body := doJSON(t, app, http.MethodPost, "/leads/l1/assign", id, map[string]string{"staff_id": "u2"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))
	assert.False(t, fake.called("PATCH /leads/l1/assign"))
}

func TestUnauthorizedCollaboratorQueuesSignInRedirect(t *testing.T) {
	app, fake := newTestApp(t)
	id := openSession(t, app, "mgr")
	fake.unauthorized.Store(true)

	resp, body := doJSON(t, app, http.MethodPost, "/leads/refresh", id, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", body["redirect"])
	assert.Equal(t, "/login", resp.Header.Get(auth.RedirectHeader))
}

func TestNotificationsListAfterNavigation(t *testing.T) {
	app, _ := newTestApp(t)
	id := openSession(t, app, "mgr")

	resp, body := doJSON(t, app, http.MethodPut, "/session/context", id, map[string]string{"path": "/"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["data"].(map[string]any)["polling"])

	resp, body = doJSON(t, app, http.MethodGet, "/notifications", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Empty(t, data["items"])
	assert.EqualValues(t, 0, data["unread_count"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/session", id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/notifications", id, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
