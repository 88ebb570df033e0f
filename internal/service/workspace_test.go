package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/config"
	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/session"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

type tokenTable map[string]session.Actor

func (t tokenTable) Inspect(token string) (session.Actor, error) {
	actor, ok := t[token]
	if !ok {
		return session.Actor{}, errors.New("invalid")
	}
	return actor, nil
}

func newTestRegistry(t *testing.T, handler http.HandlerFunc) (*Registry, *session.MemoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Notification: config.NotificationConfig{PollIntervalSeconds: 3600},
		Feed:         config.FeedConfig{PageSize: 10},
		Session: config.SessionConfig{
			ProtectedPrefixes: []string{"/dashboard"},
			PublicPrefixes:    []string{"/", "/projects"},
			SignInPath:        "/login",
		},
	}
	tokens := session.NewMemoryTokenStore()
	registry := NewRegistry(context.Background(), RegistryDeps{
		Config:    cfg,
		Client:    collaborator.NewClient(collaborator.Options{BaseURL: srv.URL, BaseDelay: time.Millisecond}),
		Tokens:    tokens,
		Inspector: tokenTable{"good": {ID: "u1", Name: "Ali", Role: domain.StaffRoleManager}},
	})
	t.Cleanup(registry.Shutdown)
	return registry, tokens
}

func TestRegistryOpenNavigateClose(t *testing.T) {
	registry, tokens := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"n1","title":"hello","isRead":false}]`))
	})
	ctx := context.Background()

	id, ws, err := registry.Open(ctx, "good", "/dashboard/leads")
	require.NoError(t, err)
	assert.True(t, ws.Polling())
	assert.Eventually(t, func() bool { return ws.Notifications.UnreadCount() == 1 }, time.Second, 5*time.Millisecond)

	same, err := registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Same(t, ws, same)

	ws.Navigate(ctx, "/projects/4")
	assert.False(t, ws.Polling())
	assert.Zero(t, ws.Notifications.UnreadCount())

	require.NoError(t, registry.Close(ctx, id))
	token, _ := tokens.Get(ctx, id, "token")
	assert.Empty(t, token)
	_, err = registry.Get(ctx, id)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestRegistryRejectsInvalidToken(t *testing.T) {
	registry, _ := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {})

	_, _, err := registry.Open(context.Background(), "forged", "/dashboard")
	assert.True(t, apperrors.IsUnauthorized(err))
	_, _, err = registry.Open(context.Background(), "", "/dashboard")
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, registry.Len())
}

func TestRegistryRestoresSessionFromStore(t *testing.T) {
	registry, tokens := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()
	require.NoError(t, tokens.Set(ctx, "persisted", "authToken", "good"))

	ws, err := registry.Get(ctx, "persisted")
	require.NoError(t, err)
	actor, ok := ws.Session.Actor(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", actor.ID)
	assert.False(t, ws.Polling())
}

func TestNotificationPollUnauthorizedDoesNotRedirect(t *testing.T) {
	registry, _ := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	ctx := context.Background()

	_, ws, err := registry.Open(ctx, "good", "/dashboard")
	require.NoError(t, err)
	ws.poller.Stop()

	require.NoError(t, ws.Notifications.Fetch(ctx))
	snap := ws.Notifications.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.UnreadCount)
	assert.Empty(t, ws.Session.TakeRedirect())

	err = ws.Pipeline.Refresh(ctx)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, "/login", ws.Session.TakeRedirect())
}
