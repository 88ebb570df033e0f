package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/estatepro/leadsync/internal/service"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

const (
	workspaceKey = "auth_workspace"
	redirectKey  = "auth_redirect"

	// SessionHeader carries the session id issued by POST /session.
	SessionHeader = "X-Session-Id"
	// RedirectHeader tells the client to navigate to the sign-in page.
	RedirectHeader = "X-Sign-In-Redirect"
)

// WorkspaceSource resolves a session id to its workspace.
type WorkspaceSource interface {
	Get(ctx context.Context, id string) (*service.Workspace, error)
}

// SessionMiddleware loads the caller's workspace and surfaces any sign-in
// redirect queued while the request ran.
type SessionMiddleware struct {
	workspaces WorkspaceSource
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(workspaces WorkspaceSource) *SessionMiddleware {
	return &SessionMiddleware{workspaces: workspaces}
}

// Handle enforces a live session for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Get(SessionHeader))
	if id == "" {
		return apperrors.NewUnauthorized("missing session header")
	}

	ws, err := m.workspaces.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	c.Locals(workspaceKey, ws)

	err = c.Next()
	if redirect := ws.Session.TakeRedirect(); redirect != "" {
		c.Locals(redirectKey, redirect)
		c.Set(RedirectHeader, redirect)
	}
	return err
}

// WorkspaceFromContext retrieves the caller's workspace.
func WorkspaceFromContext(c *fiber.Ctx) (*service.Workspace, bool) {
	val := c.Locals(workspaceKey)
	if val == nil {
		return nil, false
	}
	ws, ok := val.(*service.Workspace)
	return ws, ok
}

// RedirectFromContext returns the sign-in redirect queued for this response.
func RedirectFromContext(c *fiber.Ctx) string {
	redirect, _ := c.Locals(redirectKey).(string)
	return redirect
}
