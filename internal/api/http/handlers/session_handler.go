package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/estatepro/leadsync/internal/api/dto"
	"github.com/estatepro/leadsync/internal/auth"
	"github.com/estatepro/leadsync/internal/service"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// SessionHandler manages the session lifecycle that drives notification polling.
type SessionHandler struct {
	registry *service.Registry
}

// NewSessionHandler constructs handler.
func NewSessionHandler(registry *service.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// Open POST /session.
func (h *SessionHandler) Open(c *fiber.Ctx) error {
	var req dto.OpenSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = bearerToken(c.Get(fiber.HeaderAuthorization))
	}
	id, ws, err := h.registry.Open(c.UserContext(), token, req.Path)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(c, id, ws)})
}

// UpdateContext PUT /session/context.
func (h *SessionHandler) UpdateContext(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var req dto.SessionContextRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !strings.HasPrefix(req.Path, "/") {
		return apperrors.NewValidationError("path must be absolute", map[string]any{"path": req.Path})
	}
	ws.Navigate(c.UserContext(), req.Path)
	return c.JSON(fiber.Map{"data": sessionResponse(c, ws.Session.ID, ws)})
}

// Close DELETE /session.
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	if err := h.registry.Close(c.UserContext(), ws.Session.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func sessionResponse(c *fiber.Ctx, id string, ws *service.Workspace) dto.SessionResponse {
	resp := dto.SessionResponse{
		SessionID: id,
		Path:      ws.Session.Path(),
		Polling:   ws.Polling(),
	}
	if actor, ok := ws.Session.Actor(c.UserContext()); ok {
		resp.ActorID = actor.ID
		resp.ActorName = actor.Name
		resp.Role = string(actor.Role)
	}
	return resp
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func workspace(c *fiber.Ctx) (*service.Workspace, error) {
	ws, ok := auth.WorkspaceFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("missing session")
	}
	return ws, nil
}
