package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/estatepro/leadsync/internal/api/dto"
	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/repository"
	"github.com/estatepro/leadsync/internal/service"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// LeadsHandler serves the lead list, the Kanban board and lead workflows.
type LeadsHandler struct{}

// NewLeadsHandler constructs handler.
func NewLeadsHandler() *LeadsHandler {
	return &LeadsHandler{}
}

// List GET /leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	ws, err := loadedWorkspace(c)
	if err != nil {
		return err
	}
	page := ws.Pipeline.Visible(service.LeadQuery{
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 0),
	})
	dir := ws.Directory.Build(c.UserContext())
	items := make([]dto.LeadResponse, 0, len(page.Items))
	for _, lead := range page.Items {
		items = append(items, leadResponse(lead, dir))
	}
	return c.JSON(fiber.Map{"data": dto.LeadPageResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}})
}

// Board GET /leads/board.
func (h *LeadsHandler) Board(c *fiber.Ctx) error {
	ws, err := loadedWorkspace(c)
	if err != nil {
		return err
	}
	dir := ws.Directory.Build(c.UserContext())
	columns := ws.Pipeline.Board(c.Query("search"))
	resp := make([]dto.BoardColumnResponse, 0, len(columns))
	for _, column := range columns {
		leads := make([]dto.LeadResponse, 0, len(column.Leads))
		for _, lead := range column.Leads {
			leads = append(leads, leadResponse(lead, dir))
		}
		resp = append(resp, dto.BoardColumnResponse{
			Status: column.Status,
			Target: column.Target,
			Count:  len(leads),
			Leads:  leads,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Refresh POST /leads/refresh.
func (h *LeadsHandler) Refresh(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Pipeline.Refresh(c.UserContext()); err != nil {
		return err
	}
	return h.List(c)
}

// Update PATCH /leads/:id.
func (h *LeadsHandler) Update(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var req dto.UpdateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	update := repository.LeadUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Source: req.Source,
	}
	if req.Status != nil {
		status, err := parseStatus(*req.Status)
		if err != nil {
			return err
		}
		update.Status = &status
	}
	if update.Empty() {
		return apperrors.NewValidationError("no fields to update", nil)
	}
	lead, err := ws.Pipeline.Update(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(*lead, ws.Directory.Build(c.UserContext()))})
}

// BeginDrag POST /leads/:id/drag.
func (h *LeadsHandler) BeginDrag(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	state, err := ws.Pipeline.BeginDrag(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dragResponse(state)})
}

// DragOver POST /leads/drag/over.
func (h *LeadsHandler) DragOver(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	status, err := dragTarget(c)
	if err != nil {
		return err
	}
	state, err := ws.Pipeline.DragOver(status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dragResponse(state)})
}

// Drop POST /leads/drag/drop.
func (h *LeadsHandler) Drop(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	status, err := dragTarget(c)
	if err != nil {
		ws.Pipeline.EndDrag()
		return err
	}
	result, err := ws.Pipeline.Drop(c.UserContext(), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DropResponse{
		LeadID:  result.LeadID,
		From:    result.From,
		To:      result.To,
		Changed: result.Changed,
	}})
}

// EndDrag DELETE /leads/drag.
func (h *LeadsHandler) EndDrag(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	ws.Pipeline.EndDrag()
	return c.SendStatus(http.StatusNoContent)
}

// Assign POST /leads/:id/assign.
func (h *LeadsHandler) Assign(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var req dto.AssignLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := ws.Assignments.Assign(c.UserContext(), c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AssignmentResponse{
		LeadID:  c.Params("id"),
		Staff:   dto.NewStaffResponse(result.Staff),
		Message: result.Message,
	}})
}

// AddFollowUp POST /leads/:id/follow-ups.
func (h *LeadsHandler) AddFollowUp(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	var req dto.AddFollowUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entries, err := ws.Assignments.AddFollowUp(c.UserContext(), c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	items := make([]dto.FollowUpResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.FollowUpResponse{
			ID:     entry.ID,
			Note:   entry.Note,
			Date:   dto.OptionalTime(entry.Date),
			Author: entry.Author,
		})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": items})
}

// loadedWorkspace returns the caller's workspace, loading leads on first use.
func loadedWorkspace(c *fiber.Ctx) (*service.Workspace, error) {
	ws, err := workspace(c)
	if err != nil {
		return nil, err
	}
	if c.QueryBool("refresh") || !ws.Pipeline.Loaded() {
		if err := ws.Pipeline.Refresh(c.UserContext()); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

func dragTarget(c *fiber.Ctx) (domain.LeadStatus, error) {
	var req dto.DragRequest
	if err := c.BodyParser(&req); err != nil {
		return "", apperrors.NewValidationError("invalid payload", nil)
	}
	return parseStatus(req.Status)
}

func parseStatus(raw string) (domain.LeadStatus, error) {
	status, err := domain.ParseLeadStatus(raw)
	if err != nil {
		return "", apperrors.NewValidationError("invalid lead status", map[string]any{
			"status":  raw,
			"allowed": domain.LeadStatuses,
		})
	}
	return status, nil
}

func dragResponse(state service.DragState) dto.DragStateResponse {
	return dto.DragStateResponse{LeadID: state.LeadID, Status: state.Status, Target: state.Target}
}

func leadResponse(lead domain.Lead, dir *service.Directory) dto.LeadResponse {
	resp := dto.LeadResponse{
		ID:        lead.ID,
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Status:    lead.Status,
		Source:    lead.Source,
		ProjectID: lead.Project.ID(),
		UnitID:    lead.Unit.ID(),
		FollowUps: make([]dto.FollowUpResponse, 0, len(lead.FollowUps)),
		CreatedAt: dto.OptionalTime(lead.CreatedAt),
	}
	if staff := dir.Lookup(lead); staff != nil {
		s := dto.NewStaffResponse(*staff)
		resp.Assignee = &s
	}
	for _, f := range lead.FollowUps {
		resp.FollowUps = append(resp.FollowUps, dto.FollowUpResponse{
			ID:     f.ID,
			Note:   strings.TrimSpace(f.Note),
			Date:   dto.OptionalTime(f.Date),
			Author: dir.FollowUpAuthor(f),
		})
	}
	return resp
}
