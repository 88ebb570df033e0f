package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/estatepro/leadsync/internal/api/dto"
)

// StaffHandler exposes the merged staff directory.
type StaffHandler struct{}

// NewStaffHandler constructs handler.
func NewStaffHandler() *StaffHandler {
	return &StaffHandler{}
}

// List GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	dir := ws.Directory.Build(c.UserContext())
	entries := dir.Entries()
	items := make([]dto.StaffResponse, 0, len(entries))
	for _, s := range entries {
		items = append(items, dto.NewStaffResponse(s))
	}
	return c.JSON(fiber.Map{"data": items})
}
