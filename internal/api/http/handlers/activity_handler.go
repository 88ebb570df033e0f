package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/estatepro/leadsync/internal/api/dto"
	"github.com/estatepro/leadsync/internal/service"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// ActivityHandler serves the merged feed and the paged activity log.
type ActivityHandler struct{}

// NewActivityHandler constructs handler.
func NewActivityHandler() *ActivityHandler {
	return &ActivityHandler{}
}

// Feed GET /activity/feed.
func (h *ActivityHandler) Feed(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	feed := ws.Activity.Feed(c.UserContext())
	items := make([]dto.FeedItemResponse, 0, len(feed.Items))
	for _, item := range feed.Items {
		items = append(items, dto.FeedItemResponse{
			ID:        item.ID,
			Icon:      item.Icon,
			Title:     item.Title,
			Subtitle:  item.Subtitle,
			Timestamp: item.Timestamp,
			Source:    string(item.Source),
		})
	}
	return c.JSON(fiber.Map{"data": dto.FeedResponse{Items: items, Degraded: feed.Degraded}})
}

// Page GET /activity?direction=open|next|prev.
func (h *ActivityHandler) Page(c *fiber.Ctx) error {
	ws, err := workspace(c)
	if err != nil {
		return err
	}
	direction := service.PageDirection(c.Query("direction", string(service.PageOpen)))
	switch direction {
	case service.PageOpen, service.PageNext, service.PagePrev:
	default:
		return apperrors.NewValidationError("direction must be open, next or prev", map[string]any{"direction": direction})
	}
	snap, err := ws.Pager.Load(c.UserContext(), direction)
	if err != nil {
		return err
	}
	events := make([]dto.ActivityEventResponse, 0, len(snap.Events))
	for _, e := range snap.Events {
		events = append(events, dto.ActivityEventResponse{
			ID:        e.ID,
			Actor:     e.Actor,
			Action:    e.Action,
			Target:    e.Target,
			Timestamp: dto.OptionalTime(e.Timestamp),
		})
	}
	return c.JSON(fiber.Map{"data": dto.ActivityPageResponse{
		Events:     events,
		Page:       snap.Page,
		TotalPages: snap.TotalPages,
		Loading:    snap.Loading,
		HasNext:    snap.HasNext,
		HasPrev:    snap.HasPrev,
	}})
}
