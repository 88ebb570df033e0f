package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/config"
	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/repository"
)

// FeedSource names where a feed item came from.
type FeedSource string

const (
	FeedSourceNotification FeedSource = "notification"
	FeedSourceActivity     FeedSource = "activity"
)

// FeedItem is the common display shape for notifications and activity events.
type FeedItem struct {
	ID        string
	Icon      string
	Title     string
	Subtitle  string
	Timestamp time.Time
	Source    FeedSource
	// Synthetic is set when the source record carried no timestamp.
	Synthetic bool
}

// Feed is the merged recent-activity feed.
type Feed struct {
	Items []FeedItem
	// Degraded is set when the activity log could not be read.
	Degraded bool
}

// NotificationReader exposes the notification store to read-only consumers.
type NotificationReader interface {
	Recent(n int) []domain.Notification
}

// ActivityService merges recent notifications with the activity log.
type ActivityService struct {
	notifications NotificationReader
	activities    repository.ActivityRepository
	cfg           config.FeedConfig
	logger        *zap.Logger
	now           func() time.Time
}

// NewActivityService creates the service.
func NewActivityService(notifications NotificationReader, activities repository.ActivityRepository, cfg config.FeedConfig, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NotificationTake <= 0 {
		cfg.NotificationTake = 5
	}
	if cfg.ActivityLimit <= 0 {
		cfg.ActivityLimit = 5
	}
	if cfg.Cap <= 0 {
		cfg.Cap = 8
	}
	return &ActivityService{
		notifications: notifications,
		activities:    activities,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Feed returns the most recent items across both sources, newest first.
// A failed activity-log read leaves a notifications-only feed.
func (s *ActivityService) Feed(ctx context.Context) Feed {
	now := s.now()
	var feed Feed
	var items []FeedItem

	for i, n := range s.notifications.Recent(s.cfg.NotificationTake) {
		items = append(items, projectNotification(n, now, i))
	}

	page, err := s.activities.List(ctx, 1, s.cfg.ActivityLimit)
	if err != nil {
		s.logger.Warn("activity log unavailable, feed degraded", zap.Error(err))
		feed.Degraded = true
	} else if page != nil {
		offset := len(items)
		for i, event := range page.Events {
			items = append(items, projectActivity(event, now, offset+i))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if len(items) > s.cfg.Cap {
		items = items[:s.cfg.Cap]
	}
	feed.Items = items
	return feed
}

// syntheticTimestamp places undated items just behind now, in source order.
func syntheticTimestamp(now time.Time, position int) time.Time {
	return now.Add(-time.Duration(position+1) * time.Second)
}

func projectNotification(n domain.Notification, now time.Time, position int) FeedItem {
	item := FeedItem{
		ID:        n.ID,
		Icon:      notificationIcon(n.Type),
		Title:     n.Title,
		Subtitle:  n.Message,
		Timestamp: n.CreatedAt,
		Source:    FeedSourceNotification,
	}
	if item.Title == "" {
		item.Title = strings.ReplaceAll(strings.ToLower(string(n.Type)), "_", " ")
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = syntheticTimestamp(now, position)
		item.Synthetic = true
	}
	return item
}

func projectActivity(e domain.ActivityEvent, now time.Time, position int) FeedItem {
	item := FeedItem{
		ID:        e.ID,
		Icon:      activityIcon(e.Action),
		Title:     strings.TrimSpace(e.Actor + " " + e.Action),
		Subtitle:  e.Target,
		Timestamp: e.Timestamp,
		Source:    FeedSourceActivity,
	}
	if item.Title == "" {
		item.Title = "Activity"
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = syntheticTimestamp(now, position)
		item.Synthetic = true
	}
	return item
}

func notificationIcon(t domain.NotificationType) string {
	switch t {
	case domain.NotificationAssignment:
		return "icon-user-plus"
	case domain.NotificationNewLead:
		return "icon-user"
	case domain.NotificationStatusChange:
		return "icon-refresh"
	case domain.NotificationFollowUp:
		return "icon-message"
	case domain.NotificationUnitSold:
		return "icon-home"
	default:
		return "icon-bell"
	}
}

func activityIcon(action string) string {
	action = strings.ToLower(action)
	switch {
	case strings.Contains(action, "create"), strings.Contains(action, "add"):
		return "icon-plus"
	case strings.Contains(action, "update"), strings.Contains(action, "edit"):
		return "icon-edit"
	case strings.Contains(action, "delete"), strings.Contains(action, "remove"):
		return "icon-trash"
	case strings.Contains(action, "login"):
		return "icon-login"
	default:
		return "icon-activity"
	}
}

// PageDirection selects the page an ActivityPager loads.
type PageDirection string

const (
	PageOpen PageDirection = "open"
	PageNext PageDirection = "next"
	PagePrev PageDirection = "prev"
)

// PagerSnapshot is the pager's current page.
type PagerSnapshot struct {
	Events     []domain.ActivityEvent
	Page       int
	TotalPages int
	Loading    bool
	HasNext    bool
	HasPrev    bool
}

// ActivityPager is the "view all" mode over the activity log. A request
// made while another is in flight returns the current page without issuing
// a second request.
type ActivityPager struct {
	activities repository.ActivityRepository
	pageSize   int
	logger     *zap.Logger

	mu         sync.Mutex
	loading    bool
	page       int
	totalPages int
	events     []domain.ActivityEvent
}

// NewActivityPager creates a pager.
func NewActivityPager(activities repository.ActivityRepository, pageSize int, logger *zap.Logger) *ActivityPager {
	if pageSize <= 0 {
		pageSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityPager{activities: activities, pageSize: pageSize, logger: logger}
}

// Open loads the first page.
func (p *ActivityPager) Open(ctx context.Context) (PagerSnapshot, error) {
	return p.Load(ctx, PageOpen)
}

// Next loads the following page, if any.
func (p *ActivityPager) Next(ctx context.Context) (PagerSnapshot, error) {
	return p.Load(ctx, PageNext)
}

// Prev loads the preceding page, if any.
func (p *ActivityPager) Prev(ctx context.Context) (PagerSnapshot, error) {
	return p.Load(ctx, PagePrev)
}

// Load moves the pager in the given direction.
func (p *ActivityPager) Load(ctx context.Context, direction PageDirection) (PagerSnapshot, error) {
	p.mu.Lock()
	if p.loading {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, nil
	}
	target := 1
	switch direction {
	case PageNext:
		if p.page == 0 || p.page >= p.totalPages {
			snap := p.snapshotLocked()
			p.mu.Unlock()
			return snap, nil
		}
		target = p.page + 1
	case PagePrev:
		if p.page <= 1 {
			snap := p.snapshotLocked()
			p.mu.Unlock()
			return snap, nil
		}
		target = p.page - 1
	}
	p.loading = true
	p.mu.Unlock()

	result, err := p.activities.List(ctx, target, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.logger.Warn("activity page load failed", zap.Int("page", target), zap.Error(err))
		return p.snapshotLocked(), err
	}
	p.page = target
	p.totalPages = result.TotalPages
	if p.totalPages < target {
		p.totalPages = target
	}
	p.events = result.Events
	return p.snapshotLocked(), nil
}

// Snapshot returns the current page without loading.
func (p *ActivityPager) Snapshot() PagerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *ActivityPager) snapshotLocked() PagerSnapshot {
	events := make([]domain.ActivityEvent, len(p.events))
	copy(events, p.events)
	return PagerSnapshot{
		Events:     events,
		Page:       p.page,
		TotalPages: p.totalPages,
		Loading:    p.loading,
		HasNext:    p.page > 0 && p.page < p.totalPages,
		HasPrev:    p.page > 1,
	}
}
