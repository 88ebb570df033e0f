package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/observability"
	"github.com/estatepro/leadsync/internal/repository"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// Gate decides whether notification polling may talk to the collaborator.
type Gate interface {
	Allowed(ctx context.Context) bool
}

// NotificationSnapshot is a read-only copy of the store state.
type NotificationSnapshot struct {
	Items       []domain.Notification
	UnreadCount int
	Loading     bool
	LastError   error
}

// NotificationStoreOptions tunes fetch reconciliation.
type NotificationStoreOptions struct {
	// DiscardStaleFetches drops a fetch response when a later-issued fetch
	// has already been applied. Off by default: last response wins.
	DiscardStaleFetches bool
	// RevertFailedMutations undoes a failed optimistic mutation locally
	// before the corrective fetch. Off by default: the fetch alone reconciles.
	RevertFailedMutations bool
}

// NotificationStore holds the session's notifications and applies optimistic
// mutations ahead of the collaborator. The mutex is never held across a
// remote call.
type NotificationStore struct {
	remote  repository.NotificationRepository
	gate    Gate
	logger  *zap.Logger
	metrics *observability.Metrics
	opts    NotificationStoreOptions

	mu       sync.Mutex
	items    []domain.Notification
	unread   int
	inFlight int
	lastErr  error
	issued   uint64
	applied  uint64

	// cleared is the last generation issued before a reset; responses at or
	// below it are never applied.
	cleared uint64
	journal map[uint64]intent
	nextSeq uint64
}

// NewNotificationStore creates an empty store.
func NewNotificationStore(remote repository.NotificationRepository, gate Gate, logger *zap.Logger, metrics *observability.Metrics, opts NotificationStoreOptions) *NotificationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationStore{
		remote:  remote,
		gate:    gate,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
		journal: make(map[uint64]intent),
	}
}

// Fetch replaces the local list with the collaborator's. When the gate is
// closed the local state is cleared and nothing is requested. A 401 clears
// local state without triggering the session's sign-in redirect.
func (s *NotificationStore) Fetch(ctx context.Context) error {
	if s.gate != nil && !s.gate.Allowed(ctx) {
		s.Reset()
		s.metrics.RecordNotificationFetch("gated")
		return nil
	}

	s.mu.Lock()
	s.issued++
	generation := s.issued
	s.inFlight++
	s.mu.Unlock()

	items, err := s.remote.List(collaborator.WithoutAuthRedirect(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	if generation <= s.cleared {
		s.metrics.RecordNotificationFetch("stale")
		s.logger.Debug("discarding notification fetch issued before reset", zap.Uint64("generation", generation))
		return nil
	}
	if s.opts.DiscardStaleFetches && generation < s.applied {
		s.metrics.RecordNotificationFetch("stale")
		s.logger.Debug("discarding stale notification fetch", zap.Uint64("generation", generation), zap.Uint64("applied", s.applied))
		return nil
	}

	switch {
	case err == nil:
		s.items = items
		s.applied = generation
		s.lastErr = nil
		s.recount()
		s.metrics.RecordNotificationFetch("ok")
		return nil
	case apperrors.IsUnauthorized(err):
		s.items = nil
		s.applied = generation
		s.lastErr = nil
		s.recount()
		s.metrics.RecordNotificationFetch("unauthorized")
		return nil
	default:
		s.lastErr = err
		s.metrics.RecordNotificationFetch("error")
		s.logger.Warn("notification fetch failed", zap.Error(err))
		return err
	}
}

// MarkRead flips one notification to read, then confirms with the collaborator.
func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	seq := s.apply(func(items []domain.Notification) ([]domain.Notification, intent) {
		for i := range items {
			if items[i].ID == id && !items[i].IsRead {
				items[i].IsRead = true
				return items, intent{kind: intentMarkRead, ids: []string{id}}
			}
		}
		return items, intent{kind: intentMarkRead}
	})
	return s.settle(ctx, seq, s.remote.MarkRead(ctx, id))
}

// MarkAllRead flips every notification to read, then confirms.
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	seq := s.apply(func(items []domain.Notification) ([]domain.Notification, intent) {
		in := intent{kind: intentMarkAllRead}
		for i := range items {
			if !items[i].IsRead {
				items[i].IsRead = true
				in.ids = append(in.ids, items[i].ID)
			}
		}
		return items, in
	})
	return s.settle(ctx, seq, s.remote.MarkAllRead(ctx))
}

// Delete removes a notification locally, then confirms.
func (s *NotificationStore) Delete(ctx context.Context, id string) error {
	seq := s.apply(func(items []domain.Notification) ([]domain.Notification, intent) {
		for i := range items {
			if items[i].ID == id {
				removed := items[i]
				items = append(items[:i:i], items[i+1:]...)
				return items, intent{kind: intentDelete, removed: &removed, index: i}
			}
		}
		return items, intent{kind: intentDelete}
	})
	return s.settle(ctx, seq, s.remote.Delete(ctx, id))
}

// Create asks the collaborator for a new notification and prepends the
// returned record. Nothing changes locally when the request fails.
func (s *NotificationStore) Create(ctx context.Context, input domain.NotificationInput) (*domain.Notification, error) {
	created, err := s.remote.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if created.ID != "" {
		for _, existing := range s.items {
			if existing.ID == created.ID {
				return created, nil
			}
		}
	}
	s.items = append([]domain.Notification{*created}, s.items...)
	s.recount()
	return created, nil
}

// Reset drops all local state.
func (s *NotificationStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.lastErr = nil
	s.journal = make(map[uint64]intent)
	s.applied = s.issued
	s.cleared = s.issued
	s.recount()
}

// Snapshot copies the current state.
func (s *NotificationStore) Snapshot() NotificationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.Notification, len(s.items))
	copy(items, s.items)
	return NotificationSnapshot{
		Items:       items,
		UnreadCount: s.unread,
		Loading:     s.inFlight > 0,
		LastError:   s.lastErr,
	}
}

// Recent returns up to n notifications in list order.
func (s *NotificationStore) Recent(n int) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.items) {
		n = len(s.items)
	}
	out := make([]domain.Notification, n)
	copy(out, s.items[:n])
	return out
}

// UnreadCount returns the number of unread notifications held locally.
func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Loading reports whether a fetch is in flight.
func (s *NotificationStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// LastError returns the error of the most recent failed fetch.
func (s *NotificationStore) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *NotificationStore) apply(mutate func([]domain.Notification) ([]domain.Notification, intent)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, in := mutate(s.items)
	s.items = items
	s.recount()
	s.nextSeq++
	s.journal[s.nextSeq] = in
	return s.nextSeq
}

// settle retires the journal entry for seq. On failure a corrective fetch
// follows; with RevertFailedMutations the recorded intent is first reversed
// against the current list.
func (s *NotificationStore) settle(ctx context.Context, seq uint64, remoteErr error) error {
	s.mu.Lock()
	in, ok := s.journal[seq]
	delete(s.journal, seq)
	reverted := remoteErr != nil && ok && s.opts.RevertFailedMutations
	if reverted {
		s.items = in.revert(s.items)
		s.recount()
	}
	s.mu.Unlock()

	if remoteErr == nil {
		return nil
	}
	if reverted {
		s.metrics.RecordRevert(string(in.kind))
	}
	s.logger.Warn("notification mutation failed",
		zap.String("intent", string(in.kind)),
		zap.Bool("reverted", reverted),
		zap.Error(remoteErr))
	if err := s.Fetch(ctx); err != nil {
		s.logger.Debug("corrective notification fetch failed", zap.Error(err))
	}
	return remoteErr
}

func (s *NotificationStore) recount() {
	s.unread = countUnread(s.items)
}

func countUnread(items []domain.Notification) int {
	n := 0
	for _, item := range items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

type intentKind string

const (
	intentMarkRead    intentKind = "mark_read"
	intentMarkAllRead intentKind = "mark_all_read"
	intentDelete      intentKind = "delete"
)

// intent records what an optimistic mutation changed, enough to undo it.
type intent struct {
	kind    intentKind
	ids     []string
	removed *domain.Notification
	index   int
}

func (in intent) revert(items []domain.Notification) []domain.Notification {
	switch in.kind {
	case intentMarkRead, intentMarkAllRead:
		flipped := make(map[string]struct{}, len(in.ids))
		for _, id := range in.ids {
			flipped[id] = struct{}{}
		}
		for i := range items {
			if _, ok := flipped[items[i].ID]; ok {
				items[i].IsRead = false
			}
		}
	case intentDelete:
		if in.removed == nil {
			return items
		}
		for _, item := range items {
			if item.ID == in.removed.ID {
				return items
			}
		}
		index := in.index
		if index > len(items) {
			index = len(items)
		}
		items = append(items[:index:index], append([]domain.Notification{*in.removed}, items[index:]...)...)
	}
	return items
}
