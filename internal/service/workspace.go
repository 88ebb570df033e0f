package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/config"
	"github.com/estatepro/leadsync/internal/events"
	"github.com/estatepro/leadsync/internal/observability"
	"github.com/estatepro/leadsync/internal/repository"
	"github.com/estatepro/leadsync/internal/session"
	"github.com/estatepro/leadsync/internal/worker"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// Workspace bundles one session's engine components.
type Workspace struct {
	Session       *session.Session
	Directory     *DirectoryService
	Notifications *NotificationStore
	Pipeline      *PipelineService
	Assignments   *AssignmentService
	Activity      *ActivityService
	Pager         *ActivityPager

	poller  *worker.NotificationPoller
	rootCtx context.Context
}

// Navigate records the client's navigational context and starts or stops
// notification polling to match.
func (w *Workspace) Navigate(ctx context.Context, path string) {
	w.Session.SetPath(path)
	w.syncPolling(ctx)
}

// Polling reports whether the notification poller is running.
func (w *Workspace) Polling() bool {
	return w.poller.Running()
}

func (w *Workspace) syncPolling(ctx context.Context) {
	if w.Session.Allowed(ctx) {
		w.poller.Start(w.rootCtx)
		return
	}
	w.poller.Stop()
	w.Notifications.Reset()
}

func (w *Workspace) close() {
	w.poller.Stop()
	w.Notifications.Reset()
}

// RegistryDeps wires the registry to process-wide collaborators.
type RegistryDeps struct {
	Config    *config.Config
	Client    *collaborator.Client
	Tokens    session.TokenStore
	Inspector session.TokenInspector
	Publisher *events.AMQPPublisher
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// Registry holds the live workspaces keyed by session id.
type Registry struct {
	deps    RegistryDeps
	policy  session.Policy
	rootCtx context.Context
	logger  *zap.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry. Pollers run under rootCtx.
func NewRegistry(rootCtx context.Context, deps RegistryDeps) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config.Session
	return &Registry{
		deps: deps,
		policy: session.Policy{
			ProtectedPrefixes: cfg.ProtectedPrefixes,
			PublicPrefixes:    cfg.PublicPrefixes,
			SignInPath:        cfg.SignInPath,
		},
		rootCtx:    rootCtx,
		logger:     observability.Component(logger, "workspace"),
		workspaces: make(map[string]*Workspace),
	}
}

// Open stores the token under a fresh session id and builds its workspace.
func (r *Registry) Open(ctx context.Context, token, path string) (string, *Workspace, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil, apperrors.NewValidationError("token is required", nil)
	}
	if r.deps.Inspector != nil {
		if _, err := r.deps.Inspector.Inspect(token); err != nil {
			return "", nil, apperrors.NewUnauthorized("invalid session token")
		}
	}

	id := uuid.NewString()
	if err := r.deps.Tokens.Set(ctx, id, session.LegacyTokenKeys[0], token); err != nil {
		return "", nil, apperrors.NewTransportError("store session token", err)
	}

	ws := r.build(id)
	r.mu.Lock()
	r.workspaces[id] = ws
	r.mu.Unlock()
	r.deps.Metrics.WorkspaceOpened()

	ws.Navigate(ctx, path)
	r.logger.Info("session opened", zap.String("session_id", id), zap.Bool("polling", ws.Polling()))
	return id, ws, nil
}

// Get returns the workspace for a session id. A session whose token survives
// in the store but has no live workspace, as after a restart, is rebuilt.
func (r *Registry) Get(ctx context.Context, id string) (*Workspace, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewUnauthorized("missing session")
	}

	r.mu.Lock()
	ws, ok := r.workspaces[id]
	r.mu.Unlock()
	if ok {
		return ws, nil
	}

	stored := session.New(id, r.deps.Tokens, r.deps.Inspector, r.policy)
	token, err := stored.Token(ctx)
	if err != nil {
		return nil, apperrors.NewTransportError("read session token", err)
	}
	if token == "" {
		return nil, apperrors.NewUnauthorized("unknown session")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[id]; ok {
		return ws, nil
	}
	ws = r.build(id)
	r.workspaces[id] = ws
	r.deps.Metrics.WorkspaceOpened()
	r.logger.Info("session restored", zap.String("session_id", id))
	return ws, nil
}

// Close stops polling and forgets the session and its token.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	ws, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()

	if ok {
		ws.close()
		r.deps.Metrics.WorkspaceClosed()
	}
	if err := r.deps.Tokens.Delete(ctx, id); err != nil {
		return apperrors.NewTransportError("clear session token", err)
	}
	r.logger.Info("session closed", zap.String("session_id", id))
	return nil
}

// Shutdown stops every poller.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	workspaces := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, ws := range workspaces {
		ws.close()
		r.deps.Metrics.WorkspaceClosed()
	}
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

func (r *Registry) build(id string) *Workspace {
	cfg := r.deps.Config
	logger := r.logger.With(zap.String("session_id", id))
	sess := session.New(id, r.deps.Tokens, r.deps.Inspector, r.policy)
	client := r.deps.Client.ForSession(sess.Token, sess.HandleUnauthorized)

	dispatcher := events.NewInMemoryDispatcher(logger)
	r.deps.Publisher.Attach(dispatcher)

	leads := repository.NewLeadRepository(client)
	directory := NewDirectoryService(repository.NewStaffRepository(client), logger)
	store := NewNotificationStore(
		repository.NewNotificationRepository(client),
		sess,
		logger,
		r.deps.Metrics,
		NotificationStoreOptions{
			DiscardStaleFetches:   cfg.Notification.DiscardStaleFetches,
			RevertFailedMutations: cfg.Notification.RevertFailedMutations,
		},
	)
	NewNotificationService(dispatcher, store, logger).RegisterHandlers()

	pipeline := NewPipelineService(leads, directory, dispatcher, sess, logger, 0)
	activities := repository.NewActivityRepository(client)

	return &Workspace{
		Session:       sess,
		Directory:     directory,
		Notifications: store,
		Pipeline:      pipeline,
		Assignments:   NewAssignmentService(leads, directory, pipeline, dispatcher, sess, logger),
		Activity:      NewActivityService(store, activities, cfg.Feed, logger),
		Pager:         NewActivityPager(activities, cfg.Feed.PageSize, logger),
		poller:        worker.NewNotificationPoller(store, sess, cfg.Notification.PollInterval(), logger),
		rootCtx:       r.rootCtx,
	}
}
