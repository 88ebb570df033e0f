package session

import (
	"context"
	"strings"
	"sync"

	"github.com/estatepro/leadsync/internal/domain"
)

// Actor is the staff member behind a session token.
type Actor struct {
	ID   string
	Name string
	Role domain.StaffRole
}

// TokenInspector validates a session token and extracts its actor.
type TokenInspector interface {
	Inspect(token string) (Actor, error)
}

// Policy classifies navigational contexts.
type Policy struct {
	ProtectedPrefixes []string
	PublicPrefixes    []string
	SignInPath        string
}

// IsProtected reports whether path lies in a protected (dashboard) area.
func (p Policy) IsProtected(path string) bool {
	return matchesAny(path, p.ProtectedPrefixes)
}

// IsPublic reports whether path tolerates anonymous access. Protected wins.
func (p Policy) IsPublic(path string) bool {
	if p.IsProtected(path) {
		return false
	}
	if path == p.SignInPath {
		return true
	}
	return matchesAny(path, p.PublicPrefixes)
}

func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// Session is one client's authenticated context: token lookup, current
// navigational path and any pending sign-in redirect.
type Session struct {
	ID        string
	store     TokenStore
	inspector TokenInspector
	policy    Policy

	mu       sync.RWMutex
	path     string
	redirect string
}

// New binds a session id to its token store.
func New(id string, store TokenStore, inspector TokenInspector, policy Policy) *Session {
	return &Session{ID: id, store: store, inspector: inspector, policy: policy}
}

// Token returns the first non-empty token across the legacy key names.
func (s *Session) Token(ctx context.Context) (string, error) {
	for _, key := range LegacyTokenKeys {
		val, err := s.store.Get(ctx, s.ID, key)
		if err != nil {
			return "", err
		}
		if val = strings.TrimSpace(val); val != "" {
			return val, nil
		}
	}
	return "", nil
}

// Actor inspects the current token.
func (s *Session) Actor(ctx context.Context) (Actor, bool) {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return Actor{}, false
	}
	if s.inspector == nil {
		return Actor{}, true
	}
	actor, err := s.inspector.Inspect(token)
	if err != nil {
		return Actor{}, false
	}
	return actor, true
}

// Authenticated reports whether a valid token is present.
func (s *Session) Authenticated(ctx context.Context) bool {
	_, ok := s.Actor(ctx)
	return ok
}

// SetPath records the client's current navigational context.
func (s *Session) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
}

// Path returns the current navigational context.
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// InProtectedArea reports whether the current path is protected.
func (s *Session) InProtectedArea() bool {
	return s.policy.IsProtected(s.Path())
}

// Allowed gates notification polling: a valid token in a protected context.
func (s *Session) Allowed(ctx context.Context) bool {
	return s.InProtectedArea() && s.Authenticated(ctx)
}

// HandleUnauthorized clears the token under every legacy key and queues a
// sign-in redirect unless the client sits on a public path.
func (s *Session) HandleUnauthorized(ctx context.Context) {
	_ = s.store.Delete(ctx, s.ID, LegacyTokenKeys...)
	path := s.Path()
	if s.policy.IsPublic(path) {
		return
	}
	s.mu.Lock()
	s.redirect = s.policy.SignInPath
	s.mu.Unlock()
}

// TakeRedirect returns and clears a pending sign-in redirect.
func (s *Session) TakeRedirect() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.redirect
	s.redirect = ""
	return r
}

// Clear removes everything stored for the session.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.ID)
}
