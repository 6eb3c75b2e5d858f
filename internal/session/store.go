// Package session holds the authenticated identity of the console: the bearer
// token and the operator profile.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// ErrIncomplete is returned when Set is called without a token or profile.
var ErrIncomplete = errors.New("session requires both token and profile")

// Snapshot is an immutable view of the session at one instant.
type Snapshot struct {
	Token         string
	Profile       *domain.Profile
	Authenticated bool
}

// Role returns the profile role, or "" when there is no profile.
func (s Snapshot) Role() domain.Role {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

// Store owns the session. It is the only component that mutates the token;
// the API client and the realtime channel read it.
type Store struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	token    string
	profile  *domain.Profile
	watchers map[int]func(Snapshot)
	nextID   int
}

// NewStore builds a store persisting through storage.
func NewStore(storage Storage, logger *zap.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage(24 * time.Hour)
	}
	return &Store{
		storage:  storage,
		logger:   logger.Named("session"),
		now:      time.Now,
		watchers: make(map[int]func(Snapshot)),
	}
}

// Set stores token and profile and marks the session authenticated.
func (s *Store) Set(ctx context.Context, token string, profile domain.Profile) error {
	if token == "" || profile.Username == "" {
		return ErrIncomplete
	}
	if err := s.storage.Save(ctx, Persisted{Token: token, Profile: profile}); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	p := profile
	s.profile = &p
	s.mu.Unlock()

	s.logger.Info("session established",
		zap.Int64("user_id", profile.ID),
		zap.String("role", string(profile.Role)))
	s.broadcast()
	return nil
}

// Clear wipes token and profile. Calling it on an empty session is a no-op
// apart from removing any persisted leftovers.
func (s *Store) Clear(ctx context.Context) {
	if err := s.storage.Delete(ctx); err != nil {
		s.logger.Warn("failed to delete persisted session", zap.Error(err))
	}

	s.mu.Lock()
	had := s.token != "" || s.profile != nil
	s.token = ""
	s.profile = nil
	s.mu.Unlock()

	if had {
		s.logger.Info("session cleared")
		s.broadcast()
	}
}

// Restore reloads a persisted session. A persisted token that is no longer
// valid is discarded and reported as absent.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	p, ok, err := s.storage.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if !tokenValidAt(p.Token, s.now()) {
		s.logger.Info("persisted session expired")
		s.Clear(ctx)
		return false, nil
	}

	s.mu.Lock()
	s.token = p.Token
	profile := p.Profile
	s.profile = &profile
	s.mu.Unlock()

	s.broadcast()
	return true, nil
}

// Token returns the bearer token, if any.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Profile returns a copy of the current profile, if any.
func (s *Store) Profile() (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return domain.Profile{}, false
	}
	return *s.profile, true
}

// IsTokenValid decodes the token expiry claim and compares it with the
// current time. Missing or malformed tokens are invalid.
func (s *Store) IsTokenValid() bool {
	token, _ := s.Token()
	return tokenValidAt(token, s.now())
}

// Authenticated is true iff both token and profile are present and the token
// is unexpired.
func (s *Store) Authenticated() bool {
	return s.Snapshot().Authenticated
}

// HasAnyRole reports whether the session is authenticated with one of roles.
func (s *Store) HasAnyRole(roles ...domain.Role) bool {
	snap := s.Snapshot()
	if !snap.Authenticated {
		return false
	}
	for _, r := range roles {
		if snap.Profile.Role == r {
			return true
		}
	}
	return false
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	token := s.token
	var profile *domain.Profile
	if s.profile != nil {
		p := *s.profile
		profile = &p
	}
	s.mu.RUnlock()

	return Snapshot{
		Token:         token,
		Profile:       profile,
		Authenticated: token != "" && profile != nil && tokenValidAt(token, s.now()),
	}
}

// Watch registers fn to run after every Set, Clear, or Restore. The returned
// func removes the registration.
func (s *Store) Watch(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Store) broadcast() {
	s.mu.RLock()
	fns := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
