package memory

import (
	"sync"
	"time"

	"github.com/shyabid/rolevia/internal/app"
)

// AuthoringRegistry keeps live wizard sessions in memory and silently drops
// any session idle past the TTL. Abandoned wizards leave nothing behind.
type AuthoringRegistry struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]*app.AuthoringSession
}

func NewAuthoringRegistry(ttl time.Duration) *AuthoringRegistry {
	return &AuthoringRegistry{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]*app.AuthoringSession),
	}
}

func (r *AuthoringRegistry) Put(s *app.AuthoringSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	r.sessions[s.ID()] = s
}

func (r *AuthoringRegistry) Get(id string) (*app.AuthoringSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *AuthoringRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *AuthoringRegistry) pruneLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.clock().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

// TakingRegistry keeps live quiz runs in memory with the same idle TTL
// semantics as the authoring registry.
type TakingRegistry struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]*app.TakingSession
}

func NewTakingRegistry(ttl time.Duration) *TakingRegistry {
	return &TakingRegistry{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]*app.TakingSession),
	}
}

func (r *TakingRegistry) Put(s *app.TakingSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	r.sessions[s.ID()] = s
}

func (r *TakingRegistry) Get(id string) (*app.TakingSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *TakingRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *TakingRegistry) pruneLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.clock().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
