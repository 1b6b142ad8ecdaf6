package server

import (
	"sync"
	"time"

	"github.com/desertthunder/ytsync/internal/shared"
)

// StateTTL bounds how long an issued OAuth state stays redeemable.
const StateTTL = 10 * time.Minute

// StateStore issues one-time OAuth state tokens.
type StateStore struct {
	mu     sync.Mutex
	issued map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewStateStore creates an empty [StateStore].
func NewStateStore() *StateStore {
	return &StateStore{issued: make(map[string]time.Time), ttl: StateTTL, now: time.Now}
}

// Issue returns a fresh state token.
func (s *StateStore) Issue() string {
	state := shared.GenerateID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.issued[state] = s.now().Add(s.ttl)
	return state
}

// Consume reports whether state was issued and not yet used, and forgets it.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.issued[state]
	if !ok {
		return false
	}
	delete(s.issued, state)
	return s.now().Before(expires)
}

func (s *StateStore) prune() {
	now := s.now()
	for state, expires := range s.issued {
		if !now.Before(expires) {
			delete(s.issued, state)
		}
	}
}
