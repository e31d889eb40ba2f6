package listquery

import (
	"sync"

	"todoweb/internal/session"
)

// SessionScope ties coordinators to the signed-in user. When the user changes
// it resets their keys and drops their caches, which also marks in-flight
// fetches stale. Selections are cleared on sign-out and when another user
// signs in; a rehydrate of the same user keeps them.
type SessionScope struct {
	mu           sync.Mutex
	user         string
	seen         bool
	coordinators []*Coordinator
}

func NewSessionScope() *SessionScope {
	return &SessionScope{}
}

// Track adds coordinators. Track them before the store commits anything,
// including Rehydrate.
func (s *SessionScope) Track(cs ...*Coordinator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coordinators = append(s.coordinators, cs...)
}

// SessionChanged runs under the store lock; coordinators never call into the
// store while holding their own lock.
func (s *SessionScope) SessionChanged(e session.Event) error {
	user := ""
	if e.Snapshot.Authenticated() && e.Snapshot.User != nil {
		user = e.Snapshot.User.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, seen := s.user, s.seen
	s.user, s.seen = user, true
	if seen && prev == user {
		return nil
	}

	// Before the first event the owner of a persisted selection is unknown;
	// it is kept unless the event signs out.
	clearSelection := seen || user == ""
	for _, c := range s.coordinators {
		c.Reset()
		c.Invalidate()
		if sel := c.Selection(); sel != nil && clearSelection {
			sel.Clear()
		}
	}
	return nil
}

var _ session.Listener = (*SessionScope)(nil)
