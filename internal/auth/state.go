package auth

import (
	"sync"
	"time"
)

// stateStore holds OAuth state values until the callback consumes them.
// Expired entries are pruned on every put so abandoned logins don't pile up.
type stateStore struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]time.Time), now: time.Now}
}

func (s *stateStore) put(state string, exp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.items {
		if now.After(e) {
			delete(s.items, k)
		}
	}
	s.items[state] = exp
}

// consume reports whether state was issued and is unexpired. A state is
// accepted at most once.
func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[state]
	if !ok {
		return false
	}
	delete(s.items, state)
	return !s.now().After(exp)
}

func (s *stateStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
