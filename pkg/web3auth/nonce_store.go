package web3auth

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	NonceTTL      = 5 * time.Minute
	SweepInterval = 10 * time.Minute
)

type Nonce struct {
	Nonce     string
	Message   string
	Timestamp time.Time
	ExpiresAt time.Time
}

// NonceStore holds one pending challenge per wallet address. It is process
// local; running more than one API instance requires sticky sessions.
type NonceStore struct {
	mu      sync.Mutex
	entries map[string]Nonce
	timers  map[string]*time.Timer
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
	stopped bool
}

func NewNonceStore() *NonceStore {
	return &NonceStore{
		entries: make(map[string]Nonce),
		timers:  make(map[string]*time.Timer),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

func key(address string) string {
	return strings.ToLower(address)
}

// Put replaces any pending challenge for the address. After Stop, entries
// only expire lazily.
func (s *NonceStore) Put(address string, n Nonce) {
	k := key(address)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[k]; ok {
		t.Stop()
		delete(s.timers, k)
	}
	s.entries[k] = n
	if s.stopped {
		return
	}
	s.timers[k] = time.AfterFunc(n.ExpiresAt.Sub(s.now()), func() {
		s.expire(k, n.Nonce)
	})
}

// Get returns the live challenge for the address. Expired entries are
// removed on lookup.
func (s *NonceStore) Get(address string) (Nonce, bool) {
	k := key(address)

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[k]
	if !ok {
		return Nonce{}, false
	}
	if !s.now().Before(n.ExpiresAt) {
		s.deleteLocked(k)
		return Nonce{}, false
	}
	return n, true
}

// Consume deletes the challenge only if it is still the one identified by
// nonce, so two concurrent verifications cannot both succeed.
func (s *NonceStore) Consume(address, nonce string) bool {
	k := key(address)

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[k]
	if !ok || n.Nonce != nonce || !s.now().Before(n.ExpiresAt) {
		return false
	}
	s.deleteLocked(k)
	return true
}

func (s *NonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *NonceStore) expire(k, nonce string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[k]; ok && n.Nonce == nonce {
		s.deleteLocked(k)
	}
}

func (s *NonceStore) deleteLocked(k string) {
	if t, ok := s.timers[k]; ok {
		t.Stop()
		delete(s.timers, k)
	}
	delete(s.entries, k)
}

// Sweep removes every expired entry and reports how many were dropped.
func (s *NonceStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, n := range s.entries {
		if !now.Before(n.ExpiresAt) {
			s.deleteLocked(k)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until Stop is called.
func (s *NonceStore) StartSweeper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 {
					log.Infof("nonce sweep removed %d expired challenges", removed)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *NonceStore) Stop() {
	s.once.Do(func() {
		close(s.stop)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.stopped = true
		for k, t := range s.timers {
			t.Stop()
			delete(s.timers, k)
		}
	})
}
