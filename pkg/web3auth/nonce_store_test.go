package web3auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(clock *fakeClock) *NonceStore {
	s := NewNonceStore()
	s.now = clock.Now
	return s
}

func TestNonceStoreKeysAreCaseInsensitive(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(clock)
	defer s.Stop()

	s.Put("0xABCDEF0000000000000000000000000000000001", Nonce{Nonce: "n1", ExpiresAt: clock.t.Add(NonceTTL)})

	n, ok := s.Get("0xabcdef0000000000000000000000000000000001")
	assert.True(t, ok)
	assert.Equal(t, "n1", n.Nonce)
}

func TestNonceStoreLazyExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(clock)
	defer s.Stop()

	s.Put("0xa", Nonce{Nonce: "n1", ExpiresAt: clock.t.Add(NonceTTL)})
	clock.Advance(NonceTTL + time.Second)

	_, ok := s.Get("0xa")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestNonceStoreConsumeIsSingleUse(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(clock)
	defer s.Stop()

	s.Put("0xa", Nonce{Nonce: "n1", ExpiresAt: clock.t.Add(NonceTTL)})

	assert.False(t, s.Consume("0xa", "other"))
	assert.True(t, s.Consume("0xa", "n1"))
	assert.False(t, s.Consume("0xa", "n1"))
}

func TestNonceStorePutReplacesPending(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(clock)
	defer s.Stop()

	s.Put("0xa", Nonce{Nonce: "n1", ExpiresAt: clock.t.Add(NonceTTL)})
	s.Put("0xa", Nonce{Nonce: "n2", ExpiresAt: clock.t.Add(NonceTTL)})

	n, ok := s.Get("0xa")
	assert.True(t, ok)
	assert.Equal(t, "n2", n.Nonce)
	assert.Equal(t, 1, s.Len())
}

func TestNonceStoreSweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(clock)
	defer s.Stop()

	s.Put("0xa", Nonce{Nonce: "old", ExpiresAt: clock.t.Add(time.Minute)})
	s.Put("0xb", Nonce{Nonce: "new", ExpiresAt: clock.t.Add(NonceTTL)})
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestNonceStoreTimerDeletesEntry(t *testing.T) {
	s := NewNonceStore()
	defer s.Stop()

	s.Put("0xa", Nonce{Nonce: "n1", ExpiresAt: time.Now().Add(20 * time.Millisecond)})

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestNonceStorePutAfterStopArmsNoTimer(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestStore(clock)

	s.Put("0xabc", Nonce{Nonce: "n1", ExpiresAt: clock.t.Add(NonceTTL)})
	s.Stop()
	assert.Empty(t, s.timers)

	s.Put("0xdef", Nonce{Nonce: "n2", ExpiresAt: clock.t.Add(NonceTTL)})
	assert.Empty(t, s.timers)

	n, ok := s.Get("0xdef")
	assert.True(t, ok)
	assert.Equal(t, "n2", n.Nonce)

	clock.Advance(NonceTTL)
	_, ok = s.Get("0xdef")
	assert.False(t, ok)
}
