package registry

import (
	"sync"

	"github.com/artwall/artwall/pkg/log"
)

const channelBuffer = 256

// Channel is one user's live push connection. Events are delivered
// best-effort through a buffered channel; Close is idempotent.
type Channel struct {
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a channel ready to accept events.
func NewChannel() *Channel {
	return &Channel{
		send: make(chan []byte, channelBuffer),
		done: make(chan struct{}),
	}
}

// Events returns the stream of delivered payloads.
func (c *Channel) Events() <-chan []byte {
	return c.send
}

// Done is closed when the channel is shut down.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Offer attempts a non-blocking delivery. It reports false when the
// channel is closed or its buffer is full; the event is dropped either
// way.
func (c *Channel) Offer(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close shuts the channel down. Safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Registry maps user IDs to their single live push channel. At most
// one channel per user: a new registration displaces the old one.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
	}
}

// Register installs ch as the user's live channel. Any previously
// registered channel for the same user is closed so its handler can
// unwind.
func (r *Registry) Register(userID string, ch *Channel) {
	r.mu.Lock()
	old := r.channels[userID]
	r.channels[userID] = ch
	r.mu.Unlock()

	l := log.L()
	if old != nil {
		old.Close()
		l.Debug().Str(log.FieldUserID, userID).Msg("displaced previous push channel")
	}
	l.Debug().Str(log.FieldUserID, userID).Msg("push channel registered")
}

// Unregister removes the user's channel, but only if it is still ch.
// A handler whose channel was displaced must not remove its successor.
func (r *Registry) Unregister(userID string, ch *Channel) {
	r.mu.Lock()
	if cur, ok := r.channels[userID]; ok && cur == ch {
		delete(r.channels, userID)
	}
	r.mu.Unlock()

	ch.Close()
	l := log.L()
	l.Debug().Str(log.FieldUserID, userID).Msg("push channel unregistered")
}

// Get returns the user's live channel, or nil when the user has none.
func (r *Registry) Get(userID string) *Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels[userID]
}

// Count returns the number of live channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
