package whatsapp

import (
	"sync"
	"time"
)

// sentRetention is how long an emitted message ID is remembered for echo
// suppression. The network reflects our own sends back within seconds;
// anything older is genuinely new input.
const sentRetention = 30 * time.Second

// SentRegistry is a self-expiring set of message IDs this process emitted.
// It exists purely to tell "message we just sent" apart from "message a
// user sent" when delivery events echo back.
type SentRegistry struct {
	mu        sync.Mutex
	ids       map[string]*time.Timer
	retention time.Duration
}

// NewSentRegistry returns a registry with the default retention window.
func NewSentRegistry() *SentRegistry {
	return &SentRegistry{
		ids:       make(map[string]*time.Timer),
		retention: sentRetention,
	}
}

// Add records an emitted message ID. Empty IDs are ignored.
func (r *SentRegistry) Add(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.ids[id]; ok {
		timer.Stop()
	}
	r.ids[id] = time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		delete(r.ids, id)
		r.mu.Unlock()
	})
}

// Contains reports whether id was emitted within the retention window.
func (r *SentRegistry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// Stop cancels all pending expirations.
func (r *SentRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, timer := range r.ids {
		timer.Stop()
		delete(r.ids, id)
	}
}
