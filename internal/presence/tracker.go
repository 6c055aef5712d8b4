package presence

import (
	"sort"
	"sync"
	"time"
)

// DefaultWindow is how long after a heartbeat an identity counts as online.
const DefaultWindow = 15 * time.Second

// Tracker maps display names to their last heartbeat. Entries are never
// removed; identities age out of the online view by staleness alone, and the
// map is bounded by the static user table.
type Tracker struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[string]time.Time
}

func New(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		window:   window,
		lastSeen: make(map[string]time.Time),
	}
}

// Touch records a heartbeat for the name and returns everyone currently
// online. The online set is recomputed in full on every call, which is fine
// at this scale.
func (t *Tracker) Touch(displayName string, now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSeen[displayName] = now

	online := make([]string, 0, len(t.lastSeen))
	for name, seen := range t.lastSeen {
		if now.Sub(seen) < t.window {
			online = append(online, name)
		}
	}
	sort.Strings(online)
	return online
}
