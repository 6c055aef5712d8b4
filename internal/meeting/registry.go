package meeting

import (
	"sync"
	"time"
)

// Record is the single active meeting of a channel. Field names match what
// the call widget reads from the presence response.
type Record struct {
	URL       string    `json:"meeting_url"`
	StartedBy string    `json:"started_by"`
	StartTime time.Time `json:"start_time"`
}

// Registry holds one meeting slot per channel. Starting a meeting overwrites
// whatever was there; there is no "meeting ended" signal, so a record stays
// until replaced.
type Registry struct {
	mu        sync.Mutex
	byChannel map[int64]Record
}

func NewRegistry() *Registry {
	return &Registry{byChannel: make(map[int64]Record)}
}

func (r *Registry) Start(channelID int64, url, startedBy string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byChannel[channelID] = Record{
		URL:       url,
		StartedBy: startedBy,
		StartTime: now,
	}
}

func (r *Registry) Get(channelID int64) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byChannel[channelID]
	return rec, ok
}
