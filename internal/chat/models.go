package chat

import "time"

// Message is one entry of a channel's append-only log. Ids are assigned from
// a per-channel monotonic counter and are never reused, even after deletions.
type Message struct {
	ID     int64     `json:"id"`
	Author string    `json:"author"` // display name
	Body   string    `json:"body"`
	Date   time.Time `json:"date"`
}

// Summary is the membership listing row returned by chat/channels.
type Summary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}
