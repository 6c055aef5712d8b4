package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/friendschat/chatroom/internal/common"
)

// typingWindow is how long a "typing started" signal stays visible. Entries
// are not purged when they age out; they only stop being reported.
const typingWindow = 5 * time.Second

const defaultRecentLimit = 50

// Channel owns its message log, membership set, and typing map behind a
// single mutex. Lock ordering: Store.mu may be held while taking Channel.mu,
// never the reverse.
type Channel struct {
	ID        int64
	Name      string
	Admin     string // login key of the creator
	IsPrivate bool

	mu        sync.Mutex
	members   map[string]struct{} // login keys
	messages  []Message
	nextMsgID int64
	typing    map[string]time.Time // display name -> last typed
}

func newChannel(id int64, name, admin string, members []string, isPrivate bool) *Channel {
	ch := &Channel{
		ID:        id,
		Name:      name,
		Admin:     admin,
		IsPrivate: isPrivate,
		members:   make(map[string]struct{}, len(members)+1),
		typing:    make(map[string]time.Time),
	}
	for _, m := range members {
		if m != "" {
			ch.members[m] = struct{}{}
		}
	}
	if admin != "" {
		ch.members[admin] = struct{}{}
	}
	return ch
}

func (ch *Channel) IsMember(loginKey string) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	_, ok := ch.members[loginKey]
	return ok
}

// Append assigns the next message id and clears the author's typing entry in
// the same critical section, so a poll can never see a typed-and-posted user
// as still typing.
func (ch *Channel) Append(author, body string, now time.Time) Message {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.nextMsgID++
	msg := Message{
		ID:     ch.nextMsgID,
		Author: author,
		Body:   body,
		Date:   now,
	}
	ch.messages = append(ch.messages, msg)
	delete(ch.typing, author)
	return msg
}

// Recent returns the last limit messages, most recent first. This descending
// order is the wire contract the polling client sorts by.
func (ch *Channel) Recent(limit int) []Message {
	if limit <= 0 || limit > 100 {
		limit = defaultRecentLimit
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	n := len(ch.messages)
	if limit > n {
		limit = n
	}
	out := make([]Message, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, ch.messages[i])
	}
	return out
}

// DeleteMessage removes the message in place. Only the author (matched by
// display name) or the channel admin (matched by login key) may delete.
func (ch *Channel) DeleteMessage(messageID int64, requesterLogin, requesterName string) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for i, m := range ch.messages {
		if m.ID != messageID {
			continue
		}
		if m.Author != requesterName && requesterLogin != ch.Admin {
			return common.ErrForbidden
		}
		ch.messages = append(ch.messages[:i], ch.messages[i+1:]...)
		return nil
	}
	return common.ErrNotFound
}

// SetTyping records or clears a typing signal for the display name.
func (ch *Channel) SetTyping(displayName string, isTyping bool, now time.Time) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if isTyping {
		ch.typing[displayName] = now
	} else {
		delete(ch.typing, displayName)
	}
}

// ActiveTyping returns the names that signalled typing within the window,
// sorted for stable output.
func (ch *Channel) ActiveTyping(now time.Time) []string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	out := make([]string, 0, len(ch.typing))
	for name, last := range ch.typing {
		if now.Sub(last) < typingWindow {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
