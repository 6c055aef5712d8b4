package chat

import (
	"strings"
	"sync"

	"github.com/friendschat/chatroom/internal/common"
)

// Store owns the channel map. Channel ids come from a monotonic counter
// incremented under the store lock, so concurrent creates can never collide.
type Store struct {
	mu       sync.RWMutex
	channels map[int64]*Channel
	order    []int64 // creation order, drives listing order
	nextID   int64
}

func NewStore() *Store {
	return &Store{channels: make(map[int64]*Channel)}
}

// Create adds a channel with the creator as admin and member. The creator is
// added to members if absent.
func (s *Store) Create(creator, name string, members []string, isPrivate bool) (*Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" || creator == "" {
		return nil, common.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ch := newChannel(s.nextID, name, creator, members, isPrivate)
	s.channels[ch.ID] = ch
	s.order = append(s.order, ch.ID)
	return ch, nil
}

func (s *Store) Get(id int64) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return ch, nil
}

// Delete removes the channel and everything it owns. Only the admin may
// delete; anyone else gets ErrForbidden.
func (s *Store) Delete(id int64, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return common.ErrNotFound
	}
	if requester != ch.Admin {
		return common.ErrForbidden
	}
	delete(s.channels, id)
	for i, cid := range s.order {
		if cid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListFor returns the channels the login key belongs to, in creation order.
func (s *Store) ListFor(loginKey string) []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		ch := s.channels[id]
		if !ch.IsMember(loginKey) {
			continue
		}
		out = append(out, Summary{ID: ch.ID, Name: ch.Name, IsAdmin: loginKey == ch.Admin})
	}
	return out
}

// FirstFor returns the first channel the login key is a member of. Backs the
// chat/join endpoint, which drops a fresh client into its default channel.
func (s *Store) FirstFor(loginKey string) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		ch := s.channels[id]
		if ch.IsMember(loginKey) {
			return ch, nil
		}
	}
	return nil, common.ErrNotFound
}
