package session

import (
	"context"
	"sync"
	"time"

	"github.com/friendschat/chatroom/internal/common"
)

// Session binds an opaque token to an authenticated identity. MFAVerified
// starts false when the user has MFA enabled and flips exactly once.
type Session struct {
	Token       string
	LoginKey    string
	DisplayName string
	MFAVerified bool
	CreatedAt   time.Time
}

// Store owns the token -> session map. One RWMutex guards the whole entity;
// all operations are map lookups and complete immediately.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration // 0 disables expiry
	now      func() time.Time
}

// NewStore creates a session store. ttl of zero means sessions live for the
// process lifetime, which is the original demo behavior.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create issues a fresh token for the identity. mfaRequired leaves the
// session unverified until VerifyMFA is called.
func (s *Store) Create(loginKey, displayName string, mfaRequired bool) (string, error) {
	token, err := common.NewULID()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[token] = Session{
		Token:       token,
		LoginKey:    loginKey,
		DisplayName: displayName,
		MFAVerified: !mfaRequired,
		CreatedAt:   s.now(),
	}
	s.mu.Unlock()
	return token, nil
}

// Resolve returns a copy of the session for the token, or ErrNotFound for
// unknown or expired tokens.
func (s *Store) Resolve(token string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok || s.expired(sess, s.now()) {
		return Session{}, common.ErrNotFound
	}
	return sess, nil
}

// VerifyMFA marks the session verified. Idempotent.
func (s *Store) VerifyMFA(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || s.expired(sess, s.now()) {
		return common.ErrNotFound
	}
	sess.MFAVerified = true
	s.sessions[token] = sess
	return nil
}

func (s *Store) expired(sess Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.CreatedAt) >= s.ttl
}

// Sweep removes expired sessions and reports how many were evicted.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

// StartSweeper evicts expired sessions in the background until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
