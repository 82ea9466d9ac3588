package session

import (
	"errors"
	"sync"
	"time"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

var ErrNotFound = errors.New("no active session")

// Store owns every in-flight draft and the token bindings that route form
// completions back to them. It is process memory only.
//
// All draft mutation happens inside Update under the store lock, so a
// draft never has two writers at once. Callers get clones, never the
// stored pointer.
type Store struct {
	mu     sync.Mutex
	drafts map[string]*submission.Draft
	tokens map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		drafts: make(map[string]*submission.Draft),
		tokens: make(map[string]string),
	}
}

// Put stores d as the user's draft, replacing any previous one. A replaced
// draft loses its token binding.
func (s *Store) Put(d *submission.Draft) *submission.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.drafts[d.UserID]; ok && old.SessionToken != "" {
		delete(s.tokens, old.SessionToken)
	}
	s.drafts[d.UserID] = d.Clone()
	return d.Clone()
}

// Get returns a copy of the user's draft.
func (s *Store) Get(userID string) (*submission.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[userID]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Update applies fn to the user's draft. When fn fails the draft is left
// exactly as it was.
func (s *Store) Update(userID string, fn func(d *submission.Draft) error) (*submission.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	working := d.Clone()
	if err := fn(working); err != nil {
		return d.Clone(), err
	}
	working.UpdatedAt = time.Now().UTC()
	s.drafts[userID] = working
	return working.Clone(), nil
}

// Delete drops the user's draft and any token bound to it.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[userID]; ok && d.SessionToken != "" {
		delete(s.tokens, d.SessionToken)
	}
	delete(s.drafts, userID)
}

// BindToken routes completions carrying token to userID.
func (s *Store) BindToken(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
}

// UserForToken resolves a live token.
func (s *Store) UserForToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.tokens[token]
	return u, ok
}

// RetireToken removes a token so it can never match again.
func (s *Store) RetireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Len returns the number of active drafts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
