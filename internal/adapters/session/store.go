package session

import "sync"

// Store holds the ephemeral session credential supplied by the auth
// backend. It lives in memory only; closing the process signs the user out.
type Store struct {
	mu     sync.RWMutex
	token  string
	bidder string
}

// NewStore creates a session store, optionally pre-seeded with an existing
// credential.
func NewStore(bidder, token string) *Store {
	return &Store{bidder: bidder, token: token}
}

// SignIn stores the credential for the given user identity
func (s *Store) SignIn(bidder, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidder = bidder
	s.token = token
}

// SignOut clears the credential
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Token returns the access token, or false when the user is not signed in
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Bidder returns the display identity of the signed-in user
func (s *Store) Bidder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bidder
}
