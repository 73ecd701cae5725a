package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/metrics"
	"github.com/DasilvaKareem/wogshard/pkg/types"
)

// Challenge is a login message a wallet must sign to prove ownership
type Challenge struct {
	Wallet    string    `json:"wallet"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a bearer credential bound to a wallet
type Session struct {
	Token     string    `json:"token"`
	Wallet    string    `json:"wallet"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store issues challenges, verifies wallet signatures, and maps bearer
// credentials to wallets. Wallet identifiers are hex-encoded ed25519 public
// keys, so signature verification needs no external key registry.
type Store struct {
	mu         sync.RWMutex
	challenges map[string]*Challenge
	sessions   map[string]*Session
	ttl        time.Duration
	freshness  time.Duration
	now        func() time.Time
}

// NewStore creates a session store with the default TTL and freshness window
func NewStore() *Store {
	return &Store{
		challenges: make(map[string]*Challenge),
		sessions:   make(map[string]*Session),
		ttl:        types.SessionTTL,
		freshness:  types.ChallengeFreshness,
		now:        time.Now,
	}
}

// NewChallenge issues a challenge for wallet. Re-requesting replaces any
// outstanding challenge for the same wallet.
func (s *Store) NewChallenge(wallet string) (*Challenge, error) {
	if _, err := pubKeyFromWallet(wallet); err != nil {
		return nil, err
	}

	ch := &Challenge{
		Wallet:    wallet,
		Timestamp: s.now(),
	}
	ch.Message = challengeMessage(wallet, ch.Timestamp)

	s.mu.Lock()
	s.challenges[wallet] = ch
	s.mu.Unlock()
	return ch, nil
}

// Verify checks a signed challenge and issues a bearer session. The
// signature is hex-encoded ed25519 over the challenge message; timestamps
// outside the freshness window are rejected.
func (s *Store) Verify(wallet, signatureHex string, timestamp time.Time) (*Session, error) {
	pub, err := pubKeyFromWallet(wallet)
	if err != nil {
		return nil, err
	}

	age := s.now().Sub(timestamp)
	if age > s.freshness || age < -s.freshness {
		return nil, fmt.Errorf("challenge timestamp outside freshness window")
	}

	s.mu.Lock()
	ch, ok := s.challenges[wallet]
	s.mu.Unlock()
	if !ok || ch.Timestamp.UnixMilli() != timestamp.UnixMilli() {
		return nil, fmt.Errorf("no outstanding challenge for wallet")
	}

	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signature hex: %w", err)
	}
	if !ed25519.Verify(pub, []byte(ch.Message), sig) {
		return nil, fmt.Errorf("signature verification failed")
	}

	// Generate a random bearer token
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	sess := &Session{
		Token:     hex.EncodeToString(raw),
		Wallet:    wallet,
		CreatedAt: s.now(),
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	delete(s.challenges, wallet)
	s.sessions[sess.Token] = sess
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	return sess, nil
}

// Lookup resolves a bearer token to its wallet. Expired tokens are rejected.
func (s *Store) Lookup(token string) (string, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("invalid session token")
	}
	if s.now().After(sess.ExpiresAt) {
		return "", fmt.Errorf("session expired")
	}
	return sess.Wallet, nil
}

// Revoke removes a session token
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()
}

// CleanupExpired removes expired sessions and stale challenges
func (s *Store) CleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
	for wallet, ch := range s.challenges {
		if now.Sub(ch.Timestamp) > s.freshness {
			delete(s.challenges, wallet)
		}
	}
	metrics.SessionsActive.Set(float64(len(s.sessions)))
}

// StartCleanup runs CleanupExpired on interval until stopCh closes
func (s *Store) StartCleanup(interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.CleanupExpired()
			case <-stopCh:
				return
			}
		}
	}()
}

func challengeMessage(wallet string, ts time.Time) string {
	return fmt.Sprintf("wogshard login\nwallet: %s\nissued: %d", wallet, ts.UnixMilli())
}

func pubKeyFromWallet(wallet string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(wallet)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet hex: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("wallet must be %d bytes of hex, got %d", ed25519.PublicKeySize, len(b))
	}
	return ed25519.PublicKey(b), nil
}
