package crypto

import (
	"sync"
	"time"
)

// TokenBlacklist tracks tokens that have been revoked by logout.
//
// Entries expire after a fixed TTL so the set does not grow unbounded; the
// TTL only needs to exceed the practical lifetime of a client session.
type TokenBlacklist struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenBlacklist creates an empty blacklist with the given entry TTL.
func NewTokenBlacklist(ttl time.Duration) *TokenBlacklist {
	return &TokenBlacklist{
		revoked: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Revoke marks a token as no longer valid.
func (b *TokenBlacklist) Revoke(token string) {
	if token == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune()
	b.revoked[token] = b.now().Add(b.ttl)
}

// IsRevoked reports whether a token has been revoked.
func (b *TokenBlacklist) IsRevoked(token string) bool {
	b.mu.RLock()
	expiry, ok := b.revoked[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if b.now().After(expiry) {
		b.mu.Lock()
		delete(b.revoked, token)
		b.mu.Unlock()
		return false
	}
	return true
}

// prune drops expired entries. Caller must hold the write lock.
func (b *TokenBlacklist) prune() {
	now := b.now()
	for token, expiry := range b.revoked {
		if now.After(expiry) {
			delete(b.revoked, token)
		}
	}
}
