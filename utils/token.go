package utils

import (
	"context"
	"sync"
	"time"
)

// Token yang sudah logout disimpan sampai masa berlakunya habis.
var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.RWMutex
)

func BlacklistToken(token string, expiresAt time.Time) {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	blacklistedTokens[token] = expiresAt
}

func IsTokenBlacklisted(token string) bool {
	blacklistMutex.RLock()
	expiry, exists := blacklistedTokens[token]
	blacklistMutex.RUnlock()

	return exists && time.Now().Before(expiry)
}

// CleanupBlacklist drops expired tokens every interval until ctx is done.
func CleanupBlacklist(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purgeExpiredTokens(time.Now())
		}
	}
}

func purgeExpiredTokens(now time.Time) int {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()

	removed := 0
	for token, expiry := range blacklistedTokens {
		if !now.Before(expiry) {
			delete(blacklistedTokens, token)
			removed++
		}
	}
	return removed
}
