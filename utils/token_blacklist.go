package utils

import (
	"context"
	"sync"
	"time"
)

const revokedSessionPrefix = "session:revoked:"

var (
	revokedSessions   = map[string]time.Time{}
	revokedSessionsMu sync.RWMutex
)

// RevokeSession remembers a session id until its natural expiry so logout is final.
func RevokeSession(jti string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, revokedSessionPrefix+jti, "1", ttl).Err(); err == nil {
			return
		}
		Sugar.Warnf("session revoke via redis failed jti=%s, keeping it in memory", jti)
	}
	revokedSessionsMu.Lock()
	revokedSessions[jti] = expiresAt
	revokedSessionsMu.Unlock()
}

// IsSessionRevoked reports whether jti was logged out before it expired.
func IsSessionRevoked(jti string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, revokedSessionPrefix+jti).Result()
		if err == nil && n > 0 {
			return true
		}
		// fall through: the in-memory list holds revocations Redis could not store
	}
	revokedSessionsMu.RLock()
	expiresAt, ok := revokedSessions[jti]
	revokedSessionsMu.RUnlock()
	return ok && time.Now().Before(expiresAt)
}

// PurgeExpiredRevocations drops in-memory revocations whose session has expired anyway.
// It returns how many entries were removed.
func PurgeExpiredRevocations() int {
	now := time.Now()
	revokedSessionsMu.Lock()
	defer revokedSessionsMu.Unlock()
	n := 0
	for jti, expiresAt := range revokedSessions {
		if !now.Before(expiresAt) {
			delete(revokedSessions, jti)
			n++
		}
	}
	return n
}
