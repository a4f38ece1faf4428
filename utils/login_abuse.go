package utils

import (
	"context"
	"sync"
	"time"
)

const (
	// MaxPasscodeFailures is how many wrong passcodes one IP may submit per window.
	MaxPasscodeFailures = 10
	passcodeFailWindow  = 15 * time.Minute
)

type failWindow struct {
	count     int
	expiresAt time.Time
}

var (
	passcodeFails   = map[string]*failWindow{}
	passcodeFailsMu sync.Mutex
)

func loginKey(ip string) string {
	return "login:fail:" + ip
}

// RecordPasscodeFailure counts a wrong passcode from ip and returns the count in the
// current window.
func RecordPasscodeFailure(ip string) int {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		n, err := rc.Incr(ctx, loginKey(ip)).Result()
		if err == nil {
			if n == 1 {
				_ = rc.Expire(ctx, loginKey(ip), passcodeFailWindow).Err()
			}
			return int(n)
		}
	}
	now := time.Now()
	passcodeFailsMu.Lock()
	defer passcodeFailsMu.Unlock()
	w, ok := passcodeFails[ip]
	if !ok || now.After(w.expiresAt) {
		w = &failWindow{expiresAt: now.Add(passcodeFailWindow)}
		passcodeFails[ip] = w
	}
	w.count++
	return w.count
}

// PasscodeLockedOut reports whether ip exhausted its attempts for the current window.
func PasscodeLockedOut(ip string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		n, err := rc.Get(ctx, loginKey(ip)).Int()
		if err == nil {
			return n >= MaxPasscodeFailures
		}
	}
	passcodeFailsMu.Lock()
	defer passcodeFailsMu.Unlock()
	w, ok := passcodeFails[ip]
	return ok && time.Now().Before(w.expiresAt) && w.count >= MaxPasscodeFailures
}

// ClearPasscodeFailures forgets the failures of ip after a successful login.
func ClearPasscodeFailures(ip string) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_ = rc.Del(ctx, loginKey(ip)).Err()
	}
	passcodeFailsMu.Lock()
	delete(passcodeFails, ip)
	passcodeFailsMu.Unlock()
}

// PurgeExpiredPasscodeFailures drops elapsed in-memory windows.
func PurgeExpiredPasscodeFailures() int {
	now := time.Now()
	passcodeFailsMu.Lock()
	defer passcodeFailsMu.Unlock()
	n := 0
	for ip, w := range passcodeFails {
		if now.After(w.expiresAt) {
			delete(passcodeFails, ip)
			n++
		}
	}
	return n
}
