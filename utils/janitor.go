package utils

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/tripjournal/models"
)

// PageViewRetention is how long daily page view rows are kept.
const PageViewRetention = 400 * 24 * time.Hour

// StartJanitor launches a background goroutine that periodically drops expired
// in-memory session revocations and login failure windows, and prunes old page
// views. It stops when ctx is done. Failures are logged and retried next round.
func StartJanitor(ctx context.Context, db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				SweepOnce(ctx, db, time.Now())
			}
		}
	}()
}

// SweepOnce performs a single janitor round as of now.
func SweepOnce(ctx context.Context, db *gorm.DB, now time.Time) {
	revoked := PurgeExpiredRevocations()
	fails := PurgeExpiredPasscodeFailures()
	if db == nil {
		return
	}
	cutoff := now.Add(-PageViewRetention)
	res := db.WithContext(ctx).Where("date < ?", cutoff).Delete(&models.PageView{})
	if res.Error != nil {
		Sugar.Warnf("janitor: prune page views failed: %v", res.Error)
		return
	}
	if revoked+fails > 0 || res.RowsAffected > 0 {
		Sugar.Debugf("janitor: revocations=%d loginWindows=%d pageViews=%d", revoked, fails, res.RowsAffected)
	}
}
