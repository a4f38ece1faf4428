// Package metrics exposes Prometheus instrumentation for the HTTP layer, the
// database and the public projection cache.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripjournal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripjournal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripjournal_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Content
	PostWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripjournal_post_writes_total",
			Help: "Post write operations by kind and outcome",
		},
		[]string{"operation", "result"}, // create|update|delete|status, ok|invalid|not_found|error
	)

	AdminLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripjournal_admin_logins_total",
			Help: "Admin passcode attempts by outcome",
		},
		[]string{"result"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripjournal_cache_lookups_total",
			Help: "Public projection cache lookups by result",
		},
		[]string{"result"}, // hit|miss
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripjournal_db_query_duration_seconds",
			Help:    "Duration of database statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripjournal_db_query_errors_total",
			Help: "Total number of failed database statements",
		},
		[]string{"operation", "table"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPostWrite records the outcome of a post write.
func RecordPostWrite(operation, result string) {
	PostWrites.WithLabelValues(operation, result).Inc()
}

// RecordDBQuery records a database statement. Missing rows are not errors.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

const startKey = "metrics:start"

// InstrumentGorm times every create, query, update, delete and raw statement on db.
func InstrumentGorm(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", after("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", after("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", after("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("metrics:before_row", before); err != nil {
		return err
	}
	return cb.Row().After("gorm:row").Register("metrics:after_row", after("row"))
}

func before(tx *gorm.DB) {
	tx.InstanceSet(startKey, time.Now())
}

func after(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(startKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := tx.Statement.Table
		if table == "" {
			table = "unknown"
		}
		RecordDBQuery(op, table, time.Since(start), tx.Error)
	}
}
