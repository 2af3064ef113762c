package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrQueryTimeout marks a database call that exceeded its per-call
// deadline. It is distinguishable from other database errors so the
// retry classifier can treat it as transient.
var ErrQueryTimeout = errors.New("database query timed out")

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0
)

// RetryPolicy retries an operation for transient failure classes only.
// Validation and not-found errors are never retried; which conflict
// errors count as retryable is decided by the Retryable predicate.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	// QueryTimeout bounds each attempt. Zero disables the per-attempt deadline.
	QueryTimeout time.Duration
	// Retryable classifies errors. Nil defaults to IsTransient.
	Retryable func(error) bool
	// OnRetry, when set, runs after each failed attempt that will be
	// retried, before the backoff sleep.
	OnRetry func(attempt int, err error)
	Logger  *zap.Logger
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 1s
// exponential backoff, transient-only classification.
func DefaultRetryPolicy(queryTimeout time.Duration, logger *zap.Logger) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    defaultMaxAttempts,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
		QueryTimeout:   queryTimeout,
		Logger:         logger,
	}
}

// Do runs op under the policy. Each attempt gets its own deadline;
// an attempt that hits the deadline surfaces as ErrQueryTimeout and is
// retried. The last error is returned once attempts are exhausted.
func (p *RetryPolicy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = defaultInitialBackoff
	}
	maxBackoff := p.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	factor := p.BackoffFactor
	if factor <= 1 {
		factor = defaultBackoffFactor
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := func() {}
		if p.QueryTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.QueryTimeout)
		}

		err := op(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}

		// Translate the per-attempt deadline into the typed timeout error
		// so callers and the classifier can tell it apart.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = ErrQueryTimeout
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		if p.Logger != nil {
			p.Logger.Warn("retrying operation after transient failure",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * factor)
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return lastErr
}

// WithRetryable returns a copy of the policy using the given classifier.
func (p *RetryPolicy) WithRetryable(fn func(error) bool) *RetryPolicy {
	cp := *p
	cp.Retryable = fn
	return &cp
}

// IsTransient reports whether err is a connection-level failure worth
// retrying. Constraint violations and record-not-found are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQueryTimeout) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exceptions. Class 57: operator intervention
		// (shutdown, crash). Class 53: insufficient resources.
		class := pqErr.Code.Class()
		return class == "08" || class == "57" || class == "53"
	}

	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe")
}

// IsUniqueViolation reports whether err is a uniqueness-constraint
// failure. Two concurrent creates racing on the same sequence number
// surface here; the create path treats it as retryable.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	// sqlite phrasing, seen in tests
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
