// Package retry is the single retry policy applied to every outbound
// network call: exponential backoff, at most three attempts, retrying
// only transient conditions. Permanent failures (auth, 404, cancelled
// context) propagate immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const maxAttempts = 3

// Backoff intervals. Vars rather than consts so tests can shrink them.
var (
	InitialInterval = 2 * time.Second
	MaxInterval     = 10 * time.Second
)

// StatusError reports a non-2xx HTTP response from an upstream.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// Transient reports whether the status is worth another attempt.
// 429 covers GitHub's secondary rate limits.
func (e *StatusError) Transient() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Do runs op under the retry policy. name shows up in retry logs so a
// failing stage can be identified without a stack trace.
func Do(ctx context.Context, log *zap.Logger, name string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = InitialInterval
	b.MaxInterval = MaxInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !Transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		log.Warn("transient error, retrying",
			zap.String("op", name),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
}

// Transient classifies err: timeouts, connection resets, truncated
// responses, and retryable HTTP statuses are transient; everything
// else is permanent.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
