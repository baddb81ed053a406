package s3

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

// isRetryableError returns true if the error is transient and the request
// should be retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown",
			"InternalError", "ServiceUnavailable", "ServiceException", "InternalServiceException":
			return true
		default:
			return false
		}
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout")
}

// isNotFoundError returns true if the error indicates the object or bucket
// doesn't exist.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) || errors.As(err, &noSuchBucket) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket", "404":
			return true
		}
	}
	return false
}

// isAccessDeniedError returns true if the credentials were rejected.
func isAccessDeniedError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "AccessDenied", "Forbidden", "403", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return true
	}
	return false
}

// translateError maps an SDK error onto the remotefs taxonomy. Context
// errors are returned unchanged.
func translateError(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isNotFoundError(err):
		return remotefs.NewError(remotefs.ErrCodeNotFound, op, path, err)
	case isAccessDeniedError(err):
		return remotefs.NewError(remotefs.ErrCodeAuthRequired, op, path, err)
	default:
		return remotefs.NewError(remotefs.ErrCodeIO, op, path, err)
	}
}

// retryConfig controls retries of idempotent requests.
type retryConfig struct {
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
}

var defaultRetry = retryConfig{
	maxRetries:        2,
	initialBackoff:    100 * time.Millisecond,
	maxBackoff:        2 * time.Second,
	backoffMultiplier: 2,
}

// backoff returns the wait before retry number attempt (0-based).
func (r retryConfig) backoff(attempt int) time.Duration {
	b := float64(r.initialBackoff)
	for range attempt {
		b *= r.backoffMultiplier
	}
	return time.Duration(min(b, float64(r.maxBackoff)))
}

// withRetry calls fn until it succeeds, fails with a non-retryable error,
// or the retry budget is spent.
func withRetry[T any](ctx context.Context, r retryConfig, op, key string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			wait := r.backoff(attempt - 1)
			logger.DebugCtx(ctx, "S3 request retrying",
				logger.Operation(op), logger.Key(key), "attempt", attempt, "backoff", wait)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(wait):
			}
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}
	return zero, lastErr
}
