// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-objlifecycle.
//
// go-objlifecycle is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package lifecycle

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/smithy-go"
	"google.golang.org/api/googleapi"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
)

// RetryPolicy bounds how often a failed copy or delete is re-attempted.
// The zero value makes exactly one attempt.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Defaults to IsTransient.
	Retryable func(error) bool
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = defaultInitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaultMaxBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

func (p RetryPolicy) validate() error {
	switch {
	case p.MaxAttempts < 0:
		return invalid("options.retry.max_attempts", "must not be negative, got %d", p.MaxAttempts)
	case p.InitialBackoff < 0:
		return invalid("options.retry.initial_backoff", "must not be negative, got %v", p.InitialBackoff)
	case p.MaxBackoff < 0:
		return invalid("options.retry.max_backoff", "must not be negative, got %v", p.MaxBackoff)
	}
	return nil
}

// retry runs op until it succeeds, the policy is exhausted, the error is not
// retryable, or ctx is done. It returns the number of attempts made and the
// last error.
func retry(ctx context.Context, policy RetryPolicy, op func(context.Context) error) (int, error) {
	policy = policy.normalized()

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return attempt, lastErr
			}
			return attempt, err
		}

		err := op(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts-1 || !policy.Retryable(err) {
			return attempt + 1, err
		}

		timer := time.NewTimer(calculateBackoff(attempt, policy.InitialBackoff, policy.MaxBackoff))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, lastErr
		case <-timer.C:
		}
	}
	return policy.MaxAttempts, lastErr
}

// transientCodes are provider error codes for throttling and server-side
// faults. S3, MinIO and the GCS XML API share the S3 names; Azure adds its own.
var transientCodes = map[string]bool{
	"SlowDown":                  true,
	"Throttling":                true,
	"ThrottlingException":       true,
	"RequestThrottled":          true,
	"RequestThrottledException": true,
	"TooManyRequestsException":  true,
	"RequestLimitExceeded":      true,
	"BandwidthLimitExceeded":    true,
	"RequestTimeout":            true,
	"RequestTimeoutException":   true,
	"InternalError":             true,
	"ServiceUnavailable":        true,
	"ServerBusy":                true,
	"OperationTimedOut":         true,
}

// IsTransient reports whether err is a temporary backend condition:
// a throttling or 5xx provider response, a network timeout, or a dropped
// connection. Classification uses the error chain only, never the message
// text, so keys and bucket names in wrapped errors cannot change the result.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, common.ErrKeyNotFound) {
		return false
	}
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		return false
	}

	for _, target := range []error{
		io.ErrUnexpectedEOF,
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		syscall.ECONNABORTED,
		syscall.EPIPE,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && transientCodes[apiErr.ErrorCode()] {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		if transientCodes[aerr.Code()] {
			return true
		}
		switch aerr.Code() {
		case request.ErrCodeResponseTimeout:
			return true
		case request.ErrCodeRequestError:
			// the transport failure is carried in OrigErr
			if orig := aerr.OrigErr(); orig != nil {
				return IsTransient(orig)
			}
		}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return transientStatus(gerr.Code)
	}

	if status, ok := httpStatus(err); ok {
		return transientStatus(status)
	}
	return false
}

// httpStatus extracts the HTTP status from SDK response errors: smithy
// ResponseError, aws-sdk-go RequestFailure and azblob StorageError.
func httpStatus(err error) (int, bool) {
	var smithyResp interface{ HTTPStatusCode() int }
	if errors.As(err, &smithyResp) {
		return smithyResp.HTTPStatusCode(), true
	}
	var awsResp interface{ StatusCode() int }
	if errors.As(err, &awsResp) {
		return awsResp.StatusCode(), true
	}
	var azResp interface{ Response() *http.Response }
	if errors.As(err, &azResp) && azResp.Response() != nil {
		return azResp.Response().StatusCode, true
	}
	return 0, false
}

func transientStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// calculateBackoff returns a full-jitter exponential delay for attempt.
func calculateBackoff(attempt int, initial, max time.Duration) time.Duration {
	backoff := float64(initial) * math.Pow(2, float64(attempt))
	if backoff > float64(max) {
		backoff = float64(max)
	}
	return time.Duration(rand.Float64() * backoff)
}
