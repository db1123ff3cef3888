package sheetsync

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/gobdata/seguimiento_backend/config"
)

// RetryPolicy bounds the synchronizer's write attempts. Backoff and sleep are
// injectable so tests run against a fake clock.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the delay before the given attempt (1-based).
	Backoff func(attempt int) time.Duration
	// ShouldRefresh classifies errors worth a credential refresh before the
	// next attempt.
	ShouldRefresh func(err error) bool
	// Refresh is the credential refresh side effect.
	Refresh func()
	Sleep   func(d time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
		ShouldRefresh: isCredentialError,
		Refresh:       config.ResetSheetsService,
		Sleep:         time.Sleep,
	}
}

func isCredentialError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unauthenticated") ||
		strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "token expired") ||
		strings.Contains(msg, "invalid credentials") ||
		strings.Contains(msg, "401")
}

// Run executes op under the policy. It returns the last error after the
// attempts are exhausted; callers at the fire-and-forget boundary log it and
// move on.
func (p RetryPolicy) Run(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		if p.ShouldRefresh != nil && p.ShouldRefresh(lastErr) && p.Refresh != nil {
			p.Refresh()
		}
		if p.Sleep != nil && p.Backoff != nil {
			p.Sleep(p.Backoff(attempt))
		}
	}
	return lastErr
}
