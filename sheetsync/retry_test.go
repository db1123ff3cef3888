package sheetsync

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPolicy(refreshed *int, slept *[]time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
		ShouldRefresh: isCredentialError,
		Refresh:       func() { *refreshed++ },
		Sleep:         func(d time.Duration) { *slept = append(*slept, d) },
	}
}

func TestRetryPolicy_SucceedsWithoutRetry(t *testing.T) {
	refreshed := 0
	slept := []time.Duration{}
	policy := testPolicy(&refreshed, &slept)

	calls := 0
	err := policy.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 || len(slept) != 0 || refreshed != 0 {
		t.Fatalf("calls=%d slept=%v refreshed=%d, expected single clean attempt", calls, slept, refreshed)
	}
}

func TestRetryPolicy_ExhaustsAttemptsWithBackoff(t *testing.T) {
	refreshed := 0
	slept := []time.Duration{}
	policy := testPolicy(&refreshed, &slept)

	boom := errors.New("temporary outage")
	calls := 0
	err := policy.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run returned %v, expected the last error", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, expected 3 attempts", calls)
	}
	// Backoff between attempts only: 2^1 then 2^2 seconds.
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 4*time.Second {
		t.Fatalf("slept = %v, expected [2s 4s]", slept)
	}
	if refreshed != 0 {
		t.Fatalf("refreshed = %d, expected no refresh for generic errors", refreshed)
	}
}

func TestRetryPolicy_RefreshesOnCredentialErrors(t *testing.T) {
	refreshed := 0
	slept := []time.Duration{}
	policy := testPolicy(&refreshed, &slept)

	calls := 0
	err := policy.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("oauth2: invalid_grant token expired")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, expected recovery on second attempt", calls)
	}
	if refreshed != 1 {
		t.Fatalf("refreshed = %d, expected one credential refresh", refreshed)
	}
}

func TestIsCredentialError(t *testing.T) {
	if isCredentialError(nil) {
		t.Fatal("nil error is not a credential error")
	}
	if isCredentialError(errors.New("connection reset by peer")) {
		t.Fatal("network error is not a credential error")
	}
	if !isCredentialError(errors.New("googleapi: Error 401: UNAUTHENTICATED")) {
		t.Fatal("401 should classify as credential error")
	}
}
