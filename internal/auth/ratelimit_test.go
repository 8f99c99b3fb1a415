package auth

import (
	"sync"
	"testing"
)

func TestRateLimiter_AllowsBurst(t *testing.T) {
	limiter := NewRateLimiter(1000, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow("bmc_token1") {
			t.Errorf("request %d within burst should be allowed", i)
		}
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	limiter := NewRateLimiter(0.1, 2)

	if !limiter.Allow("bmc_token1") {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow("bmc_token1") {
		t.Error("second request should fit in the burst")
	}
	if limiter.Allow("bmc_token1") {
		t.Error("third request should be rejected")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(0.1, 1)

	if !limiter.Allow("bmc_token1") {
		t.Error("token1 should be allowed")
	}
	if limiter.Allow("bmc_token1") {
		t.Error("token1 should now be exhausted")
	}

	// A different token gets its own bucket
	if !limiter.Allow("bmc_token2") {
		t.Error("token2 should not share token1's bucket")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(0.1, 1)

	// Exhaust, then expire the bucket
	limiter.Allow("bmc_token1")
	limiter.Cleanup(0)

	if !limiter.Allow("bmc_token1") {
		t.Error("after cleanup the key should get a fresh burst")
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := NewRateLimiter(10000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := []string{"bmc_a", "bmc_b", "bmc_c"}[n%3]
			// Exercising the double-checked map insert; failures here
			// show up as the race detector firing.
			limiter.Allow(key)
		}(i)
	}
	wg.Wait()
}

func TestRateLimiter_Defaults(t *testing.T) {
	limiter := DefaultRateLimiter()
	if limiter == nil {
		t.Fatal("DefaultRateLimiter() returned nil")
	}
	if !limiter.Allow("bmc_token1") {
		t.Error("default limiter should allow the first request")
	}
}
