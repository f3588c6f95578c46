package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterBurst(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 2, time.Hour)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("second request should pass within burst")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
}

func TestIPRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Hour)

	if !limiter.Allow("login:1.2.3.4") {
		t.Fatal("first key should pass")
	}
	if limiter.Allow("login:1.2.3.4") {
		t.Fatal("first key should now be limited")
	}
	if !limiter.Allow("login:5.6.7.8") {
		t.Fatal("second key should be unaffected")
	}
}
