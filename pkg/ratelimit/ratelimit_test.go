package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	t.Run("allows up to max hits", func(t *testing.T) {
		l := NewLimiter(time.Minute, 3)

		for i := 0; i < 3; i++ {
			if !l.Allow("10.0.0.1") {
				t.Fatalf("Expected hit %d to be allowed", i+1)
			}
		}
		if l.Allow("10.0.0.1") {
			t.Error("Expected hit over the limit to be denied")
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := NewLimiter(time.Minute, 1)

		if !l.Allow("10.0.0.1") {
			t.Error("Expected first key to be allowed")
		}
		if !l.Allow("10.0.0.2") {
			t.Error("Expected second key to be allowed")
		}
	})

	t.Run("window expiry readmits", func(t *testing.T) {
		l := NewLimiter(10*time.Millisecond, 1)

		if !l.Allow("10.0.0.1") {
			t.Fatal("Expected first hit to be allowed")
		}
		if l.Allow("10.0.0.1") {
			t.Fatal("Expected second hit to be denied")
		}

		time.Sleep(15 * time.Millisecond)
		if !l.Allow("10.0.0.1") {
			t.Error("Expected hit after window expiry to be allowed")
		}
	})

	t.Run("forget clears the key", func(t *testing.T) {
		l := NewLimiter(time.Minute, 1)

		l.Allow("10.0.0.1")
		l.Forget("10.0.0.1")
		if !l.Allow("10.0.0.1") {
			t.Error("Expected forgotten key to be allowed again")
		}
	})
}
