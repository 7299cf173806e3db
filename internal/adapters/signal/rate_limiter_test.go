package signal

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksPastLimit(t *testing.T) {
	rl := NewSignalRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("alice") {
			t.Fatalf("attempt %d blocked inside limit", i)
		}
	}
	if rl.Allow("alice") {
		t.Fatal("attempt past limit allowed")
	}
	if !rl.Allow("bob") {
		t.Fatal("other user blocked by alice's history")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewSignalRateLimiter(1, 10*time.Millisecond)
	if !rl.Allow("alice") {
		t.Fatal("first attempt blocked")
	}
	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("alice") {
		t.Fatal("attempt after window blocked")
	}
}
