package quota

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLimiter(client, 3, 5*time.Minute, 2), mr
}

func TestAllowTextWindow(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.AllowText(ctx, "919800000001")
		if err != nil || !ok {
			t.Fatalf("message %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := limiter.AllowText(ctx, "919800000001")
	if err != nil {
		t.Fatalf("over limit: %v", err)
	}
	if ok {
		t.Fatal("fourth message in window was allowed")
	}

	// A different sender has their own window.
	if ok, err := limiter.AllowText(ctx, "919800000002"); err != nil || !ok {
		t.Fatalf("other sender: ok=%v err=%v", ok, err)
	}

	// After the window expires the counter starts fresh.
	mr.FastForward(5*time.Minute + time.Second)
	if ok, err := limiter.AllowText(ctx, "919800000001"); err != nil || !ok {
		t.Fatalf("after window: ok=%v err=%v", ok, err)
	}
}

func TestAllowAttachmentDailyCap(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	limiter.now = func() time.Time {
		return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.AllowAttachment(ctx, "919800000003")
		if err != nil || !ok {
			t.Fatalf("attachment %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := limiter.AllowAttachment(ctx, "919800000003")
	if err != nil {
		t.Fatalf("over cap: %v", err)
	}
	if ok {
		t.Fatal("third attachment of the day was allowed")
	}

	// The next UTC day uses a new key.
	limiter.now = func() time.Time {
		return time.Date(2026, 3, 15, 0, 10, 0, 0, time.UTC)
	}
	if ok, err := limiter.AllowAttachment(ctx, "919800000003"); err != nil || !ok {
		t.Fatalf("next day: ok=%v err=%v", ok, err)
	}
}
