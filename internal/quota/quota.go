// Package quota rate-limits inbound traffic per sender so one number
// cannot monopolize AI and OCR capacity.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Unlimited admits everything. It stands in for Limiter when Redis is
// not configured, so local setups run without quota enforcement.
type Unlimited struct{}

func (Unlimited) AllowText(context.Context, string) (bool, error)       { return true, nil }
func (Unlimited) AllowAttachment(context.Context, string) (bool, error) { return true, nil }

// Limiter enforces two caps per sender: a sliding text-message window
// and a hard daily attachment cap. Counters live in Redis so every
// webhook worker shares them.
type Limiter struct {
	redis              *redis.Client
	textLimit          int
	textWindow         time.Duration
	attachmentDailyCap int
	now                func() time.Time
}

func NewLimiter(client *redis.Client, textLimit int, textWindow time.Duration, attachmentDailyCap int) *Limiter {
	return &Limiter{
		redis:              client,
		textLimit:          textLimit,
		textWindow:         textWindow,
		attachmentDailyCap: attachmentDailyCap,
		now:                time.Now,
	}
}

// AllowText consumes one slot in the sender's text window. The first
// message of a window sets the expiry; counting continues past the
// limit so abuse shows up in the counter.
func (l *Limiter) AllowText(ctx context.Context, senderID string) (bool, error) {
	key := "quota:text:" + senderID
	n, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("quota: incr text counter: %w", err)
	}
	if n == 1 {
		if err := l.redis.Expire(ctx, key, l.textWindow).Err(); err != nil {
			return false, fmt.Errorf("quota: set text window: %w", err)
		}
	}
	return n <= int64(l.textLimit), nil
}

// AllowAttachment consumes one slot in the sender's daily attachment
// cap. The counter resets at midnight UTC.
func (l *Limiter) AllowAttachment(ctx context.Context, senderID string) (bool, error) {
	now := l.now().UTC()
	key := "quota:attach:" + senderID + ":" + now.Format("2006-01-02")
	n, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("quota: incr attachment counter: %w", err)
	}
	if n == 1 {
		midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		if err := l.redis.Expire(ctx, key, midnight.Sub(now)).Err(); err != nil {
			return false, fmt.Errorf("quota: set attachment window: %w", err)
		}
	}
	return n <= int64(l.attachmentDailyCap), nil
}
