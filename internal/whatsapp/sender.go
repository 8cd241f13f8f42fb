package whatsapp

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/byoncocare/oncobot/pkg/logging"
)

// TextSender is the send surface the retry wrapper decorates.
type TextSender interface {
	SendText(ctx context.Context, to, text string) (*SendResponse, error)
}

// RetrySender wraps the platform send call with bounded exponential
// backoff. Only 429 and 5xx responses are retried; other failures are
// permanent. Failures are logged with the correlation id and a masked
// recipient, never raised back to the webhook handler.
type RetrySender struct {
	client      TextSender
	logger      *logging.Logger
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRetrySender builds a RetrySender with the configured policy.
func NewRetrySender(client TextSender, maxAttempts int, baseDelay time.Duration, logger *logging.Logger) *RetrySender {
	if logger == nil {
		logger = logging.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetrySender{
		client:      client,
		logger:      logger,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepCtx,
	}
}

// Send attempts delivery, retrying transient failures. correlationID is
// the inbound message id the reply answers, used only for logging.
func (s *RetrySender) Send(ctx context.Context, to, text, correlationID string) bool {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, s.nextDelay(attempt)); err != nil {
				lastErr = err
				break
			}
		}
		resp, err := s.client.SendText(ctx, to, text)
		if err == nil {
			s.logger.Info("outbound message sent",
				"provider_message_id", resp.MessageID,
				"recipient", logging.MaskID(to),
				"in_reply_to", correlationID,
				"attempts", attempt+1,
			)
			return true
		}
		lastErr = err

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || !statusErr.Retryable() {
			break
		}
		s.logger.Warn("transient send failure, will retry",
			"recipient", logging.MaskID(to),
			"in_reply_to", correlationID,
			"status", statusErr.StatusCode,
			"attempt", attempt+1,
		)
	}

	s.logger.Error("outbound message failed",
		"error", lastErr,
		"recipient", logging.MaskID(to),
		"in_reply_to", correlationID,
	)
	return false
}

// nextDelay doubles the base delay per attempt and adds up to 25% jitter.
func (s *RetrySender) nextDelay(attempt int) time.Duration {
	delay := s.baseDelay << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
