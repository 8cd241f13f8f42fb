package webhook

import (
	"context"
	"sync"

	"github.com/byoncocare/oncobot/internal/observability/metrics"
	"github.com/byoncocare/oncobot/internal/whatsapp"
	"github.com/byoncocare/oncobot/pkg/logging"
)

// messageProcessor is satisfied by *Processor.
type messageProcessor interface {
	Process(ctx context.Context, msg whatsapp.InboundMessage)
}

// Dispatcher decouples webhook acknowledgement from message handling:
// the HTTP handler enqueues and returns 200, a worker pool drains the
// buffer. Because the 200 is sent before processing, a message lost
// from the buffer is gone — the platform only resends webhooks it
// never got an acknowledgement for — so drops are logged and counted.
type Dispatcher struct {
	ch        chan whatsapp.InboundMessage
	processor messageProcessor
	workers   int
	metrics   *metrics.WebhookMetrics
	logger    *logging.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(processor messageProcessor, workers, buffer int, m *metrics.WebhookMetrics, logger *logging.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 128
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		ch:        make(chan whatsapp.InboundMessage, buffer),
		processor: processor,
		workers:   workers,
		metrics:   m,
		logger:    logger,
	}
}

// Enqueue hands a message to the worker pool. It never blocks the
// webhook response: on a full buffer the message is dropped and the
// sender gets no reply, since the webhook was already acknowledged.
// The drop counter is the signal to grow the buffer or worker pool.
func (d *Dispatcher) Enqueue(msg whatsapp.InboundMessage) bool {
	select {
	case d.ch <- msg:
		return true
	default:
		d.metrics.ObserveDropped()
		d.logger.Warn("dispatch buffer full, message dropped",
			"message_id", msg.MessageID,
			"sender", logging.MaskID(msg.SenderID))
		return false
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
}

// Wait blocks until all workers have exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.ch:
			d.processor.Process(ctx, msg)
		}
	}
}
