package webhook

import (
	"crypto/subtle"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/byoncocare/oncobot/internal/whatsapp"
	"github.com/byoncocare/oncobot/pkg/logging"
)

var handlerTracer = otel.Tracer("oncobot.internal.webhook.handler")

// maxBodyBytes bounds webhook payloads; Meta batches stay well under this.
const maxBodyBytes = 1 << 20

type enqueuer interface {
	Enqueue(msg whatsapp.InboundMessage) bool
}

// Handler terminates the Meta webhook: GET for subscription
// verification, POST for message delivery. The POST path acknowledges
// fast and hands real work to the dispatcher.
type Handler struct {
	verifyToken   string
	appSecret     string
	allowUnsigned bool
	dispatcher    enqueuer
	logger        *logging.Logger
}

type HandlerConfig struct {
	VerifyToken string
	AppSecret   string
	// AllowUnsigned downgrades signature failures to a warning. Meant
	// for local tunnels only; production keeps it off.
	AllowUnsigned bool
	Dispatcher    enqueuer
	Logger        *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Dispatcher == nil {
		panic("webhook: dispatcher cannot be nil")
	}
	return &Handler{
		verifyToken:   cfg.VerifyToken,
		appSecret:     cfg.AppSecret,
		allowUnsigned: cfg.AllowUnsigned,
		dispatcher:    cfg.Dispatcher,
		logger:        cfg.Logger,
	}
}

// HandleVerify answers Meta's subscription handshake.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		h.logger.Warn("webhook verification rejected", "mode", mode)
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// HandleMessages ingests a webhook batch. It returns 200 for any
// authenticated payload, parseable or not; anything else makes Meta
// retry forever and disable the subscription.
func (h *Handler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	_, span := handlerTracer.Start(r.Context(), "webhook.ingest")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if !whatsapp.VerifySignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		if !h.allowUnsigned {
			h.logger.Warn("webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
		h.logger.Warn("webhook signature missing or invalid, accepting per config")
	}

	messages := whatsapp.ParseWebhookPayload(body, h.logger)
	span.SetAttributes(attribute.Int("webhook.messages", len(messages)))

	enqueued := 0
	for _, msg := range messages {
		if h.dispatcher.Enqueue(msg) {
			enqueued++
		}
	}
	if len(messages) > 0 {
		h.logger.Info("webhook batch accepted", "messages", len(messages), "enqueued", enqueued)
	}

	w.WriteHeader(http.StatusOK)
}
