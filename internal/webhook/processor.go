package webhook

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/byoncocare/oncobot/internal/ai"
	"github.com/byoncocare/oncobot/internal/conversation"
	"github.com/byoncocare/oncobot/internal/extract"
	observemetrics "github.com/byoncocare/oncobot/internal/observability/metrics"
	"github.com/byoncocare/oncobot/internal/optout"
	"github.com/byoncocare/oncobot/internal/safety"
	"github.com/byoncocare/oncobot/internal/whatsapp"
	"github.com/byoncocare/oncobot/pkg/logging"
)

var processorTracer = otel.Tracer("oncobot.internal.webhook")

const (
	stopAck  = "You will not receive any more messages from OncoBot. Reply START anytime to resume. Take care."
	startAck = "Welcome back to OncoBot!"

	quotaAttachmentReply = "You have reached today's limit for report files. Please send the next file tomorrow, or type out the part you have a question about."

	somethingWrongReply = "Sorry, something went wrong on our side. Please try again in a moment."
)

type processedLedger interface {
	MarkProcessed(ctx context.Context, messageID string) (bool, error)
}

type optoutStore interface {
	IsOptedOut(ctx context.Context, senderID string) (bool, error)
	OptOut(ctx context.Context, senderID string) error
	OptIn(ctx context.Context, senderID string) error
}

type quotaLimiter interface {
	AllowText(ctx context.Context, senderID string) (bool, error)
	AllowAttachment(ctx context.Context, senderID string) (bool, error)
}

type stateStore interface {
	Load(ctx context.Context, senderID string) (*conversation.State, error)
	Save(ctx context.Context, state *conversation.State) error
}

type attachmentExtractor interface {
	Extract(ctx context.Context, msg whatsapp.InboundMessage) extract.Result
}

type answerProvider interface {
	Answer(ctx context.Context, q ai.Question) string
}

type replySender interface {
	Send(ctx context.Context, to, text, correlationID string) bool
}

type transcriptRecorder interface {
	Record(ctx context.Context, entry conversation.TranscriptEntry) error
}

// Processor runs the full inbound pipeline for one message: ledger,
// reserved keywords, opt-out, quotas, safety gates, extraction, state
// machine, answer generation, and the outbound sends.
type Processor struct {
	ledger      processedLedger
	optouts     optoutStore
	detector    *optout.Detector
	quotas      quotaLimiter
	classifier  *safety.Classifier
	extractor   attachmentExtractor
	states      stateStore
	transcripts transcriptRecorder
	answers     answerProvider
	sender      replySender
	metrics     *observemetrics.WebhookMetrics
	logger      *logging.Logger
}

type ProcessorConfig struct {
	Ledger      processedLedger
	Optouts     optoutStore
	Quotas      quotaLimiter
	Extractor   attachmentExtractor
	States      stateStore
	Transcripts transcriptRecorder
	Answers     answerProvider
	Sender      replySender
	Metrics     *observemetrics.WebhookMetrics
	Logger      *logging.Logger
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Processor{
		ledger:      cfg.Ledger,
		optouts:     cfg.Optouts,
		detector:    optout.NewDetector(),
		quotas:      cfg.Quotas,
		classifier:  safety.NewClassifier(),
		extractor:   cfg.Extractor,
		states:      cfg.States,
		transcripts: cfg.Transcripts,
		answers:     cfg.Answers,
		sender:      cfg.Sender,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

// Process handles one inbound message end to end. Failures are logged
// and metered, never returned: the webhook was already acknowledged.
func (p *Processor) Process(ctx context.Context, msg whatsapp.InboundMessage) {
	if msg.Kind == whatsapp.KindStatus {
		p.metrics.ObserveInbound("status", "ignored")
		return
	}

	ctx, span := processorTracer.Start(ctx, "webhook.process",
		trace.WithAttributes(attribute.String("message.kind", string(msg.Kind))))
	defer span.End()
	start := time.Now()

	claimed, err := p.ledger.MarkProcessed(ctx, msg.MessageID)
	if err != nil {
		p.logger.Error("ledger claim failed", "error", err,
			"message_id", msg.MessageID, "sender", logging.MaskID(msg.SenderID))
		p.metrics.ObserveInbound(string(msg.Kind), "error")
		return
	}
	if !claimed {
		p.metrics.ObserveGate("duplicate")
		return
	}

	outcome := p.handle(ctx, msg)
	p.metrics.ObserveInbound(string(msg.Kind), outcome)
	p.metrics.ObserveProcessingLatency(string(msg.Kind), time.Since(start).Seconds())
}

func (p *Processor) handle(ctx context.Context, msg whatsapp.InboundMessage) string {
	text := msg.TextBody
	if text == "" {
		text = msg.Caption
	}

	p.recordTranscript(ctx, msg, "in", "", nil)

	// Reserved keywords outrank every stage, STOP and START even the
	// opt-out flag itself.
	switch p.detector.Detect(text) {
	case optout.CommandStop:
		if err := p.optouts.OptOut(ctx, msg.SenderID); err != nil {
			p.logger.Error("opt-out failed", "error", err, "sender", logging.MaskID(msg.SenderID))
			return "error"
		}
		p.send(ctx, msg, stopAck)
		return "stopped"
	case optout.CommandStart:
		if err := p.optouts.OptIn(ctx, msg.SenderID); err != nil {
			p.logger.Error("opt-in failed", "error", err, "sender", logging.MaskID(msg.SenderID))
			return "error"
		}
		p.sendResume(ctx, msg)
		return "resumed"
	}

	optedOut, err := p.optouts.IsOptedOut(ctx, msg.SenderID)
	if err != nil {
		p.logger.Error("opt-out lookup failed", "error", err, "sender", logging.MaskID(msg.SenderID))
		return "error"
	}
	if optedOut {
		p.metrics.ObserveGate("opted_out")
		return "suppressed"
	}

	switch p.detector.Detect(text) {
	case optout.CommandHelp:
		p.send(ctx, msg, conversation.HelpText)
		return "replied"
	case optout.CommandReset:
		return p.handleReset(ctx, msg)
	}

	state, err := p.states.Load(ctx, msg.SenderID)
	if err != nil {
		p.logger.Error("state load failed", "error", err, "sender", logging.MaskID(msg.SenderID))
		p.send(ctx, msg, somethingWrongReply)
		return "error"
	}

	input := conversation.Input{Text: text, Kind: msg.Kind}
	input.Safety = p.classifier.Classify(text, state.InActiveFlow())

	switch msg.Kind {
	case whatsapp.KindText:
		allowed, err := p.quotas.AllowText(ctx, msg.SenderID)
		if err != nil {
			p.logger.Error("text quota check failed", "error", err, "sender", logging.MaskID(msg.SenderID))
			p.send(ctx, msg, somethingWrongReply)
			return "error"
		}
		if !allowed {
			// No reply: answering over-quota traffic would keep the
			// loop going. The counter keeps rising for visibility.
			p.metrics.ObserveGate("quota_text")
			return "suppressed"
		}
	case whatsapp.KindImage, whatsapp.KindDocument:
		allowed, err := p.quotas.AllowAttachment(ctx, msg.SenderID)
		if err != nil {
			p.logger.Error("attachment quota check failed", "error", err, "sender", logging.MaskID(msg.SenderID))
			p.send(ctx, msg, somethingWrongReply)
			return "error"
		}
		if !allowed {
			p.metrics.ObserveGate("quota_attachment")
			p.send(ctx, msg, quotaAttachmentReply)
			return "suppressed"
		}
		res := p.extractor.Extract(ctx, msg)
		if res.Status != extract.StatusOK {
			p.send(ctx, msg, res.UserReply())
			return "replied"
		}
		input.ExtractedText = res.Text
		// Extracted report text goes through the emergency gate just
		// like typed text: a photographed discharge note can carry the
		// same red flags, and it must never reach the AI on a match.
		if rep := p.classifier.Classify(res.Text, true); rep.Verdict == safety.VerdictEmergency {
			input.Safety = rep
		}
	}

	switch input.Safety.Verdict {
	case safety.VerdictEmergency:
		p.metrics.ObserveGate("emergency")
	case safety.VerdictRisky:
		p.metrics.ObserveGate("risky")
	case safety.VerdictOffTopic:
		p.metrics.ObserveGate("off_topic")
	}

	outcome := conversation.Transition(state, input)

	replies := outcome.Replies
	if outcome.Action == conversation.ActionAskAI {
		answer := p.answers.Answer(ctx, ai.Question{
			SenderID: msg.SenderID,
			Text:     outcome.Prompt,
			Profile:  state.Profile,
			Intents:  input.Safety.Intents.Active(),
		})
		replies = append(replies, answer)
	}

	if err := p.states.Save(ctx, state); err != nil {
		p.logger.Error("state save failed", "error", err, "sender", logging.MaskID(msg.SenderID))
		p.send(ctx, msg, somethingWrongReply)
		return "error"
	}

	for _, reply := range replies {
		p.send(ctx, msg, reply)
	}
	p.recordTranscript(ctx, msg, "out", input.Safety.Verdict.String(), input.Safety.Intents.Active())
	return "replied"
}

func (p *Processor) handleReset(ctx context.Context, msg whatsapp.InboundMessage) string {
	state, err := p.states.Load(ctx, msg.SenderID)
	if err != nil {
		p.logger.Error("state load failed", "error", err, "sender", logging.MaskID(msg.SenderID))
		p.send(ctx, msg, somethingWrongReply)
		return "error"
	}
	state.Reset()
	if err := p.states.Save(ctx, state); err != nil {
		p.logger.Error("state save failed", "error", err, "sender", logging.MaskID(msg.SenderID))
		p.send(ctx, msg, somethingWrongReply)
		return "error"
	}
	p.send(ctx, msg, conversation.ResetConfirmation)
	return "replied"
}

// sendResume acknowledges a START and drops the sender back where they
// belong: the menu when already onboarded, the consent gate otherwise.
func (p *Processor) sendResume(ctx context.Context, msg whatsapp.InboundMessage) {
	state, err := p.states.Load(ctx, msg.SenderID)
	if err != nil {
		p.logger.Error("state load failed", "error", err, "sender", logging.MaskID(msg.SenderID))
		p.send(ctx, msg, startAck)
		return
	}
	if state.Consented && state.Stage == conversation.StageMenu {
		p.send(ctx, msg, startAck+"\n\n"+conversation.MenuText)
		return
	}
	if state.Consented {
		p.send(ctx, msg, startAck)
		return
	}
	p.send(ctx, msg, startAck+"\n\n"+conversation.Disclaimer)
}

func (p *Processor) send(ctx context.Context, msg whatsapp.InboundMessage, text string) {
	if p.sender.Send(ctx, msg.SenderID, text, msg.MessageID) {
		p.metrics.ObserveOutbound("sent")
		return
	}
	p.metrics.ObserveOutbound("failed")
}

func (p *Processor) recordTranscript(ctx context.Context, msg whatsapp.InboundMessage, direction, verdict string, intents []string) {
	if p.transcripts == nil {
		return
	}
	err := p.transcripts.Record(ctx, conversation.TranscriptEntry{
		SenderID:   msg.SenderID,
		MessageID:  msg.MessageID,
		Direction:  direction,
		Kind:       string(msg.Kind),
		Verdict:    verdict,
		IntentTags: intents,
	})
	if err != nil {
		p.logger.Warn("transcript record failed", "error", err, "sender", logging.MaskID(msg.SenderID))
	}
}
