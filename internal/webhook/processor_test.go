package webhook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/byoncocare/oncobot/internal/ai"
	"github.com/byoncocare/oncobot/internal/conversation"
	"github.com/byoncocare/oncobot/internal/extract"
	"github.com/byoncocare/oncobot/internal/safety"
	"github.com/byoncocare/oncobot/internal/whatsapp"
	"github.com/byoncocare/oncobot/pkg/logging"
)

type fakeLedger struct {
	seen map[string]bool
}

func (f *fakeLedger) MarkProcessed(_ context.Context, messageID string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[messageID] {
		return false, nil
	}
	f.seen[messageID] = true
	return true, nil
}

type fakeOptouts struct {
	out map[string]bool
}

func (f *fakeOptouts) IsOptedOut(_ context.Context, senderID string) (bool, error) {
	return f.out[senderID], nil
}

func (f *fakeOptouts) OptOut(_ context.Context, senderID string) error {
	if f.out == nil {
		f.out = map[string]bool{}
	}
	f.out[senderID] = true
	return nil
}

func (f *fakeOptouts) OptIn(_ context.Context, senderID string) error {
	if f.out == nil {
		f.out = map[string]bool{}
	}
	f.out[senderID] = false
	return nil
}

type fakeQuota struct {
	allowText   bool
	allowAttach bool
}

func (f *fakeQuota) AllowText(context.Context, string) (bool, error)       { return f.allowText, nil }
func (f *fakeQuota) AllowAttachment(context.Context, string) (bool, error) { return f.allowAttach, nil }

type fakeStates struct {
	m       map[string]*conversation.State
	loadErr error
}

func (f *fakeStates) Load(_ context.Context, senderID string) (*conversation.State, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if s, ok := f.m[senderID]; ok {
		return s, nil
	}
	return conversation.NewState(senderID), nil
}

func (f *fakeStates) Save(_ context.Context, state *conversation.State) error {
	if f.m == nil {
		f.m = map[string]*conversation.State{}
	}
	f.m[state.SenderID] = state
	return nil
}

type fakeExtractor struct {
	res extract.Result
}

func (f *fakeExtractor) Extract(context.Context, whatsapp.InboundMessage) extract.Result {
	return f.res
}

type fakeAnswers struct {
	reply string
	lastQ ai.Question
}

func (f *fakeAnswers) Answer(_ context.Context, q ai.Question) string {
	f.lastQ = q
	return f.reply
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(_ context.Context, _, text, _ string) bool {
	f.sent = append(f.sent, text)
	return true
}

type pipeline struct {
	processor *Processor
	sender    *fakeSender
	optouts   *fakeOptouts
	answers   *fakeAnswers
	states    *fakeStates
	extractor *fakeExtractor
	quota     *fakeQuota
}

func newPipeline() *pipeline {
	p := &pipeline{
		sender:    &fakeSender{},
		optouts:   &fakeOptouts{},
		answers:   &fakeAnswers{reply: "generated answer"},
		states:    &fakeStates{},
		extractor: &fakeExtractor{res: extract.Result{Status: extract.StatusOK, Text: "Hemoglobin 9.2"}},
		quota:     &fakeQuota{allowText: true, allowAttach: true},
	}
	p.processor = NewProcessor(ProcessorConfig{
		Ledger:    &fakeLedger{},
		Optouts:   p.optouts,
		Quotas:    p.quota,
		Extractor: p.extractor,
		States:    p.states,
		Answers:   p.answers,
		Sender:    p.sender,
		Logger:    logging.Default(),
	})
	return p
}

var msgSeq int

func textMsg(sender, text string) whatsapp.InboundMessage {
	msgSeq++
	return whatsapp.InboundMessage{
		SenderID:  sender,
		MessageID: "wamid." + sender + "." + string(rune('A'+msgSeq%26)) + string(rune('A'+msgSeq/26%26)),
		Kind:      whatsapp.KindText,
		TextBody:  text,
	}
}

func (p *pipeline) say(t *testing.T, sender, text string) string {
	t.Helper()
	before := len(p.sender.sent)
	p.processor.Process(context.Background(), textMsg(sender, text))
	if len(p.sender.sent) == before {
		return ""
	}
	return p.sender.sent[len(p.sender.sent)-1]
}

func TestProcessRedeliverySendsOnce(t *testing.T) {
	p := newPipeline()
	msg := textMsg("919800000001", "Hi")

	p.processor.Process(context.Background(), msg)
	p.processor.Process(context.Background(), msg)

	if len(p.sender.sent) != 1 {
		t.Fatalf("redelivered message sent %d replies, want 1", len(p.sender.sent))
	}
}

func TestProcessFullOnboardingScenario(t *testing.T) {
	p := newPipeline()
	const sender = "919800000002"

	if got := p.say(t, sender, "Hi"); got != conversation.Disclaimer {
		t.Fatalf("greeting reply = %q", got)
	}
	if got := p.say(t, sender, "AGREE"); got != conversation.NamePrompt {
		t.Fatalf("consent reply = %q", got)
	}
	p.say(t, sender, "Asha")
	p.say(t, sender, "47")
	if got := p.say(t, sender, "Mumbai"); !strings.Contains(got, "Asha") {
		t.Fatalf("onboarding completion = %q", got)
	}

	// Free text now reaches the AI with profile and intents attached.
	if got := p.say(t, sender, "what food should I eat during chemotherapy?"); got != "generated answer" {
		t.Fatalf("free-text reply = %q", got)
	}
	if p.answers.lastQ.Profile["city"] != "Mumbai" {
		t.Fatalf("answer profile = %v", p.answers.lastQ.Profile)
	}
	var hasNutrition bool
	for _, tag := range p.answers.lastQ.Intents {
		if tag == "nutrition_support" {
			hasNutrition = true
		}
	}
	if !hasNutrition {
		t.Fatalf("answer intents = %v, want nutrition", p.answers.lastQ.Intents)
	}
}

func TestProcessStopSuppressesUntilStart(t *testing.T) {
	p := newPipeline()
	const sender = "919800000003"

	if got := p.say(t, sender, "STOP"); got != stopAck {
		t.Fatalf("stop reply = %q", got)
	}

	// Everything but START is now suppressed, emergencies included.
	if got := p.say(t, sender, "Hi"); got != "" {
		t.Fatalf("opted-out sender got reply %q", got)
	}
	if got := p.say(t, sender, "bahut dard ho raha hai"); got != "" {
		t.Fatalf("opted-out emergency got reply %q", got)
	}

	got := p.say(t, sender, "START")
	if !strings.Contains(got, startAck) {
		t.Fatalf("start reply = %q", got)
	}
	if next := p.say(t, sender, "Hi"); next != conversation.Disclaimer {
		t.Fatalf("post-START reply = %q", next)
	}
}

func TestProcessEmergencyFixedReply(t *testing.T) {
	p := newPipeline()
	const sender = "919800000004"

	if got := p.say(t, sender, "bahut dard hai, saans nahi aa rahi"); got != safety.EmergencyResponse {
		t.Fatalf("emergency reply = %q", got)
	}
}

func TestProcessHelpAndReset(t *testing.T) {
	p := newPipeline()
	const sender = "919800000005"

	if got := p.say(t, sender, "HELP"); got != conversation.HelpText {
		t.Fatalf("help reply = %q", got)
	}

	p.say(t, sender, "Hi")
	p.say(t, sender, "AGREE")
	if got := p.say(t, sender, "RESET"); got != conversation.ResetConfirmation {
		t.Fatalf("reset reply = %q", got)
	}
	if state := p.states.m[sender]; state == nil || state.Consented {
		t.Fatalf("reset did not clear consent: %+v", state)
	}
}

func TestProcessTextQuotaSuppressesSilently(t *testing.T) {
	p := newPipeline()
	p.quota.allowText = false

	if got := p.say(t, "919800000006", "Hi"); got != "" {
		t.Fatalf("over-quota text got reply %q", got)
	}
}

func TestProcessAttachmentQuotaReplies(t *testing.T) {
	p := newPipeline()
	p.quota.allowAttach = false

	msg := textMsg("919800000007", "")
	msg.Kind = whatsapp.KindImage
	msg.MediaID = "media-1"
	p.processor.Process(context.Background(), msg)

	if len(p.sender.sent) != 1 || p.sender.sent[0] != quotaAttachmentReply {
		t.Fatalf("attachment quota replies = %v", p.sender.sent)
	}
}

func TestProcessAttachmentPipeline(t *testing.T) {
	p := newPipeline()
	const sender = "919800000008"
	for _, m := range []string{"Hi", "AGREE", "Ravi", "58", "Nagpur"} {
		p.say(t, sender, m)
	}

	msg := textMsg(sender, "")
	msg.Kind = whatsapp.KindImage
	msg.MediaID = "media-2"
	p.processor.Process(context.Background(), msg)

	if got := p.sender.sent[len(p.sender.sent)-1]; got != "generated answer" {
		t.Fatalf("attachment reply = %q", got)
	}
	if !strings.Contains(p.answers.lastQ.Text, "Hemoglobin 9.2") {
		t.Fatalf("answer prompt = %q", p.answers.lastQ.Text)
	}

	// Extraction failures map to the typed apology instead.
	p.extractor.res = extract.Result{Status: extract.StatusEmpty}
	msg2 := textMsg(sender, "")
	msg2.Kind = whatsapp.KindImage
	msg2.MediaID = "media-3"
	p.processor.Process(context.Background(), msg2)
	if got := p.sender.sent[len(p.sender.sent)-1]; got != (extract.Result{Status: extract.StatusEmpty}).UserReply() {
		t.Fatalf("extraction failure reply = %q", got)
	}
}

func TestProcessExtractedEmergencyTextShortCircuits(t *testing.T) {
	p := newPipeline()
	p.extractor.res = extract.Result{Status: extract.StatusOK, Text: "bahut dard hai, saans nahi aa rahi"}

	msg := textMsg("919800000010", "")
	msg.Kind = whatsapp.KindDocument
	msg.MediaID = "media-4"
	p.processor.Process(context.Background(), msg)

	if got := p.sender.sent[len(p.sender.sent)-1]; got != safety.EmergencyResponse {
		t.Fatalf("emergency report reply = %q, want fixed emergency message", got)
	}
	if p.answers.lastQ.Text != "" {
		t.Fatalf("emergency report reached the AI: %q", p.answers.lastQ.Text)
	}
}

func TestProcessStateFailureGetsGenericReply(t *testing.T) {
	p := newPipeline()
	p.states.loadErr = errors.New("connection refused")

	if got := p.say(t, "919800000009", "Hi"); got != somethingWrongReply {
		t.Fatalf("state failure reply = %q, want generic apology", got)
	}
}

func TestProcessIgnoresStatusUpdates(t *testing.T) {
	p := newPipeline()
	msg := whatsapp.InboundMessage{MessageID: "wamid.status", Kind: whatsapp.KindStatus}
	p.processor.Process(context.Background(), msg)
	if len(p.sender.sent) != 0 {
		t.Fatalf("status update produced replies: %v", p.sender.sent)
	}
}
