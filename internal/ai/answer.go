package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/byoncocare/oncobot/pkg/logging"
)

// answerTimeout bounds a single provider call.
const answerTimeout = 30 * time.Second

// FallbackReply is sent when the provider fails; the user is never
// shown an error.
const FallbackReply = "Sorry, I am having trouble answering right now. Please try again in a few minutes. " +
	"If this is urgent, call 108 or contact your treating doctor."

const systemPrompt = `You are OncoBot, a WhatsApp assistant for cancer patients and their caregivers in India.
Rules you must always follow:
- You are not a doctor. Never diagnose, never prescribe, never give drug dosages, and never advise starting or stopping a treatment. Always tell the user to confirm with their treating oncologist.
- Answer only oncology-related questions: understanding reports, treatment side effects, diet and nutrition during treatment, hospitals and treatment costs in India, and emotional support.
- Reply in the same language the user wrote in (English, Hindi, or Marathi, in whichever script they used). Keep sentences short and simple; many users read on low-end phones.
- Be warm and practical. Prefer concrete steps ("ask your doctor about X", "carry these reports") over generic reassurance.
- If the question suggests a medical emergency, tell them to call 108 or go to the nearest hospital immediately.
- Keep answers under 300 words.`

// AnswerService turns a free-text question into a reply, carrying the
// sender's profile and detected intents into the system prompt so the
// model answers in context.
type AnswerService struct {
	client        LLMClient
	model         string
	maxTokens     int32
	maxReplyChars int
	logger        *logging.Logger
}

func NewAnswerService(client LLMClient, model string, maxTokens int32, maxReplyChars int, logger *logging.Logger) *AnswerService {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	if maxReplyChars <= 0 {
		maxReplyChars = 4096
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AnswerService{
		client:        client,
		model:         model,
		maxTokens:     maxTokens,
		maxReplyChars: maxReplyChars,
		logger:        logger,
	}
}

// Question is one answerable request with its conversation context.
type Question struct {
	SenderID string
	Text     string
	// Profile holds onboarding fields (name, age, city) when known.
	Profile map[string]string
	// Intents are the active intent tags from classification.
	Intents []string
}

// Answer produces the reply text. It never returns an error to the
// caller: provider failures are logged and mapped to FallbackReply.
func (s *AnswerService) Answer(ctx context.Context, q Question) string {
	system := []string{systemPrompt}
	if line := profileLine(q.Profile); line != "" {
		system = append(system, line)
	}
	if len(q.Intents) > 0 {
		system = append(system, "Detected topics for this question: "+strings.Join(q.Intents, ", ")+".")
	}

	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	resp, err := s.client.Complete(ctx, LLMRequest{
		Model:       s.model,
		System:      system,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: q.Text}},
		MaxTokens:   s.maxTokens,
		Temperature: 0.4,
	})
	if err != nil {
		s.logger.Error("answer generation failed",
			"sender", logging.MaskID(q.SenderID),
			"error", err)
		return FallbackReply
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return FallbackReply
	}
	return truncate(text, s.maxReplyChars)
}

func profileLine(profile map[string]string) string {
	if len(profile) == 0 {
		return ""
	}
	var parts []string
	for _, field := range []string{"name", "age", "city"} {
		if v := profile[field]; v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", field, v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "About the user (" + strings.Join(parts, ", ") + ")."
}

// truncate cuts at a rune boundary so Devanagari text is never split
// mid-character; WhatsApp rejects bodies over the platform limit.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	const ellipsis = "…"
	runes := []rune(text)
	for len(runes) > 0 && len(string(runes))+len(ellipsis) > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ellipsis
}
