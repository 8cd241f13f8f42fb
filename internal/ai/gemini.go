package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient adapts Google's Gemini API to LLMClient. One client is
// shared across the whole service; per-request generation settings are
// applied to a fresh model handle on each call, so concurrent answers
// never race on configuration.
type GeminiClient struct {
	genai   *genai.Client
	modelID string
}

func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ai: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ai: create gemini client: %w", err)
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultGeminiModel
	}
	return &GeminiClient{genai: client, modelID: modelID}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if len(req.Messages) == 0 {
		return LLMResponse{}, errors.New("ai: gemini requires at least one message")
	}

	modelID := strings.TrimSpace(req.Model)
	if modelID == "" {
		modelID = c.modelID
	}
	model := c.genai.GenerativeModel(modelID)
	applyGeneration(model, req)
	if sys := strings.TrimSpace(strings.Join(req.System, "\n\n")); sys != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(sys))
	}

	// The last message is the live turn; everything before it is chat
	// history Gemini needs as prior content.
	chat := model.StartChat()
	chat.History = chatHistory(req.Messages[:len(req.Messages)-1])

	last := req.Messages[len(req.Messages)-1]
	resp, err := chat.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("ai: gemini completion: %w", err)
	}
	return decodeGeminiResponse(resp)
}

func (c *GeminiClient) Close() error {
	if c.genai == nil {
		return nil
	}
	return c.genai.Close()
}

func applyGeneration(model *genai.GenerativeModel, req LLMRequest) {
	if req.Temperature >= 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.TopP > 0 {
		model.SetTopP(req.TopP)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
}

// chatHistory converts prior turns to Gemini content. System messages
// are dropped here; they ride on SystemInstruction instead.
func chatHistory(msgs []ChatMessage) []*genai.Content {
	var history []*genai.Content
	for _, msg := range msgs {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == ChatRoleSystem {
			continue
		}
		role := "user"
		if msg.Role == ChatRoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}
	return history
}

func decodeGeminiResponse(resp *genai.GenerateContentResponse) (LLMResponse, error) {
	if len(resp.Candidates) == 0 {
		return LLMResponse{}, errors.New("ai: gemini returned no candidates")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return LLMResponse{}, errors.New("ai: gemini returned empty content")
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := LLMResponse{
		Text:       strings.TrimSpace(b.String()),
		StopReason: string(cand.FinishReason),
	}
	if resp.UsageMetadata != nil {
		out.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}
