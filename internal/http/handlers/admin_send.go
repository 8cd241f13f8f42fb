package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/byoncocare/oncobot/pkg/logging"
)

// outboundSender is satisfied by *whatsapp.RetrySender.
type outboundSender interface {
	Send(ctx context.Context, to, text, correlationID string) bool
}

// AdminSendHandler hosts the privileged manual-send endpoint, used by
// care coordinators to follow up on escalated conversations.
type AdminSendHandler struct {
	sender outboundSender
	logger *logging.Logger
}

func NewAdminSendHandler(sender outboundSender, logger *logging.Logger) *AdminSendHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminSendHandler{sender: sender, logger: logger}
}

type adminSendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

var recipientPattern = regexp.MustCompile(`^\d{7,15}$`)

// SendMessage delivers one text to a WhatsApp number.
func (h *AdminSendHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if h.sender == nil {
		http.Error(w, "sender not configured", http.StatusServiceUnavailable)
		return
	}

	var req adminSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.To = strings.TrimSpace(req.To)
	req.Text = strings.TrimSpace(req.Text)
	if !recipientPattern.MatchString(req.To) {
		http.Error(w, "invalid recipient", http.StatusBadRequest)
		return
	}
	if req.Text == "" || len(req.Text) > 4096 {
		http.Error(w, "text must be 1-4096 characters", http.StatusBadRequest)
		return
	}

	correlationID := uuid.NewString()
	if !h.sender.Send(r.Context(), req.To, req.Text, correlationID) {
		http.Error(w, "send failed", http.StatusBadGateway)
		return
	}

	h.logger.Info("admin send delivered",
		"to", logging.MaskID(req.To),
		"correlation_id", correlationID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "sent", "correlation_id": correlationID})
}

// HealthCheck returns a simple health check response.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
