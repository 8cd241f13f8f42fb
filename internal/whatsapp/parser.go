package whatsapp

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/byoncocare/oncobot/pkg/logging"
)

// ParseWebhookPayload flattens one webhook delivery into an ordered list
// of InboundMessage. Malformed or unrecognized sub-objects are skipped
// with a warning, never fatal to the batch. Status updates are returned
// as KindStatus records so the pipeline can count and ignore them.
func ParseWebhookPayload(raw []byte, logger *logging.Logger) []InboundMessage {
	if logger == nil {
		logger = logging.Default()
	}

	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn("unparseable webhook payload", "error", err)
		return nil
	}
	if payload.Object != "whatsapp_business_account" {
		logger.Debug("ignoring non-whatsapp webhook", "object", payload.Object)
		return nil
	}

	var messages []InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, st := range change.Value.Statuses {
				messages = append(messages, InboundMessage{
					SenderID:  st.RecipientID,
					MessageID: st.ID,
					Kind:      KindStatus,
					TextBody:  st.Status,
				})
			}
			for _, msg := range change.Value.Messages {
				parsed, ok := parseMessage(msg, logger)
				if !ok {
					continue
				}
				messages = append(messages, parsed)
			}
		}
	}
	return messages
}

func parseMessage(msg webhookMessage, logger *logging.Logger) (InboundMessage, bool) {
	if msg.From == "" || msg.ID == "" {
		logger.Warn("skipping message without sender or id")
		return InboundMessage{}, false
	}

	out := InboundMessage{
		SenderID:   msg.From,
		MessageID:  msg.ID,
		ReceivedAt: parseTimestamp(msg.Timestamp),
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
			logger.Warn("skipping empty text message", "sender", logging.MaskID(msg.From))
			return InboundMessage{}, false
		}
		out.Kind = KindText
		out.TextBody = strings.TrimSpace(msg.Text.Body)
	case "image":
		if msg.Image == nil || msg.Image.ID == "" {
			logger.Warn("skipping image without media id", "sender", logging.MaskID(msg.From))
			return InboundMessage{}, false
		}
		out.Kind = KindImage
		out.MediaID = msg.Image.ID
		out.MimeType = valueOr(msg.Image.MimeType, "image/jpeg")
		out.Caption = strings.TrimSpace(msg.Image.Caption)
	case "document":
		if msg.Document == nil || msg.Document.ID == "" {
			logger.Warn("skipping document without media id", "sender", logging.MaskID(msg.From))
			return InboundMessage{}, false
		}
		mime := valueOr(msg.Document.MimeType, "application/pdf")
		if mime != "application/pdf" {
			logger.Debug("ignoring non-pdf document", "mime_type", mime)
			return InboundMessage{}, false
		}
		out.Kind = KindDocument
		out.MediaID = msg.Document.ID
		out.MimeType = mime
		out.Caption = strings.TrimSpace(msg.Document.Caption)
	case "video":
		// Parsed so the state machine can send the fixed unsupported reply.
		out.Kind = KindVideo
		if msg.Video != nil {
			out.Caption = strings.TrimSpace(msg.Video.Caption)
		}
	default:
		logger.Debug("ignoring unsupported message type", "type", msg.Type)
		return InboundMessage{}, false
	}

	return out, true
}

func parseTimestamp(ts string) time.Time {
	if secs, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return time.Now().UTC()
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
