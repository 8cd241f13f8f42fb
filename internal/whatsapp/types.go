package whatsapp

import "time"

// MessageKind classifies an inbound message payload.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindDocument MessageKind = "document"
	KindVideo    MessageKind = "video"
	KindStatus   MessageKind = "status"
)

// InboundMessage is one normalized unit of user input extracted from a
// webhook delivery. MessageID is the sole deduplication key: the same id
// may arrive again on platform redelivery and must be processed at most
// once.
type InboundMessage struct {
	SenderID   string
	MessageID  string
	Kind       MessageKind
	TextBody   string
	MediaID    string
	MimeType   string
	Caption    string
	ReceivedAt time.Time
}

// webhookPayload mirrors the Meta webhook batching shape:
// object -> entry[] -> changes[] -> value -> messages[]/statuses[].
type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Field string       `json:"field"`
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []webhookMessage `json:"messages"`
	Statuses         []webhookStatus  `json:"statuses"`
}

type webhookMessage struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *textBody     `json:"text"`
	Image     *mediaPointer `json:"image"`
	Document  *mediaPointer `json:"document"`
	Video     *mediaPointer `json:"video"`
}

type webhookStatus struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Status      string `json:"status"`
}

type textBody struct {
	Body string `json:"body"`
}

type mediaPointer struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}
