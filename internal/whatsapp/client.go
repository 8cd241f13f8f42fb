package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/byoncocare/oncobot/pkg/logging"
)

const (
	defaultBaseURL      = "https://graph.facebook.com"
	defaultGraphVersion = "v21.0"
	defaultUserAgent    = "oncobot-whatsapp/0.1"
)

// ErrMediaTooLarge is returned when a download exceeds the caller's byte cap.
var ErrMediaTooLarge = errors.New("whatsapp: media exceeds size limit")

// StatusError carries a non-2xx Graph API response status so callers can
// distinguish retryable failures (429/5xx) from permanent ones.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("whatsapp: graph api status %d: %s", e.StatusCode, e.Detail)
}

// Retryable reports whether the status is worth another send attempt.
// Only 429 and 5xx qualify; other 4xx responses are permanent.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config controls how the Graph API client behaves.
type Config struct {
	BaseURL       string
	GraphVersion  string
	AccessToken   string
	PhoneNumberID string
	// Timeout bounds API calls (sends, media resolution). Media byte
	// downloads get MediaTimeout, which defaults higher because report
	// PDFs can run to tens of megabytes.
	Timeout      time.Duration
	MediaTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *logging.Logger
	UserAgent    string
}

// Client wraps the WhatsApp Business Cloud API endpoints the intake
// engine needs: outbound text sends, media URL resolution and media
// download.
type Client struct {
	baseURL       string
	graphVersion  string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
	mediaClient   *http.Client
	logger        *logging.Logger
	userAgent     string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("whatsapp: access token is required")
	}
	if strings.TrimSpace(cfg.PhoneNumberID) == "" {
		return nil, errors.New("whatsapp: phone number id is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	version := strings.TrimSpace(cfg.GraphVersion)
	if version == "" {
		version = defaultGraphVersion
	}
	httpClient := cfg.HTTPClient
	mediaClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}

		mediaTimeout := cfg.MediaTimeout
		if mediaTimeout <= 0 {
			mediaTimeout = 60 * time.Second
		}
		mediaClient = &http.Client{Timeout: mediaTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:       baseURL,
		graphVersion:  version,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient:    httpClient,
		mediaClient:   mediaClient,
		logger:        logger,
		userAgent:     userAgent,
	}, nil
}

// SendResponse is the subset of the Graph API send result the engine uses.
type SendResponse struct {
	MessageID string
}

// SendText delivers one text message to a recipient WhatsApp ID.
func (c *Client) SendText(ctx context.Context, to, text string) (*SendResponse, error) {
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("whatsapp: recipient is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("whatsapp: message text is required")
	}

	body, err := json.Marshal(struct {
		MessagingProduct string `json:"messaging_product"`
		RecipientType    string `json:"recipient_type"`
		To               string `json:"to"`
		Type             string `json:"type"`
		Text             struct {
			PreviewURL bool   `json:"preview_url"`
			Body       string `json:"body"`
		} `json:"text"`
	}{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text: struct {
			PreviewURL bool   `json:"preview_url"`
			Body       string `json:"body"`
		}{Body: text},
	})
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send body: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.graphVersion, c.phoneNumberID)
	data, err := c.invoke(ctx, http.MethodPost, url, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("whatsapp: decode send response: %w", err)
	}
	resp := &SendResponse{}
	if len(decoded.Messages) > 0 {
		resp.MessageID = decoded.Messages[0].ID
	}
	return resp, nil
}

// MediaInfo is the metadata the Graph API returns for a media id.
type MediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// ResolveMedia exchanges a media id for a short-lived download URL.
func (c *Client) ResolveMedia(ctx context.Context, mediaID string) (*MediaInfo, error) {
	if strings.TrimSpace(mediaID) == "" {
		return nil, errors.New("whatsapp: media id is required")
	}
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.graphVersion, mediaID)
	data, err := c.invoke(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	var info MediaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("whatsapp: decode media info: %w", err)
	}
	if info.URL == "" {
		return nil, errors.New("whatsapp: media info missing download url")
	}
	return &info, nil
}

// DownloadMedia fetches the bytes behind a resolved media URL, bounded
// by maxBytes. Exceeding the bound returns ErrMediaTooLarge.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: download media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: "media download failed"}
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, ErrMediaTooLarge
	}

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read media body: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrMediaTooLarge
	}
	return data, nil
}

func (c *Client) invoke(ctx context.Context, method, url string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: graphErrorDetail(data)}
	}
	return data, nil
}

// graphErrorDetail extracts the error message from a Graph API error
// body without ever echoing tokens back into logs.
func graphErrorDetail(data []byte) string {
	var decoded struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.Error.Message == "" {
		return "unknown error"
	}
	return decoded.Error.Message
}
