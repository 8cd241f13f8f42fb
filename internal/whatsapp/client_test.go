package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{
		BaseURL:       srv.URL,
		AccessToken:   "token",
		PhoneNumberID: "phone-1",
		HTTPClient:    srv.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestSendText(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v21.0/phone-1/messages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Fatalf("authorization header = %q", got)
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.out1"}]}`))
	}))

	resp, err := client.SendText(context.Background(), "919876543210", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.MessageID != "wamid.out1" {
		t.Fatalf("message id = %q", resp.MessageID)
	}
}

func TestSendTextStatusError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","code":4}}`))
	}))

	_, err := client.SendText(context.Background(), "919876543210", "hello")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("want StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests || !statusErr.Retryable() {
		t.Fatalf("status error = %+v", statusErr)
	}
	if !strings.Contains(statusErr.Detail, "rate limited") {
		t.Fatalf("detail = %q", statusErr.Detail)
	}
}

func TestStatusErrorRetryable(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
		{404, false},
	}
	for _, tc := range cases {
		e := &StatusError{StatusCode: tc.code}
		if e.Retryable() != tc.want {
			t.Fatalf("Retryable(%d)=%v want %v", tc.code, e.Retryable(), tc.want)
		}
	}
}

func TestResolveMedia(t *testing.T) {
	client, srv := newTestClient(t, nil)
	srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v21.0/media-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"url":"https://lookaside.example/m1","mime_type":"image/png","file_size":1024}`))
	})

	info, err := client.ResolveMedia(context.Background(), "media-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.URL != "https://lookaside.example/m1" || info.MimeType != "image/png" {
		t.Fatalf("info = %+v", info)
	}
}

func TestDownloadMediaSizeCap(t *testing.T) {
	payload := strings.Repeat("x", 64)
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	client, err := New(Config{AccessToken: "token", PhoneNumberID: "p", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	data, err := client.DownloadMedia(context.Background(), srv.URL, 128)
	if err != nil {
		t.Fatalf("download under cap: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("downloaded %d bytes", len(data))
	}

	if _, err := client.DownloadMedia(context.Background(), srv.URL, 10); !errors.Is(err, ErrMediaTooLarge) {
		t.Fatalf("want ErrMediaTooLarge, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{PhoneNumberID: "p"}); err == nil {
		t.Fatal("missing access token accepted")
	}
	if _, err := New(Config{AccessToken: "t"}); err == nil {
		t.Fatal("missing phone number id accepted")
	}
}
