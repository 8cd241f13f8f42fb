package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/byoncocare/oncobot/internal/whatsapp"
	"github.com/byoncocare/oncobot/pkg/logging"
)

type fakeFetcher struct {
	info        *whatsapp.MediaInfo
	resolveErr  error
	data        []byte
	downloadErr error
}

func (f *fakeFetcher) ResolveMedia(context.Context, string) (*whatsapp.MediaInfo, error) {
	return f.info, f.resolveErr
}

func (f *fakeFetcher) DownloadMedia(context.Context, string, int64) ([]byte, error) {
	return f.data, f.downloadErr
}

func newTestExtractor(f *fakeFetcher) *Extractor {
	return New(Config{
		Fetcher:       f,
		MaxImageBytes: 10 << 20,
		MaxPDFBytes:   20 << 20,
		MaxPDFPages:   10,
		Logger:        logging.Default(),
	})
}

func imageMsg() whatsapp.InboundMessage {
	return whatsapp.InboundMessage{SenderID: "919800000001", MessageID: "wamid.img", Kind: whatsapp.KindImage, MediaID: "media-1"}
}

func TestExtractImageOK(t *testing.T) {
	fetcher := &fakeFetcher{
		info: &whatsapp.MediaInfo{URL: "https://example.com/m", FileSize: 1024},
		data: []byte("jpeg-bytes"),
	}
	e := newTestExtractor(fetcher)
	e.ocrImage = func([]byte) (string, error) { return "  Hemoglobin 9.2 g/dL  ", nil }

	res := e.Extract(context.Background(), imageMsg())
	if res.Status != StatusOK {
		t.Fatalf("status = %v", res.Status)
	}
	if res.Text != "Hemoglobin 9.2 g/dL" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestExtractRejectsOversizeBeforeDownload(t *testing.T) {
	fetcher := &fakeFetcher{
		info:        &whatsapp.MediaInfo{URL: "https://example.com/m", FileSize: 11 << 20},
		downloadErr: errors.New("download should not run"),
	}
	e := newTestExtractor(fetcher)

	res := e.Extract(context.Background(), imageMsg())
	if res.Status != StatusTooLarge {
		t.Fatalf("status = %v, want too-large", res.Status)
	}
}

func TestExtractMapsDownloadCapToTooLarge(t *testing.T) {
	fetcher := &fakeFetcher{
		info:        &whatsapp.MediaInfo{URL: "https://example.com/m", FileSize: 1024},
		downloadErr: whatsapp.ErrMediaTooLarge,
	}
	e := newTestExtractor(fetcher)

	if res := e.Extract(context.Background(), imageMsg()); res.Status != StatusTooLarge {
		t.Fatalf("status = %v, want too-large", res.Status)
	}
}

func TestExtractResolveFailure(t *testing.T) {
	fetcher := &fakeFetcher{resolveErr: errors.New("media expired")}
	e := newTestExtractor(fetcher)

	if res := e.Extract(context.Background(), imageMsg()); res.Status != StatusDownloadFailed {
		t.Fatalf("status = %v, want download-failed", res.Status)
	}
}

func TestExtractEmptyOCR(t *testing.T) {
	fetcher := &fakeFetcher{
		info: &whatsapp.MediaInfo{URL: "https://example.com/m", FileSize: 1024},
		data: []byte("jpeg-bytes"),
	}
	e := newTestExtractor(fetcher)
	e.ocrImage = func([]byte) (string, error) { return "   ", nil }

	if res := e.Extract(context.Background(), imageMsg()); res.Status != StatusEmpty {
		t.Fatalf("status = %v, want empty", res.Status)
	}
}

func TestExtractPDFPageCap(t *testing.T) {
	fetcher := &fakeFetcher{
		info: &whatsapp.MediaInfo{URL: "https://example.com/m", FileSize: 1024},
		data: []byte("%PDF-1.4"),
	}
	e := newTestExtractor(fetcher)
	e.pdfText = func([]byte, int, func([]byte) (string, error)) (string, int, error) {
		return "", 25, errTooManyPages
	}

	msg := imageMsg()
	msg.Kind = whatsapp.KindDocument
	res := e.Extract(context.Background(), msg)
	if res.Status != StatusTooManyPages {
		t.Fatalf("status = %v, want too-many-pages", res.Status)
	}
	if res.Pages != 25 {
		t.Fatalf("pages = %d", res.Pages)
	}
}

func TestExtractUnsupportedKind(t *testing.T) {
	e := newTestExtractor(&fakeFetcher{})
	msg := imageMsg()
	msg.Kind = whatsapp.KindVideo

	if res := e.Extract(context.Background(), msg); res.Status != StatusUnsupported {
		t.Fatalf("status = %v, want unsupported", res.Status)
	}
}

// fakePages drives pagesText without mupdf: embedded holds per-page
// text, rendered the bytes handed to OCR for blank pages.
type fakePages struct {
	embedded []string
	rendered [][]byte
}

func (f fakePages) count() int { return len(f.embedded) }

func (f fakePages) text(page int) (string, error) { return f.embedded[page], nil }

func (f fakePages) render(page int) ([]byte, error) { return f.rendered[page], nil }

func TestPagesTextFallsBackToOCRForBlankPages(t *testing.T) {
	src := fakePages{
		embedded: []string{"CBC report\nWBC 4.2", "  \n\t", "Impression: stable"},
		rendered: [][]byte{nil, []byte("scan-page-2"), nil},
	}
	var ocrCalls [][]byte
	ocr := func(data []byte) (string, error) {
		ocrCalls = append(ocrCalls, data)
		return "Platelets 180", nil
	}

	text, pages, err := pagesText(src, 10, ocr)
	if err != nil {
		t.Fatalf("pagesText: %v", err)
	}
	if pages != 3 {
		t.Fatalf("pages = %d", pages)
	}
	if len(ocrCalls) != 1 {
		t.Fatalf("ocr ran %d times, want 1 (blank page only)", len(ocrCalls))
	}
	if string(ocrCalls[0]) != "scan-page-2" {
		t.Fatalf("ocr got %q, want the rendered blank page", ocrCalls[0])
	}
	if text != "CBC report\nWBC 4.2\nPlatelets 180\nImpression: stable\n" {
		t.Fatalf("text = %q", text)
	}
}

func TestPagesTextSkipsOCRWhenTextEmbedded(t *testing.T) {
	src := fakePages{
		embedded: []string{"Page one", "Page two"},
		rendered: [][]byte{nil, nil},
	}
	_, _, err := pagesText(src, 10, func([]byte) (string, error) {
		t.Fatal("ocr ran for a page with embedded text")
		return "", nil
	})
	if err != nil {
		t.Fatalf("pagesText: %v", err)
	}
}

func TestPagesTextEnforcesPageCap(t *testing.T) {
	src := fakePages{embedded: make([]string, 12), rendered: make([][]byte, 12)}
	_, pages, err := pagesText(src, 10, func([]byte) (string, error) { return "", nil })
	if !errors.Is(err, errTooManyPages) {
		t.Fatalf("err = %v, want page-limit", err)
	}
	if pages != 12 {
		t.Fatalf("pages = %d", pages)
	}
}

func TestPagesTextPropagatesOCRError(t *testing.T) {
	src := fakePages{embedded: []string{""}, rendered: [][]byte{[]byte("scan")}}
	ocrErr := errors.New("tesseract init failed")
	_, _, err := pagesText(src, 10, func([]byte) (string, error) { return "", ocrErr })
	if !errors.Is(err, ocrErr) {
		t.Fatalf("err = %v, want ocr error", err)
	}
}

func TestUserReplyCoversFailures(t *testing.T) {
	statuses := []Status{StatusTooLarge, StatusTooManyPages, StatusDownloadFailed, StatusExtractionFailed, StatusEmpty, StatusUnsupported}
	seen := map[string]Status{}
	for _, st := range statuses {
		reply := Result{Status: st}.UserReply()
		if reply == "" {
			t.Fatalf("status %v has no user reply", st)
		}
		if prev, dup := seen[reply]; dup && (st == StatusTooLarge || st == StatusTooManyPages) {
			t.Fatalf("status %v shares reply with %v", st, prev)
		}
		seen[reply] = st
	}
}
