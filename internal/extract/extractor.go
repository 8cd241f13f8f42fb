// Package extract pulls text out of report attachments: OCR for
// photos, embedded text with per-page OCR fallback for PDFs.
package extract

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"time"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"

	"github.com/byoncocare/oncobot/internal/whatsapp"
	"github.com/byoncocare/oncobot/pkg/logging"
)

// Status classifies one extraction attempt so the caller can pick the
// right user-facing reply without parsing errors.
type Status int

const (
	StatusOK Status = iota
	StatusTooLarge
	StatusTooManyPages
	StatusDownloadFailed
	StatusExtractionFailed
	StatusEmpty
	StatusUnsupported
)

// Result carries the outcome of one attachment.
type Result struct {
	Status Status
	Text   string
	Pages  int
}

// UserReply maps failure statuses to fixed apologies. StatusOK has no
// canned reply; the extracted text goes to the answer pipeline.
func (r Result) UserReply() string {
	switch r.Status {
	case StatusTooLarge:
		return "Sorry, that file is too large for me to read. Please send an image under 10 MB or a PDF under 20 MB, or type out the part you have a question about."
	case StatusTooManyPages:
		return "Sorry, I can only read PDFs up to 10 pages. Please send the pages with the results you want explained."
	case StatusEmpty:
		return "I could not find readable text in that file. Please try a clearer photo in good light, or type out the part you have a question about."
	case StatusUnsupported:
		return "Sorry, I can only read photos and PDF documents. Please send the report as an image or PDF."
	default:
		return "Sorry, I could not read that file. Please try again with a clearer photo, or type out the part you have a question about."
	}
}

// mediaFetcher is satisfied by *whatsapp.Client.
type mediaFetcher interface {
	ResolveMedia(ctx context.Context, mediaID string) (*whatsapp.MediaInfo, error)
	DownloadMedia(ctx context.Context, mediaURL string, maxBytes int64) ([]byte, error)
}

// Extractor downloads an attachment and turns it into text. OCR covers
// English plus Devanagari so Hindi and Marathi reports work.
type Extractor struct {
	fetcher         mediaFetcher
	maxImageBytes   int64
	maxPDFBytes     int64
	maxPDFPages     int
	ocrLanguages    string
	downloadTimeout time.Duration
	logger          *logging.Logger

	// Swappable in tests; default to the tesseract/mupdf paths.
	ocrImage func(data []byte) (string, error)
	pdfText  func(data []byte, maxPages int, ocr func([]byte) (string, error)) (string, int, error)
}

type Config struct {
	Fetcher       mediaFetcher
	MaxImageBytes int64
	MaxPDFBytes   int64
	MaxPDFPages   int
	OCRLanguages  string
	// DownloadTimeout bounds the resolve+download round trip.
	DownloadTimeout time.Duration
	Logger          *logging.Logger
}

func New(cfg Config) *Extractor {
	languages := cfg.OCRLanguages
	if languages == "" {
		languages = "eng+hin+mar"
	}
	downloadTimeout := cfg.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	e := &Extractor{
		fetcher:         cfg.Fetcher,
		maxImageBytes:   cfg.MaxImageBytes,
		maxPDFBytes:     cfg.MaxPDFBytes,
		maxPDFPages:     cfg.MaxPDFPages,
		ocrLanguages:    languages,
		downloadTimeout: downloadTimeout,
		logger:          logger,
	}
	e.ocrImage = e.tesseractOCR
	e.pdfText = pdfTextWithFallback
	return e
}

// Extract resolves, downloads, and reads one attachment.
func (e *Extractor) Extract(ctx context.Context, msg whatsapp.InboundMessage) Result {
	var maxBytes int64
	switch msg.Kind {
	case whatsapp.KindImage:
		maxBytes = e.maxImageBytes
	case whatsapp.KindDocument:
		maxBytes = e.maxPDFBytes
	default:
		return Result{Status: StatusUnsupported}
	}

	ctx, cancel := context.WithTimeout(ctx, e.downloadTimeout)
	defer cancel()

	info, err := e.fetcher.ResolveMedia(ctx, msg.MediaID)
	if err != nil {
		e.logger.Warn("media resolve failed",
			"sender", logging.MaskID(msg.SenderID), "error", err)
		return Result{Status: StatusDownloadFailed}
	}
	if info.FileSize > maxBytes {
		return Result{Status: StatusTooLarge}
	}

	data, err := e.fetcher.DownloadMedia(ctx, info.URL, maxBytes)
	if err != nil {
		if errors.Is(err, whatsapp.ErrMediaTooLarge) {
			return Result{Status: StatusTooLarge}
		}
		e.logger.Warn("media download failed",
			"sender", logging.MaskID(msg.SenderID), "error", err)
		return Result{Status: StatusDownloadFailed}
	}

	if msg.Kind == whatsapp.KindImage {
		return e.extractImage(data)
	}
	return e.extractPDF(data)
}

func (e *Extractor) extractImage(data []byte) Result {
	text, err := e.ocrImage(data)
	if err != nil {
		e.logger.Warn("image ocr failed", "error", err)
		return Result{Status: StatusExtractionFailed}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Status: StatusEmpty}
	}
	return Result{Status: StatusOK, Text: text, Pages: 1}
}

func (e *Extractor) extractPDF(data []byte) Result {
	text, pages, err := e.pdfText(data, e.maxPDFPages, e.ocrImage)
	if errors.Is(err, errTooManyPages) {
		return Result{Status: StatusTooManyPages, Pages: pages}
	}
	if err != nil {
		e.logger.Warn("pdf extraction failed", "error", err)
		return Result{Status: StatusExtractionFailed}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Status: StatusEmpty, Pages: pages}
	}
	return Result{Status: StatusOK, Text: text, Pages: pages}
}

func (e *Extractor) tesseractOCR(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(strings.Split(e.ocrLanguages, "+")...); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}

var errTooManyPages = errors.New("extract: pdf exceeds page limit")

// pageSource abstracts a paged document so the text-or-OCR decision
// can be exercised without mupdf.
type pageSource interface {
	count() int
	text(page int) (string, error)
	render(page int) ([]byte, error)
}

// fitzPages adapts an open mupdf document to pageSource, rendering
// pages to PNG for tesseract.
type fitzPages struct {
	doc *fitz.Document
}

func (f fitzPages) count() int { return f.doc.NumPage() }

func (f fitzPages) text(page int) (string, error) { return f.doc.Text(page) }

func (f fitzPages) render(page int) ([]byte, error) {
	img, err := f.doc.Image(page)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pdfTextWithFallback(data []byte, maxPages int, ocr func([]byte) (string, error)) (string, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", 0, err
	}
	defer doc.Close()
	return pagesText(fitzPages{doc: doc}, maxPages, ocr)
}

// pagesText reads embedded text page by page and falls back to
// rendering plus OCR for pages that carry none, which is how scanned
// reports usually arrive.
func pagesText(src pageSource, maxPages int, ocr func([]byte) (string, error)) (string, int, error) {
	pages := src.count()
	if pages > maxPages {
		return "", pages, errTooManyPages
	}

	var b strings.Builder
	for i := 0; i < pages; i++ {
		text, err := src.text(i)
		if err != nil {
			return "", pages, err
		}
		if strings.TrimSpace(text) == "" {
			rendered, err := src.render(i)
			if err != nil {
				return "", pages, err
			}
			text, err = ocr(rendered)
			if err != nil {
				return "", pages, err
			}
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n")
	}
	return b.String(), pages, nil
}
