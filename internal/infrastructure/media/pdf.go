// Package media renders the first page of a PDF document as an image
// suitable for attaching to a post.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"plansbot/internal/ports"
)

// maxDimension bounds the rendered image per side.
const maxDimension = 2048

// maxDocumentBytes caps how much of a document is pulled before rendering.
const maxDocumentBytes = 64 << 20

// Converter fetches a document and rasterizes its first page to JPEG.
type Converter struct {
	client *http.Client
}

var _ ports.MediaConverter = (*Converter)(nil)

// NewConverter wires an HTTP client; a nil client gets a 60s timeout default
// (documents can be large).
func NewConverter(client *http.Client) *Converter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Converter{client: client}
}

// Render downloads the document and returns its first page as a JPEG bounded
// to maxDimension on each side.
func (c *Converter) Render(ctx context.Context, documentURL string) (*ports.Media, error) {
	data, err := c.fetch(ctx, documentURL)
	if err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", documentURL, err)
	}
	defer doc.Close()

	page, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("render first page of %s: %w", documentURL, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, bound(page), &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}

	return &ports.Media{Data: buf.Bytes(), MimeType: "image/jpeg"}, nil
}

func (c *Converter) fetch(ctx context.Context, documentURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "plansbot/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("document %s returned %s", documentURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// bound shrinks the image to fit maxDimension per side, preserving aspect
// ratio. Images already within bounds pass through untouched.
func bound(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDimension && h <= maxDimension {
		return src
	}

	longest := w
	if h > longest {
		longest = h
	}
	scale := float64(maxDimension) / float64(longest)

	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
