//go:build tesseract

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether Tesseract support is compiled in.
const Enabled = true

// Engine wraps a single gosseract client. Tesseract clients are not safe for
// concurrent use, so calls are serialized.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates an engine for the configured languages.
func New(cfg Config) (*Engine, error) {
	c := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		c.TessdataPrefix = cfg.TessdataPrefix
	}
	if err := c.SetLanguage(LanguageCodes(cfg.Languages)...); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	return &Engine{client: c}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Detect returns text-line boxes in Tesseract's reading order.
func (e *Engine) Detect(ctx context.Context, img image.Image) ([]utils.Quad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("get bounding boxes: %w", err)
	}

	origin := img.Bounds().Min
	quads := make([]utils.Quad, 0, len(boxes))
	for _, b := range boxes {
		r := b.Box.Add(origin)
		quads = append(quads, utils.NewQuad(float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)))
	}
	return quads, nil
}

// Recognize reads a single text line.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Version returns the linked Tesseract version.
func (e *Engine) Version() string {
	return e.client.Version()
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}
