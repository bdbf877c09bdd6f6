package testutil

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

// DetectorFunc adapts a function to the detector contract.
type DetectorFunc func(ctx context.Context, img image.Image) ([]utils.Quad, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]utils.Quad, error) {
	return f(ctx, img)
}

// RecognizerFunc adapts a function to the recognizer contract.
type RecognizerFunc func(ctx context.Context, img image.Image) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}

// StaticDetector returns the same quads for every image.
func StaticDetector(quads ...utils.Quad) DetectorFunc {
	return func(context.Context, image.Image) ([]utils.Quad, error) {
		out := make([]utils.Quad, len(quads))
		copy(out, quads)
		return out, nil
	}
}

// RectDetector returns one quad per rectangle, in the given order.
func RectDetector(rects ...image.Rectangle) DetectorFunc {
	quads := make([]utils.Quad, len(rects))
	for i, r := range rects {
		quads[i] = utils.NewQuad(float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y))
	}
	return StaticDetector(quads...)
}

// SizeRecognizer answers with the crop size, e.g. "50x50".
func SizeRecognizer() RecognizerFunc {
	return func(_ context.Context, img image.Image) (string, error) {
		b := img.Bounds()
		return fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), nil
	}
}

// RecordingRecognizer returns texts in call order and records every crop.
type RecordingRecognizer struct {
	mu    sync.Mutex
	Texts []string
	Crops []image.Rectangle
}

// Recognize implements the recognizer contract.
func (r *RecordingRecognizer) Recognize(_ context.Context, img image.Image) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := len(r.Crops)
	r.Crops = append(r.Crops, img.Bounds())
	if i < len(r.Texts) {
		return r.Texts[i], nil
	}
	return "", nil
}

// Calls returns the number of Recognize calls.
func (r *RecordingRecognizer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Crops)
}
