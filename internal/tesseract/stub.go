//go:build !tesseract

package tesseract

import (
	"context"
	"image"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

// Enabled reports whether Tesseract support is compiled in.
const Enabled = false

// Engine is the stub used when the "tesseract" build tag is not set.
type Engine struct{}

// New always returns ErrNotEnabled.
func New(Config) (*Engine, error) { return nil, ErrNotEnabled }

// Detect always returns ErrNotEnabled.
func (*Engine) Detect(context.Context, image.Image) ([]utils.Quad, error) { return nil, ErrNotEnabled }

// Recognize always returns ErrNotEnabled.
func (*Engine) Recognize(context.Context, image.Image) (string, error) { return "", ErrNotEnabled }

// Version returns an empty string.
func (*Engine) Version() string { return "" }

// Close is a no-op.
func (*Engine) Close() error { return nil }
