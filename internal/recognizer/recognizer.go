// Package recognizer reads the text of a single cropped region with a CTC
// recognition ONNX model.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/ocrbatch/internal/mempool"
	"github.com/MeKo-Tech/ocrbatch/internal/onnx"
	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

// Config holds the recognition model settings.
type Config struct {
	ModelPath   string
	DictPath    string
	LibraryPath string
	NumThreads  int
	GPU         onnx.GPUConfig

	// Language is informational; the dictionary selects the alphabet.
	Language         string
	ImageHeight      int
	MaxWidth         int
	PadWidthMultiple int
	UseSpaceChar     bool
	BeamSearch       bool
	BeamWidth        int
	// NormalizeForm is the Unicode normalization applied to decoded text.
	NormalizeForm string
}

// DefaultConfig returns defaults for PP-OCRv5 recognition models.
func DefaultConfig() Config {
	return Config{
		Language:         "vi",
		ImageHeight:      48,
		MaxWidth:         3200,
		PadWidthMultiple: 8,
		UseSpaceChar:     true,
		BeamWidth:        5,
		NormalizeForm:    "NFC",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("recognition model path cannot be empty")
	}
	if c.DictPath == "" {
		return errors.New("dictionary path cannot be empty")
	}
	if c.ImageHeight <= 0 {
		return fmt.Errorf("image height must be positive, got %d", c.ImageHeight)
	}
	if c.BeamSearch && c.BeamWidth < 1 {
		return fmt.Errorf("beam width must be at least 1, got %d", c.BeamWidth)
	}
	if !utils.ValidNormalizationForm(c.NormalizeForm) {
		return fmt.Errorf("invalid normalization form: %s", c.NormalizeForm)
	}
	return nil
}

// Recognizer turns a cropped text line into a string.
type Recognizer struct {
	config  Config
	charset *Charset
	session *onnx.Session
}

// NewRecognizer loads the dictionary and the recognition model.
func NewRecognizer(cfg Config) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	charset, err := LoadCharset(cfg.DictPath, cfg.UseSpaceChar)
	if err != nil {
		return nil, err
	}
	session, err := onnx.NewSession(onnx.SessionConfig{
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.LibraryPath,
		NumThreads:  cfg.NumThreads,
		GPU:         cfg.GPU,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer session: %w", err)
	}
	// A fixed model height overrides the configured one.
	if dims := session.Input.Dimensions; len(dims) == 4 && dims[2] > 0 {
		cfg.ImageHeight = int(dims[2])
	}
	slog.Debug("Recognizer initialized",
		"model_path", cfg.ModelPath, "charset_size", charset.Size(),
		"language", cfg.Language, "beam_search", cfg.BeamSearch)
	return &Recognizer{config: cfg, charset: charset, session: session}, nil
}

// Recognize returns the text of img.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resized, err := ResizeForRecognition(img, r.config.ImageHeight, r.config.MaxWidth, r.config.PadWidthMultiple)
	if err != nil {
		return "", fmt.Errorf("resize region: %w", err)
	}
	input, err := NormalizeForRecognition(resized)
	if err != nil {
		return "", fmt.Errorf("normalize region: %w", err)
	}
	defer mempool.PutFloat32(input.Data)
	out, err := r.session.Run(input)
	if err != nil {
		return "", err
	}
	return r.decode(out)
}

func (r *Recognizer) decode(out onnx.Tensor) (string, error) {
	classesFirst := classesFirst(out.Shape, r.charset.Size()+1)
	var (
		seq Decoded
		ok  bool
	)
	if r.config.BeamSearch {
		seq, ok = DecodeBeamSearch(out.Data, out.Shape, classesFirst, r.config.BeamWidth)
	} else {
		seq, ok = DecodeGreedy(out.Data, out.Shape, classesFirst)
	}
	if !ok {
		return "", fmt.Errorf("unexpected recognition output shape %v", out.Shape)
	}
	return utils.NormalizeText(r.charset.Decode(seq.Classes), r.config.NormalizeForm), nil
}

// classesFirst reports whether a rank-3 output is laid out [N, C, T].
func classesFirst(shape []int64, classes int) bool {
	if len(shape) < 3 {
		return false
	}
	return int(shape[1]) == classes && int(shape[2]) != classes
}

// Close releases the model session.
func (r *Recognizer) Close() error {
	if r.session == nil {
		return nil
	}
	return r.session.Close()
}
