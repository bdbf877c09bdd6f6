package detector

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/ocrbatch/internal/onnx"
)

// Config holds the detection model settings.
type Config struct {
	ModelPath   string
	LibraryPath string
	NumThreads  int
	GPU         onnx.GPUConfig

	// MaxSide limits the longer side of the image fed to the model.
	MaxSide int
	// Threshold binarizes the probability map.
	Threshold float32
	// BoxThreshold drops regions whose mean probability is lower.
	BoxThreshold float32
	// UnclipRatio grows each region to compensate for the shrunk DB kernels.
	UnclipRatio float64
	// MinSize drops regions whose shorter side is smaller, in map pixels.
	MinSize int
}

// DefaultConfig mirrors the PP-OCR DB post-processing defaults.
func DefaultConfig() Config {
	return Config{
		MaxSide:      960,
		Threshold:    0.3,
		BoxThreshold: 0.6,
		UnclipRatio:  1.5,
		MinSize:      3,
	}
}

// Validate checks the configuration for obviously wrong values.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("detection model path cannot be empty")
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be in (0,1), got %v", c.Threshold)
	}
	if c.BoxThreshold < 0 || c.BoxThreshold > 1 {
		return fmt.Errorf("box threshold must be in [0,1], got %v", c.BoxThreshold)
	}
	if c.UnclipRatio < 0 {
		return fmt.Errorf("unclip ratio must be non-negative, got %v", c.UnclipRatio)
	}
	if c.MaxSide < 32 {
		return fmt.Errorf("max side must be at least 32, got %d", c.MaxSide)
	}
	return nil
}
