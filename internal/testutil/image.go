package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
)

// TestImageConfig holds configuration for generating test images.
type TestImageConfig struct {
	// Lines are drawn top to bottom, left aligned at Margin.
	Lines      []string
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	Margin     int
	// LineGap is the vertical space between lines in pixels.
	LineGap int
}

// DefaultTestImageConfig returns a default configuration for test images.
func DefaultTestImageConfig() TestImageConfig {
	return TestImageConfig{
		Lines:      []string{"Sample Text"},
		Size:       SmallSize,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
		Margin:     20,
		LineGap:    20,
	}
}

// GenerateTextImage renders the configured lines and returns the image with
// the bounding rectangle of each line, in drawing order.
func GenerateTextImage(config TestImageConfig) (*image.RGBA, []image.Rectangle, error) {
	if config.Size.Width <= 0 || config.Size.Height <= 0 {
		return nil, nil, fmt.Errorf("invalid image size %dx%d", config.Size.Width, config.Size.Height)
	}
	if config.FontFace == nil {
		config.FontFace = basicfont.Face7x13
	}

	img := image.NewRGBA(image.Rect(0, 0, config.Size.Width, config.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}

	metrics := config.FontFace.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()

	rects := make([]image.Rectangle, 0, len(config.Lines))
	top := config.Margin
	for _, line := range config.Lines {
		width := font.MeasureString(config.FontFace, line).Ceil()
		if top+lineHeight > config.Size.Height {
			return nil, nil, fmt.Errorf("line %q does not fit into %dx%d", line, config.Size.Width, config.Size.Height)
		}
		drawer.Dot = fixed.P(config.Margin, top+ascent)
		drawer.DrawString(line)
		rects = append(rects, image.Rect(config.Margin, top, config.Margin+width, top+lineHeight))
		top += lineHeight + config.LineGap
	}
	return img, rects, nil
}

// CreateTestImage creates a solid image with the specified dimensions and color.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	return imaging.New(width, height, backgroundColor)
}

// EncodeImage writes img in the format implied by the file extension of name.
// PNG is used for unknown extensions.
func EncodeImage(w io.Writer, name string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return png.Encode(w, img)
	}
}

// WriteImageFile encodes img to path, creating parent directories.
func WriteImageFile(path string, img image.Image) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // G304: test fixture path
	if err != nil {
		return err
	}
	if err := EncodeImage(f, path, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
