package utils

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/ocrbatch/internal/mempool"
)

// ImageConstraints bounds the size of the image handed to a detection model.
type ImageConstraints struct {
	MaxSide int
	MinSide int
}

// DefaultImageConstraints returns the limits used by PP-OCR detection models.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{MaxSide: 960, MinSide: 32}
}

// ResizeForDetection scales an image so its longer side fits MaxSide and both
// dimensions are multiples of 32. Uses Lanczos resampling.
func ResizeForDetection(img image.Image, c ImageConstraints) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, &ImageProcessingError{Operation: "resize", Err: fmt.Errorf("invalid dimensions %dx%d", w, h)}
	}

	scale := 1.0
	if c.MaxSide > 0 && max(w, h) > c.MaxSide {
		scale = float64(c.MaxSide) / float64(max(w, h))
	}
	nw := roundTo32(float64(w)*scale, c.MinSide)
	nh := roundTo32(float64(h)*scale, c.MinSide)

	return imaging.Resize(img, nw, nh, imaging.Lanczos), nil
}

func roundTo32(v float64, minSide int) int {
	n := int(math.Round(v/32)) * 32
	if n < 32 {
		n = 32
	}
	if n < minSide {
		n = minSide
	}
	return n
}

// NormalizeImage converts an image into a planar NCHW float32 buffer. Pixels
// are scaled to 0..1 and then standardized per channel with mean and std.
// The buffer is taken from mempool; callers release it with
// mempool.PutFloat32 once inference is done.
func NormalizeImage(img image.Image, mean, std [3]float32) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("input image is nil")}
	}

	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("invalid image dimensions")}
	}

	plane := w * h
	data := mempool.GetFloat32(3 * plane)
	for y := range h {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := range w {
			px := row[x*4 : x*4+3]
			idx := y*w + x
			for c := range 3 {
				v := float32(px[c]) / 255.0
				data[c*plane+idx] = (v - mean[c]) / std[c]
			}
		}
	}
	return data, w, h, nil
}
