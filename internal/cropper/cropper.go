// Package cropper turns detected quadrilaterals into padded axis-aligned boxes
// and cuts the matching sub-images out of the source image.
package cropper

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
	"github.com/disintegration/imaging"
)

// DefaultPadding is the number of pixels added on every side of a box.
const DefaultPadding = 5

// ErrEmptyCrop is returned when a box selects no pixels of the image.
var ErrEmptyCrop = errors.New("crop region is empty")

// Box is an integer rectangle [x1, y1, x2, y2] in source-image pixels.
// It serializes as a four-element JSON array.
type Box [4]int

// X1 returns the left edge.
func (b Box) X1() int { return b[0] }

// Y1 returns the top edge.
func (b Box) Y1() int { return b[1] }

// X2 returns the right edge.
func (b Box) X2() int { return b[2] }

// Y2 returns the bottom edge.
func (b Box) Y2() int { return b[3] }

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle { return image.Rect(b[0], b[1], b[2], b[3]) }

// Clamp limits both corners to the image bounds, so a region lying past the
// right or bottom edge collapses to a zero-area box instead of an inverted
// one. The upper-left corner is already non-negative after Normalize.
func (b Box) Clamp(bounds image.Rectangle) Box {
	b[0] = min(b[0], bounds.Max.X)
	b[1] = min(b[1], bounds.Max.Y)
	b[2] = min(b[2], bounds.Max.X)
	b[3] = min(b[3], bounds.Max.Y)
	return b
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", b[0], b[1], b[2], b[3])
}

// Normalize derives a padded box from the first (top-left) and third
// (bottom-right) corners of q. Coordinates are truncated toward zero before
// padding; the lower bound is clamped at zero, the upper bound is not.
func Normalize(q utils.Quad, padding int) Box {
	x1, y1 := int(q[0].X), int(q[0].Y)
	x2, y2 := int(q[2].X), int(q[2].Y)
	return Box{
		max(0, x1-padding),
		max(0, y1-padding),
		x2 + padding,
		y2 + padding,
	}
}

// Options controls NormalizeAll.
type Options struct {
	Padding int
	// ClampToImage limits boxes to the image bounds before they are recorded.
	ClampToImage bool
}

// NormalizeAll normalizes every quad and returns the boxes in reverse
// detection order: the last detected region comes first.
func NormalizeAll(quads []utils.Quad, bounds image.Rectangle, opts Options) []Box {
	boxes := make([]Box, 0, len(quads))
	for _, q := range quads {
		b := Normalize(q, opts.Padding)
		if opts.ClampToImage {
			b = b.Clamp(bounds)
		}
		boxes = append(boxes, b)
	}
	slices.Reverse(boxes)
	return boxes
}

// Crop returns the sub-image img[y1:y2, x1:x2]. Parts of the box outside the
// image are dropped; a box without any overlap yields ErrEmptyCrop.
func Crop(img image.Image, b Box) (image.Image, error) {
	if img == nil {
		return nil, errors.New("crop: nil image")
	}
	if b[2] <= b[0] || b[3] <= b[1] {
		return nil, fmt.Errorf("crop %s: %w", b, ErrEmptyCrop)
	}
	r := b.Rect().Add(img.Bounds().Min).Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("crop %s: %w", b, ErrEmptyCrop)
	}
	return imaging.Crop(img, r), nil
}
