package utils

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Quad is a four-point text region ordered top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]Point

// NewQuad builds a Quad from an axis-aligned rectangle.
func NewQuad(x1, y1, x2, y2 float64) Quad {
	return Quad{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}}
}

// QuadFromPoints orders an arbitrary set of four points into TL, TR, BR, BL.
// Points with the smallest x+y and x-y differences anchor the corners, the
// same ordering PaddleOCR applies to minimum-area rectangles.
func QuadFromPoints(pts [4]Point) Quad {
	var q Quad
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		s, d := p.X+p.Y, p.Y-p.X
		if s < minSum {
			minSum, q[0] = s, p
		}
		if s > maxSum {
			maxSum, q[2] = s, p
		}
		if d < minDiff {
			minDiff, q[1] = d, p
		}
		if d > maxDiff {
			maxDiff, q[3] = d, p
		}
	}
	return q
}

// Scale returns a copy of q scaled by sx, sy.
func (q Quad) Scale(sx, sy float64) Quad {
	for i := range q {
		q[i] = Point{X: q[i].X * sx, Y: q[i].Y * sy}
	}
	return q
}

// Bounds returns the axis-aligned float bounds of the quad.
func (q Quad) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = q[0].X, q[0].Y
	maxX, maxY = q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// Clamp returns a copy of q with every point limited to r.
func (q Quad) Clamp(r image.Rectangle) Quad {
	for i := range q {
		q[i].X = math.Max(float64(r.Min.X), math.Min(q[i].X, float64(r.Max.X-1)))
		q[i].Y = math.Max(float64(r.Min.Y), math.Min(q[i].Y, float64(r.Max.Y-1)))
	}
	return q
}
