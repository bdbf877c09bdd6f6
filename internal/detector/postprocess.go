package detector

import (
	"github.com/MeKo-Tech/ocrbatch/internal/mempool"
	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

// Region is a detected text region in probability-map coordinates.
type Region struct {
	Quad  utils.Quad
	Score float64
}

type component struct {
	count      int
	sum        float64
	minX, minY int
	maxX, maxY int
}

// binarize creates a binary mask from a probability map with threshold t.
// The mask is pooled; release it with mempool.PutBool.
func binarize(prob []float32, t float32) []bool {
	mask := mempool.GetBool(len(prob))
	for i, p := range prob {
		mask[i] = p > t
	}
	return mask
}

// connectedComponents labels 4-connected foreground components.
func connectedComponents(mask []bool, prob []float32, w, h int) []component {
	visited := mempool.GetBool(w * h)
	defer mempool.PutBool(visited)
	queue := make([]int, 0, 64)
	var comps []component

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		sx, sy := start%w, start/w
		c := component{minX: sx, minY: sy, maxX: sx, maxY: sy}
		visited[start] = true
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			c.count++
			c.sum += float64(prob[i])
			c.minX, c.maxX = min(c.minX, x), max(c.maxX, x)
			c.minY, c.maxY = min(c.minY, y), max(c.maxY, y)

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				if n[0] < 0 || n[1] < 0 || n[0] >= w || n[1] >= h {
					continue
				}
				ni := n[1]*w + n[0]
				if mask[ni] && !visited[ni] {
					visited[ni] = true
					queue = append(queue, ni)
				}
			}
		}
		comps = append(comps, c)
	}
	return comps
}

// unclip grows an axis-aligned box by area*ratio/perimeter on every side,
// the offset distance DB uses to recover full text extents.
func unclip(x1, y1, x2, y2, ratio float64) (float64, float64, float64, float64) {
	w, h := x2-x1, y2-y1
	perimeter := 2 * (w + h)
	if perimeter <= 0 || ratio <= 0 {
		return x1, y1, x2, y2
	}
	d := w * h * ratio / perimeter
	return x1 - d, y1 - d, x2 + d, y2 + d
}

// PostProcess turns a DB probability map into text regions.
func PostProcess(prob []float32, w, h int, cfg Config) []Region {
	if w <= 0 || h <= 0 || len(prob) != w*h {
		return nil
	}
	mask := binarize(prob, cfg.Threshold)
	comps := connectedComponents(mask, prob, w, h)
	mempool.PutBool(mask)

	regions := make([]Region, 0, len(comps))
	for _, c := range comps {
		bw, bh := c.maxX-c.minX+1, c.maxY-c.minY+1
		if min(bw, bh) < cfg.MinSize {
			continue
		}
		score := c.sum / float64(c.count)
		if score < float64(cfg.BoxThreshold) {
			continue
		}
		x1, y1, x2, y2 := unclip(float64(c.minX), float64(c.minY), float64(c.maxX+1), float64(c.maxY+1), cfg.UnclipRatio)
		regions = append(regions, Region{Quad: utils.NewQuad(x1, y1, x2, y2), Score: score})
	}
	return regions
}

// ScaleToOriginal maps regions from map coordinates to the original image
// and clamps them to its bounds.
func ScaleToOriginal(regions []Region, mapW, mapH, origW, origH int) []Region {
	if mapW == 0 || mapH == 0 {
		return regions
	}
	sx := float64(origW) / float64(mapW)
	sy := float64(origH) / float64(mapH)
	out := make([]Region, len(regions))
	for i, r := range regions {
		q := r.Quad.Scale(sx, sy)
		for j := range q {
			q[j].X = clamp(q[j].X, 0, float64(origW))
			q[j].Y = clamp(q[j].Y, 0, float64(origH))
		}
		out[i] = Region{Quad: q, Score: r.Score}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
