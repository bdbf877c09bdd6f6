package recognizer

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// blankIndex is the CTC blank class of PaddleOCR recognition heads.
const blankIndex = 0

// Decoded is a collapsed CTC class sequence with its confidence.
type Decoded struct {
	Classes    []int
	Confidence float64
}

// logitsView indexes a [T, C] or [C, T] output without copying.
type logitsView struct {
	data         []float32
	steps        int
	classes      int
	classesFirst bool
}

// newLogitsView interprets shape [1, T, C] (or [1, C, T] when classesFirst).
// Trailing unit dimensions are ignored.
func newLogitsView(data []float32, shape []int64, classesFirst bool) (logitsView, bool) {
	dims := append([]int64(nil), shape...)
	for len(dims) > 3 && dims[len(dims)-1] == 1 {
		dims = dims[:len(dims)-1]
	}
	if len(dims) != 3 || dims[0] < 1 {
		return logitsView{}, false
	}
	t, c := int(dims[1]), int(dims[2])
	if classesFirst {
		t, c = c, t
	}
	if t <= 0 || c <= 0 || len(data) < t*c {
		return logitsView{}, false
	}
	return logitsView{data: data, steps: t, classes: c, classesFirst: classesFirst}, true
}

// row returns the class scores of step t.
func (v logitsView) row(t int) []float32 {
	if !v.classesFirst {
		return v.data[t*v.classes : (t+1)*v.classes]
	}
	out := make([]float32, v.classes)
	for k := range v.classes {
		out[k] = v.data[k*v.steps+t]
	}
	return out
}

// probabilities returns softmax(scores), or the scores themselves when they
// already form a distribution.
func probabilities(scores []float32) []float64 {
	out := make([]float64, len(scores))
	var sum float64
	minV, maxV := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, s := range scores {
		sum += float64(s)
		minV, maxV = min(minV, s), max(maxV, s)
	}
	if sum > 0.99 && sum < 1.01 && minV >= 0 && maxV <= 1 {
		for i, s := range scores {
			out[i] = float64(s)
		}
		return out
	}
	var denom float64
	for i, s := range scores {
		out[i] = math.Exp(float64(s - maxV))
		denom += out[i]
	}
	for i := range out {
		out[i] /= denom
	}
	return out
}

func argmax(p []float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}

// DecodeGreedy takes the most likely class per step, then drops repeats and
// blanks. Confidence is the mean probability of the kept classes.
func DecodeGreedy(data []float32, shape []int64, classesFirst bool) (Decoded, bool) {
	v, ok := newLogitsView(data, shape, classesFirst)
	if !ok {
		return Decoded{}, false
	}
	var out Decoded
	var sum float64
	prev := -1
	for t := range v.steps {
		p := probabilities(v.row(t))
		k := argmax(p)
		if k != blankIndex && k != prev {
			out.Classes = append(out.Classes, k)
			sum += p[k]
		}
		prev = k
	}
	if n := len(out.Classes); n > 0 {
		out.Confidence = sum / float64(n)
	}
	return out, true
}

type beamEntry struct {
	prefix []int
	pb     float64 // prefix ending in blank
	pnb    float64 // prefix ending in its last class
}

func (b *beamEntry) total() float64 { return b.pb + b.pnb }

func prefixKey(p []int) string {
	var sb strings.Builder
	for _, k := range p {
		sb.WriteString(strconv.Itoa(k))
		sb.WriteByte(',')
	}
	return sb.String()
}

// DecodeBeamSearch runs CTC prefix beam search keeping width prefixes per
// step. Only the width most probable classes of each step are expanded.
func DecodeBeamSearch(data []float32, shape []int64, classesFirst bool, width int) (Decoded, bool) {
	if width <= 1 {
		return DecodeGreedy(data, shape, classesFirst)
	}
	v, ok := newLogitsView(data, shape, classesFirst)
	if !ok {
		return Decoded{}, false
	}

	beams := []*beamEntry{{pb: 1}}
	for t := range v.steps {
		p := probabilities(v.row(t))
		candidates := topClasses(p, width)
		next := make(map[string]*beamEntry, len(beams)*len(candidates))
		get := func(prefix []int) *beamEntry {
			key := prefixKey(prefix)
			e, ok := next[key]
			if !ok {
				e = &beamEntry{prefix: prefix}
				next[key] = e
			}
			return e
		}

		for _, b := range beams {
			get(b.prefix).pb += b.total() * p[blankIndex]
			last := -1
			if n := len(b.prefix); n > 0 {
				last = b.prefix[n-1]
				get(b.prefix).pnb += b.pnb * p[last]
			}
			for _, k := range candidates {
				if k == blankIndex {
					continue
				}
				ext := make([]int, len(b.prefix)+1)
				copy(ext, b.prefix)
				ext[len(b.prefix)] = k
				if k == last {
					get(ext).pnb += b.pb * p[k]
				} else {
					get(ext).pnb += b.total() * p[k]
				}
			}
		}

		beams = beams[:0]
		for _, e := range next {
			beams = append(beams, e)
		}
		sort.Slice(beams, func(i, j int) bool {
			if beams[i].total() != beams[j].total() {
				return beams[i].total() > beams[j].total()
			}
			return prefixKey(beams[i].prefix) < prefixKey(beams[j].prefix)
		})
		if len(beams) > width {
			beams = beams[:width]
		}
	}

	best := beams[0]
	out := Decoded{Classes: best.prefix}
	if len(best.prefix) > 0 {
		// Geometric mean probability per emitted class.
		out.Confidence = math.Pow(best.total(), 1/float64(len(best.prefix)))
	}
	return out, true
}

// topClasses returns the indices of the n largest probabilities.
func topClasses(p []float64, n int) []int {
	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return p[idx[a]] > p[idx[b]] })
	if n < len(idx) {
		idx = idx[:n]
	}
	return idx
}
