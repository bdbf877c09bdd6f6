package detector

import (
	"math"
	"sort"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

// lineTolerance is the vertical distance, in pixels, under which two regions
// count as the same text line.
const lineTolerance = 10

// SortReadingOrder orders regions top to bottom, then left to right within a
// line. Adjacent regions whose tops differ by less than lineTolerance are
// swapped when the later one starts further left.
func SortReadingOrder(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i].Quad[0], regions[j].Quad[0]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	for i := 0; i < len(regions)-1; i++ {
		if needSwap(regions[i+1].Quad, regions[i].Quad) {
			regions[i], regions[i+1] = regions[i+1], regions[i]
		}
	}
}

func needSwap(next, cur utils.Quad) bool {
	return math.Abs(next[0].Y-cur[0].Y) < lineTolerance && next[0].X < cur[0].X
}
