package detection

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/coin-measure-mcp/internal/measure"
)

// ArcLength returns the length of the closed polyline through pts.
func ArcLength(pts []measure.Point) float64 {
	var sum float64
	for i := range pts {
		sum += measure.Distance(pts[i], pts[(i+1)%len(pts)])
	}
	return sum
}

// Simplify reduces a closed contour with the Douglas-Peucker algorithm.
// Vertices closer than epsilon to the simplified outline are dropped.
//
// The loop is split at the first point and the point farthest from it, and
// each half is simplified as an open chain. The result never has fewer than
// three vertices when pts has three or more.
func Simplify(pts []measure.Point, epsilon float64) []measure.Point {
	n := len(pts)
	if n <= 3 {
		return append([]measure.Point(nil), pts...)
	}

	far, farDist := 0, -1.0
	for i := 1; i < n; i++ {
		if d := measure.Distance(pts[0], pts[i]); d > farDist {
			far, farDist = i, d
		}
	}

	keep := make([]bool, n)
	keep[0], keep[far] = true, true
	douglasPeucker(pts, 0, far, epsilon, keep)
	douglasPeucker(pts, far, n, epsilon, keep) // index n wraps to 0

	out := make([]measure.Point, 0, 16)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}

	if len(out) < 3 {
		// Both halves collapsed onto the chord; restore the point that bulges
		// out furthest so the outline keeps an area.
		best, bestDist := -1, -1.0
		for i := range pts {
			if keep[i] {
				continue
			}
			if d := segmentDistance(pts[i], pts[0], pts[far]); d > bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 {
			keep[best] = true
			out = out[:0]
			for i, k := range keep {
				if k {
					out = append(out, pts[i])
				}
			}
		}
	}
	return out
}

// douglasPeucker marks the vertices to keep between first and last
// (exclusive). Indices are taken modulo len(pts).
func douglasPeucker(pts []measure.Point, first, last int, epsilon float64, keep []bool) {
	n := len(pts)
	stack := [][2]int{{first, last}}
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		a, b := seg[0], seg[1]
		if b-a < 2 {
			continue
		}

		idx, maxDist := -1, 0.0
		for i := a + 1; i < b; i++ {
			if d := segmentDistance(pts[i%n], pts[a%n], pts[b%n]); d > maxDist {
				idx, maxDist = i, d
			}
		}
		if idx >= 0 && maxDist > epsilon {
			keep[idx%n] = true
			stack = append(stack, [2]int{a, idx}, [2]int{idx, b})
		}
	}
}

// segmentDistance returns the distance from p to the segment ab.
func segmentDistance(p, a, b measure.Point) float64 {
	pv := r2.Vec{X: p.X, Y: p.Y}
	av := r2.Vec{X: a.X, Y: a.Y}
	ab := r2.Sub(r2.Vec{X: b.X, Y: b.Y}, av)
	ap := r2.Sub(pv, av)

	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return r2.Norm(ap)
	}
	t := math.Max(0, math.Min(1, r2.Dot(ap, ab)/l2))
	return r2.Norm(r2.Sub(ap, r2.Scale(t, ab)))
}
