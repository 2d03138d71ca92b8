package measure

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

func vec(p Point) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(vec(b), vec(a)))
}

// ShoelaceArea returns the unsigned area of the closed polygon through pts.
//
//	area = |Σ (x_i·y_{i+1} − x_{i+1}·y_i)| / 2
//
// The last vertex wraps to the first. Fewer than three points have no area.
func ShoelaceArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		sum += r2.Cross(vec(pts[i]), vec(pts[(i+1)%len(pts)]))
	}
	return math.Abs(sum) / 2
}

// BuildEdges returns the edges of the closed polygon through pts, one per
// vertex, with the last edge running from the final vertex back to the first.
func BuildEdges(pts []Point) []Edge {
	if len(pts) == 0 {
		return nil
	}
	edges := make([]Edge, len(pts))
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		edges[i] = Edge{
			Start:       pts[i],
			End:         next,
			PixelLength: Distance(pts[i], next),
		}
	}
	return edges
}

// Perimeter sums the pixel lengths of edges.
func Perimeter(edges []Edge) float64 {
	lengths := make([]float64, len(edges))
	for i, e := range edges {
		lengths[i] = e.PixelLength
	}
	return floats.Sum(lengths)
}

// Bounds returns the min/max extent of pts.
func Bounds(pts []Point) BoundingBox {
	if len(pts) == 0 {
		return BoundingBox{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Circularity returns 4π·area/perimeter², 1.0 for a perfect circle.
// A non-positive perimeter yields 0.
func Circularity(area, perimeter float64) float64 {
	if perimeter <= 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
