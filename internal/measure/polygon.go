package measure

import (
	"fmt"
	"math"
)

// MinPolygonPoints is the smallest number of vertices of a closed polygon.
const MinPolygonPoints = 3

// DefaultCloseRadius is the pixel distance from the first vertex within which
// a new click closes the polygon being collected.
const DefaultCloseRadius = 10.0

// BuildManualPolygon builds a non-coin object from user-supplied vertices.
//
// The area is computed with the shoelace formula over the closed loop; edges
// and perimeter are built the same way as for traced shapes, and the bounding
// box is the min/max extent of the points. Fewer than three points, or any
// non-finite coordinate, is rejected with a *ValidationError and no object.
func BuildManualPolygon(points []Point) (*Object, error) {
	if len(points) < MinPolygonPoints {
		return nil, &ValidationError{
			Field:  "polygon",
			Reason: fmt.Sprintf("need at least %d points, got %d", MinPolygonPoints, len(points)),
		}
	}
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, &ValidationError{Field: "polygon", Reason: fmt.Sprintf("point %d is not finite", i)}
		}
	}

	pts := make([]Point, len(points))
	copy(pts, points)
	return NewPolygonObject(Manual{Points: pts}, ShoelaceArea(pts)), nil
}

// CollectStatus is the outcome of adding a point to a Collector.
type CollectStatus int

const (
	// CollectPending means the point was recorded and the polygon is still open.
	CollectPending CollectStatus = iota
	// CollectClosed means the point closed the polygon and Object is set.
	CollectClosed
	// CollectTooFew means the point would have closed the polygon but too few
	// vertices have been gathered; the point was dropped.
	CollectTooFew
)

func (s CollectStatus) String() string {
	switch s {
	case CollectPending:
		return "pending"
	case CollectClosed:
		return "closed"
	case CollectTooFew:
		return "too_few_points"
	default:
		return "unknown"
	}
}

// CollectResult is returned by Collector.Add.
type CollectResult struct {
	Status CollectStatus
	Object *Object
	Points int
}

// Collector gathers polygon vertices one click at a time.
//
// A click within CloseRadius of the first vertex closes the polygon: the
// object is built from every point gathered before it and the closing click
// itself is discarded. Collector is not safe for concurrent use.
type Collector struct {
	CloseRadius float64

	points []Point
}

// NewCollector returns a collector using DefaultCloseRadius.
func NewCollector() *Collector {
	return &Collector{CloseRadius: DefaultCloseRadius}
}

// Add records p, or closes the polygon when p lands on the first vertex.
func (c *Collector) Add(p Point) (CollectResult, error) {
	radius := c.CloseRadius
	if radius <= 0 {
		radius = DefaultCloseRadius
	}

	if len(c.points) > 0 && Distance(c.points[0], p) <= radius {
		if len(c.points) < MinPolygonPoints {
			return CollectResult{Status: CollectTooFew, Points: len(c.points)}, nil
		}
		obj, err := BuildManualPolygon(c.points)
		if err != nil {
			return CollectResult{}, err
		}
		c.points = nil
		return CollectResult{Status: CollectClosed, Object: obj, Points: len(obj.Edges)}, nil
	}

	c.points = append(c.points, p)
	return CollectResult{Status: CollectPending, Points: len(c.points)}, nil
}

// Points returns a copy of the vertices gathered so far.
func (c *Collector) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Reset discards every gathered vertex.
func (c *Collector) Reset() {
	c.points = nil
}
