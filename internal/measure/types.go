package measure

// Point is a position in image pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is an axis-aligned rectangle in pixel space.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the centre of the box.
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width &&
		p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// Edge is one side of a closed polygon.
//
// PixelLength is fixed when the edge is built. RealLength stays nil until a
// valid scale has been applied and then holds PixelLength/ppm rounded to two
// decimals.
type Edge struct {
	Start       Point    `json:"start"`
	End         Point    `json:"end"`
	PixelLength float64  `json:"pixel_length"`
	RealLength  *float64 `json:"real_length"`
}

// Kind names the variant of an object's outline.
type Kind string

const (
	KindTraced    Kind = "traced"
	KindManual    Kind = "manual"
	KindSynthetic Kind = "synthetic"
)

// Outline is the kind-specific part of an Object.
type Outline interface {
	Kind() Kind
	vertices() []Point
}

// Traced is an outline simplified from a contour found in the image.
type Traced struct {
	Points      []Point
	Circularity float64
	AspectRatio float64
}

// Kind implements Outline.
func (Traced) Kind() Kind { return KindTraced }

func (t Traced) vertices() []Point { return t.Points }

// Manual is an outline entered point by point by the user.
type Manual struct {
	Points []Point
}

// Kind implements Outline.
func (Manual) Kind() Kind { return KindManual }

func (m Manual) vertices() []Point { return m.Points }

// Synthetic is a coin reference built from a diameter alone; it has no boundary.
type Synthetic struct {
	PixelDiameter float64
}

// Kind implements Outline.
func (Synthetic) Kind() Kind { return KindSynthetic }

func (Synthetic) vertices() []Point { return nil }

// EdgeMeasurement is the per-edge part of the measurement view.
type EdgeMeasurement struct {
	PixelLength float64  `json:"pixel_length"`
	RealLength  *float64 `json:"real_length"`
}

// Measurements is the derived view of an object's lengths. Perimeter is in
// millimetres once the object has been calibrated and nil before that.
type Measurements struct {
	Edges     []EdgeMeasurement `json:"edges"`
	Perimeter *float64          `json:"perimeter"`
}

// Calibration is the scale state of a session. The zero value means the
// session has not been calibrated.
type Calibration struct {
	PPM               float64 `json:"ppm"`
	CoinPixelDiameter float64 `json:"coin_pixel_diameter"`
}

// Valid reports whether the calibration carries a usable scale.
func (c Calibration) Valid() bool {
	return validScale(c.PPM)
}
