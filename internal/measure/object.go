package measure

import (
	"encoding/json"
	"math"

	"github.com/google/uuid"
)

// Object is a measurable shape: the central entity of a session.
//
// Area is in pixel² and Perimeter in pixels; both are fixed at creation.
// RealPerimeter and the RealLength of every edge are set together by
// ApplyScale, so an object is either fully calibrated or not at all.
type Object struct {
	ID          string
	Name        string
	IsCoin      bool
	Color       string
	Outline     Outline
	Edges       []Edge
	BoundingBox BoundingBox
	Area        float64
	Perimeter   float64

	RealPerimeter *float64
}

// NewID returns a fresh object identifier.
func NewID() string {
	return uuid.NewString()
}

// NewPolygonObject builds an object from a closed polygon. Edges, perimeter
// and bounding box are derived from pts; area is supplied by the caller since
// traced and manual outlines compute it differently.
func NewPolygonObject(outline Outline, area float64) *Object {
	pts := outline.vertices()
	edges := BuildEdges(pts)
	return &Object{
		ID:          NewID(),
		Outline:     outline,
		Edges:       edges,
		BoundingBox: Bounds(pts),
		Area:        area,
		Perimeter:   Perimeter(edges),
	}
}

// NewSyntheticCoin builds a coin reference with no traced boundary, covering
// box and measuring pixelDiameter across.
func NewSyntheticCoin(pixelDiameter float64, box BoundingBox) *Object {
	r := pixelDiameter / 2
	return &Object{
		ID:          NewID(),
		Name:        CoinName,
		IsCoin:      true,
		Color:       PaletteColor(0),
		Outline:     Synthetic{PixelDiameter: pixelDiameter},
		BoundingBox: box,
		Area:        math.Pi * r * r,
		Perimeter:   2 * math.Pi * r,
	}
}

// Kind returns the outline variant of the object.
func (o *Object) Kind() Kind {
	if o.Outline == nil {
		return ""
	}
	return o.Outline.Kind()
}

// Points returns the polygon vertices; synthetic objects have none.
func (o *Object) Points() []Point {
	if o.Outline == nil {
		return nil
	}
	return o.Outline.vertices()
}

// Circularity returns the roundness score of a traced object. ok is false for
// every other kind.
func (o *Object) Circularity() (c float64, ok bool) {
	t, ok := o.Outline.(Traced)
	if !ok {
		return 0, false
	}
	return t.Circularity, true
}

// PixelDiameter returns the diameter of a coin object: the synthetic diameter,
// or the mean bounding box side for a traced coin.
func (o *Object) PixelDiameter() float64 {
	if s, ok := o.Outline.(Synthetic); ok {
		return s.PixelDiameter
	}
	return (o.BoundingBox.Width + o.BoundingBox.Height) / 2
}

// Calibrated reports whether real-world lengths have been applied.
func (o *Object) Calibrated() bool {
	return o.RealPerimeter != nil
}

// Measurements returns the derived length view of the object.
func (o *Object) Measurements() Measurements {
	m := Measurements{Edges: make([]EdgeMeasurement, len(o.Edges))}
	for i, e := range o.Edges {
		m.Edges[i] = EdgeMeasurement{PixelLength: e.PixelLength, RealLength: e.RealLength}
	}
	m.Perimeter = o.RealPerimeter
	return m
}

// Clone returns a deep copy of the object. Outline point slices are shared
// since outlines are never modified after creation.
func (o *Object) Clone() *Object {
	c := *o
	c.Edges = make([]Edge, len(o.Edges))
	for i, e := range o.Edges {
		c.Edges[i] = e
		if e.RealLength != nil {
			v := *e.RealLength
			c.Edges[i].RealLength = &v
		}
	}
	if o.RealPerimeter != nil {
		v := *o.RealPerimeter
		c.RealPerimeter = &v
	}
	return &c
}

type objectJSON struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	IsCoin        bool         `json:"is_coin"`
	Kind          Kind         `json:"kind"`
	Color         string       `json:"color"`
	Points        []Point      `json:"points"`
	Edges         []Edge       `json:"edges"`
	BoundingBox   BoundingBox  `json:"bounding_box"`
	Area          float64      `json:"area"`
	Perimeter     float64      `json:"perimeter"`
	Circularity   *float64     `json:"circularity,omitempty"`
	PixelDiameter *float64     `json:"pixel_diameter,omitempty"`
	Measurements  Measurements `json:"measurements"`
}

// MarshalJSON flattens the outline variant into the object view.
func (o *Object) MarshalJSON() ([]byte, error) {
	v := objectJSON{
		ID:           o.ID,
		Name:         o.Name,
		IsCoin:       o.IsCoin,
		Kind:         o.Kind(),
		Color:        o.Color,
		Points:       o.Points(),
		Edges:        o.Edges,
		BoundingBox:  o.BoundingBox,
		Area:         round2(o.Area),
		Perimeter:    round2(o.Perimeter),
		Measurements: o.Measurements(),
	}
	if v.Points == nil {
		v.Points = []Point{}
	}
	if v.Edges == nil {
		v.Edges = []Edge{}
	}
	if c, ok := o.Circularity(); ok {
		c = math.Round(c*1000) / 1000
		v.Circularity = &c
	}
	if s, ok := o.Outline.(Synthetic); ok {
		d := round2(s.PixelDiameter)
		v.PixelDiameter = &d
	}
	return json.Marshal(v)
}

// MarshalJSON reports an uncalibrated session as nulls.
func (c Calibration) MarshalJSON() ([]byte, error) {
	type view struct {
		PPM               *float64 `json:"ppm"`
		CoinPixelDiameter *float64 `json:"coin_pixel_diameter"`
	}
	var v view
	if c.Valid() {
		ppm := c.PPM
		v.PPM = &ppm
		if c.CoinPixelDiameter > 0 {
			d := c.CoinPixelDiameter
			v.CoinPixelDiameter = &d
		}
	}
	return json.Marshal(v)
}
