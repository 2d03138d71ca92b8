package detection

import (
	"fmt"

	"github.com/ironsheep/coin-measure-mcp/internal/measure"
)

// Rejection reasons reported by the Analyzer.
const (
	ReasonAreaMin    = "area_min"
	ReasonAreaMax    = "area_max"
	ReasonBorder     = "border"
	ReasonDimension  = "dimension"
	ReasonDegenerate = "degenerate"
)

// MaxCircularity bounds the circularity of an accepted outline. The
// simplified perimeter runs slightly inside the traced boundary, so a clean
// disk scores a little above 1.
const MaxCircularity = 1.2

// RejectError explains why a contour did not become an object.
type RejectError struct {
	Reason string
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return "contour rejected: " + e.Reason
	}
	return fmt.Sprintf("contour rejected: %s (%s)", e.Reason, e.Detail)
}

// Candidate is an accepted contour with its shape measurements.
type Candidate struct {
	// Polygon is the simplified outline.
	Polygon     []measure.Point
	Box         measure.BoundingBox
	Area        float64
	Perimeter   float64
	Circularity float64
	AspectRatio float64
	CoinLike    bool

	// BelowAreaMin marks a coin-like candidate smaller than the generic area
	// floor; it must not survive as an ordinary object.
	BelowAreaMin bool
}

// Object converts the candidate into an unnamed traced object.
func (c *Candidate) Object() *measure.Object {
	obj := measure.NewPolygonObject(measure.Traced{
		Points:      c.Polygon,
		Circularity: c.Circularity,
		AspectRatio: c.AspectRatio,
	}, c.Area)
	obj.BoundingBox = c.Box
	return obj
}

// Analyzer filters contours and classifies the survivors.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer returns an analyzer for cfg. cfg is assumed valid.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze measures c in an image of the given size. A rejected contour
// yields a *RejectError; checks run in the order area band, border margin,
// minimum dimension.
//
// Contours below the generic area floor are only kept when they qualify as
// a coin, since coins may be smaller than the objects being measured. Any
// later rejection of such a contour is reported as area_min, the first rule
// it broke.
func (a *Analyzer) Analyze(c Contour, width, height int) (cand *Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cand = nil
			err = &RejectError{Reason: ReasonDegenerate, Detail: fmt.Sprint(r)}
		}
	}()

	if len(c.Points) < 3 {
		return nil, &RejectError{Reason: ReasonDegenerate, Detail: fmt.Sprintf("%d boundary points", len(c.Points))}
	}

	imageArea := float64(width * height)
	area := measure.ShoelaceArea(c.Points)
	small := area < a.cfg.AreaMin
	reject := func(reason, detail string) error {
		if small {
			return &RejectError{Reason: ReasonAreaMin, Detail: fmt.Sprintf("%.0f px²", area)}
		}
		return &RejectError{Reason: reason, Detail: detail}
	}

	if small && area < a.cfg.CoinAreaMin {
		return nil, reject(ReasonAreaMin, "")
	}
	if area > imageArea*a.cfg.AreaMaxFraction {
		return nil, &RejectError{Reason: ReasonAreaMax, Detail: fmt.Sprintf("%.0f px²", area)}
	}

	box := c.Box()
	m := float64(a.cfg.BorderMargin)
	if box.X < m || box.Y < m || box.X+box.Width > float64(width)-m || box.Y+box.Height > float64(height)-m {
		return nil, reject(ReasonBorder, "")
	}

	if box.Width < float64(a.cfg.MinDimension) || box.Height < float64(a.cfg.MinDimension) {
		return nil, reject(ReasonDimension, fmt.Sprintf("%.0fx%.0f", box.Width, box.Height))
	}

	poly := Simplify(c.Points, a.cfg.SimplifyEpsilon*ArcLength(c.Points))
	if len(poly) < 3 {
		return nil, reject(ReasonDegenerate, "simplified below 3 vertices")
	}
	perimeter := measure.Perimeter(measure.BuildEdges(poly))
	if perimeter <= 0 {
		return nil, reject(ReasonDegenerate, "zero perimeter")
	}
	circ := measure.Circularity(area, perimeter)
	if !(circ > 0 && circ <= MaxCircularity) {
		return nil, reject(ReasonDegenerate, fmt.Sprintf("circularity %.3f", circ))
	}

	cand = &Candidate{
		Polygon:      poly,
		Box:          box,
		Area:         area,
		Perimeter:    perimeter,
		Circularity:  circ,
		AspectRatio:  box.Width / box.Height,
		BelowAreaMin: small,
	}
	cand.CoinLike = a.isCoin(cand, imageArea)

	if small && !cand.CoinLike {
		return nil, reject(ReasonAreaMin, "")
	}
	return cand, nil
}

func (a *Analyzer) isCoin(c *Candidate, imageArea float64) bool {
	return c.Circularity > a.cfg.CoinCircularityMin &&
		c.Area >= a.cfg.CoinAreaMin &&
		c.Area <= imageArea*a.cfg.CoinAreaMaxFraction &&
		c.AspectRatio >= a.cfg.CoinAspectMin &&
		c.AspectRatio <= a.cfg.CoinAspectMax
}
