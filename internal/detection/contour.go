package detection

import (
	"github.com/ironsheep/coin-measure-mcp/internal/imaging"
	"github.com/ironsheep/coin-measure-mcp/internal/measure"
)

// Contour is the traced outer boundary of one connected foreground region.
type Contour struct {
	// Points are boundary pixel centres in clockwise order, starting at the
	// region's first pixel in raster order. Straight runs of pixels are
	// collapsed to their end points.
	Points []measure.Point

	// Pixels is the number of foreground pixels in the region.
	Pixels int

	// Inclusive pixel extent of the region.
	MinX, MinY, MaxX, MaxY int
}

// Box returns the bounding rectangle of the region, counting whole pixels.
func (c Contour) Box() measure.BoundingBox {
	return measure.BoundingBox{
		X:      float64(c.MinX),
		Y:      float64(c.MinY),
		Width:  float64(c.MaxX - c.MinX + 1),
		Height: float64(c.MaxY - c.MinY + 1),
	}
}

// FindContours returns the outer contours of the foreground regions of m.
//
// Regions are 8-connected. Only regions that touch the background reachable
// from the image frame (or touch the frame themselves) are outer; anything
// lying inside a hole of another region is discarded, as are holes.
//
// Contours are returned in raster order of each region's first pixel, so the
// output is stable for a given mask.
func FindContours(m *imaging.Mask) []Contour {
	w, h := m.Width, m.Height
	if w == 0 || h == 0 {
		return nil
	}

	labels, stats := labelComponents(m)
	outside := exteriorBackground(m)

	contours := make([]Contour, 0, len(stats))
	for i, st := range stats {
		label := i + 1
		if !touchesExterior(labels, outside, w, h, label, st) {
			continue
		}
		contours = append(contours, Contour{
			Points: traceBoundary(labels, w, h, label, st.firstX, st.firstY, st.pixels),
			Pixels: st.pixels,
			MinX:   st.minX,
			MinY:   st.minY,
			MaxX:   st.maxX,
			MaxY:   st.maxY,
		})
	}
	return contours
}

type componentStats struct {
	firstX, firstY         int
	minX, minY, maxX, maxY int
	pixels                 int
}

// labelComponents assigns a label (1-based) to each 8-connected foreground
// region in raster order of first pixel.
func labelComponents(m *imaging.Mask) ([]int, []componentStats) {
	w, h := m.Width, m.Height
	labels := make([]int, w*h)
	var stats []componentStats
	stack := make([]int, 0, 256)

	for start, v := range m.Pix {
		if v == 0 || labels[start] != 0 {
			continue
		}
		label := len(stats) + 1
		sx, sy := start%w, start/w
		st := componentStats{firstX: sx, firstY: sy, minX: sx, minY: sy, maxX: sx, maxY: sy}

		labels[start] = label
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			st.pixels++
			st.minX = min(st.minX, x)
			st.maxX = max(st.maxX, x)
			st.minY = min(st.minY, y)
			st.maxY = max(st.maxY, y)

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					if m.Pix[j] != 0 && labels[j] == 0 {
						labels[j] = label
						stack = append(stack, j)
					}
				}
			}
		}
		stats = append(stats, st)
	}
	return labels, stats
}

// exteriorBackground marks the background pixels 4-connected to the frame.
func exteriorBackground(m *imaging.Mask) []bool {
	w, h := m.Width, m.Height
	outside := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))

	seed := func(i int) {
		if m.Pix[i] == 0 && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		seed(x)
		seed((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		seed(y * w)
		seed(y*w + w - 1)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 {
			seed(i - 1)
		}
		if x < w-1 {
			seed(i + 1)
		}
		if y > 0 {
			seed(i - w)
		}
		if y < h-1 {
			seed(i + w)
		}
	}
	return outside
}

func touchesExterior(labels []int, outside []bool, w, h, label int, st componentStats) bool {
	if st.minX == 0 || st.minY == 0 || st.maxX == w-1 || st.maxY == h-1 {
		return true
	}
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			i := y*w + x
			if labels[i] != label {
				continue
			}
			if outside[i-1] || outside[i+1] || outside[i-w] || outside[i+w] {
				return true
			}
		}
	}
	return false
}

// Moore neighbourhood in clockwise order (y grows downward): E, SE, S, SW, W, NW, N, NE.
var (
	mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

func mooreIndex(dx, dy int) int {
	for i := range mooreDX {
		if mooreDX[i] == dx && mooreDY[i] == dy {
			return i
		}
	}
	return 0
}

// traceBoundary follows the outer boundary of a labelled region with
// Moore-neighbour tracing. (sx, sy) must be the region's first pixel in raster
// order, so its west neighbour is background.
//
// Tracing stops when the start pixel is about to be left towards the same
// neighbour as on the first step (Jacob's criterion), which also handles
// regions whose boundary passes through the start pixel twice.
func traceBoundary(labels []int, w, h, label, sx, sy, pixels int) []measure.Point {
	isLabel := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
	}

	// step scans the neighbours of (cx, cy) clockwise, starting after the
	// backtrack pixel (bx, by), and returns the first region pixel together
	// with the background pixel examined just before it.
	step := func(cx, cy, bx, by int) (nx, ny, nbx, nby int, ok bool) {
		d := mooreIndex(bx-cx, by-cy)
		px, py := bx, by
		for k := 1; k <= 8; k++ {
			i := (d + k) % 8
			tx, ty := cx+mooreDX[i], cy+mooreDY[i]
			if isLabel(tx, ty) {
				return tx, ty, px, py, true
			}
			px, py = tx, ty
		}
		return 0, 0, 0, 0, false
	}

	pts := make([]measure.Point, 0, 64)
	add := func(x, y int) {
		p := measure.Point{X: float64(x), Y: float64(y)}
		n := len(pts)
		if n > 0 && pts[n-1] == p {
			return
		}
		if n >= 2 && continues(pts[n-2], pts[n-1], p) {
			pts = pts[:n-1]
		}
		pts = append(pts, p)
	}

	add(sx, sy)
	nx, ny, bx, by, ok := step(sx, sy, sx-1, sy)
	if !ok {
		return pts // isolated pixel
	}
	secondX, secondY := nx, ny

	maxSteps := 4*pixels + 8
	for n := 0; n < maxSteps; n++ {
		cx, cy := nx, ny
		nx, ny, bx, by, _ = step(cx, cy, bx, by)
		if cx == sx && cy == sy && nx == secondX && ny == secondY {
			break
		}
		add(cx, cy)
	}

	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	if n := len(pts); n >= 3 && continues(pts[n-2], pts[n-1], pts[0]) {
		pts = pts[:n-1]
	}
	return pts
}

// continues reports whether b lies on a straight run from a to c. A run
// that doubles back (a spur tip) does not continue, so the tip is kept.
func continues(a, b, c measure.Point) bool {
	ux, uy := b.X-a.X, b.Y-a.Y
	vx, vy := c.X-b.X, c.Y-b.Y
	return ux*vy-uy*vx == 0 && ux*vx+uy*vy > 0
}
