package detection

import (
	"testing"

	"github.com/ironsheep/coin-measure-mcp/internal/imaging"
	"github.com/ironsheep/coin-measure-mcp/internal/measure"
)

// maskRect sets the half-open rectangle [x0,x1)×[y0,y1) to on.
func maskRect(m *imaging.Mask, x0, y0, x1, y1 int, on bool) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y, on)
		}
	}
}

func TestFindContours_Square(t *testing.T) {
	m := imaging.NewMask(20, 20)
	defer m.Release()
	maskRect(m, 5, 5, 15, 15, true)

	contours := FindContours(m)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	c := contours[0]

	want := []measure.Point{{X: 5, Y: 5}, {X: 14, Y: 5}, {X: 14, Y: 14}, {X: 5, Y: 14}}
	if len(c.Points) != len(want) {
		t.Fatalf("expected %d corner points, got %d: %v", len(want), len(c.Points), c.Points)
	}
	for i := range want {
		if c.Points[i] != want[i] {
			t.Errorf("point %d: got %v, want %v", i, c.Points[i], want[i])
		}
	}
	if c.Pixels != 100 {
		t.Errorf("pixels: got %d, want 100", c.Pixels)
	}
	box := c.Box()
	if box != (measure.BoundingBox{X: 5, Y: 5, Width: 10, Height: 10}) {
		t.Errorf("box: got %+v", box)
	}
}

func TestFindContours_Empty(t *testing.T) {
	m := imaging.NewMask(10, 10)
	defer m.Release()
	if got := FindContours(m); len(got) != 0 {
		t.Errorf("expected no contours, got %d", len(got))
	}
}

func TestFindContours_RingDiscardsInnerRegion(t *testing.T) {
	m := imaging.NewMask(40, 40)
	defer m.Release()
	maskRect(m, 5, 5, 35, 35, true)
	maskRect(m, 10, 10, 30, 30, false) // hole
	maskRect(m, 15, 15, 25, 25, true)  // island inside the hole

	contours := FindContours(m)
	if len(contours) != 1 {
		t.Fatalf("expected only the outer ring, got %d contours", len(contours))
	}
	if c := contours[0]; c.MinX != 5 || c.MaxX != 34 {
		t.Errorf("outer contour extent: x %d..%d", c.MinX, c.MaxX)
	}
}

func TestFindContours_MultipleRegionsInRasterOrder(t *testing.T) {
	m := imaging.NewMask(50, 30)
	defer m.Release()
	maskRect(m, 30, 2, 40, 10, true)
	maskRect(m, 5, 15, 20, 25, true)

	contours := FindContours(m)
	if len(contours) != 2 {
		t.Fatalf("expected 2 contours, got %d", len(contours))
	}
	if contours[0].MinY != 2 || contours[1].MinY != 15 {
		t.Errorf("contours not in raster order: first MinY %d, second MinY %d",
			contours[0].MinY, contours[1].MinY)
	}
}

func TestFindContours_DiagonalPixelsAreConnected(t *testing.T) {
	m := imaging.NewMask(10, 10)
	defer m.Release()
	m.Set(3, 3, true)
	m.Set(4, 4, true)
	m.Set(5, 5, true)

	contours := FindContours(m)
	if len(contours) != 1 {
		t.Fatalf("8-connected diagonal should be one region, got %d", len(contours))
	}
	if contours[0].Pixels != 3 {
		t.Errorf("pixels: got %d", contours[0].Pixels)
	}
}

func TestFindContours_SinglePixel(t *testing.T) {
	m := imaging.NewMask(5, 5)
	defer m.Release()
	m.Set(2, 2, true)

	contours := FindContours(m)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	if len(contours[0].Points) != 1 {
		t.Errorf("isolated pixel: got %v", contours[0].Points)
	}
}

func TestFindContours_RegionTouchingFrame(t *testing.T) {
	m := imaging.NewMask(20, 20)
	defer m.Release()
	maskRect(m, 0, 0, 6, 6, true)

	contours := FindContours(m)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	if contours[0].MinX != 0 || contours[0].MinY != 0 {
		t.Errorf("extent: %+v", contours[0])
	}
}

func TestFindContours_SpurIsTraced(t *testing.T) {
	m := imaging.NewMask(30, 30)
	defer m.Release()
	maskRect(m, 5, 5, 15, 15, true)
	maskRect(m, 15, 9, 22, 10, true) // one-pixel-wide spur to the east

	contours := FindContours(m)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	c := contours[0]
	if c.MaxX != 21 {
		t.Errorf("spur not included: MaxX %d", c.MaxX)
	}
	var tip bool
	for _, p := range c.Points {
		if p.X == 21 && p.Y == 9 {
			tip = true
		}
	}
	if !tip {
		t.Errorf("spur tip missing from %v", c.Points)
	}
	for i := range c.Points {
		if c.Points[i] == c.Points[(i+1)%len(c.Points)] {
			t.Errorf("consecutive duplicate point %v", c.Points[i])
		}
	}
}

func TestFindContours_TracedAreaMatchesShape(t *testing.T) {
	m := imaging.NewMask(100, 100)
	defer m.Release()
	cx, cy, r := 50, 50, 30
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				m.Set(x, y, true)
			}
		}
	}

	contours := FindContours(m)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	// The polygon through boundary pixel centres loses about half a pixel
	// all round, so its area sits a little under the pixel count.
	area := measure.ShoelaceArea(contours[0].Points)
	pixels := float64(contours[0].Pixels)
	if area >= pixels || area < pixels*0.9 {
		t.Errorf("traced area %.0f, pixel count %.0f", area, pixels)
	}
}
