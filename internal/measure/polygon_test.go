package measure

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestBuildManualPolygon_Square(t *testing.T) {
	obj, err := BuildManualPolygon([]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	if err != nil {
		t.Fatalf("BuildManualPolygon failed: %v", err)
	}

	if obj.Area != 100 {
		t.Errorf("Area: got %v, want 100", obj.Area)
	}
	if obj.Perimeter != 40 {
		t.Errorf("Perimeter: got %v, want 40", obj.Perimeter)
	}
	if len(obj.Edges) != 4 {
		t.Fatalf("Edges: got %d, want 4", len(obj.Edges))
	}
	for i, e := range obj.Edges {
		if e.PixelLength != 10 {
			t.Errorf("edge %d: got %v, want 10", i, e.PixelLength)
		}
		if e.RealLength != nil {
			t.Errorf("edge %d: RealLength should be nil before calibration", i)
		}
	}
	if obj.IsCoin {
		t.Error("manual polygon must not be a coin")
	}
	if obj.Kind() != KindManual {
		t.Errorf("Kind: got %s, want %s", obj.Kind(), KindManual)
	}
	if _, ok := obj.Circularity(); ok {
		t.Error("manual polygon should not report circularity")
	}
	wantBox := BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}
	if obj.BoundingBox != wantBox {
		t.Errorf("BoundingBox: got %+v, want %+v", obj.BoundingBox, wantBox)
	}
	if obj.ID == "" {
		t.Error("ID should be assigned")
	}
}

func TestBuildManualPolygon_LastEdgeWraps(t *testing.T) {
	pts := []Point{{5, 5}, {25, 5}, {15, 20}}
	obj, err := BuildManualPolygon(pts)
	if err != nil {
		t.Fatalf("BuildManualPolygon failed: %v", err)
	}

	last := obj.Edges[len(obj.Edges)-1]
	if last.Start != pts[2] || last.End != pts[0] {
		t.Errorf("last edge: got %v->%v, want %v->%v", last.Start, last.End, pts[2], pts[0])
	}
}

func TestBuildManualPolygon_WindingIndependent(t *testing.T) {
	cw, _ := BuildManualPolygon([]Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}})
	ccw, _ := BuildManualPolygon([]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	if cw.Area != ccw.Area {
		t.Errorf("area differs by winding: %v vs %v", cw.Area, ccw.Area)
	}
}

func TestBuildManualPolygon_TooFewPoints(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"empty", nil},
		{"one point", []Point{{1, 1}}},
		{"two points", []Point{{0, 0}, {10, 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := BuildManualPolygon(tt.points)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if obj != nil {
				t.Error("no object should be created")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error %v is not a *ValidationError", err)
			}
		})
	}
}

func TestBuildManualPolygon_NonFinite(t *testing.T) {
	_, err := BuildManualPolygon([]Point{{0, 0}, {math.NaN(), 1}, {2, 2}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCollector_ClosingClick(t *testing.T) {
	c := NewCollector()
	clicks := []Point{{0, 0}, {50, 0}, {50, 50}, {0, 50}}
	for i, p := range clicks {
		res, err := c.Add(p)
		if err != nil {
			t.Fatalf("Add(%v) failed: %v", p, err)
		}
		if res.Status != CollectPending {
			t.Fatalf("click %d: status %v, want pending", i, res.Status)
		}
	}

	res, err := c.Add(Point{X: 2, Y: 1})
	if err != nil {
		t.Fatalf("closing Add failed: %v", err)
	}
	if res.Status != CollectClosed {
		t.Fatalf("status: got %v, want closed", res.Status)
	}
	if got := len(res.Object.Points()); got != 4 {
		t.Errorf("vertices: got %d, want 4", got)
	}
	for _, p := range res.Object.Points() {
		if p == (Point{X: 2, Y: 1}) {
			t.Error("closing click should be discarded")
		}
	}
	if res.Object.Area != 2500 {
		t.Errorf("Area: got %v, want 2500", res.Object.Area)
	}
	if len(c.Points()) != 0 {
		t.Error("collector should be empty after closing")
	}
}

func TestCollector_TooFewBeforeClosing(t *testing.T) {
	c := NewCollector()
	_, _ = c.Add(Point{X: 0, Y: 0})
	_, _ = c.Add(Point{X: 40, Y: 0})

	res, err := c.Add(Point{X: 3, Y: 3})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if res.Status != CollectTooFew {
		t.Errorf("status: got %v, want too few", res.Status)
	}
	if res.Object != nil {
		t.Error("no object should be built")
	}
	if got := len(c.Points()); got != 2 {
		t.Errorf("points: got %d, want 2 (closing click dropped)", got)
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	_, _ = c.Add(Point{X: 1, Y: 1})
	c.Reset()
	if len(c.Points()) != 0 {
		t.Error("Reset should clear points")
	}
}

func TestObject_MarshalJSON(t *testing.T) {
	obj := ApplyScale(squareObject(t), 2)
	obj.Name = "Object 1"

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var view map[string]interface{}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if view["kind"] != "manual" {
		t.Errorf("kind: got %v", view["kind"])
	}
	if _, ok := view["circularity"]; ok {
		t.Error("manual object should not carry circularity")
	}
	m := view["measurements"].(map[string]interface{})
	if m["perimeter"] != 20.0 {
		t.Errorf("measurements.perimeter: got %v, want 20", m["perimeter"])
	}
}

func TestSyntheticCoin(t *testing.T) {
	coin := NewSyntheticCoin(53, BoundingBox{X: 10, Y: 10, Width: 53, Height: 53})

	if !coin.IsCoin || coin.Name != CoinName {
		t.Errorf("got IsCoin=%v Name=%q", coin.IsCoin, coin.Name)
	}
	if len(coin.Points()) != 0 || len(coin.Edges) != 0 {
		t.Error("synthetic coin has no boundary")
	}
	if _, ok := coin.Circularity(); ok {
		t.Error("synthetic coin should not report circularity")
	}
	if coin.PixelDiameter() != 53 {
		t.Errorf("PixelDiameter: got %v, want 53", coin.PixelDiameter())
	}
}

func TestPaletteColor(t *testing.T) {
	if PaletteColor(0) != PaletteColor(8) {
		t.Error("palette should wrap every 8 entries")
	}
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		seen[PaletteColor(i)] = true
	}
	if len(seen) != 8 {
		t.Errorf("expected 8 distinct colours, got %d", len(seen))
	}
}
