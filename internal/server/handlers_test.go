package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/coin-measure-mcp/internal/detection"
	"github.com/ironsheep/coin-measure-mcp/internal/measure"
	"github.com/ironsheep/coin-measure-mcp/internal/metrics"
	"github.com/ironsheep/coin-measure-mcp/internal/vision"
)

var (
	paper = color.RGBA{235, 235, 235, 255}
	ink   = color.RGBA{30, 30, 30, 255}
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg, err := detection.Preset("otsu")
	if err != nil {
		t.Fatalf("Preset failed: %v", err)
	}
	det, err := detection.New(cfg, detection.NewGate(cfg))
	if err != nil {
		t.Fatalf("detection.New failed: %v", err)
	}
	return New(det, opts...)
}

// writeScene writes a 400×300 PNG with a coin of radius 40 centred at
// (100, 150) and a 150×60 bar at (200, 120).
func writeScene(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			c := paper
			dx, dy := x-100, y-150
			if dx*dx+dy*dy <= 40*40 || (x >= 200 && x < 350 && y >= 120 && y < 180) {
				c = ink
			}
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "scene.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleToolsCall returned nil")
	}
	return resp
}

// mustCall runs a tool that is expected to succeed and decodes its result.
func mustCall(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error %d %s: %v", name, resp.Error.Code, resp.Error.Message, resp.Error.Data)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("%s: result should be a map", name)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("%s: expected one content item", name)
	}
	text, _ := content[0]["text"].(string)
	if out == nil {
		return
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("%s: failed to decode result: %v\n%s", name, err, text)
	}
}

func expectError(t *testing.T, s *Server, name string, args interface{}, code int) {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s: expected error %d, got result", name, code)
	}
	if resp.Error.Code != code {
		t.Errorf("%s: error code %d, want %d (%v)", name, resp.Error.Code, code, resp.Error.Data)
	}
}

func metricsBody(t *testing.T, m *metrics.Metrics) io.Reader {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body
}

type objectView struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	IsCoin       bool                `json:"is_coin"`
	Kind         string              `json:"kind"`
	BoundingBox  measure.BoundingBox `json:"bounding_box"`
	Perimeter    float64             `json:"perimeter"`
	Measurements struct {
		Perimeter *float64 `json:"perimeter"`
	} `json:"measurements"`
}

type sessionView struct {
	Image       string `json:"image"`
	Calibrated  bool   `json:"calibrated"`
	CoinFound   bool   `json:"coin_found"`
	Detected    int    `json:"detected"`
	Calibration struct {
		PPM *float64 `json:"ppm"`
	} `json:"calibration"`
	Objects []objectView `json:"objects"`
}

func TestImageLoad(t *testing.T) {
	s := newTestServer(t)
	path := writeScene(t)

	var res struct {
		Path   string `json:"path"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	mustCall(t, s, "image_load", map[string]interface{}{"path": path}, &res)
	if res.Path != path || res.Width != 400 || res.Height != 300 || res.Format != "png" {
		t.Errorf("unexpected image info: %+v", res)
	}
	if s.active != path {
		t.Errorf("active image: got %q", s.active)
	}

	t.Run("missing file", func(t *testing.T) {
		expectError(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"}, -32000)
	})
	t.Run("missing path", func(t *testing.T) {
		expectError(t, s, "image_load", map[string]interface{}{}, -32602)
	})
}

func TestObjectsDetect_CalibratesFromCoin(t *testing.T) {
	s := newTestServer(t)
	path := writeScene(t)
	mustCall(t, s, "image_load", map[string]interface{}{"path": path}, nil)

	var res sessionView
	mustCall(t, s, "objects_detect", map[string]interface{}{}, &res)

	if !res.CoinFound || res.Detected != 2 || len(res.Objects) != 2 {
		t.Fatalf("expected coin and bar, got %+v", res)
	}
	if !res.Calibrated || res.Calibration.PPM == nil {
		t.Fatal("session should be calibrated from the coin")
	}
	if ppm := *res.Calibration.PPM; math.Abs(ppm-81/measure.CoinDiameterMM) > 0.2 {
		t.Errorf("ppm: got %.3f, want about %.3f", ppm, 81/measure.CoinDiameterMM)
	}

	coin, bar := res.Objects[0], res.Objects[1]
	if !coin.IsCoin || coin.Name != measure.CoinName {
		t.Errorf("first object should be the coin, got %+v", coin)
	}
	if bar.Name != "Object 1" || bar.Kind != string(measure.KindTraced) {
		t.Errorf("unexpected bar: %+v", bar)
	}
	if bar.Measurements.Perimeter == nil {
		t.Fatal("bar should have a real perimeter")
	}
	wantMM := bar.Perimeter / *res.Calibration.PPM
	if math.Abs(*bar.Measurements.Perimeter-wantMM) > 0.01 {
		t.Errorf("bar perimeter: got %.2f mm, want %.2f", *bar.Measurements.Perimeter, wantMM)
	}
}

func TestObjectsDetect_WithoutCalibration(t *testing.T) {
	s := newTestServer(t)
	path := writeScene(t)

	var res sessionView
	mustCall(t, s, "objects_detect", map[string]interface{}{"path": path, "calibrate": false}, &res)
	if !res.CoinFound {
		t.Error("coin should still be reported")
	}
	if res.Calibrated {
		t.Error("session should not be calibrated")
	}
	for _, o := range res.Objects {
		if o.Measurements.Perimeter != nil {
			t.Errorf("%s has a real perimeter before calibration", o.Name)
		}
	}
	if res.Image != path {
		t.Errorf("detecting on a path should make it active, got %q", res.Image)
	}
}

func TestObjectsDetect_KeepsManualPolygons(t *testing.T) {
	s := newTestServer(t)
	mustCall(t, s, "image_load", map[string]interface{}{"path": writeScene(t)}, nil)
	mustCall(t, s, "polygon_build", map[string]interface{}{
		"points": []measure.Point{{X: 20, Y: 20}, {X: 60, Y: 20}, {X: 60, Y: 60}},
	}, nil)

	var res sessionView
	mustCall(t, s, "objects_detect", nil, &res)
	mustCall(t, s, "objects_detect", nil, &res)

	manual := 0
	for _, o := range res.Objects {
		if o.Kind == string(measure.KindManual) {
			manual++
			if o.Measurements.Perimeter == nil {
				t.Error("manual polygon should be rescaled by the coin calibration")
			}
		}
	}
	if manual != 1 || len(res.Objects) != 3 {
		t.Errorf("expected coin, bar and one manual polygon, got %+v", res.Objects)
	}
}

func TestObjectsDetect_NoImage(t *testing.T) {
	s := newTestServer(t)
	expectError(t, s, "objects_detect", nil, -32602)
}

func TestCoinDetect(t *testing.T) {
	s := newTestServer(t)
	path := writeScene(t)

	var res struct {
		Found         bool     `json:"found"`
		PixelDiameter float64  `json:"pixel_diameter"`
		PPM           *float64 `json:"ppm"`
		Calibrated    bool     `json:"calibrated"`
	}
	mustCall(t, s, "coin_detect", map[string]interface{}{"path": path}, &res)
	if !res.Found || res.PPM == nil || res.Calibrated {
		t.Fatalf("unexpected result: %+v", res)
	}
	if math.Abs(*res.PPM-res.PixelDiameter/measure.CoinDiameterMM) > 1e-9 {
		t.Errorf("ppm %v does not match diameter %v", *res.PPM, res.PixelDiameter)
	}
	if s.session.Calibration().Valid() || len(s.session.Objects()) != 0 {
		t.Error("coin_detect without calibrate must not touch the session")
	}

	mustCall(t, s, "coin_detect", map[string]interface{}{"path": path, "calibrate": true}, &res)
	if !res.Calibrated || !s.session.Calibration().Valid() {
		t.Error("coin_detect with calibrate should calibrate the session")
	}
	objs := s.session.Objects()
	if len(objs) != 1 || !objs[0].IsCoin {
		t.Errorf("session should hold the coin only, got %d objects", len(objs))
	}
}

func TestCalibrateScale(t *testing.T) {
	square := map[string]interface{}{
		"points": []measure.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}},
	}

	t.Run("pixel diameter", func(t *testing.T) {
		s := newTestServer(t)
		var res sessionView
		mustCall(t, s, "calibrate_scale", map[string]interface{}{"pixel_diameter": 53}, &res)
		if res.Calibration.PPM == nil || *res.Calibration.PPM != 2 {
			t.Fatalf("ppm: got %v", res.Calibration.PPM)
		}
		if len(res.Objects) != 1 || res.Objects[0].Kind != string(measure.KindSynthetic) {
			t.Errorf("expected a synthetic coin, got %+v", res.Objects)
		}

		var obj objectView
		mustCall(t, s, "polygon_build", square, &obj)
		if obj.Measurements.Perimeter == nil || *obj.Measurements.Perimeter != 200 {
			t.Errorf("square perimeter: got %v", obj.Measurements.Perimeter)
		}
	})

	t.Run("ppm rescales existing objects", func(t *testing.T) {
		s := newTestServer(t)
		mustCall(t, s, "polygon_build", square, nil)
		var res sessionView
		mustCall(t, s, "calibrate_scale", map[string]interface{}{"ppm": 4}, &res)
		if len(res.Objects) != 1 || res.Objects[0].Measurements.Perimeter == nil || *res.Objects[0].Measurements.Perimeter != 100 {
			t.Errorf("unexpected objects: %+v", res.Objects)
		}
	})

	t.Run("object as coin", func(t *testing.T) {
		s := newTestServer(t)
		var obj objectView
		mustCall(t, s, "polygon_build", square, &obj)
		var res sessionView
		mustCall(t, s, "calibrate_scale", map[string]interface{}{"coin_id": obj.ID}, &res)
		if len(res.Objects) != 1 || !res.Objects[0].IsCoin || res.Objects[0].ID != obj.ID {
			t.Fatalf("object should have become the coin: %+v", res.Objects)
		}
		if want := 100 / measure.CoinDiameterMM; math.Abs(*res.Calibration.PPM-want) > 1e-9 {
			t.Errorf("ppm: got %v, want %v", *res.Calibration.PPM, want)
		}
	})

	errorTests := []struct {
		name string
		args map[string]interface{}
	}{
		{"nothing given", map[string]interface{}{}},
		{"two sources", map[string]interface{}{"ppm": 2, "pixel_diameter": 53}},
		{"negative ppm", map[string]interface{}{"ppm": -1}},
		{"zero diameter", map[string]interface{}{"pixel_diameter": 0}},
		{"unknown object", map[string]interface{}{"coin_id": "missing"}},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			expectError(t, s, "calibrate_scale", tt.args, -32602)
			if s.session.Calibration().Valid() {
				t.Error("failed calibration must leave the session uncalibrated")
			}
		})
	}
}

func TestCalibrateTwoPoint(t *testing.T) {
	s := newTestServer(t)
	var res sessionView
	mustCall(t, s, "calibrate_two_point", map[string]interface{}{"x1": 10, "y1": 10, "x2": 63, "y2": 10}, &res)
	if res.Calibration.PPM == nil || *res.Calibration.PPM != 2 {
		t.Errorf("ppm: got %v", res.Calibration.PPM)
	}

	expectError(t, s, "calibrate_two_point", map[string]interface{}{"x1": 5, "y1": 5, "x2": 5, "y2": 5}, -32602)
	if got := s.session.Calibration().PPM; got != 2 {
		t.Errorf("failed calibration changed ppm to %v", got)
	}
}

func TestPolygonBuild_Invalid(t *testing.T) {
	s := newTestServer(t)
	expectError(t, s, "polygon_build", map[string]interface{}{
		"points": []measure.Point{{X: 0, Y: 0}, {X: 10, Y: 0}},
	}, -32602)
	if len(s.session.Objects()) != 0 {
		t.Error("invalid polygon must not be stored")
	}
}

func TestPolygonClick(t *testing.T) {
	type clickResult struct {
		Status string      `json:"status"`
		Points int         `json:"points"`
		Object *objectView `json:"object"`
	}
	click := func(t *testing.T, s *Server, x, y float64) clickResult {
		t.Helper()
		var res clickResult
		mustCall(t, s, "polygon_click", map[string]interface{}{"x": x, "y": y}, &res)
		return res
	}

	t.Run("closes near first vertex", func(t *testing.T) {
		s := newTestServer(t)
		for i, p := range [][2]float64{{10, 10}, {110, 10}, {110, 110}} {
			res := click(t, s, p[0], p[1])
			if res.Status != "pending" || res.Points != i+1 {
				t.Fatalf("click %d: %+v", i, res)
			}
		}
		res := click(t, s, 13, 12)
		if res.Status != "closed" || res.Object == nil {
			t.Fatalf("expected polygon to close, got %+v", res)
		}
		if res.Object.Name != "Object 1" || res.Object.Kind != string(measure.KindManual) {
			t.Errorf("unexpected object: %+v", res.Object)
		}
		if len(s.session.Objects()) != 1 {
			t.Error("closed polygon should be stored in the session")
		}
	})

	t.Run("too few points", func(t *testing.T) {
		s := newTestServer(t)
		click(t, s, 10, 10)
		click(t, s, 50, 50)
		res := click(t, s, 11, 11)
		if res.Status != "too_few_points" || res.Points != 2 {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("reset", func(t *testing.T) {
		s := newTestServer(t)
		click(t, s, 10, 10)
		click(t, s, 50, 50)
		var res struct {
			Discarded int `json:"discarded_points"`
		}
		mustCall(t, s, "polygon_reset", nil, &res)
		if res.Discarded != 2 {
			t.Errorf("discarded: got %d", res.Discarded)
		}
		if got := click(t, s, 200, 200); got.Points != 1 {
			t.Errorf("outline should restart, got %+v", got)
		}
	})
}

func TestObjectRenameAndRemove(t *testing.T) {
	s := newTestServer(t)
	var obj objectView
	mustCall(t, s, "polygon_build", map[string]interface{}{
		"points": []measure.Point{{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 40}},
	}, &obj)

	var renamed objectView
	mustCall(t, s, "object_rename", map[string]interface{}{"id": obj.ID, "name": "Bracket"}, &renamed)
	if renamed.Name != "Bracket" || renamed.Perimeter != obj.Perimeter {
		t.Errorf("unexpected rename result: %+v", renamed)
	}
	expectError(t, s, "object_rename", map[string]interface{}{"id": obj.ID, "name": ""}, -32602)
	expectError(t, s, "object_rename", map[string]interface{}{"id": "missing", "name": "x"}, -32602)

	var res sessionView
	mustCall(t, s, "object_remove", map[string]interface{}{"id": obj.ID}, &res)
	if len(res.Objects) != 0 {
		t.Errorf("object should be gone, got %+v", res.Objects)
	}
	expectError(t, s, "object_remove", map[string]interface{}{"id": obj.ID}, -32602)
}

func TestSessionReset(t *testing.T) {
	s := newTestServer(t)
	path := writeScene(t)
	mustCall(t, s, "objects_detect", map[string]interface{}{"path": path}, nil)
	mustCall(t, s, "polygon_click", map[string]interface{}{"x": 1, "y": 1}, nil)

	var res sessionView
	mustCall(t, s, "session_reset", nil, &res)
	if len(res.Objects) != 0 || res.Calibrated {
		t.Errorf("session should be empty, got %+v", res)
	}
	if res.Image != path {
		t.Errorf("active image should survive a reset, got %q", res.Image)
	}
	if len(s.collector.Points()) != 0 {
		t.Error("open outline should be discarded")
	}
}

func TestImageLoad_SwitchingImageResetsSession(t *testing.T) {
	s := newTestServer(t)
	first, second := writeScene(t), writeScene(t)
	mustCall(t, s, "objects_detect", map[string]interface{}{"path": first}, nil)

	mustCall(t, s, "image_load", map[string]interface{}{"path": first}, nil)
	if len(s.session.Objects()) == 0 {
		t.Error("reloading the active image should keep the session")
	}
	mustCall(t, s, "image_load", map[string]interface{}{"path": second}, nil)
	if len(s.session.Objects()) != 0 || s.session.Calibration().Valid() {
		t.Error("switching images should clear the session")
	}
}

func TestImagePreviewMask(t *testing.T) {
	s := newTestServer(t)
	path := writeScene(t)

	for _, pass := range []string{"", "generic", "coin"} {
		t.Run("pass "+pass, func(t *testing.T) {
			var res struct {
				Width      int     `json:"width"`
				Height     int     `json:"height"`
				Foreground float64 `json:"foreground_percent"`
				Image      string  `json:"image_base64"`
			}
			mustCall(t, s, "image_preview_mask", map[string]interface{}{"path": path, "pass": pass}, &res)
			if res.Width != 400 || res.Height != 300 || res.Image == "" {
				t.Errorf("unexpected preview: %dx%d", res.Width, res.Height)
			}
			// coin is about 5000 px² and the bar 9000 px² of 120000
			if res.Foreground < 8 || res.Foreground > 16 {
				t.Errorf("foreground: got %.1f%%", res.Foreground)
			}
		})
	}

	t.Run("unknown pass", func(t *testing.T) {
		expectError(t, s, "image_preview_mask", map[string]interface{}{"path": path, "pass": "sepia"}, -32602)
	})
}

func TestImageCropObject(t *testing.T) {
	s := newTestServer(t)
	var det sessionView
	mustCall(t, s, "objects_detect", map[string]interface{}{"path": writeScene(t)}, &det)
	bar := det.Objects[1]

	var res struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	mustCall(t, s, "image_crop_object", map[string]interface{}{"id": bar.ID}, &res)
	if math.Abs(float64(res.Width)-(bar.BoundingBox.Width+20)) > 1 ||
		math.Abs(float64(res.Height)-(bar.BoundingBox.Height+20)) > 1 {
		t.Errorf("crop %dx%d does not match padded box %+v", res.Width, res.Height, bar.BoundingBox)
	}

	mustCall(t, s, "image_crop_object", map[string]interface{}{"id": bar.ID, "padding": 0, "scale": 0.5}, &res)
	if math.Abs(float64(res.Width)-bar.BoundingBox.Width/2) > 1 {
		t.Errorf("scaled crop width: got %d", res.Width)
	}

	expectError(t, s, "image_crop_object", map[string]interface{}{"id": "missing"}, -32602)
	expectError(t, s, "image_crop_object", map[string]interface{}{"id": bar.ID, "padding": -1}, -32602)
}

func TestImageMeasureDistance(t *testing.T) {
	s := newTestServer(t)
	mustCall(t, s, "image_load", map[string]interface{}{"path": writeScene(t)}, nil)
	args := map[string]interface{}{"x1": 10, "y1": 10, "x2": 70, "y2": 90}

	var res struct {
		Pixels float64  `json:"distance_pixels"`
		MM     *float64 `json:"distance_mm"`
	}
	mustCall(t, s, "image_measure_distance", args, &res)
	if res.Pixels != 100 || res.MM != nil {
		t.Errorf("uncalibrated: got %+v", res)
	}

	mustCall(t, s, "calibrate_scale", map[string]interface{}{"ppm": 4}, nil)
	mustCall(t, s, "image_measure_distance", args, &res)
	if res.MM == nil || *res.MM != 25 {
		t.Errorf("calibrated: got %v mm", res.MM)
	}

	expectError(t, s, "image_measure_distance", map[string]interface{}{"x1": 0, "y1": 0, "x2": 900, "y2": 0}, -32602)
}

func TestImagesDetectBatch(t *testing.T) {
	s := newTestServer(t, WithBatchWorkers(2))
	good := writeScene(t)

	var res struct {
		Images []struct {
			Path      string       `json:"path"`
			CoinFound bool         `json:"coin_found"`
			Objects   []objectView `json:"objects"`
			Error     string       `json:"error"`
		} `json:"images"`
	}
	mustCall(t, s, "images_detect_batch", map[string]interface{}{
		"paths": []string{good, "/nonexistent/image.png", good},
	}, &res)

	if len(res.Images) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res.Images))
	}
	for _, i := range []int{0, 2} {
		it := res.Images[i]
		if it.Error != "" || !it.CoinFound || len(it.Objects) != 2 {
			t.Errorf("image %d: %+v", i, it)
		}
	}
	if res.Images[1].Error == "" || res.Images[1].Path != "/nonexistent/image.png" {
		t.Errorf("missing image should report its own error: %+v", res.Images[1])
	}
	if len(s.session.Objects()) != 0 {
		t.Error("batch detection must not touch the session")
	}

	expectError(t, s, "images_detect_batch", map[string]interface{}{"paths": []string{}}, -32602)
}

func TestRuntimeStatus(t *testing.T) {
	s := newTestServer(t, WithPreset("otsu"))

	var res struct {
		State  string `json:"state"`
		Preset string `json:"preset"`
	}
	mustCall(t, s, "runtime_status", nil, &res)
	if res.State != vision.StateUninitialized.String() || res.Preset != "otsu" {
		t.Errorf("fresh server: %+v", res)
	}

	mustCall(t, s, "objects_detect", map[string]interface{}{"path": writeScene(t)}, nil)
	mustCall(t, s, "runtime_retry", nil, &res)
	if res.State != vision.StateReady.String() {
		t.Errorf("retry on a ready runtime should leave it ready, got %s", res.State)
	}
}

func TestRuntimeFailure(t *testing.T) {
	gate := vision.NewGate(func(ctx context.Context) (*vision.Runtime, error) {
		return nil, errors.New("filters unavailable")
	})
	det, err := detection.New(detection.DefaultConfig(), gate)
	if err != nil {
		t.Fatalf("detection.New failed: %v", err)
	}
	s := New(det)
	path := writeScene(t)

	expectError(t, s, "objects_detect", map[string]interface{}{"path": path}, -32000)
	expectError(t, s, "image_preview_mask", map[string]interface{}{"path": path}, -32000)

	var res struct {
		State string `json:"state"`
	}
	mustCall(t, s, "runtime_status", nil, &res)
	if res.State != vision.StateFailed.String() {
		t.Errorf("state: got %s", res.State)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer(t)

	t.Run("unknown tool", func(t *testing.T) {
		expectError(t, s, "image_sepia", nil, -32000)
	})

	t.Run("malformed arguments", func(t *testing.T) {
		expectError(t, s, "polygon_click", "not an object", -32602)
	})

	t.Run("malformed params", func(t *testing.T) {
		resp := s.handleToolsCall(context.Background(), &MCPRequest{
			JSONRPC: "2.0",
			ID:      1,
			Params:  json.RawMessage(`[1, 2]`),
		})
		if resp.Error == nil || resp.Error.Code != -32602 {
			t.Errorf("expected -32602, got %+v", resp.Error)
		}
	})
}
