package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/coin-measure-mcp/internal/detection"
	"github.com/ironsheep/coin-measure-mcp/internal/imaging"
	"github.com/ironsheep/coin-measure-mcp/internal/measure"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "objects_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments and unknown object IDs return -32602; any other tool failure
// returns -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if s.metrics != nil {
		s.metrics.ObserveToolCall(params.Name, err != nil)
	}
	if err != nil {
		s.log.Warn().Str("tool", params.Name).Err(err).Msg("tool failed")
		if errors.Is(err, measure.ErrValidation) || errors.Is(err, measure.ErrObjectNotFound) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Msg("tool call complete")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image
	case "image_load":
		return s.handleImageLoad(args)
	case "image_preview_mask":
		return s.handleImagePreviewMask(ctx, args)
	case "image_crop_object":
		return s.handleImageCropObject(args)
	case "image_measure_distance":
		return s.handleImageMeasureDistance(args)

	// Detection
	case "objects_detect":
		return s.handleObjectsDetect(ctx, args)
	case "coin_detect":
		return s.handleCoinDetect(ctx, args)
	case "images_detect_batch":
		return s.handleImagesDetectBatch(ctx, args)

	// Calibration
	case "calibrate_scale":
		return s.handleCalibrateScale(args)
	case "calibrate_two_point":
		return s.handleCalibrateTwoPoint(args)

	// Manual polygons
	case "polygon_build":
		return s.handlePolygonBuild(args)
	case "polygon_click":
		return s.handlePolygonClick(args)
	case "polygon_reset":
		return s.handlePolygonReset()

	// Session
	case "objects_list":
		return s.sessionView(), nil
	case "object_rename":
		return s.handleObjectRename(args)
	case "object_remove":
		return s.handleObjectRemove(args)
	case "session_reset":
		return s.handleSessionReset()

	// Runtime
	case "runtime_status":
		return s.runtimeStatus(), nil
	case "runtime_retry":
		s.detector.Gate().Retry(context.WithoutCancel(ctx))
		return s.runtimeStatus(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments into v. Missing arguments leave v at
// its zero value.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &measure.ValidationError{Field: "arguments", Reason: err.Error()}
	}
	return nil
}

// activate makes path the active image. Switching to a different image
// discards the session and any half-built polygon.
func (s *Server) activate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == s.active {
		return
	}
	s.log.Info().Str("path", path).Msg("active image changed")
	s.active = path
	s.session.Reset()
	s.collector.Reset()
}

// resolveImage loads path, or the active image when path is empty.
func (s *Server) resolveImage(path string) (string, image.Image, error) {
	if path == "" {
		s.mu.Lock()
		path = s.active
		s.mu.Unlock()
	}
	if path == "" {
		return "", nil, &measure.ValidationError{Field: "path", Reason: "no image loaded; call image_load or pass a path"}
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, img, nil
}

type sessionResult struct {
	Image       string              `json:"image,omitempty"`
	Calibrated  bool                `json:"calibrated"`
	Calibration measure.Calibration `json:"calibration"`
	Objects     []*measure.Object   `json:"objects"`
}

func (s *Server) sessionView() *sessionResult {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	cal := s.session.Calibration()
	return &sessionResult{
		Image:       active,
		Calibrated:  cal.Valid(),
		Calibration: cal,
		Objects:     s.session.Objects(),
	}
}

func (s *Server) observeCalibration(source string, cal measure.Calibration) {
	if s.metrics != nil {
		s.metrics.ObserveCalibration(source)
	}
	s.log.Info().Str("source", source).Float64("ppm", cal.PPM).Msg("session calibrated")
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

type imageLoadResult struct {
	Path string `json:"path"`
	*imaging.ImageInfo
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, &measure.ValidationError{Field: "path", Reason: "is required"}
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	s.activate(a.Path)
	return &imageLoadResult{Path: a.Path, ImageInfo: info}, nil
}

type imagePreviewMaskArgs struct {
	Path string `json:"path"`
	Pass string `json:"pass"`
}

func (s *Server) handleImagePreviewMask(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imagePreviewMaskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, img, err := s.resolveImage(a.Path)
	if err != nil {
		return nil, err
	}
	rt, err := s.detector.Gate().Wait(ctx)
	if err != nil {
		return nil, err
	}

	pre := rt.Generic
	switch a.Pass {
	case "", detection.PassGeneric:
	case detection.PassCoin:
		if rt.Coin == nil {
			return nil, errors.New("coin pass is disabled in the detection config")
		}
		pre = rt.Coin
	default:
		return nil, &measure.ValidationError{Field: "pass", Reason: fmt.Sprintf("must be %q or %q", detection.PassGeneric, detection.PassCoin)}
	}
	return imaging.MaskPreview(img, pre)
}

type imageCropObjectArgs struct {
	ID      string  `json:"id"`
	Padding *int    `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleImageCropObject(args json.RawMessage) (interface{}, error) {
	var a imageCropObjectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	padding := 10
	if a.Padding != nil {
		padding = *a.Padding
	}
	if padding < 0 {
		return nil, &measure.ValidationError{Field: "padding", Reason: "must not be negative"}
	}

	obj, err := s.session.Get(a.ID)
	if err != nil {
		return nil, err
	}
	_, img, err := s.resolveImage("")
	if err != nil {
		return nil, err
	}
	b := obj.BoundingBox
	return imaging.CropRegion(img, b.X, b.Y, b.Width, b.Height, padding, a.Scale)
}

type imageMeasureDistanceArgs struct {
	Path string  `json:"path"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

type distanceResult struct {
	*imaging.DistanceResult
	DistanceMM *float64 `json:"distance_mm"`
}

func (s *Server) handleImageMeasureDistance(args json.RawMessage) (interface{}, error) {
	var a imageMeasureDistanceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, img, err := s.resolveImage(a.Path)
	if err != nil {
		return nil, err
	}
	d, err := imaging.MeasureDistance(img, a.X1, a.Y1, a.X2, a.Y2)
	if err != nil {
		return nil, &measure.ValidationError{Field: "points", Reason: err.Error()}
	}
	res := &distanceResult{DistanceResult: d}
	if mm, ok := measure.ToMillimetres(d.DistancePixels, s.session.Calibration().PPM); ok {
		res.DistanceMM = &mm
	}
	return res, nil
}

// === Detection Handlers ===

type objectsDetectArgs struct {
	Path      string `json:"path"`
	Calibrate *bool  `json:"calibrate"`
}

type objectsDetectResult struct {
	CoinFound bool `json:"coin_found"`
	Detected  int  `json:"detected"`
	*sessionResult
}

func (s *Server) handleObjectsDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a objectsDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	calibrate := a.Calibrate == nil || *a.Calibrate

	path, img, err := s.resolveImage(a.Path)
	if err != nil {
		return nil, err
	}
	s.activate(path)

	objs, err := s.detector.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	s.session.ReplaceDetected(objs)

	coinFound := len(objs) > 0 && objs[0].IsCoin
	if coinFound && calibrate {
		cal, err := s.session.CalibrateWithCoin(objs[0])
		if err != nil {
			return nil, err
		}
		s.observeCalibration("coin", cal)
	}

	return &objectsDetectResult{
		CoinFound:     coinFound,
		Detected:      len(objs),
		sessionResult: s.sessionView(),
	}, nil
}

type coinDetectArgs struct {
	Path      string `json:"path"`
	Calibrate bool   `json:"calibrate"`
}

type coinDetectResult struct {
	detection.CoinResult
	PPM        *float64 `json:"ppm"`
	Calibrated bool     `json:"calibrated"`
}

func (s *Server) handleCoinDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a coinDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	path, img, err := s.resolveImage(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Calibrate {
		s.activate(path)
	}

	res, err := s.detector.DetectCoinOnly(ctx, img)
	if err != nil {
		return nil, err
	}
	out := &coinDetectResult{CoinResult: res}
	if !res.Found {
		return out, nil
	}
	if ppm, err := measure.ScaleForDiameter(res.PixelDiameter, s.coinDiameterMM); err == nil {
		out.PPM = &ppm
	}
	if a.Calibrate {
		cal, err := s.session.CalibrateWithCoin(res.Coin)
		if err != nil {
			return nil, err
		}
		s.observeCalibration("coin", cal)
		out.Calibrated = true
	}
	return out, nil
}

type imagesDetectBatchArgs struct {
	Paths []string `json:"paths"`
}

type batchItem struct {
	Path      string            `json:"path"`
	CoinFound bool              `json:"coin_found"`
	Objects   []*measure.Object `json:"objects,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// handleImagesDetectBatch detects objects on several images without touching
// the session. Each image succeeds or fails on its own.
func (s *Server) handleImagesDetectBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imagesDetectBatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, &measure.ValidationError{Field: "paths", Reason: "must list at least one image"}
	}

	items := make([]batchItem, len(a.Paths))
	imgs := make([]image.Image, 0, len(a.Paths))
	index := make([]int, 0, len(a.Paths))
	for i, p := range a.Paths {
		items[i].Path = p
		img, err := s.cache.Load(p)
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		imgs = append(imgs, img)
		index = append(index, i)
	}

	for j, r := range s.detector.DetectBatch(ctx, imgs, s.batchWorkers) {
		it := &items[index[j]]
		if r.Err != nil {
			it.Error = r.Err.Error()
			continue
		}
		it.Objects = r.Objects
		it.CoinFound = len(r.Objects) > 0 && r.Objects[0].IsCoin
	}
	return map[string]interface{}{"images": items}, nil
}

// === Calibration Handlers ===

type calibrateScaleArgs struct {
	PixelDiameter *float64 `json:"pixel_diameter"`
	CoinID        string   `json:"coin_id"`
	PPM           *float64 `json:"ppm"`
}

func (s *Server) handleCalibrateScale(args json.RawMessage) (interface{}, error) {
	var a calibrateScaleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	given := 0
	for _, set := range []bool{a.PixelDiameter != nil, a.CoinID != "", a.PPM != nil} {
		if set {
			given++
		}
	}
	if given != 1 {
		return nil, &measure.ValidationError{Field: "arguments", Reason: "give exactly one of pixel_diameter, coin_id or ppm"}
	}

	var (
		cal    measure.Calibration
		source string
		err    error
	)
	switch {
	case a.PixelDiameter != nil:
		source = "distance"
		cal, err = s.session.CalibrateFromDistance(*a.PixelDiameter)
	case a.PPM != nil:
		source = "ppm"
		cal, err = s.session.Recalibrate(*a.PPM)
	default:
		source = "object"
		cal, err = s.calibrateWithObject(a.CoinID)
	}
	if err != nil {
		return nil, err
	}
	s.observeCalibration(source, cal)
	return s.sessionView(), nil
}

// calibrateWithObject promotes a session object to the coin reference.
func (s *Server) calibrateWithObject(id string) (measure.Calibration, error) {
	obj, err := s.session.Get(id)
	if err != nil {
		return measure.Calibration{}, err
	}
	if _, err := measure.ScaleForDiameter(obj.PixelDiameter(), s.coinDiameterMM); err != nil {
		return measure.Calibration{}, err
	}
	if err := s.session.Remove(id); err != nil {
		return measure.Calibration{}, err
	}
	return s.session.CalibrateWithCoin(obj)
}

type calibrateTwoPointArgs struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (s *Server) handleCalibrateTwoPoint(args json.RawMessage) (interface{}, error) {
	var a calibrateTwoPointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cal, err := s.session.CalibrateFromPoints(
		measure.Point{X: a.X1, Y: a.Y1},
		measure.Point{X: a.X2, Y: a.Y2},
	)
	if err != nil {
		return nil, err
	}
	s.observeCalibration("two_point", cal)
	return s.sessionView(), nil
}

// === Manual Polygon Handlers ===

type polygonBuildArgs struct {
	Points []measure.Point `json:"points"`
	Name   string          `json:"name"`
}

func (s *Server) handlePolygonBuild(args json.RawMessage) (interface{}, error) {
	var a polygonBuildArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	obj, err := measure.BuildManualPolygon(a.Points)
	if err != nil {
		return nil, err
	}
	obj.Name = a.Name
	return s.session.Add(obj), nil
}

type polygonClickArgs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type polygonClickResult struct {
	Status string          `json:"status"`
	Points int             `json:"points"`
	Object *measure.Object `json:"object,omitempty"`
}

func (s *Server) handlePolygonClick(args json.RawMessage) (interface{}, error) {
	var a polygonClickArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	res, err := s.collector.Add(measure.Point{X: a.X, Y: a.Y})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := &polygonClickResult{Status: res.Status.String(), Points: res.Points}
	if res.Status == measure.CollectClosed {
		out.Object = s.session.Add(res.Object)
	}
	return out, nil
}

func (s *Server) handlePolygonReset() (interface{}, error) {
	s.mu.Lock()
	discarded := len(s.collector.Points())
	s.collector.Reset()
	s.mu.Unlock()
	return map[string]interface{}{"discarded_points": discarded}, nil
}

// === Session Handlers ===

type objectRenameArgs struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleObjectRename(args json.RawMessage) (interface{}, error) {
	var a objectRenameArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.session.Rename(a.ID, a.Name); err != nil {
		return nil, err
	}
	return s.session.Get(a.ID)
}

type objectRemoveArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleObjectRemove(args json.RawMessage) (interface{}, error) {
	var a objectRemoveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.session.Remove(a.ID); err != nil {
		return nil, err
	}
	return s.sessionView(), nil
}

func (s *Server) handleSessionReset() (interface{}, error) {
	s.mu.Lock()
	s.collector.Reset()
	s.mu.Unlock()
	s.session.Reset()
	return s.sessionView(), nil
}

type runtimeStatusResult struct {
	State  string `json:"state"`
	Preset string `json:"preset,omitempty"`
}

func (s *Server) runtimeStatus() *runtimeStatusResult {
	return &runtimeStatusResult{
		State:  s.detector.Gate().State().String(),
		Preset: s.preset,
	}
}
