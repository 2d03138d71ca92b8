// Package server implements the MCP (Model Context Protocol) server for
// coin-calibrated object measurement.
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Session
//
// The server holds one measurement session for the active image: the objects
// found or outlined on it and the calibration that converts their pixel
// lengths to millimetres. Loading a different image starts a new session.
//
// # Tools
//
// Image:
//   - image_load: Load an image and make it active
//   - image_preview_mask: Show the binary mask a detection pass sees
//   - image_crop_object: Crop around a session object
//   - image_measure_distance: Measure between two points
//
// Detection:
//   - objects_detect: Find objects and the coin, calibrating from the coin
//   - coin_detect: Find the coin alone
//   - images_detect_batch: Detect on several images concurrently
//
// Calibration:
//   - calibrate_scale: Scale from a coin diameter, a coin object or ppm
//   - calibrate_two_point: Scale from two points across the coin
//
// Manual polygons:
//   - polygon_build: Add an object from a vertex list
//   - polygon_click: Outline an object one click at a time
//   - polygon_reset: Discard the open outline
//
// Session:
//   - objects_list, object_rename, object_remove, session_reset
//
// Runtime:
//   - runtime_status, runtime_retry
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses. Invalid arguments and
// unknown object IDs use code -32602; every other failure, including a vision
// runtime that failed or is still initializing, uses -32000. The data field
// carries the Go error string.
//
// # Usage
//
//	gate := detection.NewGate(cfg)
//	det, err := detection.New(cfg, gate)
//	if err != nil {
//	    return err
//	}
//	srv := server.New(det, server.WithLogger(log))
//	return srv.Run(ctx)
package server
