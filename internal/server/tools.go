package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(optional bool) map[string]interface{} {
	desc := "Absolute path to the image file"
	if optional {
		desc += " (default: the image passed to image_load)"
	}
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

func numberProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": desc,
	}
}

func idProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Object ID as returned by objects_list",
	}
}

func pointsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Polygon vertices in pixel coordinates, in order",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number"},
				"y": map[string]interface{}{"type": "number"},
			},
			"required": []string{"x", "y"},
		},
	}
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. Sets this as the active image; switching images clears the measurement session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(false),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_preview_mask",
			Description: "Return the binary foreground mask a detection pass sees, as a base64-encoded PNG. Use it to tune presets when objects are missed or merged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(true),
					"pass": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"generic", "coin"},
						"description": "Which preprocessing pass to preview (default generic)",
						"default":     "generic",
					},
				},
			},
		},
		{
			Name:        "image_crop_object",
			Description: "Crop the active image around a session object's bounding box and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": idProperty(),
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the bounding box (default 10)",
						"default":     10,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for output (default 1.0)",
						"default":     1.0,
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "image_measure_distance",
			Description: "Measure the distance between two points in pixels, and in millimetres once the session is calibrated.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(true),
					"x1":   numberProperty("First point X coordinate"),
					"y1":   numberProperty("First point Y coordinate"),
					"x2":   numberProperty("Second point X coordinate"),
					"y2":   numberProperty("Second point Y coordinate"),
				},
				"required": []string{"x1", "y1", "x2", "y2"},
			},
		},

		// Detection
		{
			Name:        "objects_detect",
			Description: "Detect measurable objects and the reference coin on the image. Replaces previously detected objects in the session; manual polygons are kept. The coin, when found, calibrates the session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(true),
					"calibrate": map[string]interface{}{
						"type":        "boolean",
						"description": "Calibrate from the detected coin (default true)",
						"default":     true,
					},
				},
			},
		},
		{
			Name:        "coin_detect",
			Description: "Look for the reference coin alone and report its pixel diameter and the resulting scale. Not finding a coin is a normal result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(true),
					"calibrate": map[string]interface{}{
						"type":        "boolean",
						"description": "Also calibrate the session from the coin (default false)",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "images_detect_batch",
			Description: "Detect objects on several images concurrently without touching the session. Each image reports its own objects or error.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the images",
					},
				},
				"required": []string{"paths"},
			},
		},

		// Calibration
		{
			Name:        "calibrate_scale",
			Description: "Set the session scale from exactly one of: a coin diameter in pixels, a session object to use as the coin, or pixels per millimetre. Every object is re-measured.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pixel_diameter": numberProperty("Coin diameter in pixels"),
					"coin_id": map[string]interface{}{
						"type":        "string",
						"description": "ID of the session object that is the coin",
					},
					"ppm": numberProperty("Pixels per millimetre"),
				},
			},
		},
		{
			Name:        "calibrate_two_point",
			Description: "Calibrate from two points placed on opposite edges of the coin. Their distance is taken as the coin diameter.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x1": numberProperty("First point X coordinate"),
					"y1": numberProperty("First point Y coordinate"),
					"x2": numberProperty("Second point X coordinate"),
					"y2": numberProperty("Second point Y coordinate"),
				},
				"required": []string{"x1", "y1", "x2", "y2"},
			},
		},

		// Manual polygons
		{
			Name:        "polygon_build",
			Description: "Add a manually outlined object from at least three vertices. It is measured with the current calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"points": pointsProperty(),
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Optional label (default \"Object n\")",
					},
				},
				"required": []string{"points"},
			},
		},
		{
			Name:        "polygon_click",
			Description: "Add one vertex to the polygon being outlined. A click near the first vertex closes it and adds the object to the session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": numberProperty("Click X coordinate"),
					"y": numberProperty("Click Y coordinate"),
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "polygon_reset",
			Description: "Discard the vertices of the polygon being outlined.",
			InputSchema: noArgs(),
		},

		// Session
		{
			Name:        "objects_list",
			Description: "List every object of the session, coin first, with pixel and real measurements and the calibration.",
			InputSchema: noArgs(),
		},
		{
			Name:        "object_rename",
			Description: "Change an object's label. Measurements are unaffected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": idProperty(),
					"name": map[string]interface{}{
						"type":        "string",
						"description": "New label",
					},
				},
				"required": []string{"id", "name"},
			},
		},
		{
			Name:        "object_remove",
			Description: "Remove an object from the session. Removing the coin keeps the calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": idProperty(),
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "session_reset",
			Description: "Discard every object and the calibration. The active image stays loaded.",
			InputSchema: noArgs(),
		},

		// Runtime
		{
			Name:        "runtime_status",
			Description: "Report whether the image processing runtime is initializing, ready or failed.",
			InputSchema: noArgs(),
		},
		{
			Name:        "runtime_retry",
			Description: "Start a new initialization attempt after the processing runtime failed.",
			InputSchema: noArgs(),
		},
	}
}
