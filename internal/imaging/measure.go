package imaging

import (
	"fmt"
	"image"
	"math"
)

// DistanceResult contains measurement information
type DistanceResult struct {
	DistancePixels        float64 `json:"distance_pixels"`
	DeltaX                float64 `json:"delta_x"`
	DeltaY                float64 `json:"delta_y"`
	AngleDegrees          float64 `json:"angle_degrees"`
	DistancePercentWidth  float64 `json:"distance_percent_width"`
	DistancePercentHeight float64 `json:"distance_percent_height"`
}

// MeasureDistance calculates the pixel distance between two points of img.
// Points may carry sub-pixel coordinates but must lie within the image.
func MeasureDistance(img image.Image, x1, y1, x2, y2 float64) (*DistanceResult, error) {
	bounds := img.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())

	for _, p := range [][2]float64{{x1, y1}, {x2, y2}} {
		if p[0] < 0 || p[1] < 0 || p[0] > width || p[1] > height {
			return nil, fmt.Errorf("point (%.1f,%.1f) outside image bounds %dx%d", p[0], p[1], bounds.Dx(), bounds.Dy())
		}
	}

	deltaX := x2 - x1
	deltaY := y2 - y1

	distance := math.Hypot(deltaX, deltaY)

	// Calculate angle in degrees (0 = horizontal right, 90 = down)
	angle := math.Atan2(deltaY, deltaX) * 180 / math.Pi

	return &DistanceResult{
		DistancePixels:        math.Round(distance*100) / 100,
		DeltaX:                deltaX,
		DeltaY:                deltaY,
		AngleDegrees:          math.Round(angle*10) / 10,
		DistancePercentWidth:  math.Round(distance/width*1000) / 10,
		DistancePercentHeight: math.Round(distance/height*1000) / 10,
	}, nil
}
