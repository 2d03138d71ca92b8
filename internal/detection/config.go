package detection

import (
	"fmt"
	"sort"

	"github.com/ironsheep/coin-measure-mcp/internal/imaging"
)

// Config holds every tunable threshold of the detection pipeline.
//
// Generic drives the object pass. Coin drives the dedicated coin pass, which
// runs only when the object pass classifies no coin; it normally closes
// larger gaps since worn or shiny coins break up under edge detection.
type Config struct {
	Generic imaging.PreprocessConfig `json:"generic"`
	Coin    imaging.PreprocessConfig `json:"coin"`

	// CoinPass enables the dedicated coin pass.
	CoinPass bool `json:"coin_pass"`

	// AreaMin is the smallest accepted contour area in px².
	AreaMin float64 `json:"area_min"`
	// AreaMaxFraction rejects contours covering more than this share of the
	// image, which are usually the frame or the table edge.
	AreaMaxFraction float64 `json:"area_max_fraction"`
	// BorderMargin rejects contours whose bounding box comes within this many
	// pixels of the image frame. Must be at least 1.
	BorderMargin int `json:"border_margin"`
	// MinDimension rejects slivers narrower or shorter than this, in px.
	MinDimension int `json:"min_dimension"`
	// SimplifyEpsilon is the Douglas-Peucker tolerance as a fraction of the
	// contour arc length.
	SimplifyEpsilon float64 `json:"simplify_epsilon"`

	CoinCircularityMin  float64 `json:"coin_circularity_min"`
	CoinAreaMin         float64 `json:"coin_area_min"`
	CoinAreaMaxFraction float64 `json:"coin_area_max_fraction"`
	CoinAspectMin       float64 `json:"coin_aspect_min"`
	CoinAspectMax       float64 `json:"coin_aspect_max"`
}

// DefaultConfig returns the Canny-based preset.
func DefaultConfig() Config {
	generic := imaging.DefaultPreprocessConfig()
	coin := generic
	coin.MorphKernel = 15

	return Config{
		Generic:             generic,
		Coin:                coin,
		CoinPass:            true,
		AreaMin:             3000,
		AreaMaxFraction:     0.5,
		BorderMargin:        8,
		MinDimension:        25,
		SimplifyEpsilon:     0.02,
		CoinCircularityMin:  0.75,
		CoinAreaMin:         2000,
		CoinAreaMaxFraction: 0.15,
		CoinAspectMin:       0.65,
		CoinAspectMax:       1.35,
	}
}

var presets = map[string]func() Config{
	"default": DefaultConfig,

	// Global threshold for evenly lit photos of dark objects on a light sheet.
	"otsu": func() Config {
		c := DefaultConfig()
		c.Generic.Method = imaging.MethodOtsu
		c.Generic.Smoothing = imaging.SmoothGaussian
		c.Generic.MorphKernel = 5
		c.Coin = c.Generic
		c.Coin.MorphKernel = 11
		return c
	},

	// Local threshold for uneven lighting and shadows.
	"adaptive": func() Config {
		c := DefaultConfig()
		c.Generic.Method = imaging.MethodAdaptive
		c.Coin = c.Generic
		c.Coin.MorphKernel = 15
		return c
	},

	// Looser roundness and heavier gap filling for worn or reflective coins.
	"worn-coin": func() Config {
		c := DefaultConfig()
		c.Coin.Channel = imaging.ChannelValue
		c.Coin.MorphKernel = 21
		c.CoinCircularityMin = 0.55
		return c
	},
}

// Preset returns the named configuration.
func Preset(name string) (Config, error) {
	f, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown detection preset %q (available: %v)", name, PresetNames())
	}
	return f(), nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate reports the first inconsistent threshold.
func (c Config) Validate() error {
	if err := c.Generic.Validate(); err != nil {
		return fmt.Errorf("generic pass: %w", err)
	}
	if c.CoinPass {
		if err := c.Coin.Validate(); err != nil {
			return fmt.Errorf("coin pass: %w", err)
		}
	}

	switch {
	case c.AreaMin < 0:
		return fmt.Errorf("area_min must be >= 0, got %v", c.AreaMin)
	case c.AreaMaxFraction <= 0 || c.AreaMaxFraction > 1:
		return fmt.Errorf("area_max_fraction must be in (0, 1], got %v", c.AreaMaxFraction)
	case c.BorderMargin < 1:
		return fmt.Errorf("border_margin must be >= 1, got %d", c.BorderMargin)
	case c.MinDimension < 0:
		return fmt.Errorf("min_dimension must be >= 0, got %d", c.MinDimension)
	case c.SimplifyEpsilon <= 0 || c.SimplifyEpsilon >= 1:
		return fmt.Errorf("simplify_epsilon must be in (0, 1), got %v", c.SimplifyEpsilon)
	case c.CoinCircularityMin <= 0 || c.CoinCircularityMin > MaxCircularity:
		return fmt.Errorf("coin_circularity_min must be in (0, 1.2], got %v", c.CoinCircularityMin)
	case c.CoinAreaMin < 0:
		return fmt.Errorf("coin_area_min must be >= 0, got %v", c.CoinAreaMin)
	case c.CoinAreaMaxFraction <= 0 || c.CoinAreaMaxFraction > 1:
		return fmt.Errorf("coin_area_max_fraction must be in (0, 1], got %v", c.CoinAreaMaxFraction)
	case c.CoinAspectMin <= 0 || c.CoinAspectMax < c.CoinAspectMin:
		return fmt.Errorf("coin aspect band [%v, %v] is empty", c.CoinAspectMin, c.CoinAspectMax)
	}
	return nil
}
