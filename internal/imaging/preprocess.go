package imaging

import (
	"fmt"
	"image"
)

// Channel selects the intensity channel extracted from a colour image.
type Channel string

const (
	ChannelGray  Channel = "gray"
	ChannelValue Channel = "value"
)

// Smoothing selects the noise filter applied before binarization.
type Smoothing string

const (
	SmoothBilateral Smoothing = "bilateral"
	SmoothGaussian  Smoothing = "gaussian"
	SmoothNone      Smoothing = "none"
)

// Method selects the binarization strategy.
type Method string

const (
	MethodCanny    Method = "canny"
	MethodOtsu     Method = "otsu"
	MethodAdaptive Method = "adaptive"
)

// PreprocessConfig describes how an image is reduced to a binary mask.
type PreprocessConfig struct {
	Channel   Channel   `json:"channel"`
	Smoothing Smoothing `json:"smoothing"`

	BilateralDiameter   int     `json:"bilateral_diameter"`
	BilateralSigmaColor float64 `json:"bilateral_sigma_color"`
	BilateralSigmaSpace float64 `json:"bilateral_sigma_space"`
	GaussianSigma       float64 `json:"gaussian_sigma"`

	Method   Method  `json:"method"`
	CannyLow float64 `json:"canny_low"`
	// CannyHigh must be >= CannyLow.
	CannyHigh float64 `json:"canny_high"`

	// DilateRadius thickens Canny edges before closing.
	DilateRadius float64 `json:"dilate_radius"`
	// MorphKernel is the width in pixels of the closing window. Zero disables
	// closing.
	MorphKernel int `json:"morph_kernel"`

	// AdaptiveBlock is the odd neighbourhood size for adaptive thresholding.
	AdaptiveBlock int     `json:"adaptive_block"`
	AdaptiveC     float64 `json:"adaptive_c"`
}

// DefaultPreprocessConfig returns the edge-based pipeline: grayscale,
// bilateral smoothing, Canny 50/150, one pixel of dilation and a 9 px closing.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		Channel:             ChannelGray,
		Smoothing:           SmoothBilateral,
		BilateralDiameter:   9,
		BilateralSigmaColor: 75,
		BilateralSigmaSpace: 75,
		GaussianSigma:       2,
		Method:              MethodCanny,
		CannyLow:            50,
		CannyHigh:           150,
		DilateRadius:        1,
		MorphKernel:         9,
		AdaptiveBlock:       51,
		AdaptiveC:           10,
	}
}

// Validate reports the first invalid field.
func (c PreprocessConfig) Validate() error {
	switch c.Channel {
	case ChannelGray, ChannelValue:
	default:
		return fmt.Errorf("unknown channel %q", c.Channel)
	}

	switch c.Smoothing {
	case SmoothNone:
	case SmoothBilateral:
		if c.BilateralDiameter < 1 {
			return fmt.Errorf("bilateral_diameter must be >= 1, got %d", c.BilateralDiameter)
		}
		if c.BilateralSigmaColor <= 0 || c.BilateralSigmaSpace <= 0 {
			return fmt.Errorf("bilateral sigmas must be positive")
		}
	case SmoothGaussian:
		if c.GaussianSigma <= 0 {
			return fmt.Errorf("gaussian_sigma must be positive, got %v", c.GaussianSigma)
		}
	default:
		return fmt.Errorf("unknown smoothing %q", c.Smoothing)
	}

	switch c.Method {
	case MethodCanny:
		if c.CannyLow < 0 || c.CannyHigh < c.CannyLow {
			return fmt.Errorf("canny thresholds must satisfy 0 <= low <= high, got %v/%v", c.CannyLow, c.CannyHigh)
		}
	case MethodOtsu:
	case MethodAdaptive:
		if c.AdaptiveBlock < 3 || c.AdaptiveBlock%2 == 0 {
			return fmt.Errorf("adaptive_block must be an odd number >= 3, got %d", c.AdaptiveBlock)
		}
		if c.AdaptiveC < 0 {
			return fmt.Errorf("adaptive_c must be >= 0, got %v", c.AdaptiveC)
		}
	default:
		return fmt.Errorf("unknown method %q", c.Method)
	}

	if c.DilateRadius < 0 {
		return fmt.Errorf("dilate_radius must be >= 0, got %v", c.DilateRadius)
	}
	if c.MorphKernel < 0 {
		return fmt.Errorf("morph_kernel must be >= 0, got %d", c.MorphKernel)
	}
	return nil
}

// Preprocessor turns images into binary foreground masks. It is immutable
// after construction and safe for concurrent use.
type Preprocessor struct {
	cfg       PreprocessConfig
	bilateral *bilateralKernel
}

// NewPreprocessor validates cfg and precomputes filter weights.
func NewPreprocessor(cfg PreprocessConfig) (*Preprocessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preprocess config: %w", err)
	}
	p := &Preprocessor{cfg: cfg}
	if cfg.Smoothing == SmoothBilateral {
		p.bilateral = newBilateralKernel(cfg.BilateralDiameter, cfg.BilateralSigmaColor, cfg.BilateralSigmaSpace)
	}
	return p, nil
}

// Config returns the configuration the preprocessor was built with.
func (p *Preprocessor) Config() PreprocessConfig { return p.cfg }

// Mask binarizes img. The returned mask has img's dimensions and must be
// released by the caller.
func (p *Preprocessor) Mask(img image.Image) (*Mask, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	gray := intensity(img, p.cfg.Channel)
	defer gray.release()

	smooth := p.smooth(gray)
	defer smooth.release()

	switch p.cfg.Method {
	case MethodOtsu:
		bin := otsu(smooth)
		return p.close(bin), nil
	case MethodAdaptive:
		bin := adaptive(smooth, p.cfg.AdaptiveBlock, p.cfg.AdaptiveC)
		return p.close(bin), nil
	default:
		edges := canny(smooth, p.cfg.CannyLow, p.cfg.CannyHigh)
		thick := dilate(edges, p.cfg.DilateRadius)
		edges.Release()
		return p.close(thick), nil
	}
}

func (p *Preprocessor) smooth(src *plane) *plane {
	switch p.cfg.Smoothing {
	case SmoothBilateral:
		return p.bilateral.apply(src)
	case SmoothGaussian:
		return gaussian(src, p.cfg.GaussianSigma)
	default:
		dst := newPlane(src.width, src.height)
		copy(dst.pix, src.pix)
		return dst
	}
}

// close applies the configured closing to m, consuming it.
func (p *Preprocessor) close(m *Mask) *Mask {
	if p.cfg.MorphKernel < 2 {
		return m
	}
	defer m.Release()
	return closeMask(m, p.cfg.MorphKernel)
}

// MaskPreview binarizes img with pre and encodes the mask as PNG.
func MaskPreview(img image.Image, pre *Preprocessor) (*MaskPreviewResult, error) {
	m, err := pre.Mask(img)
	if err != nil {
		return nil, err
	}
	defer m.Release()
	return EncodeMask(m)
}
