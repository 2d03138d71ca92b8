package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// Mask is a binary image: 255 marks foreground, 0 background.
//
// Masks produced by the preprocessor are backed by pooled buffers. The owner
// must call Release once the mask is no longer needed; after Release the mask
// must not be used.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

var maskPool sync.Pool // of *[]uint8

// NewMask returns an all-background mask backed by a pooled buffer.
func NewMask(width, height int) *Mask {
	n := width * height
	var pix []uint8
	if p, ok := maskPool.Get().(*[]uint8); ok && cap(*p) >= n {
		pix = (*p)[:n]
		clear(pix)
	} else {
		pix = make([]uint8, n)
	}
	return &Mask{Width: width, Height: height, Pix: pix}
}

// Release returns the mask's buffer to the pool. Calling Release on a nil or
// already released mask is a no-op.
func (m *Mask) Release() {
	if m == nil || m.Pix == nil {
		return
	}
	pix := m.Pix[:0]
	maskPool.Put(&pix)
	m.Pix = nil
}

// At reports whether (x, y) is foreground. Out-of-range coordinates are
// background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Set marks (x, y) as foreground or background.
func (m *Mask) Set(x, y int, on bool) {
	if on {
		m.Pix[y*m.Width+x] = 255
	} else {
		m.Pix[y*m.Width+x] = 0
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Invert flips foreground and background in place.
func (m *Mask) Invert() {
	for i, v := range m.Pix {
		if v != 0 {
			m.Pix[i] = 0
		} else {
			m.Pix[i] = 255
		}
	}
}

// Or sets every pixel that is foreground in other. Both masks must have the
// same dimensions.
func (m *Mask) Or(other *Mask) {
	for i, v := range other.Pix {
		if v != 0 {
			m.Pix[i] = 255
		}
	}
}

// Gray returns a grayscale view sharing the mask's pixels.
func (m *Mask) Gray() *image.Gray {
	return &image.Gray{
		Pix:    m.Pix,
		Stride: m.Width,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// maskFromImage thresholds the first channel of img at 128 into a new mask.
func maskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < m.Height; y++ {
			row := src.Pix[(y)*src.Stride : (y)*src.Stride+m.Width]
			for x, v := range row {
				if v >= 128 {
					m.Pix[y*m.Width+x] = 255
				}
			}
		}
	case *image.RGBA:
		for y := 0; y < m.Height; y++ {
			off := y * src.Stride
			for x := 0; x < m.Width; x++ {
				if src.Pix[off+4*x] >= 128 {
					m.Pix[y*m.Width+x] = 255
				}
			}
		}
	default:
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				if r>>8 >= 128 {
					m.Pix[y*m.Width+x] = 255
				}
			}
		}
	}
	return m
}

// MaskPreviewResult contains a binary mask encoded as base64 PNG.
type MaskPreviewResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Foreground  float64 `json:"foreground_percent"`
	ImageBase64 string  `json:"image_base64"`
	MimeType    string  `json:"mime_type"`
}

// EncodeMask renders m as a grayscale PNG with foreground in white.
func EncodeMask(m *Mask) (*MaskPreviewResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m.Gray()); err != nil {
		return nil, fmt.Errorf("failed to encode mask image: %w", err)
	}

	fg := 0.0
	if n := m.Width * m.Height; n > 0 {
		fg = float64(m.Count()) / float64(n) * 100
	}

	return &MaskPreviewResult{
		Width:       m.Width,
		Height:      m.Height,
		Foreground:  float64(int64(fg*10+0.5)) / 10,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
