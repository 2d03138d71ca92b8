package imaging

import (
	"image"
	"math"
	"sync"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/lucasb-eyer/go-colorful"
)

// plane is a single-channel float image with values in [0, 255].
type plane struct {
	width  int
	height int
	pix    []float64
}

var planePool sync.Pool // of *[]float64

func newPlane(width, height int) *plane {
	n := width * height
	var pix []float64
	if p, ok := planePool.Get().(*[]float64); ok && cap(*p) >= n {
		pix = (*p)[:n]
		clear(pix)
	} else {
		pix = make([]float64, n)
	}
	return &plane{width: width, height: height, pix: pix}
}

func (p *plane) release() {
	if p == nil || p.pix == nil {
		return
	}
	pix := p.pix[:0]
	planePool.Put(&pix)
	p.pix = nil
}

// at returns the value at (x, y) with replicated borders.
func (p *plane) at(x, y int) float64 {
	return p.pix[clamp(y, 0, p.height-1)*p.width+clamp(x, 0, p.width-1)]
}

// gray renders the plane as an 8-bit image.
func (p *plane) gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, p.width, p.height))
	for i, v := range p.pix {
		g.Pix[i] = toUint8(v)
	}
	return g
}

// planeFromGray copies the first channel of an 8-bit image into a pooled plane.
func planeFromGray(img image.Image) *plane {
	b := img.Bounds()
	p := newPlane(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < p.height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+p.width]
			for x, v := range row {
				p.pix[y*p.width+x] = float64(v)
			}
		}
	case *image.RGBA:
		for y := 0; y < p.height; y++ {
			off := y * src.Stride
			for x := 0; x < p.width; x++ {
				p.pix[y*p.width+x] = float64(src.Pix[off+4*x])
			}
		}
	default:
		for y := 0; y < p.height; y++ {
			for x := 0; x < p.width; x++ {
				r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				p.pix[y*p.width+x] = float64(r >> 8)
			}
		}
	}
	return p
}

// intensity reduces img to a single channel.
func intensity(img image.Image, ch Channel) *plane {
	if ch == ChannelValue {
		return valuePlane(img)
	}
	return planeFromGray(effect.Grayscale(img))
}

// valuePlane is the V channel of HSV. Dark objects on light, saturated
// backgrounds separate better here than in luminance.
func valuePlane(img image.Image) *plane {
	b := img.Bounds()
	p := newPlane(b.Dx(), b.Dy())
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			c, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				continue // fully transparent
			}
			_, _, v := c.Hsv()
			p.pix[y*p.width+x] = v * 255
		}
	}
	return p
}

// gaussian blurs src with bild's Gaussian kernel.
func gaussian(src *plane, sigma float64) *plane {
	if sigma <= 0 {
		dst := newPlane(src.width, src.height)
		copy(dst.pix, src.pix)
		return dst
	}
	return planeFromGray(blur.Gaussian(src.gray(), sigma))
}

// bilateralKernel holds the precomputed weights of an edge-preserving
// bilateral filter. Building it once lets every call share the lookup tables.
type bilateralKernel struct {
	offsets []image.Point
	spatial []float64
	rangeW  [256]float64
}

func newBilateralKernel(diameter int, sigmaColor, sigmaSpace float64) *bilateralKernel {
	r := diameter / 2
	k := &bilateralKernel{}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := float64(dx*dx + dy*dy)
			if d2 > float64(r*r) {
				continue
			}
			k.offsets = append(k.offsets, image.Pt(dx, dy))
			k.spatial = append(k.spatial, math.Exp(-d2/(2*sigmaSpace*sigmaSpace)))
		}
	}
	for i := range k.rangeW {
		d := float64(i)
		k.rangeW[i] = math.Exp(-d * d / (2 * sigmaColor * sigmaColor))
	}
	return k
}

func (k *bilateralKernel) apply(src *plane) *plane {
	dst := newPlane(src.width, src.height)
	for y := 0; y < src.height; y++ {
		for x := 0; x < src.width; x++ {
			center := src.pix[y*src.width+x]
			var sum, norm float64
			for i, off := range k.offsets {
				v := src.at(x+off.X, y+off.Y)
				d := int(math.Abs(v-center) + 0.5)
				if d > 255 {
					d = 255
				}
				w := k.spatial[i] * k.rangeW[d]
				sum += v * w
				norm += w
			}
			dst.pix[y*src.width+x] = sum / norm
		}
	}
	return dst
}

func toUint8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
