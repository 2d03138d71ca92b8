package imaging

import (
	"github.com/anthonynsimon/bild/segment"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// otsuLevel returns the global threshold t that maximises the between-class
// variance of the histogram of src. Pixels with value > t form one class.
func otsuLevel(src *plane) uint8 {
	hist := make([]float64, 256)
	for _, v := range src.pix {
		hist[toUint8(v)]++
	}
	levels := make([]float64, 256)
	for i := range levels {
		levels[i] = float64(i)
	}

	total := floats.Sum(hist)
	best, bestVar := 0, -1.0
	for t := 0; t < 255; t++ {
		w0 := floats.Sum(hist[:t+1])
		w1 := total - w0
		if w0 == 0 || w1 == 0 {
			continue
		}
		m0 := stat.Mean(levels[:t+1], hist[:t+1])
		m1 := stat.Mean(levels[t+1:], hist[t+1:])
		between := w0 * w1 * (m0 - m1) * (m0 - m1)
		if between > bestVar {
			best, bestVar = t, between
		}
	}
	return uint8(best)
}

// otsu binarizes src at its Otsu level. The minority class is taken as
// foreground, so dark objects on a light background and light objects on a
// dark background both come out set.
func otsu(src *plane) *Mask {
	m, _ := otsuPolarity(src)
	return m
}

// otsuPolarity is otsu that also reports whether the foreground is the dark
// class.
func otsuPolarity(src *plane) (m *Mask, dark bool) {
	t := otsuLevel(src)
	m = maskFromImage(segment.Threshold(src.gray(), t+1))
	if m.Count()*2 > m.Width*m.Height {
		m.Invert()
		dark = true
	}
	return m, dark
}

// adaptive marks pixels that differ from the mean of their block×block
// neighbourhood by more than c toward the Otsu foreground, then ORs in the
// global Otsu mask so large uniform objects are not hollowed out. Background
// next to an object shifts the other way and stays unset.
func adaptive(src *plane, block int, c float64) *Mask {
	w, h := src.width, src.height
	global, dark := otsuPolarity(src)
	defer global.Release()

	// Summed-area table with a zero row and column.
	sat := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += src.pix[y*w+x]
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + row
		}
	}

	r := block / 2
	out := NewMask(w, h)
	for y := 0; y < h; y++ {
		y0, y1 := clamp(y-r, 0, h-1), clamp(y+r, 0, h-1)+1
		for x := 0; x < w; x++ {
			x0, x1 := clamp(x-r, 0, w-1), clamp(x+r, 0, w-1)+1
			sum := sat[y1*(w+1)+x1] - sat[y0*(w+1)+x1] - sat[y1*(w+1)+x0] + sat[y0*(w+1)+x0]
			mean := sum / float64((x1-x0)*(y1-y0))
			d := src.pix[y*w+x] - mean
			if dark {
				d = -d
			}
			if d > c {
				out.Pix[y*w+x] = 255
			}
		}
	}

	out.Or(global)
	return out
}
