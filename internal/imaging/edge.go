package imaging

import (
	"math"
)

// canny runs Canny edge detection on a smoothed intensity plane and returns
// a mask with edge pixels set.
//
// # Algorithm
//
//  1. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  2. Non-maximum suppression: thin edges to 1-pixel width by keeping only
//     local maxima in the gradient direction
//
//  3. Hysteresis thresholding:
//     - Pixels at or above high are strong edges (always kept)
//     - Pixels between low and high are weak edges, kept only when
//     8-connected (possibly through other weak edges) to a strong edge
//     - Pixels below low are discarded
//
// Thresholds apply to the raw Sobel magnitude of [0, 255] intensities.
func canny(src *plane, low, high float64) *Mask {
	width, height := src.width, src.height

	magnitude := newPlane(width, height)
	defer magnitude.release()
	direction := newPlane(width, height)
	defer direction.release()

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := src.at(x+kx, y+ky)
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude.pix[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction.pix[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression across the gradient. y grows downward, so an
	// angle near π/4 points toward (x+1, y+1).
	suppressed := newPlane(width, height)
	defer suppressed.release()
	mag := func(x, y int) float64 { return magnitude.pix[y*width+x] }

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			angle := direction.pix[y*width+x]
			m := mag(x, y)

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = mag(x-1, y)
				n2 = mag(x+1, y)
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = mag(x+1, y+1)
				n2 = mag(x-1, y-1)
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = mag(x, y-1)
				n2 = mag(x, y+1)
			} else {
				n1 = mag(x-1, y+1)
				n2 = mag(x+1, y-1)
			}

			if m >= n1 && m >= n2 {
				suppressed.pix[y*width+x] = m
			}
		}
	}

	// Hysteresis: grow strong edges through weak ones.
	out := NewMask(width, height)
	queue := make([]int, 0, 1024)
	for i, v := range suppressed.pix {
		if v >= high {
			out.Pix[i] = 255
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if out.Pix[j] == 0 && suppressed.pix[j] >= low {
					out.Pix[j] = 255
					queue = append(queue, j)
				}
			}
		}
	}
	return out
}
