package imaging

// dilate grows foreground by radius pixels over a square window.
func dilate(m *Mask, radius float64) *Mask {
	if radius <= 0 {
		return copyMask(m)
	}
	return rankFilter(m, windowHalf(radius), false)
}

// erode shrinks foreground by radius pixels over a square window.
func erode(m *Mask, radius float64) *Mask {
	if radius <= 0 {
		return copyMask(m)
	}
	return rankFilter(m, windowHalf(radius), true)
}

// closeMask performs a morphological closing (dilate then erode) with a
// square window of the given width, bridging gaps narrower than the window.
func closeMask(m *Mask, diameter int) *Mask {
	radius := float64(diameter / 2)
	grown := dilate(m, radius)
	defer grown.Release()
	return erode(grown, radius)
}

// windowHalf is the half-width of a 2r+1 window for a possibly fractional
// radius.
func windowHalf(radius float64) int {
	return int(2*radius+1.5) >> 1
}

// rankFilter computes the max (or min when all is set) of a binary mask
// over a (2r+1)² window, clamped at the frame. A square window is separable,
// so it runs as a row pass then a column pass, each counting foreground in
// a sliding window with a prefix sum.
func rankFilter(m *Mask, r int, all bool) *Mask {
	w, h := m.Width, m.Height
	rows := NewMask(w, h)
	defer rows.Release()
	out := NewMask(w, h)

	n := max(w, h)
	prefix := make([]int, n+1)

	line := func(get func(i int) bool, set func(i int), length int) {
		for i := 0; i < length; i++ {
			prefix[i+1] = prefix[i]
			if get(i) {
				prefix[i+1]++
			}
		}
		for i := 0; i < length; i++ {
			lo, hi := max(i-r, 0), min(i+r, length-1)+1
			count := prefix[hi] - prefix[lo]
			if (all && count == hi-lo) || (!all && count > 0) {
				set(i)
			}
		}
	}

	for y := 0; y < h; y++ {
		row := y * w
		line(
			func(x int) bool { return m.Pix[row+x] != 0 },
			func(x int) { rows.Pix[row+x] = 255 },
			w,
		)
	}
	for x := 0; x < w; x++ {
		line(
			func(y int) bool { return rows.Pix[y*w+x] != 0 },
			func(y int) { out.Pix[y*w+x] = 255 },
			h,
		)
	}
	return out
}

func copyMask(m *Mask) *Mask {
	out := NewMask(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}
