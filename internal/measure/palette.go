package measure

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// CoinName is the label given to the reference coin.
const CoinName = "Coin"

// paletteSize is the number of distinct display colours.
const paletteSize = 8

var palette = func() [paletteSize]string {
	var p [paletteSize]string
	for i := range p {
		// Evenly spaced hues, offset so that index 0 is a warm gold.
		p[i] = colorful.Hsv(45+float64(i)*360/paletteSize, 0.75, 0.95).Clamped().Hex()
	}
	return p
}()

// PaletteColor returns the display colour for the i-th created object.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return palette[i%paletteSize]
}

// ObjectName returns the label of the n-th (1-based) non-coin object of a pass.
func ObjectName(n int) string {
	return fmt.Sprintf("Object %d", n)
}
