package measure

import (
	"math"
)

// CoinDiameterMM is the physical diameter of the reference coin.
const CoinDiameterMM = 26.5

// ComputeScale returns the pixels-per-millimetre factor for a coin that
// measures pixelDistance pixels across.
//
// A non-positive or non-finite distance is a caller error and is reported as
// a *ValidationError.
func ComputeScale(pixelDistance float64) (float64, error) {
	return ScaleForDiameter(pixelDistance, CoinDiameterMM)
}

// ScaleForDiameter is ComputeScale for a reference of diameterMM millimetres.
func ScaleForDiameter(pixelDistance, diameterMM float64) (float64, error) {
	if !(pixelDistance > 0) || math.IsInf(pixelDistance, 0) {
		return 0, &ValidationError{Field: "pixel distance", Reason: "must be a positive number"}
	}
	if !(diameterMM > 0) || math.IsInf(diameterMM, 0) {
		return 0, &ValidationError{Field: "reference diameter", Reason: "must be a positive number"}
	}
	return pixelDistance / diameterMM, nil
}

// validScale reports whether ppm can be used to convert lengths.
func validScale(ppm float64) bool {
	return ppm > 0 && !math.IsInf(ppm, 0)
}

// ApplyScale converts the pixel lengths of obj into millimetres.
//
// For a ppm that is zero, negative, NaN or infinite the object is returned
// unchanged, which lets an uncalibrated pipeline run through. Otherwise a new
// object is returned with every edge's RealLength and the RealPerimeter
// recomputed from the pixel values and rounded to two decimals. obj itself is
// never modified.
func ApplyScale(obj *Object, ppm float64) *Object {
	if obj == nil || !validScale(ppm) {
		return obj
	}
	out := obj.Clone()
	for i := range out.Edges {
		v := round2(out.Edges[i].PixelLength / ppm)
		out.Edges[i].RealLength = &v
	}
	p := round2(out.Perimeter / ppm)
	out.RealPerimeter = &p
	return out
}

// ToMillimetres converts a pixel length with the given scale, rounded to two
// decimals. ok is false when ppm is not usable.
func ToMillimetres(pixels, ppm float64) (mm float64, ok bool) {
	if !validScale(ppm) {
		return 0, false
	}
	return round2(pixels / ppm), true
}
