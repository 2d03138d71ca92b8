// Package imaging loads photographs and reduces them to binary foreground
// masks for contour extraction.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the
// top-left corner, X increasing rightward and Y increasing downward. For
// regions, (x1,y1) is inclusive and (x2,y2) is exclusive.
//
// # Pipeline
//
// A Preprocessor runs, in order:
//
//  1. Intensity extraction: luminance or the HSV value channel
//  2. Smoothing: edge-preserving bilateral filter or Gaussian blur
//  3. Binarization: Canny edges (thickened by dilation), Otsu's global
//     threshold, or an adaptive local-mean threshold
//  4. Morphological closing to bridge small gaps in object boundaries
//
// The resulting Mask uses 255 for foreground and 0 for background.
//
// # Buffers
//
// Intermediate planes and masks come from sync.Pools. Masks returned to
// callers must be released with Mask.Release once consumed.
//
// # Thread Safety
//
// ImageCache and Preprocessor are safe for concurrent use. Decoded images
// are treated as read-only.
package imaging
