// Package detection finds measurable objects and the reference coin in
// binarized photographs.
//
// # Pipeline
//
// A Detector runs up to two passes over an image:
//
//  1. Object pass: binarize with the generic preprocessor, trace the outer
//     boundary of every foreground component, then filter and classify each
//     contour with the Analyzer.
//  2. Coin pass: only when the object pass found no coin-like contour, repeat
//     with the coin preprocessor, whose larger closing kernel merges the
//     embossed relief of a coin into one solid disc.
//
// The most circular coin-like contour becomes "Coin"; every other accepted
// contour becomes "Object N" in detection order.
//
// # Contour Filtering
//
// The Analyzer rejects contours in a fixed order, reporting the first failed
// check as a *RejectError:
//
//   - area_min / area_max: area outside the accepted band
//   - border: bounding box within BorderMargin pixels of the image edge
//   - dimension: bounding box narrower or shorter than MinDimension
//   - degenerate: fewer than 3 vertices, zero perimeter, or a non-finite
//     circularity
//
// # Coin Classification
//
// A contour is coin-like when its circularity (4πA/P²) exceeds
// CoinCircularityMin, its area lies within the coin area band, and its
// bounding box aspect ratio lies within the coin aspect band.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes span whole pixels, so a one-pixel contour has width 1
//
// # Presets
//
// Named configurations tune both passes for common photo conditions; see
// Preset and PresetNames.
package detection
