// Package measure holds the measurement model shared by automatic detection and
// manual polygon entry, together with the scale calibration that converts pixel
// lengths into millimetres.
//
// # Objects
//
// An Object is either traced from an image contour, built from user clicks, or
// synthesized from a single diameter measurement (the coin reference of a manual
// two-point calibration). The kind is carried by the Outline variant so that
// kind-specific values such as circularity cannot be read off the wrong kind.
//
// # Calibration
//
// The reference coin has a physical diameter of CoinDiameterMM. A pixel distance
// across the coin yields a pixels-per-millimetre (PPM) factor; ApplyScale then
// converts every edge and the perimeter of an object. Scaling always recomputes
// from the immutable pixel values, so applying a new factor never compounds a
// previous one.
//
// # Sessions
//
// A Session owns the object collection for one image. Recalibration is a batch
// operation: all non-coin objects are rescaled into a new collection which then
// replaces the old one, so readers never observe a mix of two scales.
package measure
