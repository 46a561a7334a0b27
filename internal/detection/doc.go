// Package detection recovers table geometry from OCR word boxes.
//
// A pick-list page arrives as an unordered bag of words, each with a pixel
// bounding box. This package turns that bag into structure the record
// assembler can walk:
//
//   - ClusterRows groups words into rows by vertical position.
//   - ResolveColumns finds the (possibly wrapped) header and derives an
//     x-range per column: DEVICE, DESCRIPTION, PICK_AMOUNT, MAX, CURRENT.
//   - FloorMatcher recognizes floor/device codes such as 8E-1 or 7EM_MICU.
//   - LineRows builds rows from plain text when no word boxes exist.
//
// # Coordinate System
//
// Coordinates follow the image convention used by the OCR engine: origin at
// the top-left corner, X increasing rightward and Y increasing downward.
// Bands are inclusive ranges over token center x.
//
// # Error Handling
//
// ResolveColumns returns ErrStructureNotFound when the first rows hold no
// header. Callers fall back to line-mode parsing or report an empty page.
// Nothing in this package panics on malformed input.
package detection
