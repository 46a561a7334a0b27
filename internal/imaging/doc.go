// Package imaging loads pick-list photos and prepares them for OCR.
//
// Phone photos of printed pick lists arrive rotated, small, grey and soft.
// Preprocess turns them into large, high-contrast grayscale pages using
// disintegration/imaging for geometry and tone, bild for denoising and
// thresholding, and go-colorful for perceptual contrast measurement.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. OCR word boxes refer to
// the preprocessed image, not the original photo.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Preprocess and MeasureContrast
// never modify their input and can run concurrently.
//
// # Performance Considerations
//
// Decoded photos can be tens of megabytes. Evict them from the cache once a
// batch has been extracted.
package imaging
