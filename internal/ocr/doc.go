// Package ocr turns pick-list photos into word tokens using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Each call
// returns the full recognized text plus word-level bounding boxes
// (RIL_WORD), which is exactly the input the extraction engine needs.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Language data is looked up in the Tesseract default location unless
// Options.TessdataPrefix points elsewhere.
//
// # Entry Points
//
//   - Engine.ExtractFile: OCR an image file on disk
//   - Engine.ExtractImage: OCR a decoded, usually preprocessed, image
//   - Engine.ExtractRegion: OCR one rectangle; bounds stay in image coordinates
//   - Engine.ExtractPage: OCR an image straight into an extract.Page
//
// # Error Handling
//
// If bounding box extraction fails (e.g., Tesseract version mismatch), the
// result still carries FullText with an empty Words slice. The extraction
// engine then falls back to line mode on the text alone.
package ocr
