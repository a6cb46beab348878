// Package ocr recognizes text on rectified document pages using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Images are
// passed to Tesseract in memory; no temporary files are written.
//
// # Prerequisites
//
// Tesseract and its development headers must be installed, and cgo enabled:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Languages
//
// The default language is English ("eng"). Several languages can be combined
// with "+", for example "deu+eng".
//
// # Performance Considerations
//
// OCR is the most expensive step of a scan. It only runs when a client asks
// for it, on the already rectified page, which is far smaller and cleaner
// than the original photo.
package ocr
