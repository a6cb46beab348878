// Package imaging provides the raster building blocks of the document scanner.
//
// This package covers everything that touches pixels directly: decoding
// uploads, encoding results for transport, the edge-preserving smoothing and
// edge detection filters used by the polygon detector, and the preview
// overlay that draws detected polygons back onto the photo.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// Images returned by Decode are always anchored at (0,0), so pixel
// coordinates and image coordinates coincide.
//
// # Planes
//
// Filters operate on Plane values: single-channel float64 samples on the
// 0-255 scale. Keeping the intermediate results in floating point avoids
// quantization between the bilateral filter and the Sobel operator. Binary
// results (edge maps, dilated maps) are *image.Gray with 0 and 255 only.
//
// # Thread Safety
//
// Every function is stateless and allocates its own output. Different goroutines
// can process different images concurrently. None of the functions modify their
// inputs.
//
// # Error Handling
//
// Decoding failures wrap ErrDecode and encoding failures wrap ErrEncode, so
// transports can map them to client or server errors with errors.Is.
package imaging
