// Package detection finds document-like polygons in photographs.
//
// The detector looks for the outer boundary of a sheet of paper, a card or a
// receipt lying on a contrasting background. It is purely classical: no
// models, only edge detection and contour geometry.
//
// # Pipeline
//
//  1. Luminance and bilateral smoothing, which removes sensor noise while
//     keeping the paper border sharp
//  2. Canny edge detection with hysteresis
//  3. Dilation, so a border broken by noise still forms one contour
//  4. External contour tracing; anything printed on the page lies inside the
//     page's contour and is ignored
//  5. Douglas-Peucker simplification and size filters
//  6. Ranking: quadrilaterals first, larger first
//
// # Coordinate System
//
// Polygon points are in the pixel space of the image passed to Detect, with
// the origin at the top-left corner, X increasing rightward and Y downward.
// Vertices are listed in contour traversal order, which is not necessarily
// clockwise; use the rectify package to put four corners in canonical order.
//
// # Failure Model
//
// Detection never returns an error. An image without a usable outline yields
// an empty Result. Internal failures are recovered and logged, and also yield
// an empty Result.
//
// # Limitations
//
//   - Low contrast between the page and the background (white paper on a
//     white desk) produces broken or missing borders
//   - A page partly outside the frame is traced together with the image border
//     region it touches and may not simplify to four vertices
//   - Strong shadows across the page can split it into several contours
package detection
