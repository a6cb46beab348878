// Package rectify flattens a photographed quadrilateral into an upright
// rectangle with a four-point perspective transform.
//
// Corners may arrive in any order and are sorted into top-left, top-right,
// bottom-right, bottom-left first. The output size follows the quad's edge
// lengths and is capped at MaxDimension per side. All functions are safe for
// concurrent use.
package rectify
