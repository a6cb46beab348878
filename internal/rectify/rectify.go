package rectify

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan/internal/geometry"
)

// ErrInvalidPolygon is returned when the corner input cannot describe a
// quadrilateral: wrong point count, non-finite coordinates, or a degenerate
// shape.
var ErrInvalidPolygon = errors.New("invalid polygon")

// MaxDimension caps both sides of a rectified image.
const MaxDimension = 2500

// Result is a rectified document.
type Result struct {
	// Image is the flattened document, exactly Width x Height pixels.
	Image *image.NRGBA

	// Width and Height of Image, derived from the quad's edge lengths.
	Width  int
	Height int

	// Corners are the input corners in source pixel space, ordered top-left,
	// top-right, bottom-right, bottom-left.
	Corners [4]geometry.Point

	// Homography maps output pixel coordinates to source pixel coordinates.
	Homography Homography
}

// Rectify flattens the quadrilateral pts of img into an upright rectangle.
//
// Parameters:
//   - img: Source image.
//   - pts: Exactly four corners in any order, relative to the top-left
//     corner of img's bounds.
//   - normalized: When true, pts are fractions of the image size in [0,1]
//     and are scaled by the image width and height first.
//
// The output size is the longer of each pair of opposite edges, rounded and
// clamped to [1, MaxDimension]. Every output pixel is mapped back into img
// through the inverse perspective transform and sampled bilinearly. Samples
// falling outside img repeat its border pixels.
//
// Returns an error wrapping ErrInvalidPolygon when pts does not have exactly
// four finite points or the quad is degenerate.
func Rectify(img image.Image, pts []geometry.Point, normalized bool) (*Result, error) {
	if len(pts) != 4 {
		return nil, fmt.Errorf("%w: need exactly 4 points, got %d", ErrInvalidPolygon, len(pts))
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrInvalidPolygon)
	}

	abs := make([]geometry.Point, len(pts))
	for i, p := range pts {
		if normalized {
			p = p.Scale(float64(b.Dx()), float64(b.Dy()))
		}
		if !p.IsFinite() {
			return nil, fmt.Errorf("%w: point %d is not a finite coordinate", ErrInvalidPolygon, i)
		}
		abs[i] = p
	}

	corners, err := OrderCorners(abs)
	if err != nil {
		return nil, err
	}
	width, height := OutputSize(corners)

	// Destination corners; a one pixel side still gets a unit span so the
	// system stays solvable.
	right := math.Max(float64(width-1), 1)
	bottom := math.Max(float64(height-1), 1)
	dst := [4]geometry.Point{{X: 0, Y: 0}, {X: right, Y: 0}, {X: right, Y: bottom}, {X: 0, Y: bottom}}

	h, err := SolveHomography(dst, corners)
	if err != nil {
		return nil, err
	}

	src, ok := img.(*image.NRGBA)
	if !ok || src.Rect.Min != (image.Point{}) {
		src = imaging.Clone(img)
	}

	return &Result{
		Image:      warp(src, h, width, height),
		Width:      width,
		Height:     height,
		Corners:    corners,
		Homography: h,
	}, nil
}

// OrderCorners puts four points in top-left, top-right, bottom-right,
// bottom-left order.
//
// The top-left corner has the smallest x+y and the bottom-right the largest.
// Of y-x, the top-right corner has the smallest and the bottom-left the
// largest. Ties go to the earliest point.
//
// The heuristic is exact for convex quads whose sides are roughly axis
// aligned. For a quad rotated close to 45 degrees two roles can fall on the
// same point and the result is not a valid ordering; such quads are not
// rejected.
func OrderCorners(pts []geometry.Point) ([4]geometry.Point, error) {
	var out [4]geometry.Point
	if len(pts) != 4 {
		return out, fmt.Errorf("%w: need exactly 4 points, got %d", ErrInvalidPolygon, len(pts))
	}

	tl, br, tr, bl := 0, 0, 0, 0
	for i, p := range pts {
		sum, diff := p.X+p.Y, p.Y-p.X
		if sum < pts[tl].X+pts[tl].Y {
			tl = i
		}
		if sum > pts[br].X+pts[br].Y {
			br = i
		}
		if diff < pts[tr].Y-pts[tr].X {
			tr = i
		}
		if diff > pts[bl].Y-pts[bl].X {
			bl = i
		}
	}

	out[0], out[1], out[2], out[3] = pts[tl], pts[tr], pts[br], pts[bl]
	return out, nil
}

// OutputSize returns the rectified size for ordered corners: the longer
// horizontal edge by the longer vertical edge, rounded and clamped to
// [1, MaxDimension].
func OutputSize(c [4]geometry.Point) (width, height int) {
	w := math.Max(c[0].Dist(c[1]), c[3].Dist(c[2]))
	h := math.Max(c[0].Dist(c[3]), c[1].Dist(c[2]))
	return clampDimension(w), clampDimension(h)
}

func clampDimension(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	if v > MaxDimension {
		return MaxDimension
	}
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}
