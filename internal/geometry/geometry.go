// Package geometry provides the planar primitives shared by the detector and
// the rectifier: points, bounding boxes, shoelace area, arc length and
// Douglas-Peucker simplification of closed contours.
//
// Coordinates follow the image convention: origin at the top-left corner, X
// increasing rightward, Y increasing downward.
package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a 2D coordinate. Whether it is expressed in pixels or in normalized
// [0,1] units is decided by the caller, never by the magnitude of the values.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// MarshalJSON encodes the point as a two-element array [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON accepts either [x, y] or {"x": .., "y": ..}.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("point must have 2 coordinates, got %d", len(pair))
		}
		p.X, p.Y = pair[0], pair[1]
		return nil
	}

	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("point must be [x, y] or {\"x\":..,\"y\":..}: %w", err)
	}
	if obj.X == nil || obj.Y == nil {
		return fmt.Errorf("point object requires both x and y")
	}
	p.X, p.Y = *obj.X, *obj.Y
	return nil
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale multiplies both coordinates independently.
func (p Point) Scale(sx, sy float64) Point { return Point{p.X * sx, p.Y * sy} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// BBox is an axis-aligned bounding box. Width and Height count pixels
// inclusively, so a single pixel has a 1x1 box.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width*Height.
func (b BBox) Area() int {
	return b.Width * b.Height
}

// BoundingBox returns the inclusive pixel bounding box of pts. The minimum is
// floored and the maximum is ceiled so fractional points are fully covered.
func BoundingBox(pts []Point) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	x0, y0 := int(math.Floor(minX)), int(math.Floor(minY))
	x1, y1 := int(math.Ceil(maxX)), int(math.Ceil(maxY))
	return BBox{X: x0, Y: y0, Width: x1 - x0 + 1, Height: y1 - y0 + 1}
}

// Area returns the absolute planar area enclosed by the closed polygon pts
// using the shoelace formula.
func Area(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the length of the closed polyline through pts.
func Perimeter(pts []Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += pts[i].Dist(pts[(i+1)%n])
	}
	return sum
}
