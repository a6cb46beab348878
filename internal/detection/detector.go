package detection

import (
	"fmt"
	"image"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/docscan/internal/geometry"
	"github.com/ironsheep/docscan/internal/imaging"
)

// Options tunes the polygon detector. The zero value is not useful; start
// from DefaultOptions and override individual fields.
type Options struct {
	// MaxDimension caps the longer side of the analyzed image. Larger inputs
	// are downscaled first and the results are scaled back, so callers always
	// see coordinates in the input's pixel space. Zero disables the cap.
	MaxDimension int

	// Bilateral smoothing: window diameter, range sigma on the 0-255 scale,
	// and spatial sigma in pixels.
	BilateralDiameter   int
	BilateralSigmaColor float64
	BilateralSigmaSpace float64

	// Canny hysteresis thresholds on the Sobel gradient magnitude.
	CannyLow  float64
	CannyHigh float64

	// DilateRadius is the half size of the square dilation window.
	DilateRadius float64

	// MinContourArea discards traced contours enclosing fewer square pixels.
	MinContourArea float64

	// Douglas-Peucker tolerance: EpsilonRatio of the contour perimeter, but
	// never less than MinEpsilon pixels.
	EpsilonRatio float64
	MinEpsilon   float64

	// MinBoxSide rejects polygons whose bounding box is thinner than this.
	MinBoxSide int

	// Bounding box area limits for polygons that are not quadrilaterals.
	MinBoxArea      int
	MaxBoxAreaRatio float64
}

// DefaultOptions returns the tuning used for photographed documents.
func DefaultOptions() Options {
	return Options{
		MaxDimension:        1600,
		BilateralDiameter:   9,
		BilateralSigmaColor: 75,
		BilateralSigmaSpace: 75,
		CannyLow:            50,
		CannyHigh:           150,
		DilateRadius:        1,
		MinContourArea:      500,
		EpsilonRatio:        0.01,
		MinEpsilon:          2,
		MinBoxSide:          10,
		MinBoxArea:          2000,
		MaxBoxAreaRatio:     0.98,
	}
}

// Polygon is a simplified external contour.
type Polygon struct {
	// Points are the simplified vertices in contour traversal order, in the
	// input image's pixel space.
	Points []geometry.Point `json:"points"`

	// Area is the area enclosed by the traced contour before simplification.
	Area float64 `json:"area"`

	// Vertices is len(Points).
	Vertices int `json:"vertices"`

	// BBox bounds Points.
	BBox geometry.BBox `json:"bbox"`
}

// Result contains the ranked polygons found in one image.
type Result struct {
	// Polygons lists quadrilaterals first, then everything else, each group
	// by descending Area. Never nil.
	Polygons []Polygon `json:"polygons"`

	// Width and Height of the analyzed input image.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Count returns the number of polygons.
func (r *Result) Count() int {
	return len(r.Polygons)
}

// Outlines returns the vertices of every polygon, in rank order.
func (r *Result) Outlines() [][]geometry.Point {
	out := make([][]geometry.Point, len(r.Polygons))
	for i, p := range r.Polygons {
		out[i] = p.Points
	}
	return out
}

// Detector finds document-like polygons. It holds only immutable
// configuration and is safe for concurrent use.
type Detector struct {
	opts Options
	log  zerolog.Logger
}

// New creates a detector.
func New(opts Options, log zerolog.Logger) *Detector {
	return &Detector{opts: opts, log: log.With().Str("component", "detector").Logger()}
}

// Options returns the detector's configuration.
func (d *Detector) Options() Options {
	return d.opts
}

// Detect finds candidate document outlines in img.
//
// Detection is a best-effort heuristic: it never fails. An image without
// qualifying contours, an empty image, or an internal failure all produce a
// Result with no polygons. Internal failures are logged.
//
// # Algorithm
//
//  1. Downscale to MaxDimension if needed
//  2. Luminance, bilateral smoothing, Canny edges, dilation
//  3. Trace external contours only
//  4. Per contour: area floor, Douglas-Peucker simplification, vertex and
//     bounding box filters (quadrilaterals skip the box area limits so a page
//     filling the whole frame is kept)
//  5. Rank quadrilaterals first, then by descending contour area
func (d *Detector) Detect(img image.Image) (result *Result) {
	b := img.Bounds()
	result = &Result{Polygons: []Polygon{}, Width: b.Dx(), Height: b.Dy()}
	if b.Empty() {
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Warn().
				Str("panic", fmt.Sprint(r)).
				Int("width", b.Dx()).
				Int("height", b.Dy()).
				Msg("polygon detection failed")
			result = &Result{Polygons: []Polygon{}, Width: b.Dx(), Height: b.Dy()}
		}
	}()

	start := time.Now()
	edges, scale := d.EdgeMap(img)
	contours := ExternalContours(edges)

	eb := edges.Bounds()
	imageArea := float64(eb.Dx() * eb.Dy())
	for _, contour := range contours {
		if poly, ok := d.polygon(contour, imageArea); ok {
			result.Polygons = append(result.Polygons, poly.scaled(scale))
		}
	}
	rank(result.Polygons)

	d.log.Debug().
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Float64("scale", scale).
		Int("contours", len(contours)).
		Int("polygons", len(result.Polygons)).
		Dur("elapsed", time.Since(start)).
		Msg("polygon detection finished")
	return result
}

// EdgeMap runs the edge stage of the detector and returns the dilated binary
// edge map along with the factor that maps its coordinates back to img.
func (d *Detector) EdgeMap(img image.Image) (*image.Gray, float64) {
	work, scale := imaging.Fit(img, d.opts.MaxDimension)
	lum := imaging.Luminance(work)
	smooth := imaging.Bilateral(lum, d.opts.BilateralDiameter, d.opts.BilateralSigmaColor, d.opts.BilateralSigmaSpace)
	edges := imaging.Canny(smooth, d.opts.CannyLow, d.opts.CannyHigh)
	return imaging.Dilate(edges, d.opts.DilateRadius), scale
}

// polygon applies the per-contour filters. imageArea is the area of the
// analyzed (possibly downscaled) image.
func (d *Detector) polygon(contour []geometry.Point, imageArea float64) (Polygon, bool) {
	area := geometry.Area(contour)
	if area <= 0 || area < d.opts.MinContourArea {
		return Polygon{}, false
	}

	eps := math.Max(d.opts.EpsilonRatio*geometry.Perimeter(contour), d.opts.MinEpsilon)
	approx := geometry.SimplifyClosed(contour, eps)
	if len(approx) < 3 {
		return Polygon{}, false
	}

	box := geometry.BoundingBox(approx)
	if box.Width < d.opts.MinBoxSide || box.Height < d.opts.MinBoxSide {
		return Polygon{}, false
	}

	boxArea := float64(box.Area())
	if len(approx) != 4 && (boxArea < float64(d.opts.MinBoxArea) || boxArea > d.opts.MaxBoxAreaRatio*imageArea) {
		return Polygon{}, false
	}

	return Polygon{Points: approx, Area: area, Vertices: len(approx), BBox: box}, true
}

// scaled maps a polygon found on a downscaled image back to the input.
func (p Polygon) scaled(scale float64) Polygon {
	if scale == 1 {
		return p
	}
	pts := make([]geometry.Point, len(p.Points))
	for i, pt := range p.Points {
		pts[i] = pt.Scale(scale, scale)
	}
	return Polygon{
		Points:   pts,
		Area:     p.Area * scale * scale,
		Vertices: len(pts),
		BBox:     geometry.BoundingBox(pts),
	}
}

// rank orders quadrilaterals first, then by descending area. Ties keep
// contour order.
func rank(polys []Polygon) {
	sort.SliceStable(polys, func(i, j int) bool {
		qi, qj := polys[i].Vertices == 4, polys[j].Vertices == 4
		if qi != qj {
			return qi
		}
		return polys[i].Area > polys[j].Area
	})
}
