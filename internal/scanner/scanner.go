// Package scanner composes the detector, the rectifier, the encoder and the
// optional OCR pass into the operations both front ends expose.
//
// A Scanner holds no per-request state. Front ends decode the request image
// and hand it over; every operation returns a value ready to be marshalled to
// JSON.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/docscan/internal/detection"
	"github.com/ironsheep/docscan/internal/geometry"
	"github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/ocr"
	"github.com/ironsheep/docscan/internal/rectify"
)

// ErrOCRDisabled is reported in ocr_error when text recognition is requested
// from a Scanner built without a TextExtractor.
var ErrOCRDisabled = errors.New("OCR is not enabled")

// PolygonDetector finds document outlines. *detection.Detector implements it.
type PolygonDetector interface {
	Detect(img image.Image) *detection.Result
	EdgeMap(img image.Image) (*image.Gray, float64)
}

// TextExtractor recognizes text on a rectified page. *ocr.Engine implements it.
type TextExtractor interface {
	Extract(ctx context.Context, img image.Image) (*ocr.Result, error)
}

// Scanner runs document scans. It is safe for concurrent use.
type Scanner struct {
	detector PolygonDetector
	text     TextExtractor
	quality  int
	log      zerolog.Logger
}

// New creates a scanner.
//
// Parameters:
//   - detector: Used for detection requests, detect_inner passes and edge maps.
//   - text: Optional; nil disables OCR.
//   - quality: Default JPEG quality for rectified images, 1-100.
//   - log: Base logger; a component field is added.
func New(detector PolygonDetector, text TextExtractor, quality int, log zerolog.Logger) *Scanner {
	if quality < 1 || quality > 100 {
		quality = imaging.DefaultJPEGQuality
	}
	return &Scanner{
		detector: detector,
		text:     text,
		quality:  quality,
		log:      log.With().Str("component", "scanner").Logger(),
	}
}

// Detection is the response to a detection request.
type Detection struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Width    int                 `json:"width"`
	Height   int                 `json:"height"`
	Polygons []detection.Polygon `json:"polygons"`

	// Preview is a JPEG data URL of the input with every polygon outlined.
	Preview string `json:"preview,omitempty"`
}

// Detect finds document polygons in img.
//
// When preview is set the response also carries the input image with each
// polygon drawn in its own colour and labelled with its rank.
func (s *Scanner) Detect(ctx context.Context, img image.Image, preview bool) (*Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := s.detector.Detect(img)
	out := &Detection{
		Success:  true,
		Message:  fmt.Sprintf("Detected %d polygons", res.Count()),
		Width:    res.Width,
		Height:   res.Height,
		Polygons: res.Polygons,
	}

	if preview {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		enc, err := imaging.EncodeJPEG(imaging.DrawPolygons(img, res.Outlines()), s.quality)
		if err != nil {
			return nil, err
		}
		out.Preview = enc.DataURL
	}

	s.log.Debug().
		Int("width", out.Width).
		Int("height", out.Height).
		Int("polygons", len(out.Polygons)).
		Bool("preview", preview).
		Msg("detect")
	return out, nil
}

// RectifyOptions selects the corners and the optional passes of a rectify
// request.
type RectifyOptions struct {
	// Points are the four corners, in any order.
	Points []geometry.Point

	// Normalized marks Points as fractions of the image size.
	Normalized bool

	// DetectInner runs the detector on the rectified page.
	DetectInner bool

	// OCR recognizes the text of the rectified page.
	OCR bool

	// Quality overrides the JPEG quality when in 1-100.
	Quality int
}

// Rectified is the response to a rectify request. The secondary passes never
// fail the request: their errors land in DetectInnerError and OCRError.
type Rectified struct {
	Success bool              `json:"success"`
	Image   string            `json:"image"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Corners [4]geometry.Point `json:"corners"`

	Polygons         []detection.Polygon `json:"polygons,omitempty"`
	DetectInnerError string              `json:"detect_inner_error,omitempty"`

	Text     string     `json:"text,omitempty"`
	Words    []ocr.Word `json:"words,omitempty"`
	OCRError string     `json:"ocr_error,omitempty"`
}

// Rectify flattens the selected quadrilateral of img and encodes the result.
//
// Errors wrap rectify.ErrInvalidPolygon for bad corners and
// imaging.ErrEncode when the page cannot be compressed. A cancelled ctx is
// returned as is.
func (s *Scanner) Rectify(ctx context.Context, img image.Image, opts RectifyOptions) (*Rectified, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := rectify.Rectify(img, opts.Points, opts.Normalized)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quality := opts.Quality
	if quality < 1 || quality > 100 {
		quality = s.quality
	}
	enc, err := imaging.EncodeJPEG(page.Image, quality)
	if err != nil {
		return nil, err
	}

	out := &Rectified{
		Success: true,
		Image:   enc.DataURL,
		Width:   page.Width,
		Height:  page.Height,
		Corners: page.Corners,
	}

	if opts.DetectInner {
		polys, err := s.detectInner(ctx, page.Image)
		if err != nil {
			out.DetectInnerError = err.Error()
			s.log.Warn().Err(err).Msg("detect_inner failed")
		} else {
			out.Polygons = polys
		}
	}

	if opts.OCR {
		res, err := s.recognize(ctx, page.Image)
		if err != nil {
			out.OCRError = err.Error()
			s.log.Warn().Err(err).Msg("ocr failed")
		} else {
			out.Text = res.Text
			out.Words = res.Words
		}
	}

	s.log.Debug().
		Int("width", out.Width).
		Int("height", out.Height).
		Bool("detect_inner", opts.DetectInner).
		Bool("ocr", opts.OCR).
		Dur("elapsed", time.Since(start)).
		Msg("rectify")
	return out, nil
}

// detectInner runs the secondary detection pass. A panic in the detector is
// turned into an error so the rectified page is still returned.
func (s *Scanner) detectInner(ctx context.Context, page image.Image) (polys []detection.Polygon, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			polys, err = nil, fmt.Errorf("inner detection failed: %v", r)
		}
	}()
	return s.detector.Detect(page).Polygons, nil
}

func (s *Scanner) recognize(ctx context.Context, page image.Image) (*ocr.Result, error) {
	if s.text == nil {
		return nil, ErrOCRDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.text.Extract(ctx, page)
}

// Edges is the response to an edge map request.
type Edges struct {
	Success bool   `json:"success"`
	Image   string `json:"image"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`

	// Scale maps edge map coordinates back to the input image.
	Scale float64 `json:"scale"`

	// EdgePixels counts the set pixels of the map.
	EdgePixels int `json:"edge_pixels"`
}

// Edges returns the detector's dilated edge map as a PNG data URL. It shows
// what the contour tracer sees and is meant for tuning.
func (s *Scanner) Edges(ctx context.Context, img image.Image) (*Edges, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", imaging.ErrDecode)
	}

	edges, scale := s.detector.EdgeMap(img)
	count := 0
	for _, v := range edges.Pix {
		if v != 0 {
			count++
		}
	}

	enc, err := imaging.EncodePNG(edges)
	if err != nil {
		return nil, err
	}
	return &Edges{
		Success:    true,
		Image:      enc.DataURL,
		Width:      enc.Width,
		Height:     enc.Height,
		Scale:      scale,
		EdgePixels: count,
	}, nil
}
