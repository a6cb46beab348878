package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/docscan/internal/geometry"
	"github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/scanner"
)

type imageRequest struct {
	Image   string `json:"image"`
	Preview bool   `json:"preview"`
}

type rectifyRequest struct {
	Image       string           `json:"image"`
	Points      []geometry.Point `json:"points"`
	Polygon     []geometry.Point `json:"polygon"`
	Normalized  bool             `json:"normalized"`
	DetectInner bool             `json:"detect_inner"`
	OCR         bool             `json:"ocr"`
	Quality     int              `json:"quality"`
}

func (r *rectifyRequest) options() scanner.RectifyOptions {
	pts := r.Points
	if pts == nil {
		pts = r.Polygon
	}
	return scanner.RectifyOptions{
		Points:      pts,
		Normalized:  r.Normalized,
		DetectInner: r.DetectInner,
		OCR:         r.OCR,
		Quality:     r.Quality,
	}
}

// cropResponse is the rectify response under the field name the browser
// client reads.
type cropResponse struct {
	*scanner.Rectified
	CroppedImage string `json:"cropped_image"`
}

// Health reports that the service is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Backend is running"})
}

// Upload detects polygons in a multipart "file" upload. An optional
// "preview" form value asks for the annotated preview image.
func (h *Handler) Upload(c *gin.Context) {
	img, err := formImage(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	preview, err := formBool(c, "preview")
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.detect(c, img, preview)
}

// DetectBase64 detects polygons in a base64 or data URL image.
func (h *Handler) DetectBase64(c *gin.Context) {
	var req imageRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.detect(c, img, req.Preview)
}

func (h *Handler) detect(c *gin.Context, img image.Image, preview bool) {
	res, err := h.scanner.Detect(c.Request.Context(), img, preview)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Edges returns the detector's edge map for a base64 image.
func (h *Handler) Edges(c *gin.Context) {
	var req imageRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := h.scanner.Edges(c.Request.Context(), img)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Rectify flattens the quadrilateral given by "points" out of a base64 image.
func (h *Handler) Rectify(c *gin.Context) {
	res, ok := h.rectifyJSON(c)
	if ok {
		c.JSON(http.StatusOK, res)
	}
}

// CropAndDetect is Rectify for the browser client, which sends "polygon"
// and reads "cropped_image".
func (h *Handler) CropAndDetect(c *gin.Context) {
	res, ok := h.rectifyJSON(c)
	if ok {
		c.JSON(http.StatusOK, cropResponse{Rectified: res, CroppedImage: res.Image})
	}
}

func (h *Handler) rectifyJSON(c *gin.Context) (*scanner.Rectified, bool) {
	var req rectifyRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return nil, false
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	res, err := h.scanner.Rectify(c.Request.Context(), img, req.options())
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return res, true
}

// RectifyUpload is Rectify for a multipart upload. "points" carries the
// corners as JSON text; "normalized", "detect_inner", "ocr" and "quality"
// are optional form values.
func (h *Handler) RectifyUpload(c *gin.Context) {
	img, err := formImage(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var opts scanner.RectifyOptions
	raw := c.PostForm("points")
	if strings.TrimSpace(raw) == "" {
		abortWithError(c, fmt.Errorf("%w: missing points", errBadRequest))
		return
	}
	if err := json.Unmarshal([]byte(raw), &opts.Points); err != nil {
		abortWithError(c, fmt.Errorf("%w: invalid points: %v", errBadRequest, err))
		return
	}
	for name, dst := range map[string]*bool{
		"normalized":   &opts.Normalized,
		"detect_inner": &opts.DetectInner,
		"ocr":          &opts.OCR,
	} {
		if *dst, err = formBool(c, name); err != nil {
			abortWithError(c, err)
			return
		}
	}
	if q := c.PostForm("quality"); q != "" {
		if opts.Quality, err = strconv.Atoi(q); err != nil {
			abortWithError(c, fmt.Errorf("%w: invalid quality %q", errBadRequest, q))
			return
		}
	}

	res, err := h.scanner.Rectify(c.Request.Context(), img, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// page serves a static HTML file from the configured directory, or a JSON
// 404 when it is missing.
func (h *Handler) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.staticDir != "" {
			body, err := os.ReadFile(filepath.Join(h.staticDir, name))
			if err == nil {
				c.Data(http.StatusOK, "text/html; charset=utf-8", body)
				return
			}
			h.log.Debug().Err(err).Str("page", name).Msg("static page unavailable")
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: kindNotFound, Message: name + " not found"})
	}
}

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func decodeImage(s string) (image.Image, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: No image data", errBadRequest)
	}
	return imaging.DecodeBase64(s)
}

// formImage decodes the multipart "file" field.
func formImage(c *gin.Context) (image.Image, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: No file part", errBadRequest)
	}
	if fh.Filename == "" {
		return nil, fmt.Errorf("%w: No selected file", errBadRequest)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open upload: %v", errBadRequest, err)
	}
	defer f.Close()
	return imaging.DecodeReader(f)
}

func formBool(c *gin.Context, name string) (bool, error) {
	v := c.PostForm(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", errBadRequest, name, v)
	}
	return b, nil
}
