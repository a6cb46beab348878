// Package httpapi is the HTTP front end of the document scanner.
//
// # Routes
//
//	GET  /health              liveness probe
//	POST /upload              multipart "file" → polygons
//	POST /upload-base64       JSON {image, preview} → polygons
//	POST /detect              same as /upload-base64
//	POST /rectify             JSON {image, points, normalized, detect_inner, ocr, quality}
//	POST /rectify/upload      multipart "file" and "points" → rectified page
//	POST /crop-and-detect     /rectify for the browser client (polygon, cropped_image)
//	POST /edges               JSON {image} → edge map PNG
//	GET  /, /intro, /index.html  static pages
//
// Images in JSON bodies are base64 or data URLs. Errors are reported as
// {"success": false, "error": kind, "message": text}.
package httpapi

import (
	"context"
	"image"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ironsheep/docscan/internal/scanner"
)

// Scanner is the document pipeline behind the routes. *scanner.Scanner
// implements it.
type Scanner interface {
	Detect(ctx context.Context, img image.Image, preview bool) (*scanner.Detection, error)
	Rectify(ctx context.Context, img image.Image, opts scanner.RectifyOptions) (*scanner.Rectified, error)
	Edges(ctx context.Context, img image.Image) (*scanner.Edges, error)
}

// Options configures the router.
type Options struct {
	// MaxUploadBytes caps request bodies. Zero disables the cap.
	MaxUploadBytes int64

	// StaticDir holds index.html and intro.html. Empty disables the pages.
	StaticDir string

	// CORSOrigin is the allowed browser origin; "*" allows any.
	CORSOrigin string
}

// Handler serves the API routes.
type Handler struct {
	scanner   Scanner
	staticDir string
	log       zerolog.Logger
}

// NewRouter builds the gin engine with every route and middleware wired.
func NewRouter(sc Scanner, opts Options, log zerolog.Logger) *gin.Engine {
	log = log.With().Str("component", "http").Logger()
	h := &Handler{scanner: sc, staticDir: opts.StaticDir, log: log}

	r := gin.New()
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}
	r.Use(requestLogger(log), recovery(log), corsPolicy(opts.CORSOrigin), limitBody(opts.MaxUploadBytes))

	r.GET("/health", h.Health)

	r.POST("/upload", h.Upload)
	r.POST("/upload-base64", h.DetectBase64)
	r.POST("/detect", h.DetectBase64)
	r.POST("/edges", h.Edges)

	r.POST("/rectify", h.Rectify)
	r.POST("/rectify/upload", h.RectifyUpload)
	r.POST("/crop-and-detect", h.CropAndDetect)

	r.GET("/", h.page("intro.html"))
	r.GET("/intro", h.page("intro.html"))
	r.GET("/index.html", h.page("index.html"))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: kindNotFound, Message: "no route for " + c.Request.URL.Path})
	})
	return r
}
