package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/rectify"
)

// errBadRequest marks request-shape problems: missing fields, malformed JSON,
// unparsable form values.
var errBadRequest = errors.New("bad request")

// Error kinds reported in the "error" field.
const (
	kindBadRequest     = "bad_request"
	kindDecode         = "decode_error"
	kindInvalidPolygon = "invalid_polygon"
	kindTooLarge       = "request_too_large"
	kindEncode         = "encode_error"
	kindNotFound       = "not_found"
	kindInternal       = "internal_error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps an error to its HTTP status and kind.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, kindTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, kindBadRequest
	case errors.Is(err, imaging.ErrDecode):
		return http.StatusBadRequest, kindDecode
	case errors.Is(err, rectify.ErrInvalidPolygon):
		return http.StatusBadRequest, kindInvalidPolygon
	case errors.Is(err, imaging.ErrEncode):
		return http.StatusInternalServerError, kindEncode
	default:
		return http.StatusInternalServerError, kindInternal
	}
}

// abortWithError writes the JSON error body for err and stops the chain.
func abortWithError(c *gin.Context, err error) {
	status, kind := classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: kind, Message: err.Error()})
}
