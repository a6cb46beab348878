package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode is returned for input that cannot be turned into an image:
// malformed base64, truncated or corrupt files, unsupported formats.
var ErrDecode = errors.New("decode error")

// Decode turns encoded image bytes into an *image.NRGBA anchored at (0,0).
//
// The format is sniffed from the content, so callers never need to pass a
// file name or MIME type. Supported formats are PNG, JPEG, GIF, BMP, TIFF and
// WebP. EXIF orientation tags are applied, which matters for phone photos
// where the sensor orientation differs from the displayed one.
//
// # Errors
//
// Every failure wraps ErrDecode, so callers can classify it with errors.Is.
func Decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", ErrDecode)
	}
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader is Decode for a stream.
func DecodeReader(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	return imaging.Clone(img), nil
}

// DecodeBase64 decodes a base64 payload. Both bare base64 and data URLs of
// the form "data:image/jpeg;base64,...." (as produced by canvas.toDataURL in
// webcam captures) are accepted. Whitespace and line breaks are ignored.
func DecodeBase64(s string) (*image.NRGBA, error) {
	payload := strings.TrimSpace(s)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty base64 payload", ErrDecode)
	}
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrDecode)
		}
		if !strings.Contains(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrDecode)
		}
		payload = payload[comma+1:]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip the padding.
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecode, err)
		}
	}
	return Decode(data)
}

// Open reads and decodes an image file from disk.
func Open(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open image: %v", ErrDecode, err)
	}
	defer f.Close()

	return DecodeReader(f)
}

// Fit downscales img so that neither side exceeds maxDimension, preserving
// the aspect ratio. It returns the (possibly new) image and the factor that
// maps coordinates in the returned image back to img. Images already within
// bounds, or a non-positive maxDimension, are returned untouched with factor 1.
func Fit(img image.Image, maxDimension int) (image.Image, float64) {
	b := img.Bounds()
	longest := b.Dx()
	if b.Dy() > longest {
		longest = b.Dy()
	}
	if maxDimension <= 0 || longest <= maxDimension {
		return img, 1
	}

	fitted := imaging.Fit(img, maxDimension, maxDimension, imaging.Box)
	scale := float64(b.Dx()) / float64(fitted.Bounds().Dx())
	return fitted, scale
}
