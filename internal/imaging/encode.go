package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEncode is returned when an image cannot be compressed for transport.
var ErrEncode = errors.New("encode error")

// DefaultJPEGQuality is used when a caller passes a quality outside 1-100.
const DefaultJPEGQuality = 90

// Encoded contains an image compressed for transport in a JSON response.
type Encoded struct {
	// Width of the encoded image in pixels.
	Width int `json:"width"`

	// Height of the encoded image in pixels.
	Height int `json:"height"`

	// DataURL is the compressed image as "data:<mime>;base64,<payload>",
	// ready to be assigned to an <img> src attribute.
	DataURL string `json:"data_url"`

	// MimeType is "image/jpeg" or "image/png".
	MimeType string `json:"mime_type"`

	// Bytes is the size of the compressed payload before base64.
	Bytes int `json:"bytes"`
}

// EncodeJPEG compresses img as a JPEG data URL.
//
// Parameters:
//   - img: Image to encode. Alpha is flattened by the JPEG encoder.
//   - quality: JPEG quality from 1 to 100. Values outside the range fall back
//     to DefaultJPEGQuality.
//
// Every failure wraps ErrEncode.
func EncodeJPEG(img image.Image, quality int) (*Encoded, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return encode(img, imaging.JPEG, "image/jpeg", imaging.JPEGQuality(quality))
}

// EncodePNG compresses img losslessly as a PNG data URL. Used for binary
// debug images such as edge maps, where JPEG ringing would be misleading.
func EncodePNG(img image.Image) (*Encoded, error) {
	return encode(img, imaging.PNG, "image/png")
}

func encode(img image.Image, format imaging.Format, mime string, opts ...imaging.EncodeOption) (*Encoded, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrEncode)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrEncode)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, fmt.Errorf("%w: failed to encode image: %v", ErrEncode, err)
	}

	return &Encoded{
		Width:    b.Dx(),
		Height:   b.Dy(),
		DataURL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType: mime,
		Bytes:    buf.Len(),
	}, nil
}
