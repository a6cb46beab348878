package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is used when an Engine is created without a language.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Word is a recognized word with its location and OCR confidence.
type Word struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this word in the image.
	Bounds Bounds `json:"bounds"`
}

// Result contains the text recognized on one image.
type Result struct {
	// Text is all recognized text with the original line breaks, trimmed.
	Text string `json:"text"`

	// Words contains individual words with their bounding boxes. May be empty
	// if bounding box extraction fails; the text is still in Text.
	Words []Word `json:"words"`

	// Language is the Tesseract language code used.
	Language string `json:"language"`
}

// Engine runs Tesseract on in-memory images. An Engine holds only
// configuration; every call creates its own Tesseract client, so one Engine
// can serve concurrent requests.
type Engine struct {
	language string
}

// New creates an engine for the given Tesseract language code, such as "eng"
// or "deu+eng". The language data must be installed on the system.
func New(language string) *Engine {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return &Engine{language: language}
}

// Language returns the configured language code.
func (e *Engine) Language() string {
	return e.language
}

// Extract recognizes the text on img.
//
// The image is handed to Tesseract as PNG bytes, so nothing touches the disk.
// Tesseract itself cannot be interrupted; ctx is only checked before the
// recognition starts.
//
// Word-level results use Tesseract's RIL_WORD iterator level. If bounding box
// extraction fails, the text is still returned with an empty Words slice.
func (e *Engine) Extract(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("no image to recognize")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(e.language, "+")...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &Result{
		Text:     strings.TrimSpace(text),
		Words:    []Word{},
		Language: e.language,
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		result.Words = append(result.Words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return result, nil
}

// Info describes the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language"`
	Backend   string `json:"backend"`
}

// Info reports the Tesseract version linked into the binary.
func (e *Engine) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Language:  e.language,
		Backend:   "gosseract",
	}
}
