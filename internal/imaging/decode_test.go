package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createInMemoryImage creates a uniformly colored test image.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createRectangleImage draws a filled rectangle on a uniform background.
func createRectangleImage(width, height int, rect image.Rectangle, bg, fg color.Color) *image.RGBA {
	img := createInMemoryImage(width, height, bg)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Set(x, y, fg)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	src := createInMemoryImage(40, 30, color.RGBA{200, 100, 50, 255})

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, src, nil); err != nil {
		t.Fatalf("failed to encode JPEG: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"png", encodePNG(t, src)},
		{"jpeg", jpg.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			b := img.Bounds()
			if b.Min != (image.Point{}) || b.Dx() != 40 || b.Dy() != 30 {
				t.Errorf("bounds: got %v, want (0,0)-(40,30)", b)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not an image")},
		{"truncated png", encodePNG(t, createInMemoryImage(10, 10, color.White))[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("err: got %v, want ErrDecode", err)
			}
		})
	}
}

func TestDecodeBase64(t *testing.T) {
	raw := encodePNG(t, createInMemoryImage(8, 6, color.Black))
	std := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"bare", std, false},
		{"data url", "data:image/png;base64," + std, false},
		{"wrapped lines", std[:10] + "\n" + std[10:], false},
		{"unpadded", base64.RawStdEncoding.EncodeToString(raw), false},
		{"empty", "   ", true},
		{"not base64", "!!!***", true},
		{"data url without comma", "data:image/png;base64", true},
		{"data url not base64", "data:text/plain," + std, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeBase64(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrDecode) {
					t.Errorf("err: got %v, want ErrDecode", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeBase64 failed: %v", err)
			}
			if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
				t.Errorf("dimensions: got %v, want 8x6", img.Bounds())
			}
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	if err := os.WriteFile(path, encodePNG(t, createInMemoryImage(5, 5, color.White)), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 5 {
		t.Errorf("width: got %d, want 5", img.Bounds().Dx())
	}

	_, err = Open(filepath.Join(dir, "missing.png"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("missing file: got %v, want ErrDecode", err)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name      string
		w, h, max int
		wantW     int
		wantH     int
		wantScale float64
	}{
		{"within bounds", 800, 600, 1600, 800, 600, 1},
		{"landscape", 3200, 1600, 1600, 1600, 800, 2},
		{"portrait", 1000, 4000, 2000, 500, 2000, 2},
		{"disabled", 2000, 1000, 0, 2000, 1000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h))
			got, scale := Fit(img, tt.max)
			if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
				t.Errorf("size: got %dx%d, want %dx%d", got.Bounds().Dx(), got.Bounds().Dy(), tt.wantW, tt.wantH)
			}
			if scale != tt.wantScale {
				t.Errorf("scale: got %v, want %v", scale, tt.wantScale)
			}
		})
	}
}

func TestEncodeJPEG(t *testing.T) {
	img := createInMemoryImage(32, 16, color.RGBA{10, 200, 30, 255})

	for _, quality := range []int{1, 50, 100, 0, 150} {
		enc, err := EncodeJPEG(img, quality)
		if err != nil {
			t.Fatalf("EncodeJPEG(%d) failed: %v", quality, err)
		}
		if enc.MimeType != "image/jpeg" {
			t.Errorf("MimeType: got %s", enc.MimeType)
		}
		if enc.Width != 32 || enc.Height != 16 {
			t.Errorf("dimensions: got %dx%d, want 32x16", enc.Width, enc.Height)
		}
		if !strings.HasPrefix(enc.DataURL, "data:image/jpeg;base64,") {
			t.Errorf("DataURL prefix: got %.30s", enc.DataURL)
		}

		back, err := DecodeBase64(enc.DataURL)
		if err != nil {
			t.Fatalf("round trip failed: %v", err)
		}
		if back.Bounds().Dx() != 32 {
			t.Errorf("round trip width: got %d", back.Bounds().Dx())
		}
	}
}

func TestEncodePNG(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.Pix[5] = 255

	enc, err := EncodePNG(gray)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if enc.MimeType != "image/png" {
		t.Errorf("MimeType: got %s", enc.MimeType)
	}

	back, err := DecodeBase64(enc.DataURL)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if back.NRGBAAt(1, 1).R != 255 || back.NRGBAAt(0, 0).R != 0 {
		t.Error("PNG encoding was not lossless")
	}
}

func TestEncode_Empty(t *testing.T) {
	if _, err := EncodeJPEG(image.NewRGBA(image.Rect(0, 0, 0, 0)), 90); !errors.Is(err, ErrEncode) {
		t.Errorf("empty image: got %v, want ErrEncode", err)
	}
	if _, err := EncodePNG(nil); !errors.Is(err, ErrEncode) {
		t.Errorf("nil image: got %v, want ErrEncode", err)
	}
}
