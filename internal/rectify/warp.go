package rectify

import (
	"image"
	"math"

	"github.com/ironsheep/docscan/internal/geometry"
)

// warp builds a width x height image whose pixel (x, y) is src sampled at
// h(x, y).
func warp(src *image.NRGBA, h Homography, width, height int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+width*4]
		for x := 0; x < width; x++ {
			p := h.Project(geometry.Point{X: float64(x), Y: float64(y)})
			bilinear(src, p.X, p.Y, row[x*4:x*4+4])
		}
	}
	return out
}

// bilinear writes the NRGBA sample of src at (fx, fy) into dst. Coordinates
// outside the image are clamped to the border.
func bilinear(src *image.NRGBA, fx, fy float64, dst []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	fx = clampCoord(fx, float64(w-1))
	fy = clampCoord(fy, float64(h-1))

	x0, y0 := int(fx), int(fy)
	x1, y1 := x0+1, y0+1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	ax, ay := fx-float64(x0), fy-float64(y0)

	p00 := src.Pix[y0*src.Stride+x0*4:]
	p10 := src.Pix[y0*src.Stride+x1*4:]
	p01 := src.Pix[y1*src.Stride+x0*4:]
	p11 := src.Pix[y1*src.Stride+x1*4:]

	for c := 0; c < 4; c++ {
		top := float64(p00[c])*(1-ax) + float64(p10[c])*ax
		bottom := float64(p01[c])*(1-ax) + float64(p11[c])*ax
		v := top*(1-ay) + bottom*ay
		dst[c] = uint8(math.Min(255, math.Max(0, math.Round(v))))
	}
}

func clampCoord(v, max float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > max:
		return max
	}
	return v
}
