package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/effect"
)

// Plane is a single-channel image of float64 samples on the 0-255 scale,
// stored row-major. The detector works on planes so that intermediate
// results keep full precision between filters.
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// At returns the sample at (x, y), replicating edge samples for coordinates
// outside the plane.
func (p *Plane) At(x, y int) float64 {
	return p.Pix[clamp(y, 0, p.Height-1)*p.Width+clamp(x, 0, p.Width-1)]
}

// Luminance converts img to a luminance plane.
//
// Uses bild's grayscale conversion (0.3*R + 0.6*G + 0.1*B). The result is
// anchored at (0,0) regardless of img's bounds.
func Luminance(img image.Image) *Plane {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}
	gray := asGray(effect.Grayscale(rgba))
	b := gray.Bounds()
	p := NewPlane(b.Dx(), b.Dy())
	for y := 0; y < p.Height; y++ {
		row := gray.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < p.Width; x++ {
			p.Pix[y*p.Width+x] = float64(gray.Pix[row+x])
		}
	}
	return p
}

// Bilateral applies an edge-preserving bilateral filter to src.
//
// Each output sample is a weighted mean of the samples inside a circular
// window of the given diameter. The weight of a neighbour is the product of
// a spatial gaussian (sigmaSpace, in pixels) and a range gaussian (sigmaColor,
// on the 0-255 scale) of its difference to the centre sample. Flat regions
// are smoothed like a gaussian blur while strong steps, such as the border
// between a sheet of paper and a desk, keep their full contrast.
//
// A non-positive diameter derives one from sigmaSpace. A diameter below 3 or
// non-positive sigmas return an unfiltered copy.
func Bilateral(src *Plane, diameter int, sigmaColor, sigmaSpace float64) *Plane {
	dst := NewPlane(src.Width, src.Height)
	if diameter <= 0 {
		diameter = int(math.Round(sigmaSpace*1.5))*2 + 1
	}
	radius := diameter / 2
	if radius < 1 || sigmaColor <= 0 || sigmaSpace <= 0 {
		copy(dst.Pix, src.Pix)
		return dst
	}

	type tap struct {
		dx, dy int
		weight float64
	}
	taps := make([]tap, 0, diameter*diameter)
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := dx*dx + dy*dy
			if d2 > radius*radius {
				continue
			}
			taps = append(taps, tap{dx, dy, math.Exp(float64(d2) * spaceCoeff)})
		}
	}

	var rangeWeight [256]float64
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	for i := range rangeWeight {
		rangeWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			center := src.Pix[y*src.Width+x]
			var sum, wsum float64
			for _, t := range taps {
				v := src.At(x+t.dx, y+t.dy)
				diff := int(math.Abs(v-center) + 0.5)
				if diff > 255 {
					diff = 255
				}
				w := t.weight * rangeWeight[diff]
				sum += v * w
				wsum += w
			}
			dst.Pix[y*src.Width+x] = sum / wsum
		}
	}
	return dst
}

// Canny runs Canny edge detection on src and returns a binary map where edge
// pixels are 255 and everything else is 0.
//
// Parameters:
//   - src: Input plane, normally already smoothed.
//   - low: Weak threshold on gradient magnitude. Pixels below it are never edges.
//   - high: Strong threshold. Pixels at or above it are always edges.
//
// Gradients come from 3x3 Sobel operators, so a hard black/white step has a
// magnitude of 1020; thresholds of 50 and 150 therefore catch soft document
// borders too.
//
// # Algorithm
//
//  1. Sobel gradients, magnitude sqrt(Gx² + Gy²)
//  2. Non-maximum suppression along the gradient direction, quantized to
//     four sectors (0°, 45°, 90°, 135°)
//  3. Hysteresis: every strong pixel seeds an 8-connected flood that
//     accepts weak pixels, so weak segments survive only when they touch a
//     strong one
func Canny(src *Plane, low, high float64) *image.Gray {
	w, h := src.Width, src.Height
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w < 3 || h < 3 {
		return out
	}
	if low > high {
		low, high = high, low
	}

	mag := make([]float64, w*h)
	sector := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, tc, tr := src.At(x-1, y-1), src.At(x, y-1), src.At(x+1, y-1)
			ml, mr := src.At(x-1, y), src.At(x+1, y)
			bl, bc, br := src.At(x-1, y+1), src.At(x, y+1), src.At(x+1, y+1)

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			i := y*w + x
			mag[i] = math.Hypot(gx, gy)

			angle := math.Atan2(gy, gx) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			switch {
			case angle < 22.5 || angle >= 157.5:
				sector[i] = 0
			case angle < 67.5:
				sector[i] = 1
			case angle < 112.5:
				sector[i] = 2
			default:
				sector[i] = 3
			}
		}
	}

	// Offsets of the two neighbours compared in each sector, in (dx, dy).
	// Y grows downward, so a 45° gradient points to the bottom-right.
	neighbours := [4][2][2]int{
		{{-1, 0}, {1, 0}},
		{{-1, -1}, {1, 1}},
		{{0, -1}, {0, 1}},
		{{1, -1}, {-1, 1}},
	}

	suppressed := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m < low {
				continue
			}
			n := neighbours[sector[i]]
			before := mag[(y+n[0][1])*w+x+n[0][0]]
			after := mag[(y+n[1][1])*w+x+n[1][0]]
			// Strict on one side so a two-pixel plateau yields a one-pixel edge.
			if m > before && m >= after {
				suppressed[i] = m
			}
		}
	}

	stack := make([]int, 0, 1024)
	for i, m := range suppressed {
		if m >= high {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if out.Pix[j] == 0 && suppressed[j] >= low {
					out.Pix[j] = 255
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// Dilate grows the foreground of a binary map by radius pixels (bild's
// maximum filter) and re-binarizes the result. Radius 1 closes one-pixel gaps
// in an edge contour.
func Dilate(binary *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		b := binary.Bounds()
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(out, out.Bounds(), binary, b.Min, draw.Src)
		return out
	}
	return binarize(effect.Dilate(binary, radius))
}

// binarize maps every pixel with non-zero luminance to 255.
func binarize(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			row := rgba.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < b.Dx(); x++ {
				o := row + x*4
				if rgba.Pix[o]|rgba.Pix[o+1]|rgba.Pix[o+2] != 0 {
					out.Pix[y*out.Stride+x] = 255
				}
			}
		}
		return out
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y != 0 {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// asGray returns img as *image.Gray, converting when necessary.
func asGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
