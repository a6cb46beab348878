package imaging

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/docscan/internal/geometry"
)

// PolygonPalette returns n visually distinct opaque colors.
//
// Hues are spread with the golden-ratio step so that neighbouring ranks never
// get similar colors, at fixed high saturation and value so outlines stay
// readable over both paper and dark backgrounds. The palette is deterministic.
func PolygonPalette(n int) []color.NRGBA {
	const goldenRatio = 0.618033988749895
	palette := make([]color.NRGBA, n)
	hue := 0.0
	for i := range palette {
		r, g, b := colorful.Hsv(hue*360, 0.85, 0.95).RGB255()
		palette[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
		hue = math.Mod(hue+goldenRatio, 1)
	}
	return palette
}

// DrawPolygons returns a copy of img with every polygon outlined in its own
// palette color and labelled with its 1-based rank next to its first vertex.
// The input image is not modified.
//
// Line thickness scales with the image so outlines stay visible after the
// client downsizes the preview.
func DrawPolygons(img image.Image, polygons [][]geometry.Point) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()

	shortest := b.Dx()
	if b.Dy() < shortest {
		shortest = b.Dy()
	}
	thickness := shortest / 300
	if thickness < 1 {
		thickness = 1
	}

	palette := PolygonPalette(len(polygons))
	for i, poly := range polygons {
		if len(poly) == 0 {
			continue
		}
		c := palette[i]
		for j := range poly {
			a, z := poly[j], poly[(j+1)%len(poly)]
			drawLine(out, a, z, thickness, c)
		}

		labelColor := color.NRGBA{255, 255, 255, 255}
		drawLabel(out, int(poly[0].X)+thickness+1, int(poly[0].Y)+thickness+1, strconv.Itoa(i+1), labelColor, c)
	}
	return out
}

// drawLine rasterizes the segment a-z with Bresenham's algorithm, stamping a
// square of the given thickness at every step.
func drawLine(img *image.NRGBA, a, z geometry.Point, thickness int, c color.NRGBA) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(z.X)), int(math.Round(z.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	half := thickness / 2
	for {
		for ty := -half; ty < thickness-half; ty++ {
			for tx := -half; tx < thickness-half; tx++ {
				setPixel(img, x0+tx, y0+ty, c)
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font, scaled 2x. Only digits are supported.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	const scale = 2
	charWidth := 4 * scale
	labelWidth := len(text) * charWidth
	labelHeight := 7 * scale

	for dy := -scale; dy < labelHeight; dy++ {
		for dx := -scale; dx < labelWidth; dx++ {
			setPixel(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				for sy := 0; sy < scale; sy++ {
					for sx := 0; sx < scale; sx++ {
						setPixel(img, cx+col*scale+sx, y+row*scale+sy, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
