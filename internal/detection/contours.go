package detection

import (
	"image"

	"github.com/ironsheep/docscan/internal/geometry"
)

// Moore neighbourhood in clockwise order on screen (Y grows downward),
// starting east.
var mooreDirs = [8]image.Point{
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
}

const dirWest = 4

// dirIndex maps an offset (dx+1)*3+(dy+1) back to its index in mooreDirs.
// Rows are dx = -1, 0, 1; columns are dy = -1, 0, 1.
var dirIndex = [9]int{
	5, 4, 3,
	6, -1, 2,
	7, 0, 1,
}

// ExternalContours returns the outer boundary of every 8-connected group of
// foreground (non-zero) pixels in binary that is not enclosed by another
// group. Groups sitting inside a hole of another group, such as text printed
// on a page, are skipped.
//
// Each contour is the ordered chain of boundary pixel centres found by Moore
// neighbour tracing, starting at the topmost-leftmost pixel of the group and
// running clockwise on screen. Contours are returned in raster order of their
// starting pixels. The map must be anchored at (0,0).
func ExternalContours(binary *image.Gray) [][]geometry.Point {
	w, h := binary.Rect.Dx(), binary.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := binary.Pix[y*binary.Stride : y*binary.Stride+w]
		for x, v := range row {
			fg[y*w+x] = v != 0
		}
	}

	outside := borderBackground(fg, w, h)

	labels := make([]int32, w*h)
	var next int32
	var contours [][]geometry.Point
	stack := make([]int, 0, 256)

	for i := range fg {
		if !fg[i] || labels[i] != 0 {
			continue
		}
		next++
		size := labelComponent(fg, labels, w, h, i, next, stack[:0])

		// The first pixel of a group in raster order has background to its
		// west. The group is external when that background reaches the border.
		x, y := i%w, i/w
		if x > 0 && !outside[i-1] {
			continue
		}
		contours = append(contours, traceBoundary(fg, w, h, x, y, size))
	}
	return contours
}

// borderBackground marks every background pixel that is 4-connected to the
// image border.
func borderBackground(fg []bool, w, h int) []bool {
	outside := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))

	seed := func(i int) {
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		seed(x)
		seed((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		seed(y * w)
		seed(y*w + w - 1)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 {
			seed(i - 1)
		}
		if x < w-1 {
			seed(i + 1)
		}
		if y > 0 {
			seed(i - w)
		}
		if y < h-1 {
			seed(i + w)
		}
	}
	return outside
}

// labelComponent assigns label to the 8-connected foreground group containing
// start and returns its pixel count.
func labelComponent(fg []bool, labels []int32, w, h, start int, label int32, stack []int) int {
	labels[start] = label
	stack = append(stack, start)
	size := 0
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++
		x, y := i%w, i/w
		for _, d := range mooreDirs {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if fg[j] && labels[j] == 0 {
				labels[j] = label
				stack = append(stack, j)
			}
		}
	}
	return size
}

// traceBoundary follows the outer boundary of the group whose topmost-leftmost
// pixel is (x0, y0). Tracing stops when the walk is back at the start about to
// repeat its first move (Jacob's stopping criterion).
func traceBoundary(fg []bool, w, h, x0, y0, size int) []geometry.Point {
	isFG := func(p image.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h && fg[p.Y*w+p.X]
	}

	start := image.Pt(x0, y0)
	contour := []geometry.Point{geometry.Pt(float64(x0), float64(y0))}

	cur, back := start, dirWest
	var second image.Point
	limit := 4*size + 8

	for step := 0; step < limit; step++ {
		found := false
		var nxt image.Point
		var nback int
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			cand := cur.Add(mooreDirs[d])
			if !isFG(cand) {
				continue
			}
			prev := cur.Add(mooreDirs[(back+k-1)%8])
			off := prev.Sub(cand)
			nxt, nback, found = cand, dirIndex[(off.X+1)*3+off.Y+1], true
			break
		}
		if !found {
			// Isolated pixel.
			break
		}

		if len(contour) > 1 && cur == start && nxt == second {
			contour = contour[:len(contour)-1]
			break
		}
		if len(contour) == 1 {
			second = nxt
		}
		contour = append(contour, geometry.Pt(float64(nxt.X), float64(nxt.Y)))
		cur, back = nxt, nback
	}
	return contour
}
