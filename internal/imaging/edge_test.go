package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestLuminance(t *testing.T) {
	img := createInMemoryImage(6, 4, color.White)
	p := Luminance(img)

	if p.Width != 6 || p.Height != 4 {
		t.Fatalf("dimensions: got %dx%d, want 6x4", p.Width, p.Height)
	}
	for i, v := range p.Pix {
		if v < 254 {
			t.Fatalf("pixel %d: got %v, want ~255", i, v)
		}
	}
}

func TestPlaneAt_ClampsCoordinates(t *testing.T) {
	p := NewPlane(2, 2)
	p.Pix = []float64{1, 2, 3, 4}

	tests := []struct {
		x, y int
		want float64
	}{
		{-5, -5, 1},
		{9, 0, 2},
		{0, 9, 3},
		{9, 9, 4},
	}
	for _, tt := range tests {
		if got := p.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

// stepPlane returns a plane whose left half is 0 and right half is 255.
func stepPlane(width, height int) *Plane {
	p := NewPlane(width, height)
	for y := 0; y < height; y++ {
		for x := width / 2; x < width; x++ {
			p.Pix[y*width+x] = 255
		}
	}
	return p
}

func TestBilateral_UniformStaysUniform(t *testing.T) {
	p := NewPlane(20, 20)
	for i := range p.Pix {
		p.Pix[i] = 100
	}

	out := Bilateral(p, 9, 75, 75)
	for i, v := range out.Pix {
		if math.Abs(v-100) > 1e-9 {
			t.Fatalf("pixel %d: got %v, want 100", i, v)
		}
	}
}

func TestBilateral_PreservesSteps(t *testing.T) {
	p := stepPlane(30, 10)
	out := Bilateral(p, 9, 75, 75)

	// The pixels on either side of the step keep almost all of their contrast.
	left := out.At(14, 5)
	right := out.At(15, 5)
	if left > 15 || right < 240 {
		t.Errorf("step smoothed away: left=%v right=%v", left, right)
	}
}

func TestBilateral_SmoothsNoise(t *testing.T) {
	p := NewPlane(15, 15)
	for i := range p.Pix {
		p.Pix[i] = 100
	}
	p.Pix[7*15+7] = 120

	out := Bilateral(p, 9, 75, 75)
	if v := out.At(7, 7); v >= 120 || v <= 100 {
		t.Errorf("noise pixel: got %v, want strictly between 100 and 120", v)
	}
}

func TestBilateral_DegenerateParameters(t *testing.T) {
	p := stepPlane(10, 10)
	for _, tc := range []struct {
		name   string
		d      int
		sc, ss float64
	}{
		{"tiny diameter", 1, 75, 75},
		{"zero color sigma", 9, 0, 75},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := Bilateral(p, tc.d, tc.sc, tc.ss)
			for i := range p.Pix {
				if out.Pix[i] != p.Pix[i] {
					t.Fatalf("pixel %d changed: got %v, want %v", i, out.Pix[i], p.Pix[i])
				}
			}
			if &out.Pix[0] == &p.Pix[0] {
				t.Error("output shares storage with input")
			}
		})
	}
}

func TestCanny_UniformHasNoEdges(t *testing.T) {
	p := NewPlane(40, 40)
	for i := range p.Pix {
		p.Pix[i] = 128
	}

	edges := Canny(p, 50, 150)
	for i, v := range edges.Pix {
		if v != 0 {
			t.Fatalf("unexpected edge pixel at index %d", i)
		}
	}
}

func TestCanny_RectangleBorder(t *testing.T) {
	rect := image.Rect(20, 20, 60, 50)
	img := createRectangleImage(80, 70, rect, color.Black, color.White)
	edges := Canny(Luminance(img), 50, 150)

	count := 0
	for y := 0; y < 70; y++ {
		for x := 0; x < 80; x++ {
			if edges.GrayAt(x, y).Y == 0 {
				continue
			}
			if edges.GrayAt(x, y).Y != 255 {
				t.Fatalf("non-binary value %d at (%d,%d)", edges.GrayAt(x, y).Y, x, y)
			}
			count++

			// Every edge pixel hugs the rectangle border.
			nearX := abs(x-rect.Min.X) <= 2 || abs(x-rect.Max.X) <= 2
			nearY := abs(y-rect.Min.Y) <= 2 || abs(y-rect.Max.Y) <= 2
			if !nearX && !nearY {
				t.Errorf("edge pixel far from the border at (%d,%d)", x, y)
			}
		}
	}

	// One thin line per side.
	perimeter := 2 * (rect.Dx() + rect.Dy())
	if count < perimeter/2 || count > perimeter*2 {
		t.Errorf("edge pixel count: got %d, want about %d", count, perimeter)
	}
}

func TestCanny_ThresholdsSwapped(t *testing.T) {
	p := stepPlane(20, 20)
	a := Canny(p, 50, 150)
	b := Canny(p, 150, 50)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("swapped thresholds produced a different edge map")
		}
	}
}

func TestCanny_TinyInput(t *testing.T) {
	edges := Canny(NewPlane(2, 2), 50, 150)
	if edges.Bounds().Dx() != 2 || edges.Bounds().Dy() != 2 {
		t.Errorf("bounds: got %v", edges.Bounds())
	}
}

func TestDilate(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 9, 9))
	src.SetGray(4, 4, color.Gray{Y: 255})

	out := Dilate(src, 1)
	for _, pt := range []image.Point{{4, 4}, {3, 4}, {5, 4}, {4, 3}, {4, 5}} {
		if out.GrayAt(pt.X, pt.Y).Y != 255 {
			t.Errorf("pixel %v not dilated", pt)
		}
	}
	for _, pt := range []image.Point{{0, 0}, {4, 7}, {7, 4}, {1, 1}} {
		if out.GrayAt(pt.X, pt.Y).Y != 0 {
			t.Errorf("pixel %v unexpectedly set", pt)
		}
	}
	if src.GrayAt(3, 4).Y != 0 {
		t.Error("input was modified")
	}
}

func TestDilate_ZeroRadiusCopies(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	src.SetGray(1, 1, color.Gray{Y: 255})

	out := Dilate(src, 0)
	if out == src {
		t.Fatal("zero radius returned the input itself")
	}
	if out.GrayAt(1, 1).Y != 255 || out.GrayAt(0, 1).Y != 0 {
		t.Error("zero radius changed the map")
	}
}
