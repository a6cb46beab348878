package geometry

import (
	"encoding/json"
	"math"
	"testing"
)

// rectangleOutline returns every integer point along the border of the
// rectangle (x0,y0)-(x1,y1), walked clockwise from the top-left corner.
func rectangleOutline(x0, y0, x1, y1 int) []Point {
	var pts []Point
	for x := x0; x < x1; x++ {
		pts = append(pts, Pt(float64(x), float64(y0)))
	}
	for y := y0; y < y1; y++ {
		pts = append(pts, Pt(float64(x1), float64(y)))
	}
	for x := x1; x > x0; x-- {
		pts = append(pts, Pt(float64(x), float64(y1)))
	}
	for y := y1; y > y0; y-- {
		pts = append(pts, Pt(float64(x0), float64(y)))
	}
	return pts
}

func TestArea(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want float64
	}{
		{"unit square", []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 1},
		{"counter-clockwise", []Point{{0, 0}, {0, 4}, {3, 4}, {3, 0}}, 12},
		{"triangle", []Point{{0, 0}, {4, 0}, {0, 3}}, 6},
		{"degenerate line", []Point{{0, 0}, {5, 5}, {10, 10}}, 0},
		{"too few points", []Point{{0, 0}, {1, 1}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Area(tt.pts); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Area: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerimeter(t *testing.T) {
	got := Perimeter([]Point{{0, 0}, {3, 0}, {3, 4}, {0, 4}})
	if got != 14 {
		t.Errorf("Perimeter: got %v, want 14", got)
	}
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox([]Point{{10, 20}, {109, 20}, {109, 219}, {10, 219}})
	want := BBox{X: 10, Y: 20, Width: 100, Height: 200}
	if box != want {
		t.Errorf("BoundingBox: got %+v, want %+v", box, want)
	}
	if box.Area() != 20000 {
		t.Errorf("Area: got %d, want 20000", box.Area())
	}

	if empty := BoundingBox(nil); empty != (BBox{}) {
		t.Errorf("empty BoundingBox: got %+v", empty)
	}
}

func TestSimplifyClosed_Rectangle(t *testing.T) {
	outline := rectangleOutline(10, 10, 110, 210)

	got := SimplifyClosed(outline, 0.01*Perimeter(outline))
	if len(got) != 4 {
		t.Fatalf("vertices: got %d (%v), want 4", len(got), got)
	}

	corners := map[Point]bool{{10, 10}: true, {110, 10}: true, {110, 210}: true, {10, 210}: true}
	for _, p := range got {
		if !corners[p] {
			t.Errorf("unexpected vertex %v", p)
		}
	}
	if a := Area(got); a != 100*200 {
		t.Errorf("simplified area: got %v, want 20000", a)
	}
}

func TestSimplifyClosed_KeepsTraversalOrder(t *testing.T) {
	outline := rectangleOutline(0, 0, 50, 50)
	got := SimplifyClosed(outline, 1)
	if len(got) != 4 {
		t.Fatalf("vertices: got %d, want 4", len(got))
	}

	// Consecutive vertices must share an edge of the square.
	for i := range got {
		a, b := got[i], got[(i+1)%len(got)]
		if a.X != b.X && a.Y != b.Y {
			t.Errorf("vertices %v and %v are not adjacent corners", a, b)
		}
	}
}

func TestSimplifyClosed_SmallInputs(t *testing.T) {
	if got := SimplifyClosed(nil, 1); len(got) != 0 {
		t.Errorf("nil input: got %v", got)
	}
	same := []Point{{3, 3}, {3, 3}, {3, 3}}
	if got := SimplifyClosed(same, 1); len(got) != 1 {
		t.Errorf("coincident points: got %v, want a single point", got)
	}
}

func TestSimplifyOpen(t *testing.T) {
	line := []Point{{0, 0}, {1, 0.1}, {2, -0.1}, {3, 5}, {4, 6}, {5, 7}}
	got := SimplifyOpen(line, 0.5)
	if got[0] != line[0] || got[len(got)-1] != line[len(line)-1] {
		t.Errorf("endpoints not kept: %v", got)
	}
	if len(got) >= len(line) {
		t.Errorf("nothing removed: %v", got)
	}
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Pt(1.5, 2))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[1.5,2]" {
		t.Errorf("Marshal: got %s, want [1.5,2]", data)
	}

	tests := []struct {
		name    string
		json    string
		want    Point
		wantErr bool
	}{
		{"array", `[3, 4]`, Pt(3, 4), false},
		{"object", `{"x": 0.25, "y": 0.75}`, Pt(0.25, 0.75), false},
		{"short array", `[1]`, Point{}, true},
		{"missing y", `{"x": 1}`, Point{}, true},
		{"string", `"1,2"`, Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point
			err := json.Unmarshal([]byte(tt.json), &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p != tt.want {
				t.Errorf("got %v, want %v", p, tt.want)
			}
		})
	}
}

func TestPointIsFinite(t *testing.T) {
	if !Pt(1, 2).IsFinite() {
		t.Error("finite point reported as non-finite")
	}
	if Pt(math.NaN(), 0).IsFinite() || Pt(0, math.Inf(1)).IsFinite() {
		t.Error("non-finite point reported as finite")
	}
}
