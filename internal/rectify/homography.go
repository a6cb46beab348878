package rectify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/docscan/internal/geometry"
)

// Homography is a 3x3 projective transform in row-major order, scaled so
// that the last element is 1.
type Homography [9]float64

// Project maps p through h.
func (h Homography) Project(p geometry.Point) geometry.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	return geometry.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// SolveHomography computes the projective transform that maps each from[i]
// onto to[i].
//
// Both point sets are first moved to their centroid and scaled to a mean
// distance of sqrt(2), so the 8x8 system stays well conditioned for
// coordinates in the thousands. The system is then solved with gonum's LU
// solver and the normalization is undone.
//
// Returns ErrInvalidPolygon when either quad is degenerate (three collinear
// corners, coincident corners), which makes the system singular.
func SolveHomography(from, to [4]geometry.Point) (Homography, error) {
	fromNorm, fromT, _ := normalize(from)
	toNorm, _, toInv := normalize(to)

	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		X, Y := fromNorm[i].X, fromNorm[i].Y
		x, y := toNorm[i].X, toNorm[i].Y

		// x = (h0 X + h1 Y + h2) / (h6 X + h7 Y + 1)
		A.SetRow(i*2, []float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x})
		B.SetVec(i*2, x)

		// y = (h3 X + h4 Y + h5) / (h6 X + h7 Y + 1)
		A.SetRow(i*2+1, []float64{0, 0, 0, X, Y, 1, -X * y, -Y * y})
		B.SetVec(i*2+1, y)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return Homography{}, fmt.Errorf("%w: degenerate quadrilateral: %v", ErrInvalidPolygon, err)
	}

	hn := mat.NewDense(3, 3, []float64{
		params.AtVec(0), params.AtVec(1), params.AtVec(2),
		params.AtVec(3), params.AtVec(4), params.AtVec(5),
		params.AtVec(6), params.AtVec(7), 1,
	})

	// H = toInv * Hn * fromT
	var tmp, full mat.Dense
	tmp.Mul(hn, fromT)
	full.Mul(toInv, &tmp)

	scale := full.At(2, 2)
	if math.Abs(scale) < 1e-12 || math.IsNaN(scale) {
		return Homography{}, fmt.Errorf("%w: degenerate quadrilateral", ErrInvalidPolygon)
	}

	var h Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[r*3+c] = full.At(r, c) / scale
		}
	}
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, fmt.Errorf("%w: degenerate quadrilateral", ErrInvalidPolygon)
		}
	}
	return h, nil
}

// normalize returns pts translated to their centroid and scaled to a mean
// distance of sqrt(2), together with the similarity transform that does so
// and its inverse.
func normalize(pts [4]geometry.Point) ([4]geometry.Point, *mat.Dense, *mat.Dense) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4

	var mean float64
	for _, p := range pts {
		mean += math.Hypot(p.X-cx, p.Y-cy)
	}
	mean /= 4

	s := 1.0
	if mean > 0 {
		s = math.Sqrt2 / mean
	}

	var out [4]geometry.Point
	for i, p := range pts {
		out[i] = geometry.Point{X: (p.X - cx) * s, Y: (p.Y - cy) * s}
	}

	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * cx,
		0, s, -s * cy,
		0, 0, 1,
	})
	inv := mat.NewDense(3, 3, []float64{
		1 / s, 0, cx,
		0, 1 / s, cy,
		0, 0, 1,
	})
	return out, t, inv
}
