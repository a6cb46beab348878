package geometry

import "math"

// SimplifyClosed approximates the closed contour pts with fewer vertices so
// that no dropped point lies further than epsilon from the result.
//
// The contour is split at two mutually distant anchor points (the farthest
// point from the first vertex, then the farthest point from that one) and each
// half is simplified with Douglas-Peucker. Anchors are always kept, which puts
// them on extreme points of the shape rather than wherever tracing started.
// Vertices come back in the traversal order of pts.
func SimplifyClosed(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n < 3 {
		out := make([]Point, n)
		copy(out, pts)
		return out
	}

	a := farthestFrom(pts, 0)
	b := farthestFrom(pts, a)
	if a == b {
		return []Point{pts[a]}
	}
	if a > b {
		a, b = b, a
	}

	first := pts[a : b+1]
	second := make([]Point, 0, n-b+a+1)
	second = append(second, pts[b:]...)
	second = append(second, pts[:a+1]...)

	s1 := SimplifyOpen(first, epsilon)
	s2 := SimplifyOpen(second, epsilon)

	// s1 ends where s2 starts and s2 ends where s1 starts.
	out := make([]Point, 0, len(s1)+len(s2)-2)
	out = append(out, s1[:len(s1)-1]...)
	out = append(out, s2[:len(s2)-1]...)
	return out
}

// SimplifyOpen runs Douglas-Peucker on an open polyline. Both endpoints are
// kept.
func SimplifyOpen(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n <= 2 {
		out := make([]Point, n)
		copy(out, pts)
		return out
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		maxDist := -1.0
		maxIdx := s.lo
		for i := s.lo + 1; i < s.hi; i++ {
			d := segmentDistance(pts[i], pts[s.lo], pts[s.hi])
			if d > maxDist {
				maxDist = d
				maxIdx = i
			}
		}
		if maxDist > epsilon {
			keep[maxIdx] = true
			stack = append(stack, span{s.lo, maxIdx}, span{maxIdx, s.hi})
		}
	}

	out := make([]Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func farthestFrom(pts []Point, idx int) int {
	best, bestDist := idx, -1.0
	origin := pts[idx]
	for i, p := range pts {
		dx, dy := p.X-origin.X, p.Y-origin.Y
		if d := dx*dx + dy*dy; d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// segmentDistance is the distance from p to the line through a and b, or to
// a itself when a and b coincide.
func segmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	norm := math.Hypot(dx, dy)
	if norm < 1e-12 {
		return p.Dist(a)
	}
	return math.Abs(dy*(p.X-a.X)-dx*(p.Y-a.Y)) / norm
}
