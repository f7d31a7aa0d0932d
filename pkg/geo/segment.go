package geo

import "math"

// Segment is a directed line segment from A to B.
type Segment struct {
	A Point2D `json:"a"`
	B Point2D `json:"b"`
}

// Seg is a shorthand constructor for Segment.
func Seg(a, b Point2D) Segment {
	return Segment{A: a, B: b}
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// Direction returns the unit vector from A to B.
func (s Segment) Direction() Point2D {
	return s.B.Sub(s.A).Normalize()
}

// At returns the point at parameter t in [0,1] along the segment.
func (s Segment) At(t float64) Point2D {
	return s.A.Lerp(s.B, t)
}

// Project returns the parameter t of the closest point on the segment's
// supporting line to p, clamped to [0,1], plus the closest point itself.
func (s Segment) Project(p Point2D) (float64, Point2D) {
	d := s.B.Sub(s.A)
	lenSq := d.Dot(d)
	if lenSq < 1e-12 {
		return 0, s.A
	}
	t := p.Sub(s.A).Dot(d) / lenSq
	t = math.Max(0, math.Min(1, t))
	return t, s.At(t)
}

// DistanceTo returns the shortest distance from p to the segment.
func (s Segment) DistanceTo(p Point2D) float64 {
	_, closest := s.Project(p)
	return p.Distance(closest)
}

// Intersect returns the intersection point of two segments, if they cross
// strictly within both spans. Collinear overlaps report no intersection:
// overlapping roads are a generation artifact, not a crossing.
func (s Segment) Intersect(other Segment) (Point2D, bool) {
	r := s.B.Sub(s.A)
	q := other.B.Sub(other.A)
	denom := r.Cross(q)
	if math.Abs(denom) < 1e-12 {
		return Point2D{}, false
	}
	diff := other.A.Sub(s.A)
	t := diff.Cross(q) / denom
	u := diff.Cross(r) / denom
	const eps = 1e-9
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return Point2D{}, false
	}
	return s.At(math.Max(0, math.Min(1, t))), true
}

// ClipToConvexPolygon clips the segment against a convex polygon using the
// Cyrus-Beck parametric method. Returns the parameter interval [t0,t1] of
// the portion inside the polygon, and false when the segment misses it.
func (s Segment) ClipToConvexPolygon(poly Polygon) (float64, float64, bool) {
	if poly.IsEmpty() {
		return 0, 0, false
	}
	poly = poly.EnsureCCW()
	d := s.B.Sub(s.A)
	t0, t1 := 0.0, 1.0
	n := len(poly.Vertices)
	for i := 0; i < n; i++ {
		e0 := poly.Vertices[i]
		e1 := poly.Vertices[(i+1)%n]
		// Inward normal of a CCW edge.
		edge := e1.Sub(e0)
		normal := Point2D{-edge.Y, edge.X}
		num := normal.Dot(s.A.Sub(e0))
		den := normal.Dot(d)
		if math.Abs(den) < 1e-12 {
			if num < 0 {
				return 0, 0, false // parallel and outside
			}
			continue
		}
		t := -num / den
		if den > 0 {
			// Entering the half-plane.
			if t > t0 {
				t0 = t
			}
		} else {
			// Leaving the half-plane.
			if t < t1 {
				t1 = t
			}
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// ChordLength returns the length of the segment's portion inside a convex
// polygon. Zero when the segment misses the polygon entirely.
func (s Segment) ChordLength(poly Polygon) float64 {
	t0, t1, ok := s.ClipToConvexPolygon(poly)
	if !ok {
		return 0
	}
	return s.Length() * (t1 - t0)
}
