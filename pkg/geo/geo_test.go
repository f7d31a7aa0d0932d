package geo

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSegmentIntersectCrossing(t *testing.T) {
	s1 := Seg(Pt(0, 0), Pt(10, 0))
	s2 := Seg(Pt(5, -5), Pt(5, 5))
	pt, ok := s1.Intersect(s2)
	if !ok {
		t.Fatal("expected intersection")
	}
	if !almostEqual(pt.X, 5, 1e-9) || !almostEqual(pt.Y, 0, 1e-9) {
		t.Errorf("intersection at (%v, %v), want (5, 0)", pt.X, pt.Y)
	}
}

func TestSegmentIntersectParallel(t *testing.T) {
	s1 := Seg(Pt(0, 0), Pt(10, 0))
	s2 := Seg(Pt(0, 1), Pt(10, 1))
	if _, ok := s1.Intersect(s2); ok {
		t.Error("parallel segments must not intersect")
	}
}

func TestSegmentIntersectDisjoint(t *testing.T) {
	s1 := Seg(Pt(0, 0), Pt(10, 0))
	s2 := Seg(Pt(20, -5), Pt(20, 5))
	if _, ok := s1.Intersect(s2); ok {
		t.Error("disjoint segments must not intersect")
	}
}

func TestSegmentProject(t *testing.T) {
	s := Seg(Pt(0, 0), Pt(10, 0))
	tt, closest := s.Project(Pt(3, 4))
	if !almostEqual(tt, 0.3, 1e-9) {
		t.Errorf("t = %v, want 0.3", tt)
	}
	if !almostEqual(closest.Y, 0, 1e-9) {
		t.Errorf("closest point off the segment: %v", closest)
	}
	if d := s.DistanceTo(Pt(3, 4)); !almostEqual(d, 4, 1e-9) {
		t.Errorf("distance = %v, want 4", d)
	}
	// Beyond the end: clamps to endpoint.
	tt, _ = s.Project(Pt(15, 0))
	if tt != 1 {
		t.Errorf("t = %v, want 1 (clamped)", tt)
	}
}

func TestPolygonArea(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	if a := sq.Area(); !almostEqual(a, 100, 1e-9) {
		t.Errorf("area = %v, want 100", a)
	}
	if !sq.IsCounterClockwise() {
		t.Error("square should be CCW")
	}
}

func TestPolygonContains(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	if !sq.Contains(Pt(5, 5)) {
		t.Error("center should be inside")
	}
	if sq.Contains(Pt(15, 5)) {
		t.Error("outside point reported inside")
	}
}

func TestClipToConvexOverlap(t *testing.T) {
	a := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	b := NewPolygon(Pt(5, 5), Pt(15, 5), Pt(15, 15), Pt(5, 15))
	clipped := ClipToConvex(a, b)
	if clipped.IsEmpty() {
		t.Fatal("expected non-empty intersection")
	}
	if area := clipped.Area(); !almostEqual(area, 25, 1e-6) {
		t.Errorf("intersection area = %v, want 25", area)
	}
}

func TestClipToConvexDisjoint(t *testing.T) {
	a := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	b := NewPolygon(Pt(20, 20), Pt(30, 20), Pt(30, 30), Pt(20, 30))
	if clipped := ClipToConvex(a, b); !clipped.IsEmpty() {
		t.Errorf("disjoint clip produced %d vertices", clipped.Len())
	}
}

func TestClipToConvexClockwiseClipper(t *testing.T) {
	// Clipper winding must not matter.
	a := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	b := NewPolygon(Pt(5, 15), Pt(15, 15), Pt(15, 5), Pt(5, 5)) // CW
	clipped := ClipToConvex(a, b)
	if area := clipped.Area(); !almostEqual(area, 25, 1e-6) {
		t.Errorf("intersection area = %v, want 25", area)
	}
}

func TestSegmentChordLength(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))

	// Fully crossing chord.
	s := Seg(Pt(-5, 5), Pt(15, 5))
	if c := s.ChordLength(sq); !almostEqual(c, 10, 1e-6) {
		t.Errorf("crossing chord = %v, want 10", c)
	}

	// Fully inside.
	s = Seg(Pt(2, 5), Pt(8, 5))
	if c := s.ChordLength(sq); !almostEqual(c, 6, 1e-6) {
		t.Errorf("inside chord = %v, want 6", c)
	}

	// Missing entirely.
	s = Seg(Pt(-5, 20), Pt(15, 20))
	if c := s.ChordLength(sq); c != 0 {
		t.Errorf("miss chord = %v, want 0", c)
	}
}

func TestCorridorPolygon(t *testing.T) {
	p := CorridorPolygon(Pt(0, 0), Pt(100, 0), 12)
	if p.IsEmpty() {
		t.Fatal("expected corridor polygon")
	}
	if a := p.Area(); !almostEqual(a, 1200, 1e-6) {
		t.Errorf("corridor area = %v, want 1200", a)
	}
}

func TestConvexHullSquare(t *testing.T) {
	pts := []Point2D{
		{0, 0}, {10, 0}, {10, 10}, {0, 10},
		{5, 5}, {3, 7}, {2, 2}, // interior points
	}
	hull := ConvexHull(pts)
	if hull.Len() != 4 {
		t.Fatalf("hull has %d vertices, want 4", hull.Len())
	}
	if a := hull.Area(); !almostEqual(a, 100, 1e-6) {
		t.Errorf("hull area = %v, want 100", a)
	}
}

func TestConvexHullDegenerate(t *testing.T) {
	hull := ConvexHull([]Point2D{{1, 1}, {2, 2}})
	if hull.Len() != 2 {
		t.Errorf("degenerate hull has %d vertices, want 2", hull.Len())
	}
}
