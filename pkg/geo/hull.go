package geo

import "sort"

// ConvexHull returns the convex hull of the given points as a CCW polygon
// using Andrew's monotone chain. Fewer than 3 distinct points yield the
// degenerate polygon over the inputs.
func ConvexHull(points []Point2D) Polygon {
	pts := make([]Point2D, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	// Drop duplicates after sorting.
	dedup := pts[:0]
	for i, p := range pts {
		if i == 0 || p.Distance(dedup[len(dedup)-1]) > 1e-9 {
			dedup = append(dedup, p)
		}
	}
	pts = dedup

	n := len(pts)
	if n < 3 {
		return Polygon{Vertices: pts}
	}

	hull := make([]Point2D, 0, 2*n)

	// Lower hull.
	for _, p := range pts {
		for len(hull) >= 2 && cross3(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Upper hull.
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross3(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return Polygon{Vertices: hull[:len(hull)-1]}
}

// cross3 returns the cross product of (b-a) x (c-a).
func cross3(a, b, c Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
