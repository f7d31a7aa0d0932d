package disaster

import (
	"math"

	"github.com/google/uuid"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
)

const (
	// Number of perpendicular cross-sections sampled across an
	// obstruction's extent along the road axis.
	crossSectionSamples = 10

	// A direction counts as affected once its remaining width drops
	// below this.
	directionThresholdM = 2.0

	// Applied when an edge lacks resolvable endpoint geometry: assume
	// 70% of the width is gone rather than skipping the edge.
	fallbackBlockedFraction = 0.7
)

// CollapsePolygon builds the quadrilateral swept by a falling tree: the
// trunk-width rectangle at the base, extruded heightM meters along the
// collapse direction.
func CollapsePolygon(base geo.Point2D, angleDeg, heightM, trunkWidthM float64) geo.Polygon {
	rad := angleDeg * math.Pi / 180
	dir := geo.Pt(math.Cos(rad), math.Sin(rad))
	half := dir.Perp().Scale(trunkWidthM / 2)
	tip := base.Add(dir.Scale(heightM))
	return geo.NewPolygon(
		base.Add(half),
		base.Sub(half),
		tip.Sub(half),
		tip.Add(half),
	).EnsureCCW()
}

// ObstructionFor intersects a collapse event with one road edge and
// returns the resulting obstruction, or nil when the event misses the
// road. The remaining width is the minimum over sampled cross-sections;
// a pinch at one sample governs passability regardless of how clear the
// rest of the road is. On bidirectional roads the worse direction sets
// the edge's overall value.
func ObstructionFor(g *citymap.RoadGraph, e *citymap.Edge, ev *TreeCollapseEvent) *RoadObstruction {
	seg, ok := g.Segment(e)
	if !ok || seg.Length() < 1e-9 {
		// Endpoint geometry unresolved: conservative fixed blockage.
		return &RoadObstruction{
			ID:              uuid.NewString(),
			EdgeID:          e.ID,
			EventID:         ev.ID,
			Blockage:        ev.Blockage,
			RemainingWidthM: e.OriginalWidthM * (1 - fallbackBlockedFraction),
			BlockedPercent:  fallbackBlockedFraction * 100,
		}
	}

	roadPoly := geo.CorridorPolygon(seg.A, seg.B, e.OriginalWidthM)
	if roadPoly.IsEmpty() || !geo.BoxesOverlap(roadPoly, ev.Blockage) {
		return nil
	}
	overlap := geo.ClipToConvex(ev.Blockage, roadPoly)
	if overlap.IsEmpty() || overlap.Area() < 1e-9 {
		return nil
	}

	// Obstruction extent along the road axis.
	tLo, tHi := 1.0, 0.0
	for _, v := range overlap.Vertices {
		t, _ := seg.Project(v)
		tLo = math.Min(tLo, t)
		tHi = math.Max(tHi, t)
	}
	if tHi <= tLo {
		return nil
	}

	dir := seg.Direction()
	perp := dir.Perp()
	halfW := e.OriginalWidthM / 2

	remaining := e.OriginalWidthM
	dirRemaining := map[citymap.LaneDirection]float64{
		citymap.LaneForward:  citymap.DirectionalWidth(e, citymap.LaneForward),
		citymap.LaneBackward: citymap.DirectionalWidth(e, citymap.LaneBackward),
	}

	for i := 0; i < crossSectionSamples; i++ {
		t := tLo + (tHi-tLo)*float64(i)/float64(crossSectionSamples-1)
		center := seg.At(t)

		cross := geo.Seg(center.Sub(perp.Scale(halfW)), center.Add(perp.Scale(halfW)))
		blocked := cross.ChordLength(overlap)
		if r := e.OriginalWidthM - blocked; r < remaining {
			remaining = r
		}

		if e.Bidirectional {
			// Right half carries forward traffic, left half backward.
			fwdHalf := geo.Seg(center.Sub(perp.Scale(halfW)), center)
			bwdHalf := geo.Seg(center, center.Add(perp.Scale(halfW)))
			if r := halfW - fwdHalf.ChordLength(overlap); r < dirRemaining[citymap.LaneForward] {
				dirRemaining[citymap.LaneForward] = r
			}
			if r := halfW - bwdHalf.ChordLength(overlap); r < dirRemaining[citymap.LaneBackward] {
				dirRemaining[citymap.LaneBackward] = r
			}
		}
	}
	if e.Bidirectional {
		// A fully blocked direction closes the road even when the other
		// half is clear.
		remaining = math.Min(remaining,
			math.Min(dirRemaining[citymap.LaneForward], dirRemaining[citymap.LaneBackward]))
	}
	remaining = math.Max(0, remaining)

	o := &RoadObstruction{
		ID:              uuid.NewString(),
		EdgeID:          e.ID,
		EventID:         ev.ID,
		Blockage:        overlap,
		RemainingWidthM: remaining,
		BlockedPercent:  math.Min(100, overlap.Area()/roadPoly.Area()*100),
	}
	if e.Bidirectional {
		o.DirectionalWidths = map[citymap.LaneDirection]float64{
			citymap.LaneForward:  math.Max(0, dirRemaining[citymap.LaneForward]),
			citymap.LaneBackward: math.Max(0, dirRemaining[citymap.LaneBackward]),
		}
		for _, d := range []citymap.LaneDirection{citymap.LaneForward, citymap.LaneBackward} {
			if o.DirectionalWidths[d] < directionThresholdM {
				o.AffectedDirections = append(o.AffectedDirections, d)
			}
		}
	}
	return o
}
