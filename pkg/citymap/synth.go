package citymap

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
	"github.com/ton731/urban-resilience-simulator/pkg/validation"
)

const (
	// Arteries keep this margin from the map border.
	arteryInsetM = 50.0

	// Diagonal arteries pick one of four quadrant base angles, jittered.
	diagonalJitterDeg = 10.0

	// Overshoot so clipping against the boundary yields a full crossing.
	diagonalOvershoot = 1.2

	// Alley placement band across the block, as a fraction of block extent.
	alleyBandLo = 0.2
	alleyBandHi = 0.8

	// Partial alleys reach 30-80% into the block.
	partialReachLo = 0.3
	partialReachHi = 0.8

	alleyTiltChance = 0.3
	alleyTiltMaxDeg = 20.0
)

var diagonalBaseAngles = []float64{30, 150, 210, 330}

// road is a centerline plus attributes, before intersection resolution.
type road struct {
	seg           geo.Segment
	class         RoadClass
	widthM        float64
	lanes         int
	speedKPH      float64
	bidirectional bool
}

// Synthesizer procedurally builds a road graph from a map definition.
// All randomness comes from the injected RNG so runs are reproducible.
type Synthesizer struct {
	cfg scenario.MapDef
	rng *rand.Rand
}

// NewSynthesizer creates a synthesizer for the given map definition.
func NewSynthesizer(cfg scenario.MapDef, rng *rand.Rand) *Synthesizer {
	return &Synthesizer{cfg: cfg, rng: rng}
}

// Generate builds the full road graph: arteries, per-block alleys, then
// intersection resolution so every crossing pair shares a node.
func (s *Synthesizer) Generate() (*RoadGraph, *validation.Report) {
	report := validation.NewReport()
	boundary := Boundary{MinX: 0, MinY: 0, MaxX: s.cfg.Width, MaxY: s.cfg.Height}

	verticals, horizontals := s.mainRoads()
	diagonals := s.diagonalRoads(boundary)

	roads := make([]road, 0, len(verticals)+len(horizontals)+len(diagonals))
	roads = append(roads, verticals...)
	roads = append(roads, horizontals...)
	roads = append(roads, diagonals...)

	alleys := s.alleys(verticals, horizontals, boundary)
	roads = append(roads, alleys...)

	kept := roads[:0]
	dropped := 0
	for _, r := range roads {
		if r.seg.Length() < s.cfg.MinRoadLengthM {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	if dropped > 0 {
		report.AddWarning(validation.Result{
			Level:       validation.LevelGeometry,
			Message:     "dropped degenerate roads below minimum length",
			Field:       "map.min_road_length_m",
			ActualValue: dropped,
		})
	}

	g := resolveIntersections(boundary, kept)

	report.AddInfo(validation.Result{
		Level: validation.LevelGeometry,
		Message: fmt.Sprintf("synthesized %d nodes, %d edges (%d arteries, %d diagonals, %d alleys)",
			len(g.Nodes), len(g.Edges), len(verticals)+len(horizontals), len(diagonals), len(alleys)),
	})
	return g, report
}

// mainRoads places the straight arteries: full-span verticals and
// horizontals, evenly spaced with a little jitter. An odd count gives the
// extra artery to the verticals.
func (s *Synthesizer) mainRoads() (verticals, horizontals []road) {
	vCount := s.cfg.MainRoadCount/2 + s.cfg.MainRoadCount%2
	hCount := s.cfg.MainRoadCount / 2

	for _, x := range s.arteryPositions(vCount, s.cfg.Width) {
		verticals = append(verticals, s.artery(geo.Seg(geo.Pt(x, 0), geo.Pt(x, s.cfg.Height))))
	}
	for _, y := range s.arteryPositions(hCount, s.cfg.Height) {
		horizontals = append(horizontals, s.artery(geo.Seg(geo.Pt(0, y), geo.Pt(s.cfg.Width, y))))
	}
	return verticals, horizontals
}

// arteryPositions spaces count arteries across an extent, keeping the
// border inset and jittering each position by up to 10% of the spacing.
func (s *Synthesizer) arteryPositions(count int, extent float64) []float64 {
	if count <= 0 {
		return nil
	}
	usable := extent - 2*arteryInsetM
	spacing := usable / float64(count+1)
	out := make([]float64, 0, count)
	for i := 1; i <= count; i++ {
		jitter := (s.rng.Float64() - 0.5) * spacing * 0.2
		out = append(out, arteryInsetM+spacing*float64(i)+jitter)
	}
	return out
}

func (s *Synthesizer) artery(seg geo.Segment) road {
	return road{
		seg:           seg,
		class:         RoadMain,
		widthM:        s.cfg.MainRoadWidthM,
		lanes:         s.cfg.MainRoadLanes,
		speedKPH:      s.cfg.MainRoadSpeedKPH,
		bidirectional: true,
	}
}

// diagonalRoads adds 1-2 diagonal arteries crossing the whole map. Each
// picks a distinct quadrant base angle, jitters it, anchors in the central
// band, and overshoots the border so boundary clipping yields a full chord.
func (s *Synthesizer) diagonalRoads(b Boundary) []road {
	count := 1 + s.rng.Intn(2)
	angles := append([]float64(nil), diagonalBaseAngles...)
	s.rng.Shuffle(len(angles), func(i, j int) { angles[i], angles[j] = angles[j], angles[i] })

	bounds := b.Polygon()
	reach := diagonalOvershoot * math.Max(b.Width(), b.Height())

	out := make([]road, 0, count)
	for i := 0; i < count && i < len(angles); i++ {
		deg := angles[i] + (s.rng.Float64()*2-1)*diagonalJitterDeg
		rad := deg * math.Pi / 180
		dir := geo.Pt(math.Cos(rad), math.Sin(rad))

		anchor := geo.Pt(
			b.MinX+b.Width()*(0.3+0.4*s.rng.Float64()),
			b.MinY+b.Height()*(0.3+0.4*s.rng.Float64()),
		)
		long := geo.Seg(anchor.Sub(dir.Scale(reach)), anchor.Add(dir.Scale(reach)))

		t0, t1, ok := long.ClipToConvexPolygon(bounds)
		if !ok {
			continue
		}
		out = append(out, s.artery(geo.Seg(long.At(t0), long.At(t1))))
	}
	return out
}

// alleys fills each rectangular block bounded by adjacent straight arteries
// (diagonals do not bound blocks) with 1-4 secondary roads.
func (s *Synthesizer) alleys(verticals, horizontals []road, b Boundary) []road {
	xs := cutCoords(verticals, true, b.MinX, b.MaxX)
	ys := cutCoords(horizontals, false, b.MinY, b.MaxY)

	var out []road
	for i := 0; i+1 < len(xs); i++ {
		for j := 0; j+1 < len(ys); j++ {
			count := 1 + s.rng.Intn(s.cfg.MaxAlleysPerBlock)
			for k := 0; k < count; k++ {
				if a, ok := s.blockAlley(xs[i], ys[j], xs[i+1], ys[j+1]); ok {
					out = append(out, a)
				}
			}
		}
	}
	return out
}

// cutCoords extracts artery positions along one axis, plus the map borders,
// sorted. Vertical arteries cut the x axis, horizontal ones the y axis.
func cutCoords(arteries []road, vertical bool, lo, hi float64) []float64 {
	out := []float64{lo}
	for _, r := range arteries {
		if vertical {
			out = append(out, r.seg.A.X)
		} else {
			out = append(out, r.seg.A.Y)
		}
	}
	out = append(out, hi)
	sort.Float64s(out)
	return out
}

// blockAlley generates one alley inside a block. Orientation, span
// (full-block or partial), tilt, and direction policy are all independent
// random choices. Returns false when the placement degenerates.
func (s *Synthesizer) blockAlley(x0, y0, x1, y1 float64) (road, bool) {
	bw, bh := x1-x0, y1-y0
	if bw <= 0 || bh <= 0 {
		return road{}, false
	}

	horizontal := s.rng.Float64() < 0.5
	band := alleyBandLo + (alleyBandHi-alleyBandLo)*s.rng.Float64()
	full := s.rng.Float64() < 0.5

	var a, bp geo.Point2D
	var partial bool
	if horizontal {
		y := y0 + bh*band
		a, bp = geo.Pt(x0, y), geo.Pt(x1, y)
		if !full {
			partial = true
			reach := bw * (partialReachLo + (partialReachHi-partialReachLo)*s.rng.Float64())
			if s.rng.Float64() < 0.5 {
				bp = geo.Pt(x0+reach, y)
			} else {
				a, bp = geo.Pt(x1-reach, y), geo.Pt(x1, y)
			}
		}
	} else {
		x := x0 + bw*band
		a, bp = geo.Pt(x, y0), geo.Pt(x, y1)
		if !full {
			partial = true
			reach := bh * (partialReachLo + (partialReachHi-partialReachLo)*s.rng.Float64())
			if s.rng.Float64() < 0.5 {
				bp = geo.Pt(x, y0+reach)
			} else {
				a, bp = geo.Pt(x, y1-reach), geo.Pt(x, y1)
			}
		}
	}

	// Full-block alleys stay axis-aligned so they keep meeting the
	// bounding arteries; only partial ones may tilt.
	if partial && s.rng.Float64() < alleyTiltChance {
		tilt := (s.rng.Float64()*2 - 1) * alleyTiltMaxDeg * math.Pi / 180
		d := bp.Sub(a)
		cos, sin := math.Cos(tilt), math.Sin(tilt)
		bp = a.Add(geo.Pt(d.X*cos-d.Y*sin, d.X*sin+d.Y*cos))
		bp = geo.Pt(clamp(bp.X, x0, x1), clamp(bp.Y, y0, y1))
	}

	seg := geo.Seg(a, bp)
	if seg.Length() < s.cfg.MinRoadLengthM {
		return road{}, false
	}
	return road{
		seg:           seg,
		class:         RoadSecondary,
		widthM:        s.cfg.AlleyWidthM,
		lanes:         s.cfg.AlleyLanes,
		speedKPH:      s.cfg.AlleySpeedKPH,
		bidirectional: s.rng.Float64() < s.cfg.BidirectionalChance,
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
