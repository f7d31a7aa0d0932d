// Package impact measures emergency service coverage: how quickly an
// ambulance reaches each part of the map, before and after a disaster.
package impact

import (
	"math"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/network"
)

// ServiceLevel buckets a cell's best response time.
type ServiceLevel string

const (
	LevelFast        ServiceLevel = "under_5_min"
	LevelModerate    ServiceLevel = "under_10_min"
	LevelSlow        ServiceLevel = "under_15_min"
	LevelCritical    ServiceLevel = "over_15_min"
	LevelUnreachable ServiceLevel = "unreachable"
)

const (
	fastThresholdS     = 300.0
	moderateThresholdS = 600.0
	slowThresholdS     = 900.0

	// Dijkstra horizon per station; beyond this a cell counts as
	// critical anyway.
	maxHorizonS = 1800.0

	// A cell with no reached road node within this range is unreachable.
	cellReachM = 150.0

	defaultCellSizeM = 100.0
)

// GridCell is one cell of the coverage grid.
type GridCell struct {
	Row           int          `json:"row"`
	Col           int          `json:"col"`
	Center        geo.Point2D  `json:"center"`
	ResponseTimeS float64      `json:"response_time_s"` // -1 when unreachable
	Level         ServiceLevel `json:"level"`
}

// Coverage is the full-map service coverage for one obstruction state.
type Coverage struct {
	CellSizeM        float64              `json:"cell_size_m"`
	Cells            []*GridCell          `json:"cells"`
	CellsByLevel     map[ServiceLevel]int `json:"cells_by_level"`
	AvgResponseTimeS float64              `json:"avg_response_time_s"`
}

// LevelFor buckets a response time.
func LevelFor(responseTimeS float64) ServiceLevel {
	switch {
	case responseTimeS < 0 || math.IsInf(responseTimeS, 1):
		return LevelUnreachable
	case responseTimeS <= fastThresholdS:
		return LevelFast
	case responseTimeS <= moderateThresholdS:
		return LevelModerate
	case responseTimeS <= slowThresholdS:
		return LevelSlow
	default:
		return LevelCritical
	}
}

// Analyze computes coverage on the analyzer's current obstruction state.
// Each station floods the network once; every grid cell takes the best
// time over all stations from its nearest reached road node, plus the
// walk from that node to the cell center.
func Analyze(a *network.Analyzer, stations []*citymap.Facility, v network.Vehicle, cellSizeM float64) (*Coverage, error) {
	if cellSizeM <= 0 {
		cellSizeM = defaultCellSizeM
	}

	type reached struct {
		pos   geo.Point2D
		timeS float64
	}
	var nodes []reached
	for _, st := range stations {
		positions, times, err := a.TravelTimesFrom(st.Position, v, maxHorizonS)
		if err != nil {
			return nil, err
		}
		for id, t := range times {
			nodes = append(nodes, reached{pos: positions[id], timeS: t})
		}
	}

	walkSpeed := 5 * 1000.0 / 3600.0

	b := a.Graph().Boundary
	cov := &Coverage{
		CellSizeM:    cellSizeM,
		CellsByLevel: map[ServiceLevel]int{},
	}
	rows := int(math.Ceil(b.Height() / cellSizeM))
	cols := int(math.Ceil(b.Width() / cellSizeM))

	sum, reachable := 0.0, 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			center := geo.Pt(
				b.MinX+(float64(c)+0.5)*cellSizeM,
				b.MinY+(float64(r)+0.5)*cellSizeM,
			)
			best := math.Inf(1)
			for _, n := range nodes {
				d := n.pos.Distance(center)
				if d > cellReachM {
					continue
				}
				if t := n.timeS + d/walkSpeed; t < best {
					best = t
				}
			}

			cell := &GridCell{Row: r, Col: c, Center: center, Level: LevelFor(best)}
			if math.IsInf(best, 1) {
				cell.ResponseTimeS = -1
			} else {
				cell.ResponseTimeS = best
				sum += best
				reachable++
			}
			cov.Cells = append(cov.Cells, cell)
			cov.CellsByLevel[cell.Level]++
		}
	}
	if reachable > 0 {
		cov.AvgResponseTimeS = sum / float64(reachable)
	}
	return cov, nil
}

// Comparison quantifies coverage change between two obstruction states.
type Comparison struct {
	Pre             *Coverage `json:"pre"`
	Post            *Coverage `json:"post"`
	DegradedCells   int       `json:"degraded_cells"`
	ImprovedCells   int       `json:"improved_cells"`
	LostCells       int       `json:"lost_cells"` // reachable before, not after
	AvgDelaySeconds float64   `json:"avg_delay_seconds"`
}

var levelRank = map[ServiceLevel]int{
	LevelFast:        0,
	LevelModerate:    1,
	LevelSlow:        2,
	LevelCritical:    3,
	LevelUnreachable: 4,
}

// Compare matches two coverage grids cell by cell. The grids must come
// from the same boundary and cell size.
func Compare(pre, post *Coverage) *Comparison {
	cmp := &Comparison{Pre: pre, Post: post}

	delaySum, delayed := 0.0, 0
	for i, pc := range pre.Cells {
		if i >= len(post.Cells) {
			break
		}
		qc := post.Cells[i]
		switch {
		case levelRank[qc.Level] > levelRank[pc.Level]:
			cmp.DegradedCells++
			if qc.Level == LevelUnreachable {
				cmp.LostCells++
			}
		case levelRank[qc.Level] < levelRank[pc.Level]:
			cmp.ImprovedCells++
		}
		if pc.ResponseTimeS >= 0 && qc.ResponseTimeS >= 0 && qc.ResponseTimeS > pc.ResponseTimeS {
			delaySum += qc.ResponseTimeS - pc.ResponseTimeS
			delayed++
		}
	}
	if delayed > 0 {
		cmp.AvgDelaySeconds = delaySum / float64(delayed)
	}
	return cmp
}
