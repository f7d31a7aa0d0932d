package network

import (
	"math"
	"sync"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/disaster"
)

// Analyzer owns one road graph and answers routing, isochrone, and
// connectivity queries on it. The graph is mutable shared state: queries
// splice virtual nodes in and out and obstruction updates rewrite edge
// widths, so every public operation holds the analyzer lock for its whole
// transaction. Concurrent queries belong on separate analyzer instances.
type Analyzer struct {
	mu    sync.Mutex
	graph *citymap.RoadGraph
}

// NewAnalyzer wraps a road graph. The analyzer takes exclusive ownership;
// the caller must not mutate the graph afterwards.
func NewAnalyzer(g *citymap.RoadGraph) *Analyzer {
	return &Analyzer{graph: g}
}

// Graph exposes the underlying graph for read-only inspection.
func (a *Analyzer) Graph() *citymap.RoadGraph { return a.graph }

// ApplyObstructions replaces the active obstruction set. Every edge is
// first restored to its original width, then the most restrictive
// remaining width per edge wins regardless of list order.
func (a *Analyzer) ApplyObstructions(obstructions []*disaster.RoadObstruction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetWidths()

	for edgeID, w := range disaster.MinimumWidths(obstructions) {
		e, ok := a.graph.Edges[edgeID]
		if !ok {
			continue
		}
		e.WidthM = math.Max(0, math.Min(w, e.OriginalWidthM))
	}
}

// ClearObstructions restores every edge to its original width.
func (a *Analyzer) ClearObstructions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetWidths()
}

func (a *Analyzer) resetWidths() {
	for _, e := range a.graph.Edges {
		e.WidthM = e.OriginalWidthM
	}
}
