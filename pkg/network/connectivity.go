package network

// ConnectivityReport describes how well the network holds together for
// one vehicle under the current obstruction set.
type ConnectivityReport struct {
	VehicleName          string  `json:"vehicle_name"`
	TotalEdges           int     `json:"total_edges"`
	PassableEdges        int     `json:"passable_edges"`
	BlockedEdges         int     `json:"blocked_edges"`
	TotalLengthM         float64 `json:"total_length_m"`
	PassableLengthM      float64 `json:"passable_length_m"`
	BlockedLengthM       float64 `json:"blocked_length_m"`
	SeverelyObstructed   int     `json:"severely_obstructed"`
	ConnectedComponents  int     `json:"connected_components"`
	LargestComponentSize int     `json:"largest_component_size"`
	Fragmented           bool    `json:"fragmented"`
}

// Connectivity classifies every edge passable or blocked for the vehicle,
// finds connected components of the passable subgraph, and reports whether
// the network has fragmented.
func (a *Analyzer) Connectivity(v Vehicle) *ConnectivityReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	rep := &ConnectivityReport{VehicleName: v.Name}

	passableAdj := map[string][]string{}
	inPassable := map[string]bool{}
	for _, e := range a.graph.Edges {
		rep.TotalEdges++
		rep.TotalLengthM += e.LengthM
		if e.OriginalWidthM > 0 && e.WidthM/e.OriginalWidthM < 0.5 {
			rep.SeverelyObstructed++
		}
		if Passable(e, v) {
			rep.PassableEdges++
			rep.PassableLengthM += e.LengthM
			passableAdj[e.From] = append(passableAdj[e.From], e.To)
			passableAdj[e.To] = append(passableAdj[e.To], e.From)
			inPassable[e.From] = true
			inPassable[e.To] = true
		} else {
			rep.BlockedEdges++
			rep.BlockedLengthM += e.LengthM
		}
	}

	visited := map[string]bool{}
	for nodeID := range inPassable {
		if visited[nodeID] {
			continue
		}
		rep.ConnectedComponents++
		size := bfsComponent(nodeID, passableAdj, visited)
		if size > rep.LargestComponentSize {
			rep.LargestComponentSize = size
		}
	}
	rep.Fragmented = rep.ConnectedComponents > 1
	return rep
}

func bfsComponent(start string, adj map[string][]string, visited map[string]bool) int {
	queue := []string{start}
	visited[start] = true
	size := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		size++
		for _, nb := range adj[cur] {
			if !visited[nb] {
				visited[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	return size
}
