package domain

// PairKey addresses the stats index by ordered player pair.
type PairKey struct {
	A PlayerID
	B PlayerID
}

// Reverse returns the key for the opposite ordering.
func (k PairKey) Reverse() PairKey {
	return PairKey{A: k.B, B: k.A}
}

// TeammateStats holds the optional numbers recorded for two players who shared a pitch.
type TeammateStats struct {
	Minutes    *float64
	JointGoals *float64
}

// Adjacency maps a player to the set of players they were teammates with.
type Adjacency map[PlayerID]map[PlayerID]struct{}

// Connect records an undirected edge between a and b.
func (g Adjacency) Connect(a, b PlayerID) {
	g.add(a, b)
	g.add(b, a)
}

func (g Adjacency) add(from, to PlayerID) {
	set, ok := g[from]
	if !ok {
		set = make(map[PlayerID]struct{})
		g[from] = set
	}
	set[to] = struct{}{}
}

// Neighbors returns the direct teammates of id. Unknown ids have no neighbours.
func (g Adjacency) Neighbors(id PlayerID) map[PlayerID]struct{} {
	return g[id]
}

// Degree is the number of direct teammates of id.
func (g Adjacency) Degree(id PlayerID) int {
	return len(g[id])
}

// HasEdge reports whether a and b are direct teammates.
func (g Adjacency) HasEdge(a, b PlayerID) bool {
	_, ok := g[a][b]
	return ok
}

// EdgeCount counts undirected edges.
func (g Adjacency) EdgeCount() int {
	total := 0
	for _, set := range g {
		total += len(set)
	}
	return total / 2
}

// Path is an ordered chain of players where consecutive entries are teammates.
type Path []PlayerID

// Degrees is the number of hops in the path.
func (p Path) Degrees() int {
	if len(p) == 0 {
		return -1
	}
	return len(p) - 1
}

// Start returns the first player of the path.
func (p Path) Start() PlayerID {
	return p[0]
}

// End returns the last player of the path.
func (p Path) End() PlayerID {
	return p[len(p)-1]
}
