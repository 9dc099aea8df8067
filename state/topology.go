package state

import (
	"maps"
	"slices"
)

// Topology maps every identity to its direct-link costs. It is loaded once and never mutated.
type Topology map[NodeId]DistanceVector

// Identities returns the fixed identity set in sorted order
func (t Topology) Identities() []NodeId {
	return slices.Sorted(maps.Keys(t))
}

func (t Topology) Contains(id NodeId) bool {
	_, ok := t[id]
	return ok
}

// Row returns a copy of the direct-link costs of id
func (t Topology) Row(id NodeId) DistanceVector {
	return t[id].Clone()
}

// Neighbours returns every b != id with a finite direct-link cost from id, sorted
func (t Topology) Neighbours(id NodeId) []NodeId {
	neighs := make([]NodeId, 0)
	for b, cost := range t[id] {
		if b == id || !cost.IsFinite() {
			continue
		}
		neighs = append(neighs, b)
	}
	slices.Sort(neighs)
	return neighs
}

func (t Topology) IsNeighbour(a, b NodeId) bool {
	return a != b && t[a][b].IsFinite()
}
