package core

import (
	"fmt"

	"github.com/encodeous/dvsim/state"
)

type RouterEvent int

// trace events

const (
	RouteImproved RouterEvent = iota
	TableSeeded
	UpdateIgnored
)

// warn events

const (
	InconsistentState RouterEvent = iota + 1000
)

func (e RouterEvent) String() string {
	switch e {
	case RouteImproved:
		return "ROUTE_IMPROVED"
	case TableSeeded:
		return "TABLE_SEEDED"
	case UpdateIgnored:
		return "UPDATE_IGNORED"
	case InconsistentState:
		return "INCONSISTENT_STATE"
	}
	return fmt.Sprintf("EVENT(%d)", int(e))
}

// Router is the outbound side of the relaxation algorithm
type Router interface {
	// SendUpdate advertises the routing table to the neighbours, through the relay
	SendUpdate(table state.DistanceVector) error
	Log(event RouterEvent, desc string, args ...any)
}

// RouterState is the routing table of one node. It must only be touched by the node's main loop.
type RouterState struct {
	Id state.NodeId
	// Table holds every identity except Id. Entries only ever improve.
	Table state.DistanceVector
}

func NewRouterState(id state.NodeId, identities []state.NodeId) *RouterState {
	table := make(state.DistanceVector, len(identities))
	for _, dst := range identities {
		if dst == id {
			continue
		}
		table[dst] = state.Unreachable
	}
	return &RouterState{Id: id, Table: table}
}

// improve combines vector, as advertised by a node at distance viaCost, with the table.
// It returns the number of entries that got strictly better.
func improve(s *RouterState, r Router, viaCost state.Distance, vector state.DistanceVector) int {
	changed := 0
	for dst, cur := range s.Table {
		candidate, ok := vector[dst]
		// a missing entry is unknown, never zero cost
		if !ok || !candidate.IsFinite() {
			continue
		}
		total := state.Add(candidate, viaCost)
		if state.IsBetter(total, cur) {
			s.Table[dst] = total
			changed++
			r.Log(RouteImproved, "route improved", "dst", dst, "old", cur, "new", total)
		}
	}
	return changed
}

func advertise(s *RouterState, r Router, changed int) error {
	if changed == 0 {
		return nil
	}
	return r.SendUpdate(s.Table.Clone())
}

// Seed applies the bootstrap vector, the direct-link costs of this node, at zero added cost.
func Seed(s *RouterState, r Router, vector state.DistanceVector) (int, error) {
	changed := improve(s, r, state.Finite(0), vector)
	r.Log(TableSeeded, "table seeded", "changed", changed)
	return changed, advertise(s, r, changed)
}

// Relax runs one Bellman-Ford step with the vector advertised by sender. Any improvement is advertised.
// An update from an identity that is not in the table is an invariant violation.
func Relax(s *RouterState, r Router, sender state.NodeId, vector state.DistanceVector) (int, error) {
	viaCost, ok := s.Table[sender]
	if !ok {
		r.Log(InconsistentState, "update from unknown sender", "from", sender)
		return 0, fmt.Errorf("%w: %s received an update from %s, which is not in its routing table", state.ErrInvariant, s.Id, sender)
	}
	if !viaCost.IsFinite() {
		r.Log(UpdateIgnored, "sender is unreachable", "from", sender)
		return 0, nil
	}
	changed := improve(s, r, viaCost, vector)
	return changed, advertise(s, r, changed)
}
