package core

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/encodeous/dvsim/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var distanceCmp = cmp.AllowUnexported(state.Distance{})

func TestNewRouterState(t *testing.T) {
	rs := NewRouterState("a", []state.NodeId{"a", "b", "c"})
	assert.Equal(t, state.DistanceVector{"b": inf, "c": inf}, rs.Table)
}

func TestSeed(t *testing.T) {
	h := &RouterHarness{}
	rs := NewRouterState("a", []state.NodeId{"a", "b", "c"})

	changed, err := Seed(rs, h, state.DistanceVector{"a": fin(0), "b": fin(1), "c": inf})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, state.DistanceVector{"b": fin(1), "c": inf}, rs.Table)
	assert.Equal(t, `TABLE_SEEDED changed 1
SEND_UPDATE {b: 1, c: inf}`, h.GetActions().String())
}

func TestSeed_NothingNew(t *testing.T) {
	h := &RouterHarness{}
	rs := NewRouterState("a", []state.NodeId{"a", "b"})

	changed, err := Seed(rs, h, state.DistanceVector{"a": fin(0), "b": inf})
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Nil(t, h.LastSent())
}

func TestRelax(t *testing.T) {
	// a --1-- b --1-- c, with our router being a
	h := &RouterHarness{}
	rs := NewRouterState("a", []state.NodeId{"a", "b", "c"})
	_, err := Seed(rs, h, state.DistanceVector{"a": fin(0), "b": fin(1), "c": inf})
	require.NoError(t, err)
	h.GetActions()

	changed, err := Relax(rs, h, "b", state.DistanceVector{"a": fin(1), "c": fin(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, state.DistanceVector{"b": fin(1), "c": fin(2)}, h.LastSent())
	assert.Equal(t, "SEND_UPDATE {b: 1, c: 2}", h.GetActions().String())

	// the same update again changes nothing and sends nothing
	changed, err = Relax(rs, h, "b", state.DistanceVector{"a": fin(1), "c": fin(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Empty(t, h.GetActions())
}

func TestRelax_TieKeepsExisting(t *testing.T) {
	h := &RouterHarness{}
	rs := &RouterState{Id: "a", Table: state.DistanceVector{"b": fin(1), "c": fin(3), "d": fin(4)}}

	changed, err := Relax(rs, h, "b", state.DistanceVector{"c": fin(2), "d": fin(2)})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, state.DistanceVector{"b": fin(1), "c": fin(3), "d": fin(3)}, rs.Table)
}

func TestRelax_AbsentIsNotZero(t *testing.T) {
	h := &RouterHarness{}
	rs := &RouterState{Id: "a", Table: state.DistanceVector{"b": fin(1), "c": inf}}

	changed, err := Relax(rs, h, "b", state.DistanceVector{"a": fin(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, inf, rs.Table["c"])

	changed, err = Relax(rs, h, "b", state.DistanceVector{"c": inf})
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, inf, rs.Table["c"])
	assert.Nil(t, h.LastSent())
}

func TestRelax_UnreachableSender(t *testing.T) {
	h := &RouterHarness{}
	rs := &RouterState{Id: "a", Table: state.DistanceVector{"b": inf, "c": inf}}

	changed, err := Relax(rs, h, "b", state.DistanceVector{"c": fin(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, inf, rs.Table["c"])
	h.GetActions().AssertContains(t, "UPDATE_IGNORED")
}

func TestRelax_UnknownSender(t *testing.T) {
	h := &RouterHarness{}
	rs := &RouterState{Id: "a", Table: state.DistanceVector{"b": fin(1)}}
	before := rs.Table.Clone()

	_, err := Relax(rs, h, "q", state.DistanceVector{"b": fin(0)})
	assert.ErrorIs(t, err, state.ErrInvariant)
	assert.Equal(t, before, rs.Table)
	h.GetActions().AssertContains(t, "INCONSISTENT_STATE")

	// our own identity never has a table entry; self updates go through Seed
	_, err = Relax(rs, h, "a", state.DistanceVector{"b": fin(0)})
	assert.ErrorIs(t, err, state.ErrInvariant)
}

func TestRelax_SendFailure(t *testing.T) {
	h := &RouterHarness{sendErr: errors.Join(state.ErrConnection, errors.New("broken pipe"))}
	rs := &RouterState{Id: "a", Table: state.DistanceVector{"b": fin(1), "c": inf}}

	_, err := Relax(rs, h, "b", state.DistanceVector{"c": fin(1)})
	assert.ErrorIs(t, err, state.ErrConnection)
}

func TestRelax_Monotonic(t *testing.T) {
	ids := []state.NodeId{"a", "b", "c", "d", "e"}
	h := &RouterHarness{}
	rs := NewRouterState("a", ids)
	rng := rand.New(rand.NewPCG(1, 2))

	randomVector := func() state.DistanceVector {
		dv := make(state.DistanceVector)
		for _, id := range ids {
			switch rng.IntN(3) {
			case 0:
				dv[id] = inf
			case 1:
				dv[id] = fin(uint32(rng.IntN(20)))
			}
		}
		return dv
	}

	_, err := Seed(rs, h, randomVector())
	require.NoError(t, err)
	for range 500 {
		before := rs.Table.Clone()
		sender := ids[1+rng.IntN(len(ids)-1)]
		_, err := Relax(rs, h, sender, randomVector())
		require.NoError(t, err)
		for dst, old := range before {
			assert.False(t, state.IsBetter(old, rs.Table[dst]), "%s regressed from %s to %s", dst, old, rs.Table[dst])
		}
	}
}

// simulateRelay delivers updates between routers the way the relay does, until no router has anything new to say
func simulateRelay(t *testing.T, topo state.Topology) map[state.NodeId]*RouterState {
	t.Helper()
	type pending struct {
		from state.NodeId
		to   state.NodeId
		vec  state.DistanceVector
	}
	ids := topo.Identities()
	routers := make(map[state.NodeId]*RouterState)
	harness := make(map[state.NodeId]*RouterHarness)
	queue := make([]pending, 0)

	flush := func(id state.NodeId) {
		h := harness[id]
		for _, vec := range h.sent {
			for _, neigh := range topo.Neighbours(id) {
				queue = append(queue, pending{from: id, to: neigh, vec: vec})
			}
		}
		h.sent = nil
	}

	for _, id := range ids {
		routers[id] = NewRouterState(id, ids)
		harness[id] = &RouterHarness{}
		_, err := Seed(routers[id], harness[id], topo.Row(id))
		require.NoError(t, err)
	}
	for _, id := range ids {
		flush(id)
	}
	for steps := 0; len(queue) != 0; steps++ {
		require.Less(t, steps, 10000, "did not converge")
		p := queue[0]
		queue = queue[1:]
		_, err := Relax(routers[p.to], harness[p.to], p.from, p.vec)
		require.NoError(t, err)
		flush(p.to)
	}
	return routers
}

func TestConvergence_Line(t *testing.T) {
	topo := (&state.SimCfg{Costs: map[state.NodeId]map[state.NodeId]int64{
		"a": {"b": 1},
		"b": {"a": 1, "c": 1},
		"c": {"b": 1},
	}}).Topology()

	routers := simulateRelay(t, topo)
	want := map[state.NodeId]state.DistanceVector{
		"a": {"b": fin(1), "c": fin(2)},
		"b": {"a": fin(1), "c": fin(1)},
		"c": {"a": fin(2), "b": fin(1)},
	}
	for id, table := range want {
		if diff := cmp.Diff(table, routers[id].Table, distanceCmp); diff != "" {
			t.Errorf("table of %s mismatch (-want +got):\n%s", id, diff)
		}
	}
}

func TestConvergence_Default(t *testing.T) {
	routers := simulateRelay(t, state.DefaultSimCfg().Topology())
	if diff := cmp.Diff(defaultShortestPaths(), tablesOf(routers), distanceCmp); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}
}

func tablesOf(routers map[state.NodeId]*RouterState) map[state.NodeId]state.DistanceVector {
	out := make(map[state.NodeId]state.DistanceVector)
	for id, rs := range routers {
		out[id] = rs.Table
	}
	return out
}

// defaultShortestPaths are the all-pairs shortest paths of state.DefaultSimCfg
func defaultShortestPaths() map[state.NodeId]state.DistanceVector {
	return map[state.NodeId]state.DistanceVector{
		"u": {"v": fin(2), "w": fin(3), "x": fin(1), "y": fin(2), "z": fin(4)},
		"v": {"u": fin(2), "w": fin(3), "x": fin(2), "y": fin(3), "z": fin(5)},
		"w": {"u": fin(3), "v": fin(3), "x": fin(2), "y": fin(1), "z": fin(3)},
		"x": {"u": fin(1), "v": fin(2), "w": fin(2), "y": fin(1), "z": fin(3)},
		"y": {"u": fin(2), "v": fin(3), "w": fin(1), "x": fin(1), "z": fin(2)},
		"z": {"u": fin(4), "v": fin(5), "w": fin(3), "x": fin(3), "y": fin(2)},
	}
}
