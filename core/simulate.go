package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/encodeous/dvsim/state"
)

// Simulation runs one relay and one node per identity inside the current process
type Simulation struct {
	Relay *Relay
	Nodes map[state.NodeId]*Node
	log   *slog.Logger
	errs  chan error
	wg    sync.WaitGroup
}

// DialAddr returns an address nodes can dial to reach a relay bound on addr
func DialAddr(addr string) string {
	ap, err := netip.ParseAddrPort(addr)
	if err != nil {
		return addr
	}
	if ap.Addr().IsUnspecified() {
		ap = netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, 1}), ap.Port())
	}
	return ap.String()
}

// StartSimulation starts the relay, then joins every node in sorted order, waiting stagger between joins.
func StartSimulation(ctx context.Context, cfg *state.SimCfg, log *slog.Logger, stagger time.Duration) (*Simulation, error) {
	topo := cfg.Topology()
	sim := &Simulation{
		Relay: NewRelay(topo, log.With("component", "relay")),
		Nodes: make(map[state.NodeId]*Node),
		log:   log,
		errs:  make(chan error, len(topo)),
	}
	err := sim.Relay.Start(ctx, cfg.Bind.String())
	if err != nil {
		return nil, err
	}
	addr := DialAddr(sim.Relay.Addr().String())

	ids := topo.Identities()
	for i, id := range ids {
		if i != 0 && stagger > 0 {
			select {
			case <-time.After(stagger):
			case <-ctx.Done():
				sim.Close()
				return nil, context.Cause(ctx)
			}
		}
		node, err := NewNode(id, ids, log)
		if err != nil {
			sim.Close()
			return nil, err
		}
		err = node.Join(ctx, addr)
		if err != nil {
			sim.Close()
			return nil, err
		}
		sim.Nodes[id] = node
		sim.wg.Add(1)
		go func() {
			defer sim.wg.Done()
			err := node.Run(ctx)
			if ctx.Err() == nil {
				sim.errs <- fmt.Errorf("node %s: %w", node.Id, err)
			}
		}()
	}
	return sim, nil
}

// Tables returns the routing table of every running node
func (sim *Simulation) Tables() (map[state.NodeId]state.DistanceVector, error) {
	tables := make(map[state.NodeId]state.DistanceVector, len(sim.Nodes))
	for id, node := range sim.Nodes {
		table, err := node.Table()
		if err != nil {
			return nil, err
		}
		tables[id] = table
	}
	return tables, nil
}

// Run logs fatal errors from nodes and sessions until ctx is cancelled, then stops everything.
// The simulation has no termination signal of its own.
func (sim *Simulation) Run(ctx context.Context) error {
	for {
		select {
		case err := <-sim.errs:
			sim.log.Error("node stopped", "err", err)
		case err := <-sim.Relay.Errors():
			sim.log.Warn("relay session ended", "err", err)
		case <-ctx.Done():
			sim.Close()
			return nil
		}
	}
}

func (sim *Simulation) Close() {
	for _, node := range sim.Nodes {
		node.Close()
	}
	_ = sim.Relay.Close()
	sim.wg.Wait()
}

// Simulate runs the whole simulation until ctx is cancelled
func Simulate(ctx context.Context, cfg *state.SimCfg, log *slog.Logger) error {
	sim, err := StartSimulation(ctx, cfg, log, state.JoinStagger)
	if err != nil {
		return err
	}
	return sim.Run(ctx)
}
