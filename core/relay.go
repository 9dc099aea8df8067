package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"slices"
	"sync"

	"github.com/encodeous/dvsim/perf"
	"github.com/encodeous/dvsim/protocol"
	"github.com/encodeous/dvsim/state"
)

// Relay stands in for every point-to-point link of the topology. It gates the start of the simulation
// until every identity has joined, and forwards each update only to the sender's topology neighbours.
type Relay struct {
	Topology state.Topology
	log      *slog.Logger
	listener net.Listener
	env      *state.Env[*RelayState]
	errs     chan error
	wg       sync.WaitGroup
	stopped  chan struct{}
	exit     error
}

// RelayState must only be accessed from the relay main loop
type RelayState struct {
	*Relay
	// Registry maps each joined identity to its current session. A re-join replaces the old entry.
	Registry map[state.NodeId]*Peer
	// Snapshot holds the last vector each node advertised. It is only used for reporting.
	Snapshot     map[state.NodeId]state.DistanceVector
	Bootstrapped bool
	reporter     *Reporter
	dirty        bool
}

func NewRelay(topology state.Topology, log *slog.Logger) *Relay {
	return &Relay{
		Topology: topology,
		log:      log,
		errs:     make(chan error, 64),
		stopped:  make(chan struct{}),
	}
}

// Start binds to addr and serves connections in the background until ctx is cancelled or Close is called
func (r *Relay) Start(ctx context.Context, addr string) error {
	if r.env != nil {
		return errors.New("relay already started")
	}
	config := net.ListenConfig{}
	listener, err := config.Listen(ctx, "tcp", addr)
	if err != nil {
		r.log.Error("failed to listen on addr", "addr", addr, "err", err)
		return fmt.Errorf("%w: listen on %s: %w", state.ErrConnection, addr, err)
	}
	r.listener = listener
	r.log.Info("listening on", "addr", listener.Addr(), "nodes", r.Topology.Identities())

	env, dispatch := state.NewEnv[*RelayState](ctx, r.log)
	r.env = env
	s := &RelayState{
		Relay:    r,
		Registry: make(map[state.NodeId]*Peer),
		Snapshot: make(map[state.NodeId]state.DistanceVector),
		reporter: NewReporter(r.log),
	}
	env.RepeatTask(reportSnapshot, state.ReportDelay)

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.acceptLoop(env)
	}()
	go func() {
		defer r.wg.Done()
		r.exit = MainLoop(env, s, dispatch)
		_ = listener.Close()
		close(r.stopped)
	}()
	return nil
}

// Addr returns the bound address, or nil if the relay has not been started
func (r *Relay) Addr() net.Addr {
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Errors carries the reason every session ended. Errors are dropped if nobody is reading.
func (r *Relay) Errors() <-chan error {
	return r.errs
}

func (r *Relay) publishErr(err error) {
	select {
	case r.errs <- err:
	default:
	}
}

// Wait blocks until the relay and every session it started have stopped
func (r *Relay) Wait() error {
	<-r.stopped
	r.wg.Wait()
	if errors.Is(r.exit, context.Canceled) {
		return nil
	}
	return r.exit
}

func (r *Relay) Close() error {
	if r.env == nil {
		return nil
	}
	r.env.Cancel(context.Canceled)
	return r.Wait()
}

func (r *Relay) acceptLoop(env *state.Env[*RelayState]) {
	for env.Context.Err() == nil {
		conn, err := r.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || env.Context.Err() != nil {
				return
			}
			r.log.Warn("failed to accept connection", "err", err)
			continue
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.serveLink(env, NewLink(conn))
		}()
	}
}

func (r *Relay) serveLink(env *state.Env[*RelayState], link *Link) {
	peer := newPeer(env.Context, link, r.log)
	peer.log.Debug("accepted connection", "remote", link.Conn.RemoteAddr())
	link.OnDrop(func(frame []byte, err error) {
		perf.BadFramesPerSecond.Add(1)
		peer.log.Debug("dropped frame", "err", err, "len", len(frame))
	})

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		peer.writeLoop()
	}()

	for {
		msg, err := link.ReadMsg()
		if err != nil {
			peer.Close(err)
			break
		}
		var fun func(s *RelayState) error
		switch m := msg.(type) {
		case *protocol.Join:
			fun = func(s *RelayState) error {
				s.handleJoin(peer, m)
				return nil
			}
		case *protocol.Update:
			fun = func(s *RelayState) error {
				s.handleUpdate(peer, m)
				return nil
			}
		default:
			continue
		}
		if !env.Dispatch(fun) {
			peer.Close(context.Cause(env.Context))
			break
		}
	}
	wg.Wait()

	env.Dispatch(func(s *RelayState) error {
		s.removePeer(peer)
		peer.log.Info("session ended", "node", peer.Node, "reason", peer.Err())
		s.publishErr(fmt.Errorf("session %s: %w", peer.Id(), peer.Err()))
		return nil
	})
}

func (s *RelayState) handleJoin(peer *Peer, join *protocol.Join) {
	id := join.Identity
	if !s.Topology.Contains(id) {
		peer.log.Warn("rejected join from unknown identity", "node", id)
		peer.Close(fmt.Errorf("%w: join from unknown identity %s", state.ErrProtocol, id))
		return
	}
	if peer.Node != "" && peer.Node != id && s.Registry[peer.Node] == peer {
		delete(s.Registry, peer.Node)
	}
	if old, ok := s.Registry[id]; ok && old != peer {
		peer.log.Info("replacing existing session", "node", id, "old", old.Id())
	}
	peer.Node = id
	s.Registry[id] = peer
	peer.log.Info("node has joined", "node", id)

	if s.Bootstrapped {
		// the simulation is already running, only the new session needs its direct costs
		s.sendBootstrap(peer)
		return
	}
	if len(s.Registry) < len(s.Topology) {
		s.log.Debug("waiting for nodes", "joined", len(s.Registry), "total", len(s.Topology))
		return
	}
	s.Bootstrapped = true
	s.log.Info("all nodes have joined, sending bootstrap")
	for _, nid := range slices.Sorted(maps.Keys(s.Registry)) {
		s.sendBootstrap(s.Registry[nid])
	}
}

func (s *RelayState) sendBootstrap(peer *Peer) {
	upd := &protocol.Update{
		Identity:       peer.Node,
		DistanceVector: s.Topology.Row(peer.Node),
	}
	if !peer.Send(upd) {
		perf.DroppedPerSecond.Add(1)
		peer.log.Warn("failed to queue bootstrap", "node", peer.Node)
	}
}

func (s *RelayState) handleUpdate(peer *Peer, upd *protocol.Update) {
	id := upd.Identity
	if peer.Node != id || s.Registry[id] != peer {
		perf.DroppedPerSecond.Add(1)
		peer.log.Warn("dropping update from a session that is not registered as its sender", "from", id, "session", peer.Node)
		return
	}
	s.Snapshot[id] = upd.DistanceVector.Clone()
	s.dirty = true

	if !s.Bootstrapped {
		// nothing is relayed before every node has been seeded
		perf.DroppedPerSecond.Add(1)
		peer.log.Debug("dropping update sent before bootstrap", "from", id)
		return
	}
	neighs := s.Topology.Neighbours(id)
	s.log.Debug("relaying update", "from", id, "to", neighs)
	for _, neigh := range neighs {
		np, ok := s.Registry[neigh]
		if !ok {
			continue
		}
		if !np.Send(upd) {
			np.dropped.Add(1)
			perf.DroppedPerSecond.Add(1)
			np.log.Warn("outbound queue full, dropping update", "from", id, "to", neigh)
			continue
		}
		perf.RelayedPerSecond.Add(1)
	}
}

func (s *RelayState) removePeer(peer *Peer) {
	if peer.Node != "" && s.Registry[peer.Node] == peer {
		delete(s.Registry, peer.Node)
		s.log.Info("node has left", "node", peer.Node)
	}
}

func reportSnapshot(s *RelayState) error {
	if !s.dirty {
		return nil
	}
	s.dirty = false
	s.reporter.Report(s.Snapshot)
	return nil
}

// Snapshot returns a copy of the last vector advertised by each node
func (r *Relay) Snapshot() (map[state.NodeId]state.DistanceVector, error) {
	res, err := r.env.DispatchWait(func(s *RelayState) (any, error) {
		snap := make(map[state.NodeId]state.DistanceVector, len(s.Snapshot))
		for id, vec := range s.Snapshot {
			snap[id] = vec.Clone()
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(map[state.NodeId]state.DistanceVector), nil
}

// Registered returns the identities that currently have a session, sorted
func (r *Relay) Registered() ([]state.NodeId, error) {
	res, err := r.env.DispatchWait(func(s *RelayState) (any, error) {
		return slices.Sorted(maps.Keys(s.Registry)), nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]state.NodeId), nil
}
