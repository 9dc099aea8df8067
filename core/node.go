package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/encodeous/dvsim/perf"
	"github.com/encodeous/dvsim/protocol"
	"github.com/encodeous/dvsim/state"
)

type Phase int32

const (
	Disconnected Phase = iota
	// Joined nodes have sent their Join and are waiting for the bootstrap
	Joined
	Converging
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Joined:
		return "joined"
	case Converging:
		return "converging"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Node is one simulated router. It owns its routing table and talks only to the relay.
type Node struct {
	Id         state.NodeId
	identities []state.NodeId
	log        *slog.Logger
	link       *Link
	phase      atomic.Int32
	env        atomic.Pointer[state.Env[*RouterState]]
}

func NewNode(id state.NodeId, identities []state.NodeId, log *slog.Logger) (*Node, error) {
	if !slices.Contains(identities, id) {
		return nil, fmt.Errorf("%w: %s is not a valid identity, expected one of %v", state.ErrConfig, id, identities)
	}
	return &Node{
		Id:         id,
		identities: slices.Clone(identities),
		log:        log.With("node", id),
	}, nil
}

func (n *Node) Phase() Phase {
	return Phase(n.phase.Load())
}

// Join connects to the relay at addr and announces this node
func (n *Node) Join(ctx context.Context, addr string) error {
	if n.link != nil {
		return fmt.Errorf("%w: node %s has already joined", state.ErrConnection, n.Id)
	}
	link, err := DialLink(ctx, addr)
	if err != nil {
		return err
	}
	err = link.WriteMsg(&protocol.Join{Identity: n.Id})
	if err != nil {
		link.Close()
		return err
	}
	n.link = link
	n.phase.Store(int32(Joined))
	n.log.Info("joined relay", "addr", addr, "link", link.Id())
	return nil
}

// Run processes updates from the relay until the session ends. It returns the reason the session ended:
// a state.ErrConnection, a state.ErrInvariant, or the cancellation of ctx.
func (n *Node) Run(ctx context.Context) error {
	if n.link == nil {
		return fmt.Errorf("%w: node %s has not joined", state.ErrConnection, n.Id)
	}
	env, dispatch := state.NewEnv[*RouterState](ctx, n.log)
	if !n.env.CompareAndSwap(nil, env) {
		return fmt.Errorf("node %s is already running", n.Id)
	}
	rs := NewRouterState(n.Id, n.identities)

	n.link.OnDrop(func(frame []byte, err error) {
		perf.BadFramesPerSecond.Add(1)
		n.log.Debug("dropped frame", "err", err, "len", len(frame))
	})

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.receiveLoop(env)
	}()

	err := MainLoop(env, rs, dispatch)
	n.link.Close()
	wg.Wait()
	n.phase.Store(int32(Disconnected))
	if errors.Is(err, state.ErrInvariant) {
		n.log.Error("stopping node", "err", err)
	} else {
		n.log.Info("node stopped", "reason", err)
	}
	return err
}

func (n *Node) receiveLoop(env *state.Env[*RouterState]) {
	for {
		msg, err := n.link.ReadMsg()
		if err != nil {
			env.Cancel(err)
			return
		}
		upd, ok := msg.(*protocol.Update)
		if !ok {
			n.log.Debug("ignoring message", "type", msg.Type(), "from", msg.Sender())
			continue
		}
		if !env.Dispatch(func(s *RouterState) error {
			return n.handleUpdate(s, upd)
		}) {
			return
		}
	}
}

func (n *Node) handleUpdate(s *RouterState, upd *protocol.Update) error {
	perf.RelaxedPerSecond.Add(1)
	var changed int
	var err error
	if upd.Identity == n.Id {
		changed, err = Seed(s, n, upd.DistanceVector)
		n.phase.Store(int32(Converging))
	} else {
		changed, err = Relax(s, n, upd.Identity, upd.DistanceVector)
	}
	if changed != 0 {
		perf.ImprovedPerSecond.Add(float64(changed))
		n.log.Debug("routing table changed", "from", upd.Identity, "table", s.Table)
	}
	return err
}

// Table returns a copy of the current routing table
func (n *Node) Table() (state.DistanceVector, error) {
	env := n.env.Load()
	if env == nil {
		return nil, fmt.Errorf("node %s is not running", n.Id)
	}
	res, err := env.DispatchWait(func(s *RouterState) (any, error) {
		return s.Table.Clone(), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(state.DistanceVector), nil
}

// Close ends the session with the relay, which stops Run
func (n *Node) Close() {
	if n.link != nil {
		n.link.Close()
	}
}

func (n *Node) SendUpdate(table state.DistanceVector) error {
	return n.link.WriteMsg(&protocol.Update{Identity: n.Id, DistanceVector: table})
}

func (n *Node) Log(event RouterEvent, desc string, args ...any) {
	if event >= InconsistentState {
		n.log.Warn(fmt.Sprintf("%s %s", event.String(), desc), args...)
		return
	}
	n.log.Debug(fmt.Sprintf("%s %s", event.String(), desc), args...)
}
