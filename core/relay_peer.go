package core

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/encodeous/dvsim/protocol"
	"github.com/encodeous/dvsim/state"
	"github.com/google/uuid"
)

// Peer is one accepted connection on the relay. Inbound messages are read on the session goroutine and
// dispatched to the relay; outbound messages go through a bounded queue drained by the peer's own writer,
// so a slow peer never holds up the relay or any other peer.
type Peer struct {
	link *Link
	log  *slog.Logger
	out  chan protocol.Message
	ctx  context.Context
	stop context.CancelCauseFunc
	// dropped counts relayed updates discarded because the outbound queue was full
	dropped atomic.Uint64

	// Node is the identity this session joined as. It is only touched by the relay main loop.
	Node state.NodeId
}

func newPeer(parent context.Context, link *Link, log *slog.Logger) *Peer {
	ctx, cancel := context.WithCancelCause(parent)
	// unblocks a writer stuck on a peer that stopped reading
	context.AfterFunc(ctx, link.Close)
	return &Peer{
		link: link,
		log:  log.With("link", link.Id()),
		out:  make(chan protocol.Message, state.OutboundQueueSize),
		ctx:  ctx,
		stop: cancel,
	}
}

func (p *Peer) Id() uuid.UUID {
	return p.link.Id()
}

// Done is closed once the session has ended
func (p *Peer) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Err returns why the session ended, or nil while it is alive
func (p *Peer) Err() error {
	return context.Cause(p.ctx)
}

// Dropped returns how many relayed updates were discarded because the peer fell behind
func (p *Peer) Dropped() uint64 {
	return p.dropped.Load()
}

// Send queues m for delivery without blocking. It returns false if the queue is full or the session has ended.
func (p *Peer) Send(m protocol.Message) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.out <- m:
		return true
	default:
		return false
	}
}

// Close ends the session with the given cause. Only the first cause is kept.
func (p *Peer) Close(cause error) {
	p.stop(cause)
	p.link.Close()
}

func (p *Peer) writeLoop() {
	for {
		select {
		case m := <-p.out:
			err := p.link.WriteMsg(m)
			if err != nil {
				p.Close(err)
				return
			}
		case <-p.ctx.Done():
			p.link.Close()
			return
		}
	}
}
