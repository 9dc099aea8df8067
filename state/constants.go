package state

import "time"

// Unreachable is the distance that is not finite. Its wire form is WireUnreachable.
var Unreachable = Distance{}

const (
	// WireUnreachable is how an unreachable distance is written on the wire and in config files.
	WireUnreachable = -1
	// MaxCost is the largest finite distance, Add saturates here.
	MaxCost = ^uint32(0) - 1
)

// Terminator ends every encoded frame. It can never appear inside JSON text, as control bytes are always escaped.
const Terminator = "\x03\x03\x03"

var (
	DefaultIdentities = []NodeId{"u", "x", "w", "v", "y", "z"}

	// MaxFrameSize is the largest frame a Reader will buffer
	MaxFrameSize = 32 * 1024

	// OutboundQueueSize bounds the number of messages buffered for one relay session
	OutboundQueueSize = 256
	DispatchQueueSize = 128

	JoinStagger    = time.Millisecond * 150
	ReportDelay    = time.Second * 1
	ReportDedupTTL = time.Second * 30
	// SlowDispatch is the threshold above which the main loop warns about a dispatched function
	SlowDispatch = time.Millisecond * 4

	// default relay port
	DefaultPort = 8080
)
