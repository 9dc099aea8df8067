package state

import "errors"

var (
	// ErrConfig is fatal at startup: the topology config is unreadable or malformed
	ErrConfig = errors.New("config error")
	// ErrConnection is fatal to the affected session only
	ErrConnection = errors.New("connection error")
	// ErrProtocol marks a frame that failed to decode. Such frames are dropped.
	ErrProtocol = errors.New("protocol error")
	// ErrInvariant is fatal to a node: the relay delivered something it never should have
	ErrInvariant = errors.New("invariant violation")
)
