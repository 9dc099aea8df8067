package state

import (
	"context"
	"log/slog"
)

// Env can be read from any Goroutine. S is the state owned by the main loop; it must only be touched from
// functions dispatched through Env.
type Env[S any] struct {
	DispatchChannel chan<- func(s S) error
	Context         context.Context
	Cancel          context.CancelCauseFunc
	Log             *slog.Logger
}

// NewEnv creates an Env and the receiving end of its dispatch channel
func NewEnv[S any](parent context.Context, log *slog.Logger) (*Env[S], <-chan func(S) error) {
	ctx, cancel := context.WithCancelCause(parent)
	dispatch := make(chan func(s S) error, DispatchQueueSize)
	return &Env[S]{
		DispatchChannel: dispatch,
		Context:         ctx,
		Cancel:          cancel,
		Log:             log,
	}, dispatch
}
