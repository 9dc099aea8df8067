package state

import (
	"time"
)

// Dispatch Dispatches the function to run on the main thread without waiting for it to complete.
// It returns false if the main loop has already stopped.
func (e *Env[S]) Dispatch(fun func(S) error) bool {
	if e.Context.Err() != nil {
		return false
	}
	select {
	case e.DispatchChannel <- fun:
		return true
	case <-e.Context.Done():
		return false
	}
}

// DispatchWait Dispatches the function to run on the main thread and wait for it to complete
func (e *Env[S]) DispatchWait(fun func(S) (any, error)) (any, error) {
	ret := make(chan Pair[any, error], 1)
	ok := e.Dispatch(func(s S) error {
		res, err := fun(s)
		ret <- Pair[any, error]{res, err}
		return nil
	})
	if !ok {
		return nil, e.Context.Err()
	}
	select {
	case res := <-ret:
		return res.V1, res.V2
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
}

func (e *Env[S]) ScheduleTask(fun func(S) error, delay time.Duration) {
	time.AfterFunc(delay, func() {
		e.Dispatch(fun)
	})
}

func (e *Env[S]) repeatedTask(fun func(S) error, delay time.Duration) {
	ticker := time.NewTicker(delay)
	defer ticker.Stop()
	for {
		select {
		case <-e.Context.Done():
			return
		case <-ticker.C:
			e.Dispatch(fun)
		}
	}
}

func (e *Env[S]) RepeatTask(fun func(S) error, delay time.Duration) {
	go e.repeatedTask(fun, delay)
}
