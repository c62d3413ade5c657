package state

import (
	"time"
)

// Dispatch queues fun to run on the router loop without waiting for it to
// complete. If the router is already shut down the function is silently
// discarded.
func (e *Env) Dispatch(fun func(*State) error) {
	select {
	case e.DispatchChannel <- fun:
	case <-e.Context.Done():
	}
}

// DispatchWait queues fun to run on the router loop and waits for its result.
// Returns the context error if the router shuts down first.
func (e *Env) DispatchWait(fun func(*State) (any, error)) (any, error) {
	ret := make(chan Pair[any, error], 1)
	wrapped := func(s *State) error {
		res, err := fun(s)
		ret <- Pair[any, error]{res, err}
		return nil
	}
	select {
	case e.DispatchChannel <- wrapped:
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
	select {
	case res := <-ret:
		return res.V1, res.V2
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
}

// DispatchWaitErr is DispatchWait for functions that only produce an error.
func (e *Env) DispatchWaitErr(fun func(*State) error) error {
	_, err := e.DispatchWait(func(s *State) (any, error) {
		return nil, fun(s)
	})
	return err
}

// ScheduleTask runs fun on the router loop after delay. Periodic work is
// expressed as a task that reschedules itself while it still applies, so a
// stopped router simply lets the chain end.
func (e *Env) ScheduleTask(fun func(*State) error, delay time.Duration) {
	time.AfterFunc(delay, func() {
		e.Dispatch(fun)
	})
}
