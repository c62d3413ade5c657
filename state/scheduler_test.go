package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testEnv(t *testing.T) (*Env, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	env := &Env{
		ID:              "test",
		DispatchChannel: make(chan func(*State) error, 10),
		Context:         ctx,
		Cancel: func(err error) {
			cancel()
		},
	}
	return env, cancel
}

func TestDispatch(t *testing.T) {
	env, cancel := testEnv(t)
	defer cancel()
	state := &State{Env: env}

	var called bool

	go func() {
		select {
		case f := <-env.DispatchChannel:
			if err := f(state); err != nil {
				t.Errorf("Dispatch error: %v", err)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("Timed out waiting for dispatched function")
		}
	}()

	env.Dispatch(func(s *State) error {
		called = true
		return nil
	})

	time.Sleep(150 * time.Millisecond)

	if !called {
		t.Fatal("Dispatch function was not executed")
	}
}

func TestDispatchAfterCancelIsDiscarded(t *testing.T) {
	env, cancel := testEnv(t)
	cancel()

	// must return promptly instead of blocking on a dead loop
	done := make(chan struct{})
	go func() {
		env.Dispatch(func(s *State) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked after cancellation")
	}
}

func TestDispatchWait(t *testing.T) {
	env, cancel := testEnv(t)
	defer cancel()
	state := &State{Env: env}

	go func() {
		f := <-env.DispatchChannel
		_ = f(state)
	}()

	res, err := env.DispatchWait(func(s *State) (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("DispatchWait error: %v", err)
	}
	if res.(int) != 42 {
		t.Fatalf("Expected 42, got %v", res)
	}
}

func TestDispatchWaitPropagatesError(t *testing.T) {
	env, cancel := testEnv(t)
	defer cancel()
	state := &State{Env: env}

	go func() {
		f := <-env.DispatchChannel
		_ = f(state)
	}()

	want := errors.New("boom")
	err := env.DispatchWaitErr(func(s *State) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("Expected %v, got %v", want, err)
	}
}

func TestDispatchWaitAfterCancel(t *testing.T) {
	env, cancel := testEnv(t)
	cancel()

	_, err := env.DispatchWait(func(s *State) (any, error) {
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestScheduleTask(t *testing.T) {
	env, cancel := testEnv(t)
	defer cancel()
	state := &State{Env: env}

	var taskCalled bool

	env.ScheduleTask(func(s *State) error {
		taskCalled = true
		return nil
	}, 50*time.Millisecond)

	// Wait enough time for the scheduled task to be dispatched.
	time.Sleep(100 * time.Millisecond)
	select {
	case f := <-env.DispatchChannel:
		if err := f(state); err != nil {
			t.Errorf("Scheduled task error: %v", err)
		}
	default:
		t.Fatal("No task was scheduled")
	}

	if !taskCalled {
		t.Fatal("Scheduled task was not executed")
	}
}
