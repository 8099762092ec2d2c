package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestEnv(buffer int) (*Env, *State, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(context.Background())
	env := &Env{
		DispatchChannel: make(chan func(*State) error, buffer),
		Context:         ctx,
		Cancel:          cancel,
	}
	return env, &State{Env: env}, func() { cancel(context.Canceled) }
}

func TestDispatch(t *testing.T) {
	env, state, cancel := newTestEnv(10)
	defer cancel()

	var called bool
	env.Dispatch(func(s *State) error {
		called = true
		return nil
	})

	select {
	case f := <-env.DispatchChannel:
		require.NoError(t, f(state))
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timed out waiting for dispatched function")
	}
	assert.True(t, called)
}

func TestDispatchAfterCancel(t *testing.T) {
	env, _, cancel := newTestEnv(0)
	cancel()

	done := make(chan struct{})
	go func() {
		env.Dispatch(func(s *State) error {
			return nil
		})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a cancelled env")
	}
}

func TestDispatchWait(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env, state, cancel := newTestEnv(0)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f := <-env.DispatchChannel
		_ = f(state)
	}()

	res, err := env.DispatchWait(func(s *State) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)
	wg.Wait()
}

func TestDispatchWaitError(t *testing.T) {
	env, state, cancel := newTestEnv(1)
	defer cancel()

	expected := errors.New("boom")
	go func() {
		f := <-env.DispatchChannel
		_ = f(state)
	}()
	_, err := env.DispatchWait(func(s *State) (any, error) {
		return nil, expected
	})
	assert.ErrorIs(t, err, expected)
}

func TestDispatchWaitCancelled(t *testing.T) {
	env, _, cancel := newTestEnv(1)
	cancel()
	_, err := env.DispatchWait(func(s *State) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepeatTask(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env, state, cancel := newTestEnv(10)
	defer cancel()

	var count int

	env.RepeatTask(func(s *State) error {
		count++
		if count >= 3 {
			cancel()
		}
		return nil
	}, 50*time.Millisecond)

	// Process the repeat tasks until context is cancelled.
loop:
	for {
		select {
		case f := <-env.DispatchChannel:
			require.NoError(t, f(state))
		case <-env.Context.Done():
			break loop
		case <-time.After(500 * time.Millisecond):
			t.Fatal("Timed out waiting for RepeatTask to execute")
		}
	}
	assert.Equal(t, 3, count)
}

func TestJitteredDelay(t *testing.T) {
	interval := 2 * time.Second
	jitter := 500 * time.Millisecond
	for range 1000 {
		d := JitteredDelay(interval, jitter)
		assert.GreaterOrEqual(t, d, interval-jitter)
		assert.Less(t, d, interval)
	}
	assert.Equal(t, interval, JitteredDelay(interval, 0))
	// jitter larger than the interval never produces a negative delay
	assert.GreaterOrEqual(t, JitteredDelay(time.Second, 5*time.Second), time.Duration(0))
}
