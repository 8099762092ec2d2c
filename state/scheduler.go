package state

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Dispatch Dispatches the function to run on the main thread without waiting for it to complete
func (e *Env) Dispatch(fun func(*State) error) {
	defer func() {
		if r := recover(); r != nil {
			e.Cancel(fmt.Errorf("panic: %v", r))
		}
	}()
	select {
	case e.DispatchChannel <- fun:
	case <-e.Context.Done():
	}
}

// DispatchWait Dispatches the function to run on the main thread and wait for it to complete
func (e *Env) DispatchWait(fun func(*State) (any, error)) (any, error) {
	ret := make(chan Pair[any, error], 1)
	e.Dispatch(func(s *State) error {
		res, err := fun(s)
		ret <- Pair[any, error]{res, err}
		return err
	})
	select {
	case res := <-ret:
		return res.V1, res.V2
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
}

func (e *Env) repeatedTask(fun func(*State) error, delay func() time.Duration) {
	for e.Context.Err() == nil {
		e.Dispatch(fun)
		t := time.NewTimer(delay())
		select {
		case <-e.Context.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (e *Env) RepeatTask(fun func(*State) error, delay time.Duration) {
	go e.repeatedTask(fun, func() time.Duration {
		return delay
	})
}

// RepeatJitterTask runs fun every interval - U(0, jitter), so that nodes started together do not emit in lockstep.
func (e *Env) RepeatJitterTask(fun func(*State) error, interval, jitter time.Duration) {
	go e.repeatedTask(fun, func() time.Duration {
		return JitteredDelay(interval, jitter)
	})
}

func JitteredDelay(interval, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return interval
	}
	jitter = min(jitter, interval)
	return interval - jitter + rand.N(jitter)
}
