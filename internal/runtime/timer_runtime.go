package runtime

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	errs "reportfire/errors"
	"reportfire/internal/schedule"
)

// TimerRuntime drives every registered trigger with its own timer loop. Each
// firing invokes the group listener synchronously and then hands the execute
// callback to a fresh goroutine, so a trigger loop is never occupied by
// I/O-bound work and ticks keep their cadence.
type TimerRuntime struct {
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	listeners map[string]TriggerListener
	entries   map[JobKey]*triggerEntry
	wg        sync.WaitGroup
	failures  atomic.Int64
}

type triggerEntry struct {
	key        JobKey
	spec       schedule.TriggerSpec
	execute    ExecuteFunc
	state      TriggerState
	fired      int
	next       time.Time
	gen        int
	cancelLoop context.CancelFunc
}

func NewTimerRuntime() *TimerRuntime {
	return &TimerRuntime{
		listeners: make(map[string]TriggerListener),
		entries:   make(map[JobKey]*triggerEntry),
	}
}

// Start makes the runtime live. It must be called exactly once, before any
// trigger is registered.
func (rt *TimerRuntime) Start(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.started {
		return fmt.Errorf("runtime already started")
	}
	rt.ctx, rt.cancel = context.WithCancel(ctx)
	rt.started = true
	return nil
}

// Stop cancels every trigger loop and waits for them to exit. In-flight
// executions see a cancelled context and are not guaranteed to complete.
func (rt *TimerRuntime) Stop() {
	rt.mu.Lock()
	if !rt.started {
		rt.mu.Unlock()
		return
	}
	rt.cancel()
	rt.mu.Unlock()

	rt.wg.Wait()
}

// RegisterListener binds a trigger listener to a group. Each group has
// exactly one listener and it must be registered before any job in the group
// is scheduled.
func (rt *TimerRuntime) RegisterListener(group string, listener TriggerListener) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if group == "" {
		return fmt.Errorf("listener group must not be empty")
	}
	if listener == nil {
		return &errs.ListenerRegistrationError{Group: group}
	}
	rt.listeners[group] = listener
	return nil
}

// Register binds a compiled trigger and its execute callback under (id,
// group) and starts firing it immediately.
func (rt *TimerRuntime) Register(key JobKey, spec schedule.TriggerSpec, execute ExecuteFunc) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !rt.started {
		return fmt.Errorf("runtime not started")
	}
	if _, ok := rt.listeners[key.Group]; !ok {
		return &errs.ListenerRegistrationError{Group: key.Group}
	}
	if _, ok := rt.entries[key]; ok {
		return &errs.AlreadyExistsError{ID: key.ID, Group: key.Group}
	}

	e := &triggerEntry{
		key:     key,
		spec:    spec,
		execute: execute,
		state:   StateActive,
	}
	rt.entries[key] = e

	// A bounded trigger that owes no more firings completes on the spot.
	if spec.Bounded() && spec.Limit() == 0 {
		e.state = StateComplete
		return nil
	}

	e.next = spec.First(time.Now())
	rt.spawnLoopLocked(e)
	return nil
}

// Pause suspends a trigger's firing without deregistering it.
func (rt *TimerRuntime) Pause(key JobKey) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	e, ok := rt.entries[key]
	if !ok {
		return fmt.Errorf("trigger %s/%s is not registered", key.Group, key.ID)
	}
	if e.state != StateActive {
		return fmt.Errorf("trigger %s/%s is not active", key.Group, key.ID)
	}

	e.cancelLoop()
	e.state = StatePaused
	e.gen++
	return nil
}

// Resume restarts a paused trigger. A bounded trigger continues from the
// firings it still owes, not from its original count.
func (rt *TimerRuntime) Resume(key JobKey) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	e, ok := rt.entries[key]
	if !ok {
		return fmt.Errorf("trigger %s/%s is not registered", key.Group, key.ID)
	}
	if e.state != StatePaused {
		return fmt.Errorf("trigger %s/%s is not paused", key.Group, key.ID)
	}

	// The pause may have landed while the last owed firing was in flight; in
	// that case there is nothing left to schedule.
	if e.spec.Bounded() && e.fired >= e.spec.Limit() {
		e.state = StateComplete
		return nil
	}

	e.state = StateActive
	now := time.Now()
	if e.fired == 0 {
		e.next = e.spec.First(now)
	} else {
		e.next = e.spec.Next(now)
	}
	rt.spawnLoopLocked(e)
	return nil
}

// Deregister cancels all future firings and removes the binding.
func (rt *TimerRuntime) Deregister(key JobKey) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	e, ok := rt.entries[key]
	if !ok {
		return &errs.NotFoundError{ID: key.ID, Group: key.Group}
	}
	if e.cancelLoop != nil {
		e.cancelLoop()
	}
	e.gen++
	delete(rt.entries, key)
	return nil
}

// State reports the runtime-side state of a registered trigger.
func (rt *TimerRuntime) State(key JobKey) (TriggerState, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	e, ok := rt.entries[key]
	if !ok {
		return 0, &errs.NotFoundError{ID: key.ID, Group: key.Group}
	}
	return e.state, nil
}

// JobIDsInGroup lists every job id with a registered trigger in the group,
// whatever its trigger state.
func (rt *TimerRuntime) JobIDsInGroup(group string) []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var ids []string
	for key := range rt.entries {
		if key.Group == group {
			ids = append(ids, key.ID)
		}
	}
	return ids
}

// Failures counts execute callbacks that returned an error since start.
func (rt *TimerRuntime) Failures() int64 {
	return rt.failures.Load()
}

func (rt *TimerRuntime) spawnLoopLocked(e *triggerEntry) {
	loopCtx, cancel := context.WithCancel(rt.ctx)
	e.cancelLoop = cancel
	gen := e.gen

	rt.wg.Add(1)
	go rt.runLoop(loopCtx, e, gen)
}

func (rt *TimerRuntime) runLoop(ctx context.Context, e *triggerEntry, gen int) {
	defer rt.wg.Done()

	for {
		rt.mu.Lock()
		next := e.next
		rt.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// The trigger may have been paused or deregistered while the timer
		// was pending; the generation check keeps a stale loop from firing.
		rt.mu.Lock()
		if e.state != StateActive || e.gen != gen {
			rt.mu.Unlock()
			return
		}
		listener := rt.listeners[e.key.Group]
		rt.mu.Unlock()

		rt.fire(e, listener)

		rt.mu.Lock()
		e.fired++
		// A pause or deregistration during the fire bumps the generation; the
		// fire still counts, but the state belongs to the newer owner.
		if e.gen != gen {
			rt.mu.Unlock()
			return
		}
		if e.spec.Bounded() && e.fired >= e.spec.Limit() {
			e.state = StateComplete
			rt.mu.Unlock()
			return
		}
		e.next = e.spec.Next(time.Now())
		rt.mu.Unlock()
	}
}

func (rt *TimerRuntime) fire(e *triggerEntry, listener TriggerListener) {
	listener.OnFire(rt.ctx, e.key.ID)

	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		if err := e.execute(rt.ctx, e.key.ID); err != nil {
			rt.failures.Add(1)
			log.Printf("runtime: execution of job %s in group %s failed: %v", e.key.ID, e.key.Group, err)
		}
	}()
}
