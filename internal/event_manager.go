package internal

import (
	"slices"
	"sync"
)

// DefaultPriority is the priority used by listeners that don't ask for one.
const DefaultPriority = 1

// EventManager keeps prioritized listeners per phase and triggers them.
// It is safe for concurrent use; triggers iterate over a snapshot, so a
// listener may attach or detach others without deadlocking.
type EventManager struct {
	listeners map[Phase][]*binding
	mu        sync.RWMutex
	seq       uint64
}

type binding struct {
	listener Listener
	priority int
	id       uint64
}

// Subscription is the handle returned by Attach.
type Subscription struct {
	em    *EventManager
	phase Phase
	id    uint64
}

// Phase returns the phase the listener was attached to.
func (s *Subscription) Phase() Phase {
	return s.phase
}

// Detach removes the listener. Calling it more than once is a no-op.
func (s *Subscription) Detach() {
	if s == nil || s.em == nil {
		return
	}
	s.em.detach(s.phase, s.id)
}

// Result aggregates the values returned by the listeners of one trigger.
type Result struct {
	values  []any
	stopped bool
}

// Stopped reports whether iteration ended before all listeners ran.
func (r *Result) Stopped() bool {
	return r.stopped
}

// Last returns the value of the last listener that ran, or nil.
func (r *Result) Last() any {
	if len(r.values) == 0 {
		return nil
	}
	return r.values[len(r.values)-1]
}

// First returns the value of the first listener that ran, or nil.
func (r *Result) First() any {
	if len(r.values) == 0 {
		return nil
	}
	return r.values[0]
}

// Values returns the values of all listeners that ran, in call order.
func (r *Result) Values() []any {
	return slices.Clone(r.values)
}

// Len returns the number of listeners that ran.
func (r *Result) Len() int {
	return len(r.values)
}

// NewEventManager creates an empty event manager.
func NewEventManager() *EventManager {
	return &EventManager{listeners: make(map[Phase][]*binding)}
}

// Attach registers a listener for a phase.
// Higher priorities run first; equal priorities run in registration order.
// Attaching the same listener twice registers it twice.
func (em *EventManager) Attach(phase Phase, l Listener, priority int) *Subscription {
	if l == nil || !phase.Valid() {
		return &Subscription{}
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	em.seq++
	b := &binding{listener: l, priority: priority, id: em.seq}

	list := em.listeners[phase]
	i := slices.IndexFunc(list, func(x *binding) bool { return x.priority < priority })
	if i < 0 {
		i = len(list)
	}
	em.listeners[phase] = slices.Insert(list, i, b)

	return &Subscription{em: em, phase: phase, id: b.id}
}

// AttachFunc is shorthand for Attach(phase, ListenerFunc(fn), priority).
func (em *EventManager) AttachFunc(phase Phase, fn func(e *Event) (any, error), priority int) *Subscription {
	return em.Attach(phase, ListenerFunc(fn), priority)
}

// AttachListener registers obj for every phase it has a listener method for
// (OnBootstrap, OnRoute, OnDispatch, OnRender, OnFinish).
// Returns ErrNotAListener if obj implements none of them.
func (em *EventManager) AttachListener(obj any, priority int) ([]*Subscription, error) {
	byPhase := phaseListeners(obj)
	if len(byPhase) == 0 {
		return nil, ErrNotAListener
	}

	subs := make([]*Subscription, 0, len(byPhase))
	for _, p := range Phases() {
		if l, ok := byPhase[p]; ok {
			subs = append(subs, em.Attach(p, l, priority))
		}
	}
	return subs, nil
}

func (em *EventManager) detach(phase Phase, id uint64) {
	em.mu.Lock()
	defer em.mu.Unlock()

	em.listeners[phase] = slices.DeleteFunc(em.listeners[phase], func(b *binding) bool {
		return b.id == id
	})
}

// Listeners returns the number of listeners attached to a phase.
func (em *EventManager) Listeners(phase Phase) int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.listeners[phase])
}

// ClearListeners removes every listener of a phase.
func (em *EventManager) ClearListeners(phase Phase) {
	em.mu.Lock()
	defer em.mu.Unlock()
	delete(em.listeners, phase)
}

// Trigger calls every listener of e.Name() in priority order.
// Iteration ends early only when a listener stops propagation.
func (em *EventManager) Trigger(e *Event) (*Result, error) {
	return em.trigger(e, nil)
}

// TriggerUntil calls listeners of e.Name() until one returns a value
// satisfying pred or stops propagation.
func (em *EventManager) TriggerUntil(pred func(v any) bool, e *Event) (*Result, error) {
	return em.trigger(e, pred)
}

func (em *EventManager) trigger(e *Event, pred func(v any) bool) (*Result, error) {
	em.mu.RLock()
	snapshot := slices.Clone(em.listeners[e.Name()])
	em.mu.RUnlock()

	res := &Result{values: make([]any, 0, len(snapshot))}
	for _, b := range snapshot {
		v, err := b.listener.Handle(e)
		if err != nil {
			return res, err
		}
		res.values = append(res.values, v)

		if e.Stopped() {
			res.stopped = true
			return res, nil
		}
		if pred != nil && pred(v) {
			res.stopped = true
			return res, nil
		}
	}
	return res, nil
}
