package internal

// Listener reacts to a lifecycle event.
// The returned value is collected into the trigger Result; a *Response
// returned from bootstrap, dispatch or render ends that phase early.
type Listener interface {
	Handle(e *Event) (any, error)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(e *Event) (any, error)

// Handle calls f(e).
func (f ListenerFunc) Handle(e *Event) (any, error) {
	return f(e)
}

// BootstrapListener is implemented by types interested in the bootstrap phase.
type BootstrapListener interface {
	OnBootstrap(e *Event) (any, error)
}

// RouteListener is implemented by types interested in the route phase.
type RouteListener interface {
	OnRoute(e *Event) (any, error)
}

// DispatchListener is implemented by types interested in the dispatch phase.
// Controllers implementing it get OnDispatch called before their actions.
type DispatchListener interface {
	OnDispatch(e *Event) (any, error)
}

// RenderListener is implemented by types interested in the render phase.
type RenderListener interface {
	OnRender(e *Event) (any, error)
}

// FinishListener is implemented by types interested in the finish phase.
type FinishListener interface {
	OnFinish(e *Event) (any, error)
}

// LifecycleListener covers every phase.
type LifecycleListener interface {
	BootstrapListener
	RouteListener
	DispatchListener
	RenderListener
	FinishListener
}

// phaseListeners returns a Listener for each phase obj has a method for.
func phaseListeners(obj any) map[Phase]Listener {
	out := make(map[Phase]Listener, 5)
	if l, ok := obj.(BootstrapListener); ok {
		out[PhaseBootstrap] = ListenerFunc(l.OnBootstrap)
	}
	if l, ok := obj.(RouteListener); ok {
		out[PhaseRoute] = ListenerFunc(l.OnRoute)
	}
	if l, ok := obj.(DispatchListener); ok {
		out[PhaseDispatch] = ListenerFunc(l.OnDispatch)
	}
	if l, ok := obj.(RenderListener); ok {
		out[PhaseRender] = ListenerFunc(l.OnRender)
	}
	if l, ok := obj.(FinishListener); ok {
		out[PhaseFinish] = ListenerFunc(l.OnFinish)
	}
	return out
}
