package internal

// Phase identifies one stage of the request lifecycle.
type Phase int

// Lifecycle phases in execution order.
const (
	PhaseBootstrap Phase = iota
	PhaseRoute
	PhaseDispatch
	PhaseRender
	PhaseFinish
)

var phaseNames = [...]string{
	PhaseBootstrap: "bootstrap",
	PhaseRoute:     "route",
	PhaseDispatch:  "dispatch",
	PhaseRender:    "render",
	PhaseFinish:    "finish",
}

// String returns the lowercase phase name, e.g. "finish".
func (p Phase) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return phaseNames[p]
}

// Valid reports whether p is one of the five lifecycle phases.
func (p Phase) Valid() bool {
	return p >= PhaseBootstrap && p <= PhaseFinish
}

// Phases returns all lifecycle phases in execution order.
func Phases() []Phase {
	return []Phase{PhaseBootstrap, PhaseRoute, PhaseDispatch, PhaseRender, PhaseFinish}
}

// ParsePhase maps a phase name back to its Phase.
func ParsePhase(name string) (Phase, bool) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), true
		}
	}
	return 0, false
}
