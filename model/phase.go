package model

// Phase is the lifecycle stage of a KWIC index.
// Phases only move forward: Loading -> Indexed -> Queryable.
// Starting a new run replaces the line store and returns to Loading.
type Phase string

const (
	PhaseLoading   Phase = "loading"   // line store is being populated
	PhaseIndexed   Phase = "indexed"   // shifts generated and ranking fixed
	PhaseQueryable Phase = "queryable" // facade serves lookups
)

// CanTransitionTo reports whether moving from p to next is a legal forward step.
func (p Phase) CanTransitionTo(next Phase) bool {
	switch p {
	case PhaseLoading:
		return next == PhaseIndexed
	case PhaseIndexed:
		return next == PhaseQueryable
	default:
		return false
	}
}
