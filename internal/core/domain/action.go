package domain

// ActionKind enumerates the reversible social actions.
type ActionKind string

const (
	ActionLike     ActionKind = "like"
	ActionBookmark ActionKind = "bookmark"
	ActionFollow   ActionKind = "follow"
)

// ActionDescriptor binds an interactive control to the resource it mutates.
type ActionDescriptor struct {
	Kind       ActionKind
	ResourceID string
}

// ActionState is the displayed state of a single interactive control.
// Active and Count always move together; a control is never half-toggled.
type ActionState struct {
	Active bool
	Count  int
}

// Toggled returns the state after one toggle: the flag flips and the
// counter moves by exactly one, clamped at zero.
func Toggled(s ActionState) ActionState {
	if s.Active {
		next := s.Count - 1
		if next < 0 {
			next = 0
		}
		return ActionState{Active: false, Count: next}
	}
	return ActionState{Active: true, Count: s.Count + 1}
}
