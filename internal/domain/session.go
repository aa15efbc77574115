package domain

// State is the lifecycle position of a messaging session.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to State) bool {
	switch from {
	case StateConnecting:
		return to == StateOpen || to == StateClosed || to == StateFailed
	case StateOpen:
		return to == StateClosed || to == StateFailed
	default:
		return false
	}
}

// Lobby is the form a participant fills in before joining.
type Lobby struct {
	Username string `validate:"required,max=64"`
}
