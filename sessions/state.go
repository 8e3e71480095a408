package sessions

// State is the lifecycle state of a desktop session.
type State string

const (
	// StatePending means the OAuth flow has been initiated and the broker is
	// waiting for the authorization callback.
	StatePending State = "pending"
	// StateActive means the session holds token material and is ready for
	// upstream calls.
	StateActive State = "active"
	// StateExpired means the access token has passed its expiry buffer and
	// needs a refresh before the next upstream call.
	StateExpired State = "expired"
	// StateRevoked means the session was explicitly revoked. Terminal.
	StateRevoked State = "revoked"
	// StatePurged means the session exceeded the maximum age and was swept.
	// Terminal.
	StatePurged State = "purged"
)

// validTransitions defines every legal state machine edge. Anything not
// listed here is rejected with ErrInvalidTransition.
var validTransitions = map[State]map[State]bool{
	StatePending: {StateActive: true, StateRevoked: true, StatePurged: true},
	StateActive:  {StateExpired: true, StateRevoked: true, StatePurged: true},
	StateExpired: {StateActive: true, StateRevoked: true, StatePurged: true},
	StateRevoked: {StatePurged: true},
	StatePurged:  {},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	return validTransitions[from][to]
}

// Terminal reports whether a state has no outgoing transitions other than
// the age-based purge.
func (s State) Terminal() bool {
	return s == StateRevoked || s == StatePurged
}
