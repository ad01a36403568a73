package player

// State represents the playback controller lifecycle.
type State int

const (
	// StateUnloaded indicates the payload has not been decoded yet.
	StateUnloaded State = iota
	// StateLoaded indicates a decoded buffer is cached and ready to play.
	StateLoaded
	// StatePlaying indicates an active playback session is rendering.
	StatePlaying
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
