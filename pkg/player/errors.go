package player

import "errors"

// Common errors for the playback controller and its sinks.
var (
	// Controller errors
	ErrNotLoaded = errors.New("no audio loaded")

	// Sink errors
	ErrEngine     = errors.New("audio output unavailable")
	ErrSinkClosed = errors.New("audio sink is closed")
)
