package ui

import "github.com/mossglen/murmur/pkg/player"

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// playerReadyMsg is sent when the controller has decoded its payload
// and holds a playable buffer.
type playerReadyMsg struct {
	player   *player.Player
	autoplay bool
}

// playbackStartedMsg is sent when a playback session has started.
type playbackStartedMsg struct{}

// playbackStoppedMsg is sent when a manual stop has taken effect.
type playbackStoppedMsg struct{}

// playbackEndedMsg is sent when a session completes naturally.
type playbackEndedMsg struct{}

// fileChangedMsg is sent when the watched payload file changes on disk.
type fileChangedMsg struct{}

// watcherStartedMsg delivers the running payload watcher.
type watcherStartedMsg struct{ watcher *watcher }

// tickMsg drives progress redraws during playback.
type tickMsg struct{}

// statusMessageTimeoutMsg clears the transient status message.
type statusMessageTimeoutMsg struct{}
