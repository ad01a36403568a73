package player

import "github.com/mossglen/murmur/pkg/pcm"

// DefaultVolume is the playback volume used when none is configured.
const DefaultVolume = 1.0

// Config carries the construction parameters for a Player.
type Config struct {
	// Format describes the payload's sample layout. A zero Format means
	// pcm.DefaultFormat.
	Format pcm.Format

	// Sink is the output device to render through. When nil, the player
	// builds one with NewSink(SinkAuto, Format).
	Sink Sink

	// Volume is the playback volume in [0.0, 1.0]; zero is silent.
	// Most callers want DefaultVolume.
	Volume float64
}

// normalize fills in the default format and clamps the volume.
func (c Config) normalize() Config {
	if c.Format == (pcm.Format{}) {
		c.Format = pcm.DefaultFormat()
	}
	if c.Volume < 0 {
		c.Volume = 0
	}
	if c.Volume > 1 {
		c.Volume = 1
	}
	return c
}
