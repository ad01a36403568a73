package pcm

import (
	"fmt"
	"time"
)

// Default format parameters for narration payloads.
const (
	DefaultSampleRate = 24000 // 24kHz, the usual rate for generated speech
	DefaultChannels   = 1     // mono
	BitDepth          = 16    // signed little-endian samples
)

// Format describes how to interpret a raw PCM byte stream: how many
// frames per second, how many channels per frame, and how wide each
// sample is. Samples are always signed little-endian integers.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns the format used by narration payloads when the
// caller does not specify one.
func DefaultFormat() Format {
	return Format{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		BitDepth:   BitDepth,
	}
}

// Validate checks that the format parameters are usable.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, f.Channels)
	}
	if f.BitDepth != BitDepth {
		return fmt.Errorf("%w: %d", ErrInvalidBitDepth, f.BitDepth)
	}
	return nil
}

// FrameBytes returns the number of bytes in one interleaved frame
// (one sample per channel).
func (f Format) FrameBytes() int {
	return f.BitDepth / 8 * f.Channels
}

// Duration returns the playing time of the given number of frames.
func (f Format) Duration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// String returns a compact description, e.g. "24000Hz 1ch 16-bit".
func (f Format) String() string {
	return fmt.Sprintf("%dHz %dch %d-bit", f.SampleRate, f.Channels, f.BitDepth)
}
