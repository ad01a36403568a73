package pcm

import (
	"fmt"
	"time"
)

// Buffer holds decoded narration audio in channel-planar form: one
// normalized sample slice per channel, all the same length, tagged with
// the sample rate. A Buffer is immutable after construction and safe to
// render any number of times.
type Buffer struct {
	channels   [][]float32
	sampleRate int
	frames     int
}

// NewBuffer assembles planar channel data into a Buffer. Every channel
// must hold the same number of frames; a mismatch means the converter
// produced corrupt output, so NewBuffer panics rather than returning an
// error. At least one channel is required.
func NewBuffer(channels [][]float32, sampleRate int) *Buffer {
	if len(channels) == 0 {
		panic("pcm: buffer requires at least one channel")
	}
	frames := len(channels[0])
	for ch, samples := range channels {
		if len(samples) != frames {
			panic(fmt.Sprintf("pcm: channel %d holds %d frames, channel 0 holds %d",
				ch, len(samples), frames))
		}
	}
	return &Buffer{
		channels:   channels,
		sampleRate: sampleRate,
		frames:     frames,
	}
}

// Channels returns the number of channels.
func (b *Buffer) Channels() int {
	return len(b.channels)
}

// Frames returns the number of frames per channel.
func (b *Buffer) Frames() int {
	return b.frames
}

// SampleRate returns the buffer's sample rate in Hz.
func (b *Buffer) SampleRate() int {
	return b.sampleRate
}

// Channel returns the planar sample data for one channel. The returned
// slice is the buffer's backing storage and must not be modified.
func (b *Buffer) Channel(ch int) []float32 {
	return b.channels[ch]
}

// Duration returns the buffer's playing time.
func (b *Buffer) Duration() time.Duration {
	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(b.frames) * time.Second / time.Duration(b.sampleRate)
}
