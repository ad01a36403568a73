//go:build !nocgo
// +build !nocgo

package player

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/mossglen/murmur/pkg/pcm"
)

// The oto context is process-wide and created at most once, so every
// production sink in a process must share one output format.
var (
	otoCtx    *oto.Context
	otoFormat pcm.Format
	otoOnce   sync.Once
	otoErr    error
)

// sharedContext returns the process-wide oto context, creating it on
// first use with the given format.
func sharedContext(f pcm.Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		// Platform-specific buffer size adjustments
		switch runtime.GOOS {
		case "darwin":
			// macOS benefits from larger buffers
			options.BufferSize = time.Millisecond * 100
		case "windows":
			// Windows WASAPI works well with moderate buffers
			options.BufferSize = time.Millisecond * 80
		default:
			// Linux ALSA and others
			options.BufferSize = time.Millisecond * 50
		}

		log.Debug("initializing audio context",
			"sample_rate", options.SampleRate,
			"channels", options.ChannelCount,
			"buffer_size", options.BufferSize)

		ctx, readyChan, err := oto.NewContext(options)
		if err != nil {
			otoErr = fmt.Errorf("create audio context: %w", err)
			return
		}

		select {
		case <-readyChan:
			otoCtx = ctx
			otoFormat = f
		case <-time.After(5 * time.Second):
			otoErr = fmt.Errorf("audio context initialization timeout")
		}
	})

	if otoErr != nil {
		return nil, otoErr
	}
	if f != otoFormat {
		return nil, fmt.Errorf("audio context already opened at %s, cannot reopen at %s", otoFormat, f)
	}
	return otoCtx, nil
}

// otoSink renders buffers through the shared oto context.
type otoSink struct {
	ctx    *oto.Context
	format pcm.Format

	mu     sync.Mutex
	voices map[*otoVoice]struct{}
	closed bool
}

func newOtoSink(f pcm.Format) (Sink, error) {
	ctx, err := sharedContext(f)
	if err != nil {
		return nil, err
	}
	return &otoSink{
		ctx:    ctx,
		format: f,
		voices: make(map[*otoVoice]struct{}),
	}, nil
}

// Start implements Sink.
func (s *otoSink) Start(buf *pcm.Buffer, onDone func()) (Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSinkClosed
	}
	if buf.SampleRate() != s.format.SampleRate || buf.Channels() != s.format.Channels {
		return nil, fmt.Errorf("buffer is %dHz %dch, sink expects %s",
			buf.SampleRate(), buf.Channels(), s.format)
	}

	data := interleave16(buf)
	v := &otoVoice{
		sink:   s,
		reader: newTrackingReader(data),
		total:  int64(len(data)),
		format: s.format,
		done:   onDone,
		halt:   make(chan struct{}),
	}
	v.player = s.ctx.NewPlayer(v.reader)
	v.player.Play()
	s.voices[v] = struct{}{}

	go v.monitor()

	return v, nil
}

// Close implements Sink.
func (s *otoSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	voices := make([]*otoVoice, 0, len(s.voices))
	for v := range s.voices {
		voices = append(voices, v)
	}
	s.voices = nil
	s.mu.Unlock()

	var err error
	for _, v := range voices {
		if haltErr := v.Halt(); haltErr != nil {
			err = haltErr
		}
	}
	return err
}

func (s *otoSink) remove(v *otoVoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voices != nil {
		delete(s.voices, v)
	}
}

// otoVoice is one oto player rendering an interleaved buffer.
type otoVoice struct {
	sink   *otoSink
	player *oto.Player
	reader *trackingReader
	total  int64
	format pcm.Format
	done   func()

	mu     sync.Mutex
	halted bool
	halt   chan struct{}
}

// monitor watches the player and reports natural completion. The player
// keeps IsPlaying true while buffered data drains, so completion is the
// reader being exhausted and the device going idle.
func (v *otoVoice) monitor() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-v.halt:
			return
		case <-ticker.C:
			if !v.player.IsPlaying() && v.reader.Position() >= v.total {
				v.finish()
				return
			}
		}
	}
}

// finish delivers the completion notification, unless the voice was
// halted first.
func (v *otoVoice) finish() {
	v.mu.Lock()
	if v.halted {
		v.mu.Unlock()
		return
	}
	v.halted = true
	v.mu.Unlock()

	_ = v.player.Close()
	v.sink.remove(v)

	if v.done != nil {
		v.done()
	}
}

// Halt implements Voice.
func (v *otoVoice) Halt() error {
	v.mu.Lock()
	if v.halted {
		v.mu.Unlock()
		return nil
	}
	v.halted = true
	close(v.halt)
	v.mu.Unlock()

	v.player.Pause()
	err := v.player.Close()
	v.sink.remove(v)
	return err
}

// SetVolume implements Voice.
func (v *otoVoice) SetVolume(volume float64) {
	v.player.SetVolume(volume)
}

// Position implements Voice.
func (v *otoVoice) Position() time.Duration {
	frames := v.reader.Position() / int64(v.format.FrameBytes())
	return v.format.Duration(int(frames))
}

// trackingReader wraps the interleaved sample bytes and tracks how far
// the device has read, which is how completion is detected.
type trackingReader struct {
	mu  sync.Mutex
	r   *bytes.Reader
	pos atomic.Int64
}

func newTrackingReader(data []byte) *trackingReader {
	return &trackingReader{r: bytes.NewReader(data)}
}

func (t *trackingReader) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.r.Read(p)
	if n > 0 {
		t.pos.Add(int64(n))
	}
	return n, err
}

func (t *trackingReader) Position() int64 {
	return t.pos.Load()
}

// interleave16 renders a planar float buffer back into the signed 16-bit
// little-endian stream the device consumes.
func interleave16(buf *pcm.Buffer) []byte {
	frames := buf.Frames()
	channels := buf.Channels()
	out := make([]byte, frames*channels*2)

	for ch := 0; ch < channels; ch++ {
		samples := buf.Channel(ch)
		for i := 0; i < frames; i++ {
			x := float64(samples[i]) * 32768
			if x > 32767 {
				x = 32767
			} else if x < -32768 {
				x = -32768
			}
			binary.LittleEndian.PutUint16(out[(i*channels+ch)*2:], uint16(int16(x)))
		}
	}
	return out
}
