package player

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mossglen/murmur/pkg/pcm"
)

// MockSink simulates an audio output device. In realtime mode each voice
// delivers its completion after the buffer's playing time, which is what
// the automatic fallback uses on machines without audio. In manual mode
// nothing completes until the test calls Complete or Finish, so the
// completion race can be driven deterministically.
type MockSink struct {
	mu       sync.Mutex
	format   pcm.Format
	realtime bool
	closed   bool
	voices   []*MockVoice
	startErr error

	starts int
	halts  int
}

// NewMockSink creates a manual mock sink: voices never complete on their
// own.
func NewMockSink(f pcm.Format) *MockSink {
	return &MockSink{format: f}
}

// NewRealtimeMockSink creates a mock sink whose voices complete after
// the buffer's duration, simulating a real device.
func NewRealtimeMockSink(f pcm.Format) *MockSink {
	log.Debug("creating mock audio sink", "format", f)
	return &MockSink{format: f, realtime: true}
}

// Start implements Sink.
func (s *MockSink) Start(buf *pcm.Buffer, onDone func()) (Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSinkClosed
	}
	if s.startErr != nil {
		return nil, s.startErr
	}

	v := &MockVoice{
		sink:     s,
		duration: buf.Duration(),
		started:  time.Now(),
		volume:   1.0,
		done:     onDone,
	}
	if s.realtime {
		v.timer = time.AfterFunc(v.duration, func() { v.Finish() })
	}

	s.voices = append(s.voices, v)
	s.starts++
	log.Debug("mock voice started", "frames", buf.Frames(), "duration", v.duration)
	return v, nil
}

// Close implements Sink.
func (s *MockSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	voices := append([]*MockVoice(nil), s.voices...)
	s.mu.Unlock()

	for _, v := range voices {
		_ = v.Halt()
	}
	return nil
}

// Complete finishes the most recently started voice that is still live,
// delivering its completion on the calling goroutine. It reports whether
// such a voice existed.
func (s *MockSink) Complete() bool {
	s.mu.Lock()
	var target *MockVoice
	for i := len(s.voices) - 1; i >= 0; i-- {
		if !s.voices[i].isHalted() {
			target = s.voices[i]
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return false
	}
	target.Finish()
	return true
}

// Voice returns the i-th voice ever started, for inspecting halted
// sessions in tests.
func (s *MockSink) Voice(i int) *MockVoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.voices) {
		return nil
	}
	return s.voices[i]
}

// SetStartError makes subsequent Start calls fail with err.
func (s *MockSink) SetStartError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startErr = err
}

// StartCount returns how many voices were started.
func (s *MockSink) StartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// HaltCount returns how many voices were halted before completing.
func (s *MockSink) HaltCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halts
}

// Closed reports whether the sink has been closed.
func (s *MockSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// MockVoice is one simulated rendering.
type MockVoice struct {
	sink     *MockSink
	duration time.Duration
	started  time.Time
	done     func()
	timer    *time.Timer

	mu        sync.Mutex
	halted    bool
	delivered bool
	volume    float64
}

// Finish delivers this voice's completion notification now, exactly
// once, even if the voice was already halted. That models a hardware
// notification that was in flight when the halt landed.
func (v *MockVoice) Finish() {
	v.mu.Lock()
	if v.delivered {
		v.mu.Unlock()
		return
	}
	v.delivered = true
	v.halted = true
	v.mu.Unlock()

	if v.done != nil {
		v.done()
	}
}

// Halt implements Voice.
func (v *MockVoice) Halt() error {
	v.mu.Lock()
	if v.halted {
		v.mu.Unlock()
		return nil
	}
	v.halted = true
	timer := v.timer
	v.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	v.sink.mu.Lock()
	v.sink.halts++
	v.sink.mu.Unlock()
	return nil
}

// SetVolume implements Voice.
func (v *MockVoice) SetVolume(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = volume
}

// Volume returns the last volume set on this voice.
func (v *MockVoice) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

// Position implements Voice.
func (v *MockVoice) Position() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.halted {
		return 0
	}
	elapsed := time.Since(v.started)
	if elapsed > v.duration {
		return v.duration
	}
	return elapsed
}

func (v *MockVoice) isHalted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.halted
}
