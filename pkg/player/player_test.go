package player

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/mossglen/murmur/pkg/pcm"
)

// testPayload encodes n frames of mono silence.
func testPayload(n int) string {
	return base64.StdEncoding.EncodeToString(make([]byte, n*2))
}

func testFormat() pcm.Format {
	return pcm.Format{SampleRate: 24000, Channels: 1, BitDepth: 16}
}

// newTestPlayer builds a player over a manual mock sink so tests control
// exactly when completions arrive.
func newTestPlayer(t *testing.T, payload string) (*Player, *MockSink) {
	t.Helper()

	sink := NewMockSink(testFormat())
	p, err := New(payload, Config{Format: testFormat(), Sink: sink})
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, sink
}

func TestNewRejectsBadFormat(t *testing.T) {
	sink := NewMockSink(testFormat())
	_, err := New(testPayload(4), Config{
		Format: pcm.Format{SampleRate: -1, Channels: 1, BitDepth: 16},
		Sink:   sink,
	})
	if !errors.Is(err, pcm.ErrInvalidSampleRate) {
		t.Errorf("New() error = %v, want ErrInvalidSampleRate", err)
	}
}

func TestLoad(t *testing.T) {
	p, _ := newTestPlayer(t, testPayload(10))

	if p.State() != StateUnloaded {
		t.Fatalf("State() = %v before load, want %v", p.State(), StateUnloaded)
	}
	if p.Buffer() != nil {
		t.Errorf("Buffer() = non-nil before load")
	}

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if p.State() != StateLoaded {
		t.Errorf("State() = %v after load, want %v", p.State(), StateLoaded)
	}

	buf := p.Buffer()
	if buf == nil {
		t.Fatalf("Buffer() = nil after load")
	}
	if buf.Frames() != 10 {
		t.Errorf("Frames() = %d, want 10", buf.Frames())
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	p, _ := newTestPlayer(t, testPayload(10))

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	first := p.Buffer()

	if err := p.Load(); err != nil {
		t.Fatalf("second Load() unexpected error = %v", err)
	}
	if p.Buffer() != first {
		t.Errorf("second Load() replaced the cached buffer")
	}
}

func TestLoadFailureLeavesUnloaded(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "empty payload", payload: "", wantErr: pcm.ErrDecode},
		{name: "bad encoding", payload: "@@@@", wantErr: pcm.ErrDecode},
		{name: "misaligned frames", payload: base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), wantErr: pcm.ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPlayer(t, tt.payload)

			err := p.Load()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if p.State() != StateUnloaded {
				t.Errorf("State() = %v after failed load, want %v", p.State(), StateUnloaded)
			}
		})
	}
}

func TestPlayBeforeLoad(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))

	err := p.Play()
	if !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Play() error = %v, want ErrNotLoaded", err)
	}
	if p.State() != StateUnloaded {
		t.Errorf("State() = %v after failed play, want %v", p.State(), StateUnloaded)
	}
	if sink.StartCount() != 0 {
		t.Errorf("StartCount() = %d, want 0", sink.StartCount())
	}
}

func TestPlayStartsSession(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}

	if p.State() != StatePlaying {
		t.Errorf("State() = %v, want %v", p.State(), StatePlaying)
	}
	if sink.StartCount() != 1 {
		t.Errorf("StartCount() = %d, want 1", sink.StartCount())
	}
	if _, ok := p.SessionID(); !ok {
		t.Errorf("SessionID() reported no live session while playing")
	}
}

func TestPlaySinkFailure(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))
	sink.SetStartError(errors.New("device busy"))

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	err := p.Play()
	if !errors.Is(err, ErrEngine) {
		t.Errorf("Play() error = %v, want ErrEngine", err)
	}
	if p.State() != StateLoaded {
		t.Errorf("State() = %v after sink failure, want %v", p.State(), StateLoaded)
	}
}

func TestStopIsNoOpUnlessPlaying(t *testing.T) {
	p, _ := newTestPlayer(t, testPayload(10))

	var fired bool
	p.OnEnded(func() { fired = true })

	if err := p.Stop(); err != nil {
		t.Errorf("Stop() on unloaded player error = %v", err)
	}
	if p.State() != StateUnloaded {
		t.Errorf("State() = %v, want %v", p.State(), StateUnloaded)
	}

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() on loaded player error = %v", err)
	}
	if p.State() != StateLoaded {
		t.Errorf("State() = %v, want %v", p.State(), StateLoaded)
	}
	if fired {
		t.Errorf("completion callback fired on no-op stop")
	}
}

func TestStopSilencesSession(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))

	var fired bool
	p.OnEnded(func() { fired = true })

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() unexpected error = %v", err)
	}

	if p.State() != StateLoaded {
		t.Errorf("State() = %v after stop, want %v", p.State(), StateLoaded)
	}
	if sink.HaltCount() != 1 {
		t.Errorf("HaltCount() = %d, want 1", sink.HaltCount())
	}

	// The device notification was already in flight when the stop
	// landed; it must be dropped.
	sink.Voice(0).Finish()
	if fired {
		t.Errorf("completion callback fired for a manually stopped session")
	}
}

func TestNaturalCompletion(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))

	var calls int
	p.OnEnded(func() { calls++ })

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}

	if !sink.Complete() {
		t.Fatalf("Complete() found no live voice")
	}

	if calls != 1 {
		t.Errorf("completion callback ran %d times, want 1", calls)
	}
	if p.State() != StateLoaded {
		t.Errorf("State() = %v after completion, want %v", p.State(), StateLoaded)
	}
	if _, ok := p.SessionID(); ok {
		t.Errorf("SessionID() still reports a session after completion")
	}

	// Replaying must not re-decode.
	buf := p.Buffer()
	if err := p.Play(); err != nil {
		t.Fatalf("Play() after completion unexpected error = %v", err)
	}
	if p.Buffer() != buf {
		t.Errorf("replay rebuilt the cached buffer")
	}
	if sink.StartCount() != 2 {
		t.Errorf("StartCount() = %d, want 2", sink.StartCount())
	}
}

func TestReplayWhilePlayingSupersedes(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))

	var calls int
	p.OnEnded(func() { calls++ })

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}
	first, _ := p.SessionID()

	if err := p.Play(); err != nil {
		t.Fatalf("second Play() unexpected error = %v", err)
	}

	if p.State() != StatePlaying {
		t.Errorf("State() = %v after replay, want %v", p.State(), StatePlaying)
	}
	second, ok := p.SessionID()
	if !ok || second == first {
		t.Errorf("replay did not install a new session")
	}
	if sink.StartCount() != 2 {
		t.Errorf("StartCount() = %d, want 2", sink.StartCount())
	}
	if sink.HaltCount() != 1 {
		t.Errorf("HaltCount() = %d, want 1", sink.HaltCount())
	}

	// A late notification from the superseded session must be dropped.
	sink.Voice(0).Finish()
	if calls != 0 {
		t.Errorf("superseded session fired the completion callback")
	}

	// The live session still completes normally.
	if !sink.Complete() {
		t.Fatalf("Complete() found no live voice")
	}
	if calls != 1 {
		t.Errorf("completion callback ran %d times, want 1", calls)
	}
}

func TestOnEndedUsesHandlerAtCompletion(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))

	var firstFired, secondFired bool
	p.OnEnded(func() { firstFired = true })

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}

	// Replacing mid-session redirects the eventual notification.
	p.OnEnded(func() { secondFired = true })
	sink.Complete()

	if firstFired {
		t.Errorf("replaced handler fired")
	}
	if !secondFired {
		t.Errorf("current handler did not fire")
	}
}

func TestOnEndedHandlerCanReplay(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))

	var replays int
	p.OnEnded(func() {
		if replays == 0 {
			replays++
			if err := p.Play(); err != nil {
				t.Errorf("Play() from completion handler error = %v", err)
			}
		}
	})

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}

	sink.Complete()

	if replays != 1 {
		t.Fatalf("completion handler ran %d times, want 1", replays)
	}
	if p.State() != StatePlaying {
		t.Errorf("State() = %v after handler replay, want %v", p.State(), StatePlaying)
	}
	if sink.StartCount() != 2 {
		t.Errorf("StartCount() = %d, want 2", sink.StartCount())
	}
}

func TestVolumeAppliedToVoice(t *testing.T) {
	sink := NewMockSink(testFormat())
	p, err := New(testPayload(10), Config{Format: testFormat(), Sink: sink, Volume: 0.25})
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}
	defer p.Close()

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}

	if got := sink.Voice(0).Volume(); got != 0.25 {
		t.Errorf("Volume() = %v, want 0.25", got)
	}
}

func TestClose(t *testing.T) {
	p, sink := newTestPlayer(t, testPayload(10))

	var fired bool
	p.OnEnded(func() { fired = true })

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() unexpected error = %v", err)
	}

	if !sink.Closed() {
		t.Errorf("Close() did not release the sink")
	}
	if fired {
		t.Errorf("completion callback fired during Close")
	}

	// Closing twice is fine; playing afterwards is not.
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := p.Play(); !errors.Is(err, ErrEngine) {
		t.Errorf("Play() after Close error = %v, want ErrEngine", err)
	}
}

func TestNaturalCompletionArrivesAsynchronously(t *testing.T) {
	// A realtime mock completes on its own goroutine after the buffer's
	// duration, exercising the full asynchronous notification path.
	sink := NewRealtimeMockSink(testFormat())
	p, err := New(testPayload(240), Config{Format: testFormat(), Sink: sink}) // 10ms of audio
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}
	defer p.Close()

	done := make(chan struct{})
	p.OnEnded(func() { close(done) })

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() unexpected error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for natural completion")
	}

	if p.State() != StateLoaded {
		t.Errorf("State() = %v after completion, want %v", p.State(), StateLoaded)
	}
}

func TestDecodedScenario(t *testing.T) {
	// Full pipeline through the player: two mono frames covering the
	// extremes of the sample range.
	payload := base64.StdEncoding.EncodeToString([]byte{0x00, 0x80, 0xFF, 0x7F})
	p, _ := newTestPlayer(t, payload)

	if err := p.Load(); err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	buf := p.Buffer()
	if buf.Frames() != 2 {
		t.Fatalf("Frames() = %d, want 2", buf.Frames())
	}
	if got := buf.Channel(0)[0]; got != -1.0 {
		t.Errorf("first sample = %v, want -1.0", got)
	}
	if got := buf.Channel(0)[1]; got != float32(32767)/32768.0 {
		t.Errorf("second sample = %v, want %v", got, float32(32767)/32768.0)
	}
}
