package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mossglen/murmur/pkg/pcm"
)

// Player owns the full lifecycle of one narration payload: decoding it
// into a cached buffer, starting and stopping playback sessions, and
// delivering the completion notification for sessions that run to their
// natural end.
//
// Load, Play, and Stop are meant to be driven from a single goroutine;
// the internal mutex exists because completion notifications arrive on
// the sink's goroutine and must be checked against the live session
// atomically.
type Player struct {
	payload string
	format  pcm.Format
	sink    Sink
	volume  float64

	mu      sync.Mutex
	buf     *pcm.Buffer
	state   State
	gen     uint64
	sess    *session
	onEnded func()
	closed  bool
}

// New creates a Player for an encoded payload. The payload and format
// are fixed for the player's lifetime. The output sink is acquired here;
// if none is supplied and no device can be opened, New fails with
// ErrEngine.
func New(payload string, cfg Config) (*Player, error) {
	cfg = cfg.normalize()
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}

	sink := cfg.Sink
	if sink == nil {
		var err error
		sink, err = NewSink(SinkAuto, cfg.Format)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEngine, err)
		}
	}

	return &Player{
		payload: payload,
		format:  cfg.Format,
		sink:    sink,
		volume:  cfg.Volume,
		state:   StateUnloaded,
	}, nil
}

// Load decodes the payload into the cached buffer. It is idempotent:
// once the player is loaded (or playing) it returns immediately without
// re-decoding. On a decode or format error the player stays unloaded
// and the error goes to the caller.
func (p *Player) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateUnloaded {
		return nil
	}

	buf, err := pcm.DecodePayload(p.payload, p.format)
	if err != nil {
		return err
	}

	p.buf = buf
	p.state = StateLoaded
	log.Debug("payload loaded",
		"frames", buf.Frames(),
		"channels", buf.Channels(),
		"duration", buf.Duration())
	return nil
}

// Play starts a new playback session from the first frame. Playing
// before a successful Load fails with ErrNotLoaded. Calling Play while
// already playing stops the live session first and starts a fresh one;
// the stopped session's completion callback will not fire.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateUnloaded:
		return ErrNotLoaded
	case StatePlaying:
		if err := p.haltSessionLocked(); err != nil {
			log.Debug("halting superseded session", "error", err)
		}
	}

	p.gen++
	gen := p.gen
	id := uuid.New()

	voice, err := p.sink.Start(p.buf, func() { p.completed(gen) })
	if err != nil {
		p.state = StateLoaded
		return fmt.Errorf("%w: %v", ErrEngine, err)
	}
	voice.SetVolume(p.volume)

	p.sess = &session{
		id:      id,
		gen:     gen,
		voice:   voice,
		started: time.Now(),
	}
	p.state = StatePlaying
	log.Debug("playback started",
		"session", id,
		"generation", gen,
		"duration", p.buf.Duration())
	return nil
}

// Stop terminates the active session immediately and silently: the
// completion callback does not fire for a manually stopped session.
// Stopping a player that is not playing is a no-op. Stop returns once
// the sink has been told to halt.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return nil
	}

	err := p.haltSessionLocked()
	p.state = StateLoaded
	return err
}

// OnEnded registers the completion handler, replacing any previous one.
// Only the handler registered at the moment a session completes
// naturally is invoked; manual stops and superseded sessions never fire
// it. Passing nil clears the handler.
func (p *Player) OnEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// State returns the player's current lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Buffer returns the decoded buffer, or nil before a successful Load.
func (p *Player) Buffer() *pcm.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf
}

// Format returns the sample format the player was constructed with.
func (p *Player) Format() pcm.Format {
	return p.format
}

// Position returns how far the live session has rendered, or zero when
// nothing is playing.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return 0
	}
	return p.sess.voice.Position()
}

// SessionID returns the live session's identifier, if one is playing.
func (p *Player) SessionID() (uuid.UUID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return uuid.UUID{}, false
	}
	return p.sess.id, true
}

// Close stops any active session and releases the sink. The player is
// unusable for playback afterwards.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	haltErr := p.haltSessionLocked()
	if p.state == StatePlaying {
		p.state = StateLoaded
	}
	p.mu.Unlock()

	closeErr := p.sink.Close()
	if haltErr != nil {
		return haltErr
	}
	return closeErr
}

// haltSessionLocked halts the live session's voice and clears it. The
// session's completion can no longer be honored afterwards because the
// session it would be checked against is gone.
func (p *Player) haltSessionLocked() error {
	if p.sess == nil {
		return nil
	}
	sess := p.sess
	p.sess = nil
	err := sess.voice.Halt()
	log.Debug("session halted", "session", sess.id, "generation", sess.gen)
	return err
}

// completed handles a completion notification from the sink. It runs on
// the sink's goroutine, concurrently with the caller's command sequence,
// so the generation check and the state transition happen atomically
// under the player mutex. A notification whose generation does not match
// the live session belongs to a stopped or superseded session and is
// dropped.
func (p *Player) completed(gen uint64) {
	p.mu.Lock()
	if p.state != StatePlaying || p.sess == nil || p.sess.gen != gen {
		p.mu.Unlock()
		log.Debug("dropping stale completion", "generation", gen)
		return
	}

	id := p.sess.id
	p.sess = nil
	p.state = StateLoaded
	fn := p.onEnded
	p.mu.Unlock()

	log.Debug("playback completed", "session", id, "generation", gen)
	if fn != nil {
		fn()
	}
}
