package player

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mossglen/murmur/pkg/pcm"
)

// Sink is the audio output device abstraction. A sink renders decoded
// buffers and reports natural completion back on its own goroutine.
type Sink interface {
	// Start begins rendering buf from the first frame and returns the
	// Voice controlling that rendering. onDone is invoked from the
	// sink's goroutine once every frame has been rendered; a delivery
	// already in flight may still arrive after Halt, so callers must
	// disambiguate completions themselves.
	Start(buf *pcm.Buffer, onDone func()) (Voice, error)

	// Close halts all live voices and releases the device. The sink
	// rejects Start afterwards.
	Close() error
}

// Voice is one active rendering of a buffer through a sink.
type Voice interface {
	// SetVolume sets the rendering volume in [0.0, 1.0].
	SetVolume(v float64)

	// Position returns how far rendering has progressed.
	Position() time.Duration

	// Halt stops rendering immediately and releases the voice. Halting
	// an already-halted voice is a no-op.
	Halt() error
}

// SinkType selects which sink implementation NewSink builds.
type SinkType int

const (
	// SinkAuto picks the production sink when the environment has audio,
	// falling back to the mock otherwise.
	SinkAuto SinkType = iota
	// SinkProduction always uses the oto output device.
	SinkProduction
	// SinkMock uses the simulated device.
	SinkMock
)

// IsCI detects continuous-integration environments, where no real audio
// device is available.
func IsCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
		"DRONE",
	}

	for _, envVar := range ciVars {
		if val := os.Getenv(envVar); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", envVar)
			return true
		}
	}

	if os.Getenv("MURMUR_MOCK_AUDIO") == "true" {
		log.Debug("mock audio requested via environment variable")
		return true
	}

	return false
}

// NewSink creates an audio sink of the requested type for the given
// format.
func NewSink(t SinkType, f pcm.Format) (Sink, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	switch t {
	case SinkProduction:
		return newOtoSink(f)

	case SinkMock:
		return NewRealtimeMockSink(f), nil

	case SinkAuto:
		if IsCI() {
			log.Info("using mock audio sink", "reason", "no audio device in CI")
			return NewRealtimeMockSink(f), nil
		}
		s, err := newOtoSink(f)
		if err != nil {
			log.Warn("falling back to mock audio sink", "error", err)
			return NewRealtimeMockSink(f), nil
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown sink type: %d", t)
	}
}
