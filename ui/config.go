package ui

// Config contains TUI-specific configuration.
type Config struct {
	HomeDir string `env:"HOME"`

	// Payload source; Path is empty when it came from stdin.
	Path    string
	Payload string

	// Sample format the payload is decoded with.
	SampleRate int
	Channels   int

	Volume   float64
	Watch    bool
	MockSink bool

	// For debugging the UI
	ShowSessionID bool `env:"MURMUR_SHOW_SESSION" envDefault:"false"`
}
