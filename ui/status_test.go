package ui

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "0:00"},
		{"sub-second", 500 * time.Millisecond, "0:00"},
		{"one second", time.Second, "0:01"},
		{"under a minute", 59 * time.Second, "0:59"},
		{"over a minute", 61 * time.Second, "1:01"},
		{"minutes", 10*time.Minute + 2*time.Second, "10:02"},
		{"negative", -time.Second, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDuration(tt.d); got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestPayloadName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", "stdin"},
		{"/home/narrator/voice.b64", "voice.b64"},
		{"voice.b64", "voice.b64"},
	}

	for _, tt := range tests {
		if got := payloadName(tt.path); got != tt.want {
			t.Errorf("payloadName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestShortenPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		home string
		want string
	}{
		{"inside home", "/home/narrator/voice.b64", "/home/narrator", "~/voice.b64"},
		{"outside home", "/var/voice.b64", "/home/narrator", "/var/voice.b64"},
		{"no home", "/home/narrator/voice.b64", "", "/home/narrator/voice.b64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shortenPath(tt.path, tt.home); got != tt.want {
				t.Errorf("shortenPath(%q, %q) = %q, want %q", tt.path, tt.home, got, tt.want)
			}
		})
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		termWidth int
		want      int
	}{
		{0, progressBarWidth},
		{200, progressBarWidth},
		{70, progressBarWidth},
		{60, 20},
		{45, 10},
		{20, 10},
	}

	for _, tt := range tests {
		if got := barWidth(tt.termWidth); got != tt.want {
			t.Errorf("barWidth(%d) = %d, want %d", tt.termWidth, got, tt.want)
		}
	}
}

func TestPlayerViewShowsPayload(t *testing.T) {
	m := ready(t, newModel(testConfig(240)))

	view := m.playerView()
	if !strings.Contains(view, "voice.b64") {
		t.Errorf("view missing payload name:\n%s", view)
	}
	if !strings.Contains(view, "0:00") {
		t.Errorf("view missing time readout:\n%s", view)
	}
	if !strings.Contains(view, "space: play") {
		t.Errorf("view missing key help:\n%s", view)
	}
}

func TestHelpViewShowsStatusMessage(t *testing.T) {
	m := newModel(testConfig(240))

	cmd := m.showStatusMessage("copied path")
	if cmd == nil {
		t.Fatal("expected a timeout command")
	}
	if got := m.helpView(); !strings.Contains(got, "copied path") {
		t.Errorf("helpView() = %q, want the status message", got)
	}

	m, _ = advance(t, m, statusMessageTimeoutMsg{})
	if got := m.helpView(); strings.Contains(got, "copied path") {
		t.Errorf("helpView() = %q, status message should have cleared", got)
	}
}

func TestHelpViewOmitsFileKeysForStdin(t *testing.T) {
	cfg := testConfig(240)
	cfg.Path = ""
	m := newModel(cfg)

	got := m.helpView()
	if strings.Contains(got, "reload") || strings.Contains(got, "copy") {
		t.Errorf("helpView() = %q, file keys should be hidden for stdin", got)
	}
}
