package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

const (
	progressBarWidth = 30
	minNameWidth     = 8
	ellipsis         = "…"
)

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	playingIconStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787"))
	readyIconStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	nameStyle        = lipgloss.NewStyle().Bold(true)
	faintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// barWidth sizes the progress bar for the terminal width, leaving room
// for the name and the time readout.
func barWidth(termWidth int) int {
	if termWidth <= 0 {
		return progressBarWidth
	}
	if w := termWidth - 40; w < progressBarWidth {
		if w < 10 {
			return 10
		}
		return w
	}
	return progressBarWidth
}

// playerView renders the one-line player: state icon, payload name,
// progress bar, elapsed/total time, payload size.
func (m model) playerView() string {
	buf := m.player.Buffer()

	icon := "■"
	iconStyle := readyIconStyle
	if m.state == statePlaying {
		icon = "▶"
		iconStyle = playingIconStyle
	}

	total := buf.Duration()
	elapsed := m.player.Position()
	var ratio float64
	if total > 0 {
		ratio = float64(elapsed) / float64(total)
		if ratio > 1 {
			ratio = 1
		}
	}

	times := fmt.Sprintf("%s/%s", formatDuration(elapsed), formatDuration(total))
	size := humanize.Bytes(uint64(buf.Frames() * m.format.FrameBytes())) //nolint:gosec
	bar := m.progress.ViewAs(ratio)

	name := payloadName(m.cfg.Path)
	if m.width > 0 {
		reserved := runewidth.StringWidth(icon) +
			m.progress.Width +
			runewidth.StringWidth(times) +
			runewidth.StringWidth(size) +
			appStyle.GetHorizontalPadding() + 4
		avail := m.width - reserved
		if avail < minNameWidth {
			avail = minNameWidth
		}
		name = truncate.StringWithTail(name, uint(avail), ellipsis) //nolint:gosec
	}

	line := strings.Join([]string{
		iconStyle.Render(icon),
		nameStyle.Render(name),
		bar,
		faintStyle.Render(times),
		faintStyle.Render(size),
	}, " ")

	return appStyle.Render(line + "\n\n" + m.helpView())
}

// helpView renders the key help, or the transient status message while
// one is showing.
func (m model) helpView() string {
	if m.statusMessage != "" {
		return statusStyle.Render(m.statusMessage)
	}

	entries := []string{"space: play", "s: stop"}
	if m.cfg.Path != "" {
		entries = append(entries, "r: reload", "c: copy path")
	}
	entries = append(entries, "q: quit")

	if m.cfg.ShowSessionID && m.state == statePlaying {
		if id, ok := m.player.SessionID(); ok {
			entries = append(entries, id.String()[:8])
		}
	}

	return helpStyle.Render(strings.Join(entries, " • "))
}

// payloadName returns the display name for the payload source.
func payloadName(path string) string {
	if path == "" {
		return "stdin"
	}
	return filepath.Base(path)
}

// shortenPath replaces the home directory prefix with a tilde for
// display.
func shortenPath(path, home string) string {
	if home != "" && strings.HasPrefix(path, home) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
