// Package ui provides the terminal player for the murmur application.
package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	te "github.com/muesli/termenv"

	"github.com/mossglen/murmur/pkg/pcm"
	"github.com/mossglen/murmur/pkg/player"
	"github.com/mossglen/murmur/utils"
)

const (
	statusMessageTimeout = time.Second * 2 // how long to show status messages like "copied!"
	tickInterval         = time.Millisecond * 100
)

// NewProgram returns a new Tea program.
func NewProgram(cfg Config) *tea.Program {
	log.Debug(
		"Starting murmur",
		"path", cfg.Path,
		"watch", cfg.Watch,
		"mock", cfg.MockSink,
	)
	return tea.NewProgram(newModel(cfg))
}

// state is the top-level application state.
type state int

const (
	stateLoading state = iota
	stateReady
	statePlaying
	stateError
)

func (s state) String() string {
	return map[state]string{
		stateLoading: "decoding payload",
		stateReady:   "ready to play",
		statePlaying: "playing",
		stateError:   "error",
	}[s]
}

// keyMap defines the keybindings for the player.
type keyMap struct {
	Play   key.Binding
	Stop   key.Binding
	Reload key.Binding
	Copy   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Play: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "play"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy path"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type model struct {
	cfg    Config
	keys   keyMap
	state  state
	err    error
	width  int
	format pcm.Format

	player *player.Player

	spinner  spinner.Model
	progress progress.Model

	// Channel that receives completion notifications from the playback
	// controller's callback goroutine.
	ended chan struct{}

	// nil unless watch mode is on and the watcher has started
	watcher *watcher

	statusMessage string
}

func newModel(cfg Config) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	pb := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	pb.Width = progressBarWidth

	return model{
		cfg:   cfg,
		keys:  defaultKeyMap(),
		state: stateLoading,
		format: pcm.Format{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			BitDepth:   pcm.BitDepth,
		},
		spinner:  sp,
		progress: pb,
		ended:    make(chan struct{}, 1),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		buildPlayer(m.cfg, m.format, m.ended, false),
		waitForEnded(m.ended),
	}
	if m.cfg.Watch && m.cfg.Path != "" {
		cmds = append(cmds, startWatcher(m.cfg.Path))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.err != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.shutdown()
			return m, tea.Quit
		}
		return m, nil
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.shutdown()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Play):
			// replaying while playing supersedes the live session
			if m.player != nil && m.state != stateLoading {
				cmds = append(cmds, playCmd(m.player))
			}

		case key.Matches(msg, m.keys.Stop):
			if m.player != nil && m.state == statePlaying {
				cmds = append(cmds, stopCmd(m.player))
			}

		case key.Matches(msg, m.keys.Reload):
			if m.cfg.Path != "" && m.state != stateLoading {
				log.Debug("reloading payload", "path", m.cfg.Path)
				old := m.player
				m.player = nil
				m.state = stateLoading
				cmds = append(cmds,
					reloadPlayer(m.cfg, m.format, m.ended, old, false),
					m.spinner.Tick,
				)
			}

		case key.Matches(msg, m.keys.Copy):
			if m.cfg.Path != "" {
				te.Copy(m.cfg.Path)
				if err := clipboard.WriteAll(m.cfg.Path); err != nil {
					log.Debug("clipboard copy failed", "error", err)
					cmds = append(cmds, m.showStatusMessage("unable to copy path"))
				} else {
					cmds = append(cmds, m.showStatusMessage("copied path"))
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = barWidth(msg.Width)

	case playerReadyMsg:
		m.player = msg.player
		m.state = stateReady
		buf := msg.player.Buffer()
		log.Debug("player ready",
			"frames", buf.Frames(),
			"duration", buf.Duration())
		if msg.autoplay {
			cmds = append(cmds, playCmd(msg.player))
		}

	case playbackStartedMsg:
		m.state = statePlaying
		cmds = append(cmds, tick())

	case playbackStoppedMsg:
		m.state = stateReady
		cmds = append(cmds, m.showStatusMessage("stopped"))

	case playbackEndedMsg:
		// the callback fires only for natural completions; the state
		// getter settles races with a supersede already in flight
		cmds = append(cmds, waitForEnded(m.ended))
		if m.player != nil && m.player.State() != player.StatePlaying {
			m.state = stateReady
			cmds = append(cmds, m.showStatusMessage("finished"))
		}

	case fileChangedMsg:
		log.Debug("payload changed on disk", "path", m.cfg.Path)
		old := m.player
		m.player = nil
		m.state = stateLoading
		cmds = append(cmds,
			reloadPlayer(m.cfg, m.format, m.ended, old, true),
			m.spinner.Tick,
			waitForFileChange(m.watcher),
			m.showStatusMessage("payload changed"),
		)

	case watcherStartedMsg:
		m.watcher = msg.watcher
		cmds = append(cmds, waitForFileChange(msg.watcher))

	case tickMsg:
		if m.state == statePlaying {
			cmds = append(cmds, tick())
		}

	case spinner.TickMsg:
		if m.state == stateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case statusMessageTimeoutMsg:
		m.statusMessage = ""

	case errMsg:
		log.Error("player error", "error", msg.err)
		m.err = msg.err
		m.state = stateError
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	switch m.state {
	case stateLoading:
		src := "narration"
		if m.cfg.Path != "" {
			src = shortenPath(m.cfg.Path, m.cfg.HomeDir)
		}
		return appStyle.Render(fmt.Sprintf("%s decoding %s…", m.spinner.View(), src)) + "\n"

	case stateError:
		return appStyle.Render(
			errorStyle.Render("✗ "+m.err.Error()) + "\n\n" +
				helpStyle.Render("press any key to exit"),
		) + "\n"

	default:
		return m.playerView() + "\n"
	}
}

// showStatusMessage sets the transient status text and schedules its
// removal.
func (m *model) showStatusMessage(text string) tea.Cmd {
	m.statusMessage = text
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{}
	})
}

// shutdown releases the controller and the watcher before the program
// exits.
func (m *model) shutdown() {
	if m.player != nil {
		if err := m.player.Close(); err != nil {
			log.Debug("closing player", "error", err)
		}
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

// buildPlayer constructs the playback controller off the UI goroutine:
// sink acquisition and payload decoding both happen here.
func buildPlayer(cfg Config, f pcm.Format, ended chan struct{}, autoplay bool) tea.Cmd {
	return func() tea.Msg {
		sinkType := player.SinkAuto
		if cfg.MockSink {
			sinkType = player.SinkMock
		}
		snk, err := player.NewSink(sinkType, f)
		if err != nil {
			return errMsg{err}
		}

		p, err := player.New(cfg.Payload, player.Config{Format: f, Sink: snk, Volume: cfg.Volume})
		if err != nil {
			return errMsg{err}
		}
		p.OnEnded(func() {
			select {
			case ended <- struct{}{}:
			default:
			}
		})

		if err := p.Load(); err != nil {
			_ = p.Close()
			return errMsg{err}
		}
		return playerReadyMsg{player: p, autoplay: autoplay}
	}
}

// reloadPlayer re-reads the payload from disk and swaps in a fresh
// controller, releasing the old one.
func reloadPlayer(cfg Config, f pcm.Format, ended chan struct{}, old *player.Player, autoplay bool) tea.Cmd {
	return func() tea.Msg {
		if old != nil {
			_ = old.Close()
		}
		payload, err := utils.LoadPayload(cfg.Path)
		if err != nil {
			return errMsg{err}
		}
		cfg.Payload = payload
		return buildPlayer(cfg, f, ended, autoplay)()
	}
}

// waitForEnded bridges the controller's completion callback into the
// program as a message.
func waitForEnded(ended chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ended
		return playbackEndedMsg{}
	}
}

func playCmd(p *player.Player) tea.Cmd {
	return func() tea.Msg {
		if err := p.Play(); err != nil {
			return errMsg{err}
		}
		return playbackStartedMsg{}
	}
}

func stopCmd(p *player.Player) tea.Cmd {
	return func() tea.Msg {
		if err := p.Stop(); err != nil {
			return errMsg{err}
		}
		return playbackStoppedMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
