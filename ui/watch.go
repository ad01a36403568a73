package ui

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// reloadInterval caps how often file-change events reach the program;
// editors and generation services write payloads in bursts.
const reloadInterval = 500 * time.Millisecond

// watcher reports changes to the payload file. It watches the parent
// directory because editors replace files on save, which leaves a watch
// on the old inode stale.
type watcher struct {
	fs      *fsnotify.Watcher
	limiter *rate.Limiter
	path    string
	events  chan struct{}
}

func newWatcher(path string) (*watcher, error) {
	path = filepath.Clean(path)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &watcher{
		fs:      fsw,
		limiter: rate.NewLimiter(rate.Every(reloadInterval), 1),
		path:    path,
		events:  make(chan struct{}, 1),
	}
	go w.loop()
	return w, nil
}

func (w *watcher) loop() {
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if !w.limiter.Allow() {
				continue
			}
			select {
			case w.events <- struct{}{}:
			default:
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Debug("watch error", "error", err)
		}
	}
}

// Close shuts the watcher down; pending waits unblock.
func (w *watcher) Close() error {
	return w.fs.Close()
}

// startWatcher builds the payload watcher off the UI goroutine.
func startWatcher(path string) tea.Cmd {
	return func() tea.Msg {
		w, err := newWatcher(path)
		if err != nil {
			return errMsg{fmt.Errorf("unable to watch %s: %w", path, err)}
		}
		log.Debug("watching payload", "path", path)
		return watcherStartedMsg{watcher: w}
	}
}

// waitForFileChange relays the next accepted change event into the
// program.
func waitForFileChange(w *watcher) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.events; !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}
