package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog configures the default logger. Output goes to the file named
// by MURMUR_LOGFILE when set, at debug level; otherwise logging is
// discarded so the TUI stays clean.
func setupLog() (func() error, error) {
	if logFile := os.Getenv("MURMUR_LOGFILE"); logFile != "" {
		f, err := tea.LogToFile(logFile, "murmur")
		if err != nil {
			return nil, fmt.Errorf("error setting up logging: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}
