package main

import "github.com/charmbracelet/lipgloss"

const maxWidth = 78

var (
	keyword = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}).
		Render

	paragraph = lipgloss.NewStyle().
		Width(maxWidth).
		Padding(0, 0, 2).
		Margin(1, 0, 0, 0).
		Render
)
