package main

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#f97316")
	dim    = lipgloss.Color("#888888")
	green  = lipgloss.Color("#22c55e")
	red    = lipgloss.Color("#ef4444")

	promptStyle    = lipgloss.NewStyle().Foreground(green).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(dim).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(red)
	traceStepStyle = lipgloss.NewStyle().Foreground(accent).Width(18)
)
