// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the spectrum display
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI program. When audio arrives on stdin the terminal
// input already belongs to the PCM pipe, so keyboard handling is
// disabled and quitting is left to the signal handler.
func Run(destinations, format string, bufferCap int, keyboard bool) *tea.Program {
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if !keyboard {
		opts = append(opts, tea.WithInput(nil))
	}
	return tea.NewProgram(NewModel(destinations, format, bufferCap), opts...)
}
