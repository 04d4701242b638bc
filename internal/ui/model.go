// ABOUTME: Bubbletea model for the spectrum TUI
// ABOUTME: Renders band bars, level meters and dispatch counters
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wledfeed/wledfeed-go/internal/app"
	"github.com/wledfeed/wledfeed-go/pkg/dsp"
)

// StatusMsg carries one processed chunk's features and counters from
// the pipeline goroutine into the TUI.
type StatusMsg struct {
	Features dsp.Features
	Stats    app.Stats
}

// Model represents the TUI state
type Model struct {
	destinations string
	format       string
	bufferCap    int

	features dsp.Features
	stats    app.Stats

	width  int
	height int
}

// NewModel creates the TUI model with the static run description.
func NewModel(destinations, format string, bufferCap int) Model {
	return Model{
		destinations: destinations,
		format:       format,
		bufferCap:    bufferCap,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.features = msg.Features
		m.stats = msg.Stats
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	s := ""
	s += m.renderHeader()
	s += m.renderLevels()
	s += m.renderBands()
	s += m.renderStats()
	s += "└──────────────────────────────────────────────────────┘\n"
	return s
}

func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ wledfeed ───────────────────────────────────────────┐
│ Sending: %-43s │
│ Input:   %-43s │
├──────────────────────────────────────────────────────┤
`, truncate(m.destinations, 43), truncate(m.format, 43))
}

func (m Model) renderLevels() string {
	raw := renderBar(int(m.features.RawLevel*100), 100, 20)
	smooth := renderBar(int(m.features.SmoothedLevel*100), 100, 20)
	peak := renderBar(int(m.features.PeakLevel), 255, 20)

	return fmt.Sprintf("│ Raw:    [%s] %.3f%-16s │\n"+
		"│ Smooth: [%s] %.3f%-16s │\n"+
		"│ Peak:   [%s] %3d%-18s │\n",
		raw, m.features.RawLevel, "",
		smooth, m.features.SmoothedLevel, "",
		peak, m.features.PeakLevel, "")
}

func (m Model) renderBands() string {
	s := "│ Spectrum:                                            │\n"
	s += fmt.Sprintf("│   %-51s │\n", sparkline(m.features.Bands))
	s += fmt.Sprintf("│ Dominant: %7.1f Hz   Magnitude: %-13.1f     │\n",
		m.features.DominantFreq, m.features.MagnitudeSum)
	return s
}

func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Chunks: %-8d Sent: %-8d Errors: %-8d     │
│ Delay buffer: %d/%d bytes%-20s │
│ Ctrl-C to quit                                       │
`, m.stats.Chunks, m.stats.Sent, m.stats.Errors,
		m.stats.Buffered, m.bufferCap, "")
}

// sparkline renders the 16 bands as one block-character bar per band,
// three columns each so the profile reads at a glance.
func sparkline(bands [16]uint8) string {
	levels := []rune(" ▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, v := range bands {
		idx := int(v) * (len(levels) - 1) / 255
		b.WriteString(strings.Repeat(string(levels[idx]), 3))
	}
	return b.String()
}

// renderBar renders a fixed-width meter of # characters.
func renderBar(value, max, width int) string {
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := 0
	if max > 0 {
		filled = value * width / max
	}
	return strings.Repeat("#", filled) + strings.Repeat(" ", width-filled)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
