package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fieldsim/internal/grid"
	"github.com/san-kum/fieldsim/internal/sim"
)

const (
	mapCols      = 56
	mapRows      = 26
	graphWindow  = 240
	maxManifests = 6
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// layer selects which grid the heatmap shows.
type layer int

const (
	layerSubstrate layer = iota
	layerResponse
	layerField
)

var layerNames = []string{"substrate", "response", "field"}

// Model drives an ecosystem interactively, one simulator step per tick.
type Model struct {
	sim          *sim.Simulator
	ring         *Ring
	rebuild      func() (*sim.Simulator, error)
	title        string
	layer        layer
	running      bool
	stepsPerTick int
	lastErr      error
	showHelp     bool
}

// NewModel wraps a ready simulator. rebuild produces a fresh simulator
// for the reset key and may be nil to disable resets.
func NewModel(s *sim.Simulator, title string, rebuild func() (*sim.Simulator, error)) Model {
	ring := NewRing(graphWindow)
	s.AddObserver(sim.ObserverFunc(ring.Push))
	return Model{
		sim:          s,
		ring:         ring,
		rebuild:      rebuild,
		title:        title,
		layer:        layerSubstrate,
		running:      true,
		stepsPerTick: 1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "tab":
			m.layer = (m.layer + 1) % layer(len(layerNames))
		case "1":
			m.layer = layerSubstrate
		case "2":
			m.layer = layerResponse
		case "3":
			m.layer = layerField
		case "up", "k":
			if m.stepsPerTick < 16 {
				m.stepsPerTick *= 2
			}
		case "down", "j":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}
		case "r":
			if m.rebuild != nil {
				fresh, err := m.rebuild()
				if err != nil {
					m.lastErr = err
				} else {
					fresh.AddObserver(sim.ObserverFunc(m.ring.Push))
					m.ring.Clear()
					m.sim, m.lastErr = fresh, nil
				}
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.lastErr == nil {
			for i := 0; i < m.stepsPerTick; i++ {
				if err := m.sim.Step(); err != nil {
					m.lastErr = err
					m.running = false
					break
				}
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// currentGrid returns the selected layer's grid and its display range.
func (m Model) currentGrid() (*grid.Grid, float64, float64) {
	switch m.layer {
	case layerResponse:
		return m.sim.Response().Grid(), 0, m.sim.Response().Config().Ceiling
	case layerField:
		return m.sim.Accumulation().Grid(), 0, m.sim.Accumulation().Config().EmitThreshold
	default:
		cfg := m.sim.Substrate().Config()
		return m.sim.Substrate().Grid(), cfg.ClampLow, cfg.ClampHigh
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	g, lo, hi := m.currentGrid()
	canvasView := canvasStyle.Render(Heatmap(g, mapCols, mapRows, lo, hi))

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	status := "RUNNING"
	if m.lastErr != nil {
		status = "FAULT: " + m.lastErr.Error()
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if series := m.ring.Means(layerNames[m.layer]); len(series) > 1 {
		chart := asciigraph.Plot(series, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption(layerNames[m.layer]+" mean"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", m.sim.StepCount())) + "\n")
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%dx", m.stepsPerTick)) + "\n")
	s.WriteString(labelStyle.Render("Substrate mean") + valueStyle.Render(fmt.Sprintf("%+.4f", m.sim.Substrate().Grid().Mean())) + "\n")
	s.WriteString(labelStyle.Render("Response mean") + valueStyle.Render(fmt.Sprintf("%.4f", m.sim.Response().Grid().Mean())) + "\n")
	s.WriteString(labelStyle.Render("Field max") + valueStyle.Render(fmt.Sprintf("%.4f", m.sim.Accumulation().Grid().Max())) + "\n")
	s.WriteString(labelStyle.Render("Listening") + valueStyle.Render(fmt.Sprintf("%.1f%%", 100*m.sim.Substrate().GlobalListening())) + "\n")

	s.WriteString("\nLAYERS\n")
	for i, name := range layerNames {
		line := fmt.Sprintf("%d %s", i+1, name)
		if layer(i) == m.layer {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	manifests := m.sim.Accumulation().Manifestations()
	s.WriteString(fmt.Sprintf("\nMANIFESTATIONS (%d)\n", len(manifests)))
	start := len(manifests) - maxManifests
	if start < 0 {
		start = 0
	}
	for _, man := range manifests[start:] {
		s.WriteString(valueStyle.Render(fmt.Sprintf("  #%d (%d,%d) %.4f", man.Seq, man.Row, man.Col, man.Strength)) + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nTab/1-3:Layer ↑↓:Speed ?:Help"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  Tab/1-3  - Switch layer view        ║
║  Up/K     - Double steps per tick    ║
║  Down/J   - Halve steps per tick     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
