// Package viz renders a live terminal view of a running simulation: the
// trajectory in the track plane, a speed sparkline and the mission state.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/racesim/internal/driver"
)

const (
	canvasWidth     = 64
	canvasHeight    = 20
	historyCapacity = 240
	trailCapacity   = 400
)

type TickMsg time.Time

// Model holds the simulation and the render buffers for the live view.
type Model struct {
	drv   *driver.Driver
	cfg   driver.Config
	snap  driver.Snapshot
	steps int
	taken int

	events    []driver.Event
	nextEvent int

	speedHistory []float64
	trail        []struct{ x, y float64 }

	fps      int
	substeps int
	running  bool
	done     bool
	err      error
}

// NewModel prepares a live run. fps controls the frame rate; each frame
// advances the simulation by wall-time-matched substeps.
func NewModel(drv *driver.Driver, cfg driver.Config, events []driver.Event, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	substeps := int(1.0/(float64(fps)*cfg.Dt) + 0.5)
	if substeps < 1 {
		substeps = 1
	}
	return Model{
		drv:          drv,
		cfg:          cfg,
		steps:        int(cfg.Duration/cfg.Dt + 0.5),
		events:       events,
		speedHistory: make([]float64, 0, historyCapacity),
		trail:        make([]struct{ x, y float64 }, 0, trailCapacity),
		fps:          fps,
		substeps:     substeps,
		running:      true,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "e":
			m.drv.Push(driver.Trigger{Kind: driver.TriggerEmergencyBrake, Reason: "operator key"})
		}
	case TickMsg:
		if m.running && !m.done {
			m.advance()
		}
		if m.err != nil {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.substeps && m.taken < m.steps; i++ {
		for m.nextEvent < len(m.events) && m.events[m.nextEvent].At <= m.drv.Time() {
			m.drv.Push(m.events[m.nextEvent].Trigger)
			m.nextEvent++
		}

		snap, err := m.drv.Step(m.cfg.Dt)
		if err != nil {
			m.err = err
			m.done = true
			return
		}
		m.snap = snap
		m.taken++
	}

	m.speedHistory = append(m.speedHistory, m.snap.State.Speed())
	if len(m.speedHistory) > historyCapacity {
		m.speedHistory = m.speedHistory[1:]
	}
	m.trail = append(m.trail, struct{ x, y float64 }{m.snap.State.X, m.snap.State.Y})
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}

	if m.taken >= m.steps {
		m.done = true
	}
}

// drawCanvas projects the recent trajectory onto a fixed-size grid centered
// on the car.
func (m Model) drawCanvas() string {
	grid := make([][]rune, canvasHeight)
	for i := range grid {
		grid[i] = make([]rune, canvasWidth)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	// 1 cell = 1 m horizontally, 2 m vertically (terminal cells are tall).
	cx, cy := m.snap.State.X, m.snap.State.Y
	put := func(x, y float64, c rune) {
		col := canvasWidth/2 + int(math.Round(x-cx))
		row := canvasHeight/2 - int(math.Round((y-cy)/2))
		if col >= 0 && col < canvasWidth && row >= 0 && row < canvasHeight {
			grid[row][col] = c
		}
	}

	for _, p := range m.trail {
		put(p.x, p.y, '.')
	}
	put(cx, cy, headingGlyph(m.snap.State.Yaw))

	lines := make([]string, canvasHeight)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func headingGlyph(yaw float64) rune {
	switch octant := int(math.Round(yaw/(math.Pi/4))) + 8; octant % 8 {
	case 0:
		return '>'
	case 1, 2, 3:
		return '^'
	case 4:
		return '<'
	default:
		return 'v'
	}
}

func (m Model) statsPanel() string {
	s := m.snap.State
	rows := []string{
		HeaderStyle.Render("racesim live"),
		fmt.Sprintf("%s %s", LabelStyle.Render("time"), ValueStyle.Render(fmt.Sprintf("%7.2f s", m.snap.Time))),
		fmt.Sprintf("%s %s", LabelStyle.Render("position"), ValueStyle.Render(fmt.Sprintf("(%.1f, %.1f) m", s.X, s.Y))),
		fmt.Sprintf("%s %s", LabelStyle.Render("speed"), ValueStyle.Render(fmt.Sprintf("%6.2f m/s", s.Speed()))),
		fmt.Sprintf("%s %s", LabelStyle.Render("yaw"), ValueStyle.Render(fmt.Sprintf("%6.1f deg", s.Yaw*180/math.Pi))),
		fmt.Sprintf("%s %s", LabelStyle.Render("yaw rate"), ValueStyle.Render(fmt.Sprintf("%6.2f rad/s", s.R))),
		"",
		fmt.Sprintf("%s %s", LabelStyle.Render("mission"), MissionBadge(m.snap.Mission)),
		fmt.Sprintf("%s %s", LabelStyle.Render("actuation"), enabledBadge(m.snap.ActuationEnabled)),
	}
	if v := m.drv.Machine().Violation(); v != "" {
		rows = append(rows, fmt.Sprintf("%s %s", LabelStyle.Render("violation"), AlertStyle.Render(v)))
	}
	return StatsStyle.Render(strings.Join(rows, "\n"))
}

func enabledBadge(enabled bool) string {
	if enabled {
		return EnabledStyle.Render("ENABLED")
	}
	return DisabledStyle.Render("disabled")
}

func (m Model) speedGraph() string {
	if len(m.speedHistory) < 2 {
		return ""
	}
	graph := asciigraph.Plot(m.speedHistory,
		asciigraph.Height(6),
		asciigraph.Width(canvasWidth),
		asciigraph.Caption("speed [m/s]"),
	)
	return GraphStyle.Render(graph)
}

func (m Model) View() string {
	if m.err != nil {
		return AlertStyle.Render(fmt.Sprintf("simulation aborted: %v", m.err)) + "\n"
	}

	var b strings.Builder
	b.WriteString(joinHorizontal(CanvasStyle.Render(m.drawCanvas()), m.statsPanel()))
	b.WriteString("\n")
	b.WriteString(m.speedGraph())
	b.WriteString("\n")
	status := "space pause · e emergency brake · q quit"
	if m.done {
		status = "run complete · q quit"
	} else if !m.running {
		status = "paused · space resume · q quit"
	}
	b.WriteString(HelpStyle.Render(status))
	return b.String()
}

// Run executes the live view until the user quits or the run ends in error.
func Run(drv *driver.Driver, cfg driver.Config, events []driver.Event, fps int) error {
	model := NewModel(drv, cfg, events, fps)
	p := tea.NewProgram(model)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}
