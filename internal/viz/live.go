// Package viz renders a live terminal view of the simulation: a
// density-shaded projection of the particle cloud next to energy history and
// tunable parameters.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/avrelian/sphflow/internal/config"
	"github.com/avrelian/sphflow/internal/fluid"
)

const (
	canvasWidth     = 64
	canvasHeight    = 26
	historyCapacity = 600
)

// shades maps per-cell particle counts to increasingly dense glyphs.
var shades = []rune{'·', '░', '▒', '▓', '█'}

type TickMsg time.Time

// param is one tunable engine parameter, adjusted between steps only.
type param struct {
	name string
	get  func(c fluid.Config) float64
	set  func(c fluid.Config, v float64) fluid.Config
}

var params = []param{
	{"gravity",
		func(c fluid.Config) float64 { return c.Gravity },
		func(c fluid.Config, v float64) fluid.Config { c.Gravity = v; return c }},
	{"radius",
		func(c fluid.Config) float64 { return c.SmoothingRadius },
		func(c fluid.Config, v float64) fluid.Config { c.SmoothingRadius = v; return c }},
	{"pressure",
		func(c fluid.Config) float64 { return c.PressureMultiplier },
		func(c fluid.Config, v float64) fluid.Config { c.PressureMultiplier = v; return c }},
	{"viscosity",
		func(c fluid.Config) float64 { return c.ViscosityStrength },
		func(c fluid.Config, v float64) fluid.Config { c.ViscosityStrength = v; return c }},
	{"damping",
		func(c fluid.Config) float64 { return c.CollisionDamping },
		func(c fluid.Config, v float64) fluid.Config { c.CollisionDamping = v; return c }},
}

// Model drives the engine from the bubbletea event loop. Steps happen only on
// ticks and parameter writes only between them, so the engine's
// no-mutation-during-step contract holds by construction.
type Model struct {
	engine   *fluid.Engine
	cfg      *config.Config
	canvas   [][]rune
	t        float64
	running  bool
	selected int

	energyHistory []float64
	frameRate     int
}

// NewModel seeds the engine from cfg and prepares the view.
func NewModel(engine *fluid.Engine, cfg *config.Config, frameRate int) Model {
	canvas := make([][]rune, canvasHeight)
	for i := range canvas {
		canvas[i] = make([]rune, canvasWidth)
	}
	return Model{
		engine:        engine,
		cfg:           cfg,
		canvas:        canvas,
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		frameRate:     frameRate,
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(params)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		}
	case TickMsg:
		if m.running {
			m.engine.Step(m.cfg.Dt)
			m.t += m.cfg.Dt
			m.recordEnergy()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) reset() {
	m.t = 0
	m.energyHistory = m.energyHistory[:0]
	m.engine.Init(m.cfg.Fluid, m.cfg.SpawnParticles())
}

// adjustParam scales the selected parameter. Rejected values (a radius tuned
// down to zero, say) leave the engine config untouched.
func (m *Model) adjustParam(factor float64) {
	p := params[m.selected]
	cfg := m.engine.Config()
	next := p.set(cfg, p.get(cfg)*factor)
	if err := m.engine.SetConfig(next); err == nil {
		m.cfg.Fluid = next
	}
}

func (m *Model) recordEnergy() {
	particles := m.engine.Particles()
	if len(particles) == 0 {
		return
	}
	sum := 0.0
	for i := range particles {
		sum += 0.5 * r3.Norm2(particles[i].Velocity)
	}
	m.energyHistory = append(m.energyHistory, sum/float64(len(particles)))
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

// draw projects the box's XY plane onto the canvas, shading cells by how many
// particles they hold.
func (m *Model) draw() {
	counts := make([][]int, canvasHeight)
	for i := range counts {
		counts[i] = make([]int, canvasWidth)
	}

	bounds := m.engine.Config().Bounds
	for _, p := range m.engine.Particles() {
		col := int((p.Position.X + bounds.X) / (2 * bounds.X) * float64(canvasWidth-1))
		row := int((bounds.Y - p.Position.Y) / (2 * bounds.Y) * float64(canvasHeight-1))
		if col >= 0 && col < canvasWidth && row >= 0 && row < canvasHeight {
			counts[row][col]++
		}
	}

	for row := range m.canvas {
		for col := range m.canvas[row] {
			n := counts[row][col]
			switch {
			case n == 0:
				m.canvas[row][col] = ' '
			case n >= len(shades):
				m.canvas[row][col] = shades[len(shades)-1]
			default:
				m.canvas[row][col] = shades[n-1]
			}
		}
	}
}

func (m Model) View() string {
	m.draw()

	var canvas strings.Builder
	border := "+" + strings.Repeat("-", canvasWidth) + "+"
	canvas.WriteString(border + "\n")
	for _, row := range m.canvas {
		canvas.WriteString("|" + string(row) + "|\n")
	}
	canvas.WriteString(border)

	var stats strings.Builder
	stats.WriteString(headerStyle.Render("SPHFLOW") + "\n")
	if m.running {
		stats.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	} else {
		stats.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		stats.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	stats.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	stats.WriteString(labelStyle.Render("Particles") + valueStyle.Render(fmt.Sprintf("%d", len(m.engine.Particles()))) + "\n")
	stats.WriteString(labelStyle.Render("Workers") + valueStyle.Render(fmt.Sprintf("%d", m.engine.Workers())) + "\n")

	stats.WriteString("\nPARAMETERS\n")
	cfg := m.engine.Config()
	for i, p := range params {
		line := fmt.Sprintf("%-10s %.4g", p.name, p.get(cfg))
		if i == m.selected {
			stats.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			stats.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	stats.WriteString(helpStyle.Render("\nSP:Pause R:Reset Q:Quit\nTab:Select ↑↓:Tune"))

	return joinPanels(canvasStyle.Render(canvas.String()), statsStyle.Render(stats.String()))
}

// Run starts the live view and blocks until the user quits.
func Run(engine *fluid.Engine, cfg *config.Config, frameRate int) error {
	program := tea.NewProgram(NewModel(engine, cfg, frameRate))
	_, err := program.Run()
	return err
}
