package viz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/report"
	"github.com/san-kum/cartpend/internal/sim"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	minFrame        = time.Second / 120
	DefaultPush     = 50.0
)

type TickMsg time.Time

// Options configure a live session.
type Options struct {
	Title string
	Plant physics.PlantState
	// NewController is called at start and on every reset.
	NewController func() sim.Controller
	Stepper       dynamo.Stepper
	Dt            float64
	// Push is the disturbance force applied for one step by the arrow keys.
	Push  float64
	Theme string
}

// Model contains simulation state, visualization buffers, and UI context.
type Model struct {
	opts       Options
	simulator  *sim.Simulator
	controller sim.Controller
	plant      physics.PlantState
	kick       float64
	frame      time.Duration

	canvas   *Canvas
	theme    Theme
	styles   styles
	running  bool
	showHelp bool
	warnings int
	err      error

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int

	history  []physics.PlantState
	playHead int
}

// NewModel initializes the simulation and visualization state.
func NewModel(opts Options) Model {
	if opts.Push == 0 {
		opts.Push = DefaultPush
	}
	theme := GetTheme(opts.Theme)

	frame := time.Duration(opts.Dt * float64(time.Second))
	if frame < minFrame {
		frame = minFrame
	}

	m := Model{
		opts:      opts,
		simulator: sim.New(opts.Stepper),
		frame:     frame,
		canvas:    NewCanvas(width, height),
		theme:     theme,
		styles:    newStyles(theme),
		running:   true,
		history:   make([]physics.PlantState, 0, historyCapacity),
		playHead:  -1,
	}
	m.reset()
	return m
}

// Run starts the interactive view and blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(NewModel(opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Plant is the most recent simulated snapshot.
func (m Model) Plant() physics.PlantState { return m.plant }

// Err is the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "left", "h":
			m.kick = -m.opts.Push
		case "right", "l":
			m.kick = m.opts.Push
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances the plant by one outer step.
func (m *Model) step() {
	p := m.plant
	p.Disturbance += m.kick
	m.kick = 0

	next, err := m.simulator.Step(p, m.controller, m.opts.Dt)
	if err != nil {
		if !errors.Is(err, dynamo.ErrInvalidGain) {
			m.err = err
			m.running = false
			return
		}
		m.warnings++
	}
	next.Disturbance = m.plant.Disturbance
	m.plant = next

	m.history = append(m.history, next)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial plant with a fresh controller.
func (m *Model) reset() {
	m.plant = m.opts.Plant
	m.controller = m.opts.NewController()
	m.kick = 0
	m.err = nil
	m.warnings = 0
	m.history = m.history[:0]
	m.playHead = -1

	m.params = map[string]float64{}
	m.initialParams = map[string]float64{}
	m.paramKeys = m.paramKeys[:0]
	if c, ok := m.controller.(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			m.params[k] = v
			m.initialParams[k] = v
			m.paramKeys = append(m.paramKeys, k)
		}
	}
	sort.Strings(m.paramKeys)
	if m.selected >= len(m.paramKeys) {
		m.selected = 0
	}
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	c, ok := m.controller.(dynamo.Configurable)
	if !ok {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if err := c.SetParam(key, val); err == nil {
		m.params[key] = val
	}
}

// shown is the snapshot on screen: live or replayed.
func (m Model) shown() physics.PlantState {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.plant
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.failed.Render("STOPPED: " + m.err.Error())
	case m.playHead != -1:
		back := m.history[m.playHead].Time - m.plant.Time
		if m.running {
			return m.styles.paused.Render(fmt.Sprintf("REPLAYING (%.1fs)", back))
		}
		return m.styles.paused.Render(fmt.Sprintf("REPLAY PAUSED (%.1fs)", back))
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	default:
		return m.styles.running.Render("RUNNING")
	}
}

func (m Model) series(f func(physics.PlantState) float64) []float64 {
	out := make([]float64, len(m.history))
	for i, p := range m.history {
		out[i] = f(p)
	}
	return out
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.styles
	p := m.shown()

	m.canvas.Clear()
	DrawPlant(m.canvas, p)
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.opts.Title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	for _, line := range strings.Split(report.InfoText(p), "\n") {
		s.WriteString(st.value.Render(line) + "\n")
	}
	if m.warnings > 0 {
		s.WriteString(st.paused.Render(fmt.Sprintf("gain warnings: %d", m.warnings)) + "\n")
	}

	if len(m.history) > 1 {
		angles := m.series(func(p physics.PlantState) float64 { return p.Angle })
		if len(angles) > 120 {
			angles = angles[len(angles)-120:]
		}
		chart := asciigraph.Plot(angles, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("angle (rad)"))
		s.WriteString(st.graph.Render(chart) + "\n")
		s.WriteString(st.label.Render("force ") + st.sparkline(m.series(func(p physics.PlantState) float64 { return p.Force }), 30) + "\n")
	}

	s.WriteString("\nCONTROLLER\n")
	if len(m.paramKeys) > 0 {
		for i, k := range m.paramKeys {
			line := fmt.Sprintf("%-9s %10.4g", k, m.params[k])
			if i == m.selected {
				s.WriteString(st.active.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + st.label.Render(line) + "\n")
			}
		}
	} else {
		s.WriteString(st.label.Render("  (no tunable parameters)") + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit ←→:Push\nTab/↑↓:Tune [ ]:Time-Travel T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  ←/→ H/L  - Push the cart            ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  [        - Rewind (time travel)     ║
║  ]        - Forward (time travel)    ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`
