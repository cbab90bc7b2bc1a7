package viz

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbiter/internal/body"
	"github.com/san-kum/orbiter/internal/logging"
	"github.com/san-kum/orbiter/internal/quadtree"
	"github.com/san-kum/orbiter/internal/solver"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	width           = 80
	height          = 24
	sidebarWidth    = 43
	historyCapacity = 300
	panStep         = 8.0
	zoomStep        = 1.25
	maxDebugLevel   = 3
)

type TickMsg time.Time

type Options struct {
	Title       string
	FPS         int
	SpawnRadius float64
	SpawnMass   float64
	Theme       string
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Title:       "orbiter",
		FPS:         75,
		SpawnRadius: 30,
		SpawnMass:   2e6,
		Theme:       ThemeMinimal.Name,
	}
}

// Model drives a solver at a fixed frame time and draws it on a braille
// canvas. Debug levels add the quadtree leaves and the cell under the
// cursor (1), its adjacent cells (2) and tree counters (3).
type Model struct {
	solver  *solver.Solver
	opts    Options
	logger  *slog.Logger
	canvas  *Canvas
	camera  Camera
	theme   Theme
	styles  styles
	dt      float64
	elapsed float64
	running bool
	debug   int

	cursor    r2.Vec
	hasCursor bool
	spawning  bool
	dragging  bool
	dragX     int
	dragY     int
	checks    []float64
	adjacent  []quadtree.NodeID
}

func NewModel(s *solver.Solver, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	theme := GetTheme(opts.Theme)
	m := Model{
		solver:  s,
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger),
		canvas:  NewCanvas(width, height),
		theme:   theme,
		styles:  newStyles(theme),
		dt:      1 / float64(opts.FPS),
		running: true,
		checks:  make([]float64, 0, historyCapacity),
	}
	m.reframe()
	return m
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "x":
			m.solver.ClearBodies()
			m.checks = m.checks[:0]
			m.logger.Debug("bodies cleared")
		case "+", "=":
			m.zoom(zoomStep)
		case "-", "_":
			m.zoom(1 / zoomStep)
		case "w":
			m.camera.Pan(r2.Vec{Y: panStep})
		case "s":
			m.camera.Pan(r2.Vec{Y: -panStep})
		case "a":
			m.camera.Pan(r2.Vec{X: panStep})
		case "d":
			m.camera.Pan(r2.Vec{X: -panStep})
		case "r":
			m.reframe()
		case "tab", "f9":
			m.debug = (m.debug + 1) % (maxDebugLevel + 1)
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		}
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			if m.spawning && m.hasCursor {
				m.spawnAt(m.camera.ToWorld(m.cursor))
			}
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// mouse handles wheel zoom around the cursor, right-drag panning, and
// spawning while the left button is held.
func (m *Model) mouse(msg tea.MouseMsg) {
	switch {
	case msg.Action == tea.MouseActionRelease:
		m.spawning, m.dragging = false, false
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		m.dragging, m.dragX, m.dragY = true, msg.X, msg.Y
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.camera.Pan(r2.Vec{X: float64((msg.X - m.dragX) * 2), Y: float64((msg.Y - m.dragY) * 4)})
		m.dragX, m.dragY = msg.X, msg.Y
	}

	p, ok := m.mouseDot(msg.X, msg.Y)
	if !ok {
		m.hasCursor = false
		return
	}
	m.cursor, m.hasCursor = p, true
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.camera.Zoom(zoomStep, p)
	case msg.Button == tea.MouseButtonWheelDown:
		m.camera.Zoom(1/zoomStep, p)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.spawning = true
		m.spawnAt(m.camera.ToWorld(p))
	}
}

func (m *Model) step() {
	m.solver.Update(m.dt)
	m.elapsed += m.dt
	m.checks = append(m.checks, float64(m.solver.Diagnostics().TickCollisionChecks))
	if len(m.checks) > historyCapacity {
		m.checks = m.checks[1:]
	}
}

func (m *Model) spawnAt(world r2.Vec) {
	if math.IsNaN(world.X) || math.IsNaN(world.Y) {
		return
	}
	i := m.solver.AddBody(world, m.opts.SpawnRadius, m.opts.SpawnMass, body.RainbowCycle(m.elapsed))
	m.logger.Debug("body added", "index", i, "x", world.X, "y", world.Y)
}

// mouseDot maps a terminal cell to the dot at its center.
func (m *Model) mouseDot(x, y int) (r2.Vec, bool) {
	col, row := x-canvasPadX, y-canvasPadY
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		return r2.Vec{}, false
	}
	return r2.Vec{X: float64(col*2 + 1), Y: float64(row*4 + 2)}, true
}

func (m *Model) zoom(factor float64) {
	w, h := m.canvas.Pixels()
	m.camera.Zoom(factor, r2.Vec{X: float64(w) / 2, Y: float64(h) / 2})
}

func (m *Model) reframe() {
	w, h := m.canvas.Pixels()
	c := m.solver.Constraint()
	m.camera = Frame(c.Center, c.Radius*1.05, w, h)
}

// resize keeps the world point at the canvas center in place.
func (m *Model) resize(termW, termH int) {
	w := max(termW-sidebarWidth-2*canvasPadX, 10)
	h := max(termH-2*canvasPadY, 5)
	if w == m.canvas.Width && h == m.canvas.Height {
		return
	}
	ow, oh := m.canvas.Pixels()
	center := m.camera.ToWorld(r2.Vec{X: float64(ow) / 2, Y: float64(oh) / 2})
	m.canvas = NewCanvas(w, h)
	nw, nh := m.canvas.Pixels()
	m.camera.Offset = r2.Sub(r2.Vec{X: float64(nw) / 2, Y: float64(nh) / 2}, r2.Scale(m.camera.Scale, center))
}

func (m *Model) draw() {
	m.canvas.Clear()

	c := m.solver.Constraint()
	if x, y, ok := dot(m.camera.ToScreen(c.Center)); ok {
		m.drawCircle(x, y, c.Radius*m.camera.Scale)
	}

	if m.debug >= 1 {
		m.drawTree()
	}

	bodies := m.solver.Bodies()
	w, h := m.canvas.Pixels()
	for i := range bodies {
		b := &bodies[i]
		if !b.Finite() {
			continue
		}
		p := m.camera.ToScreen(b.Position)
		r := b.Radius * m.camera.Scale
		if p.X+r < 0 || p.Y+r < 0 || p.X-r > float64(w) || p.Y-r > float64(h) {
			continue
		}
		if x, y, ok := dot(p); ok {
			m.drawCircle(x, y, r)
		}
	}
}

func (m *Model) drawCircle(x, y int, r float64) {
	if !(r < 1<<20) {
		return
	}
	rr := int(math.Round(r))
	if rr <= 1 {
		m.canvas.FillCircle(x, y, rr)
		return
	}
	m.canvas.DrawCircle(x, y, rr)
}

func (m *Model) drawTree() {
	t := m.solver.Tree()
	for _, id := range t.Leaves() {
		m.drawRegion(t.Node(id).Region, 0)
	}
	if !m.hasCursor {
		return
	}
	leaf := t.FindLeaf(m.camera.ToWorld(m.cursor))
	m.drawRegion(t.Node(leaf).Region, 1)
	m.drawRegion(t.Node(leaf).Region, 2)
	if m.debug >= 2 {
		m.adjacent = t.AppendAdjacentLeaves(m.adjacent[:0], leaf)
		for _, id := range m.adjacent {
			m.drawRegion(t.Node(id).Region, 1)
		}
	}
}

// drawRegion outlines reg shrunk by inset dots, clipped to the canvas.
func (m *Model) drawRegion(reg quadtree.Region, inset int) {
	w, h := m.canvas.Pixels()
	lo := m.camera.ToScreen(reg.Min())
	hi := m.camera.ToScreen(reg.Max())
	if hi.X < 0 || hi.Y < 0 || lo.X > float64(w) || lo.Y > float64(h) {
		return
	}
	clip := func(v, limit float64) int {
		return int(math.Round(math.Max(-1, math.Min(limit, v))))
	}
	x0, y0 := clip(lo.X, float64(w))+inset, clip(lo.Y, float64(h))+inset
	x1, y1 := clip(hi.X, float64(w))-inset, clip(hi.Y, float64(h))-inset
	if x1 < x0 || y1 < y0 {
		return
	}
	m.canvas.DrawRect(x0, y0, x1, y1)
}

func (m Model) View() string {
	m.draw()
	st := m.styles
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.opts.Title)) + "\n")
	if m.running {
		s.WriteString(st.value.Render("RUNNING") + "\n")
	} else {
		s.WriteString(st.paused.Render("PAUSED") + "\n")
	}

	if len(m.checks) > 1 {
		chart := asciigraph.Plot(m.checks, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("collision checks"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	d := m.solver.Diagnostics()
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.elapsed))
	row("Bodies", fmt.Sprintf("%d", m.solver.Len()))
	row("Checks", fmt.Sprintf("%d", d.TickCollisionChecks))
	row("Zoom", fmt.Sprintf("%.3g", m.camera.Scale))
	row("Debug", fmt.Sprintf("%d", m.debug))

	if m.debug >= 1 && m.hasCursor {
		t := m.solver.Tree()
		world := m.camera.ToWorld(m.cursor)
		leaf := t.FindLeaf(world)
		n := t.Node(leaf)
		row("Cursor", fmt.Sprintf("%.0f, %.0f", world.X, world.Y))
		row("Cell", fmt.Sprintf("#%d depth %d, %d items", leaf, n.Depth, len(n.Items)))
	}
	if m.debug >= 3 {
		s.WriteString("\n")
		row("Nodes", fmt.Sprintf("%d", d.Nodes))
		row("Max depth", fmt.Sprintf("%d", d.MaxDepth))
		row("Splits", fmt.Sprintf("%d", d.Splits))
		row("Lookups", fmt.Sprintf("%d", d.Lookups))
		row("Collisions", fmt.Sprintf("%d", d.Collisions))
		row("Substeps", fmt.Sprintf("%d", d.Substeps))
	}
	if n := m.nonFinite(); n > 0 {
		s.WriteString(st.warn.Render(fmt.Sprintf("%d bodies diverged", n)) + "\n")
	}

	s.WriteString(st.help.Render("─────────────────────\nclick:Add  x:Clear  SP:Pause\n+/-:Zoom  wasd:Pan  r:Reframe\ntab:Debug  t:Theme  q:Quit"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
}

func (m *Model) nonFinite() int {
	n := 0
	bodies := m.solver.Bodies()
	for i := range bodies {
		if !bodies[i].Finite() {
			n++
		}
	}
	return n
}

// Running reports whether the simulation advances on each tick.
func (m Model) Running() bool { return m.running }

func (m Model) Debug() int { return m.debug }

func (m Model) Camera() Camera { return m.camera }
