// Package console is the interactive control producer: it turns key
// presses into SetStopChannel calls, polls the feedback channel on a
// fixed tick, and owns the quit handshake. Rendering is behind the
// Renderer interface; the console core only builds view snapshots.
package console

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-pipes/config"
	"go-pipes/control"
	"go-pipes/debug"
	"go-pipes/organ"
)

// pollInterval is how often the console drains feedback and refreshes.
const pollInterval = 50 * time.Millisecond

type tickMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

type Model struct {
	organ    *organ.Organ
	state    *control.State
	bus      *control.Bus
	feedback *control.Feedback
	cfg      *config.Config
	renderer Renderer

	screen   screen
	stops    stopsScreen
	displays displaysScreen
	browser  browserScreen

	sentQuit bool
}

func NewModel(o *organ.Organ, st *control.State, bus *control.Bus, fb *control.Feedback, cfg *config.Config, r Renderer) Model {
	if r == nil {
		r = DefaultRenderer{}
	}
	return Model{
		organ:    o,
		state:    st,
		bus:      bus,
		feedback: fb,
		cfg:      cfg,
		renderer: r,
		stops: stopsScreen{
			channel: cfg.UI.LastChannel,
			columns: cfg.UI.Columns,
		},
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.drainFeedback()
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// drainFeedback moves pending feedback into the shared log buffer and
// error slot. Non-blocking; runs on every tick.
func (m *Model) drainFeedback() {
	for {
		fb, ok := m.feedback.TryRecv()
		if !ok {
			return
		}
		switch fb := fb.(type) {
		case control.Log:
			m.state.AddLog(fb.Text)
		case control.Error:
			m.state.SetError(fb.Text)
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m.quit()
	}

	switch m.screen {
	case screenStops:
		return m.handleStopsKey(key)
	case screenDisplays:
		return m.handleDisplaysKey(key)
	case screenBrowser:
		return m.handleBrowserKey(key)
	}
	return m, nil
}

// quit sends Quit exactly once and exits the program loop. After this
// the console performs no further sends.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if !m.sentQuit {
		m.sentQuit = true
		if err := m.bus.Send(control.Quit{}); err != nil {
			debug.Log("console", "quit send: %v", err)
		}
	}
	m.cfg.UI.LastChannel = m.stops.channel
	if err := m.cfg.Save(); err != nil {
		debug.Log("console", "config save: %v", err)
	}
	return m, tea.Quit
}

func (m Model) handleStopsKey(key string) (tea.Model, tea.Cmd) {
	count := len(m.organ.Stops)
	switch key {
	case "q", "esc":
		return m.quit()
	case "down", "j":
		m.stops.next(count)
	case "up", "k":
		m.stops.prev(count)
	case "right", "l":
		m.stops.nextColumn(count)
	case "left", "h":
		m.stops.prevColumn(count)
	case "]":
		m.stops.nextChannel()
	case "[":
		m.stops.prevChannel()
	case " ", "enter":
		m.toggleStop(m.stops.cursor)
	case "a":
		for i := 0; i < count; i++ {
			if !m.state.IsActive(i, m.stops.channel) {
				m.setStop(i, true)
			}
		}
	case "n":
		for i := 0; i < count; i++ {
			if m.state.IsActive(i, m.stops.channel) {
				m.setStop(i, false)
			}
		}
	case "c":
		m.state.ClearError()
	case "d":
		m.screen = screenDisplays
	case "o":
		m.browser.load(startDir(m.cfg))
		m.screen = screenBrowser
	}
	return m, nil
}

func (m *Model) toggleStop(stop int) {
	m.setStop(stop, !m.state.IsActive(stop, m.stops.channel))
}

func (m *Model) setStop(stop int, active bool) {
	if err := m.state.SetStopChannel(stop, m.stops.channel, active); err != nil {
		m.state.SetError(err.Error())
	}
}

func (m Model) handleDisplaysKey(key string) (tea.Model, tea.Cmd) {
	s := &m.displays
	switch key {
	case "esc":
		if s.editing {
			s.editing = false
			break
		}
		if err := m.cfg.Save(); err != nil {
			m.state.SetError(fmt.Sprintf("config save: %v", err))
		}
		m.screen = screenStops
	case "down", "j":
		if s.editing {
			s.adjust(m.cfg, -1)
		} else {
			s.next(m.cfg)
		}
	case "up", "k":
		if s.editing {
			s.adjust(m.cfg, 1)
		} else {
			s.prev()
		}
	case "left", "h":
		if s.editing {
			s.field = max(s.field-1, 0)
		}
	case "right", "l":
		if s.editing {
			s.field = min(s.field+1, fieldCount-1)
		}
	case " ", "enter":
		if s.onAddRow(m.cfg) {
			s.cursor = m.cfg.AddDisplay()
		} else {
			s.editing = !s.editing
			s.field = fieldID
		}
	case "x", "delete":
		if !s.onAddRow(m.cfg) && !s.editing {
			m.cfg.RemoveDisplay(s.cursor)
			s.cursor = min(s.cursor, s.rows(m.cfg)-1)
		}
	}
	return m, nil
}

func (m Model) handleBrowserKey(key string) (tea.Model, tea.Cmd) {
	s := &m.browser
	switch key {
	case "esc":
		m.screen = screenStops
	case "down", "j":
		s.next()
	case "up", "k":
		s.prev()
	case "backspace", "h", "left":
		s.ascend()
	case "enter", "l", "right":
		entry, ok := s.selected()
		if !ok {
			break
		}
		full := filepath.Join(s.path, entry.Name)
		if entry.Dir {
			s.load(full)
			break
		}
		// The chosen organ takes effect on next start; the loaded
		// definition is immutable for the process lifetime.
		m.cfg.OrganPath = full
		if err := m.cfg.Save(); err != nil {
			m.state.SetError(fmt.Sprintf("config save: %v", err))
			break
		}
		m.state.AddLog(fmt.Sprintf("Selected %s (loads on restart)", entry.Name))
		m.screen = screenStops
	}
	return m, nil
}

func startDir(cfg *config.Config) string {
	if cfg.OrganPath != "" {
		return filepath.Dir(cfg.OrganPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "/"
	}
	return wd
}

func (m Model) View() string {
	switch m.screen {
	case screenDisplays:
		return m.renderer.RenderDisplays(m.displaysView())
	case screenBrowser:
		return m.renderer.RenderBrowser(m.browserView())
	default:
		return m.renderer.RenderStops(m.stopsView())
	}
}
