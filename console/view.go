package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-pipes/config"
)

// StopItem is one stop row of the main screen snapshot.
type StopItem struct {
	Name     string
	Active   bool
	Selected bool
}

// StopsView is the main screen snapshot.
type StopsView struct {
	OrganName string
	Channel   int
	Columns   int
	Stops     []StopItem
	Logs      []string
	Err       string
}

// DisplaysView is the display-configuration snapshot.
type DisplaysView struct {
	Displays []config.DisplayConfig
	Cursor   int
	Editing  bool
	Field    int
}

// BrowserItem is one file-browser row.
type BrowserItem struct {
	Name     string
	Dir      bool
	Selected bool
}

// BrowserView is the file-browser snapshot.
type BrowserView struct {
	Path    string
	Entries []BrowserItem
	Err     string
}

// Renderer turns view snapshots into terminal output. Presentation is
// not this core's business: anything can implement Renderer, and the
// built-in one stays deliberately small.
type Renderer interface {
	RenderStops(v StopsView) string
	RenderDisplays(v DisplaysView) string
	RenderBrowser(v BrowserView) string
}

func (m Model) stopsView() StopsView {
	v := StopsView{
		OrganName: m.organ.Name,
		Channel:   m.stops.channel,
		Columns:   m.stops.columns,
		Logs:      m.state.Logs(),
		Err:       m.state.LastError(),
	}
	v.Stops = make([]StopItem, len(m.organ.Stops))
	for i, stop := range m.organ.Stops {
		v.Stops[i] = StopItem{
			Name:     stop.Name,
			Active:   m.state.IsActive(i, m.stops.channel),
			Selected: i == m.stops.cursor,
		}
	}
	return v
}

func (m Model) displaysView() DisplaysView {
	return DisplaysView{
		Displays: m.cfg.Displays,
		Cursor:   m.displays.cursor,
		Editing:  m.displays.editing,
		Field:    m.displays.field,
	}
}

func (m Model) browserView() BrowserView {
	v := BrowserView{
		Path: m.browser.path,
		Err:  m.browser.errMsg,
	}
	v.Entries = make([]BrowserItem, len(m.browser.entries))
	for i, e := range m.browser.entries {
		v.Entries[i] = BrowserItem{
			Name:     e.Name,
			Dir:      e.Dir,
			Selected: i == m.browser.cursor,
		}
	}
	return v
}

var (
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// DefaultRenderer is the minimal bundled renderer.
type DefaultRenderer struct{}

func (DefaultRenderer) RenderStops(v StopsView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - channel %d\n\n", v.OrganName, v.Channel+1)

	if len(v.Stops) == 0 {
		b.WriteString("No stops loaded.\n")
	}
	perColumn := (len(v.Stops) + v.Columns - 1) / max(v.Columns, 1)
	for row := 0; row < perColumn; row++ {
		for col := 0; col < v.Columns; col++ {
			i := col*perColumn + row
			if i >= len(v.Stops) {
				continue
			}
			s := v.Stops[i]
			mark := "[ ]"
			if s.Active {
				mark = "[X]"
			}
			cell := fmt.Sprintf("%s %-24s", mark, s.Name)
			switch {
			case s.Selected:
				cell = selectedStyle.Render(cell)
			case s.Active:
				cell = activeStyle.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nMIDI log:\n")
	for _, line := range v.Logs {
		b.WriteString(dimStyle.Render("  " + line))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if v.Err != "" {
		b.WriteString(errStyle.Render(v.Err))
	} else {
		b.WriteString(dimStyle.Render("q quit | j/k move | space toggle | [/] channel | a/n all/none | d displays | o open"))
	}
	b.WriteByte('\n')
	return b.String()
}

func (DefaultRenderer) RenderDisplays(v DisplaysView) string {
	var b strings.Builder
	b.WriteString("LCD displays\n\n")
	for i, d := range v.Displays {
		line := fmt.Sprintf("  id=%-3d color=%-6s line1=%-13s line2=%-13s", d.ID, d.Color, d.Line1, d.Line2)
		if i == v.Cursor {
			if v.Editing {
				line += fmt.Sprintf("  editing field %d", v.Field)
			}
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	add := "  + add display"
	if v.Cursor == len(v.Displays) {
		add = selectedStyle.Render(add)
	}
	b.WriteString(add)
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("enter edit | h/l field | j/k value | x delete | esc back"))
	b.WriteByte('\n')
	return b.String()
}

func (DefaultRenderer) RenderBrowser(v BrowserView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Open organ: %s\n\n", v.Path)
	for _, e := range v.Entries {
		name := e.Name
		if e.Dir {
			name += "/"
		}
		line := "  " + name
		if e.Selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if v.Err != "" {
		b.WriteString(errStyle.Render(v.Err))
	} else {
		b.WriteString(dimStyle.Render("enter open | backspace up | esc back"))
	}
	b.WriteByte('\n')
	return b.String()
}
