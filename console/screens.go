package console

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-pipes/config"
)

// screen selects which of the console's modes is active. Every screen
// is the same capability pair: a key handler and a view snapshot; the
// model dispatches on this one value.
type screen int

const (
	screenStops screen = iota
	screenDisplays
	screenBrowser
)

// stopsScreen is the main control list: a cursor over the stop list
// laid out in columns, plus the currently selected virtual channel
// that toggles apply to.
type stopsScreen struct {
	cursor  int
	channel int // virtual channel 0-15
	columns int
}

func (s *stopsScreen) perColumn(count int) int {
	if s.columns < 1 {
		s.columns = 1
	}
	return (count + s.columns - 1) / s.columns
}

func (s *stopsScreen) next(count int) {
	if count > 0 {
		s.cursor = (s.cursor + 1) % count
	}
}

func (s *stopsScreen) prev(count int) {
	if count == 0 {
		return
	}
	if s.cursor == 0 {
		s.cursor = count - 1
	} else {
		s.cursor--
	}
}

func (s *stopsScreen) nextColumn(count int) {
	if count == 0 {
		return
	}
	s.cursor = min(s.cursor+s.perColumn(count), count-1)
}

func (s *stopsScreen) prevColumn(count int) {
	s.cursor = max(s.cursor-s.perColumn(count), 0)
}

func (s *stopsScreen) nextChannel() {
	if s.channel < 15 {
		s.channel++
	}
}

func (s *stopsScreen) prevChannel() {
	if s.channel > 0 {
		s.channel--
	}
}

// Display edit fields, in left-to-right order.
const (
	fieldID = iota
	fieldColor
	fieldLine1
	fieldLine2
	fieldCount
)

// displaysScreen edits the LCD display definitions stored in config.
// The last list row is the "add new" action.
type displaysScreen struct {
	cursor  int
	editing bool
	field   int
}

func (s *displaysScreen) rows(cfg *config.Config) int {
	return len(cfg.Displays) + 1 // +1 for "add new"
}

func (s *displaysScreen) onAddRow(cfg *config.Config) bool {
	return s.cursor == len(cfg.Displays)
}

func (s *displaysScreen) next(cfg *config.Config) {
	s.cursor = min(s.cursor+1, s.rows(cfg)-1)
}

func (s *displaysScreen) prev() {
	s.cursor = max(s.cursor-1, 0)
}

// adjust changes the edited field of the display under the cursor by
// delta steps, cycling through the legal values.
func (s *displaysScreen) adjust(cfg *config.Config, delta int) {
	if s.onAddRow(cfg) {
		return
	}
	d := &cfg.Displays[s.cursor]
	switch s.field {
	case fieldID:
		d.ID = max(d.ID+delta, 0)
	case fieldColor:
		d.Color = cycle(config.DisplayColors, d.Color, delta)
	case fieldLine1:
		d.Line1 = cycle(config.LineSources, d.Line1, delta)
	case fieldLine2:
		d.Line2 = cycle(config.LineSources, d.Line2, delta)
	}
}

// cycle steps through options from current by delta, wrapping.
func cycle[T comparable](options []T, current T, delta int) T {
	idx := 0
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(options)) % len(options)
	return options[idx]
}

// browserEntry is one row of the file browser.
type browserEntry struct {
	Name string
	Dir  bool
}

// browserScreen navigates the filesystem looking for organ definition
// files.
type browserScreen struct {
	path    string
	entries []browserEntry
	cursor  int
	errMsg  string
}

// organExtensions are the file types the browser offers.
var organExtensions = []string{".organ", ".json"}

func (s *browserScreen) load(path string) {
	s.path = path
	s.cursor = 0
	s.errMsg = ""
	s.entries = s.entries[:0]

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		s.errMsg = err.Error()
		return
	}

	var dirs, files []browserEntry
	for _, e := range dirEntries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, browserEntry{Name: e.Name(), Dir: true})
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, allowed := range organExtensions {
			if ext == allowed {
				files = append(files, browserEntry{Name: e.Name()})
				break
			}
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	s.entries = append(dirs, files...)
}

func (s *browserScreen) next() {
	if len(s.entries) > 0 {
		s.cursor = min(s.cursor+1, len(s.entries)-1)
	}
}

func (s *browserScreen) prev() {
	s.cursor = max(s.cursor-1, 0)
}

func (s *browserScreen) selected() (browserEntry, bool) {
	if s.cursor < 0 || s.cursor >= len(s.entries) {
		return browserEntry{}, false
	}
	return s.entries[s.cursor], true
}

func (s *browserScreen) ascend() {
	parent := filepath.Dir(s.path)
	if parent != s.path {
		s.load(parent)
	}
}
