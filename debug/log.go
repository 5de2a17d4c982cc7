// Package debug is the process-wide diagnostic log: opt-in, file
// backed, safe to call from any goroutine including the MIDI driver
// callback. The rest of the core treats it as an injected capability
// and keeps working when it is disabled.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	file    *os.File
	enabled bool
)

// Enable starts logging to path, truncating any previous log. Pass ""
// for the default ~/.config/go-pipes/debug.log.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "go-pipes", "debug.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true
	write("debug", "=== log started ===")
	return nil
}

// Disable stops logging and closes the file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Log writes one categorized line. No-op while disabled.
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || file == nil {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// write assumes mu is held.
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-8s %s\n", ts, category, msg)
	file.Sync() // flush immediately so we see logs even on crash
}

var counters = make(map[string]int)

// LogEvery logs only every n calls, for per-render-period events that
// would otherwise swamp the file.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (count=%d)", append(args, count)...)
	}
}
