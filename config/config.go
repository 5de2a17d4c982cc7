package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LineSource selects what an LCD display line shows.
type LineSource string

const (
	LineOrganName   LineSource = "organ-name"
	LineActiveStops LineSource = "active-stops"
	LineLastEvent   LineSource = "last-event"
	LineChannel     LineSource = "channel"
	LineBlank       LineSource = "blank"
)

// LineSources lists the selectable values in edit order.
var LineSources = []LineSource{LineOrganName, LineActiveStops, LineLastEvent, LineChannel, LineBlank}

// DisplayConfig defines one external LCD display: an id on the display
// bus, a backlight color, and two line sources.
type DisplayConfig struct {
	ID    int        `json:"id"`
	Color string     `json:"color"`
	Line1 LineSource `json:"line1"`
	Line2 LineSource `json:"line2"`
}

// DisplayColors lists the supported backlight colors in edit order.
var DisplayColors = []string{"white", "red", "green", "blue", "amber"}

// UIConfig stores console preferences.
type UIConfig struct {
	LastChannel int `json:"lastChannel,omitempty"` // virtual channel 0-15
	Columns     int `json:"columns,omitempty"`     // stop list columns
}

// Config is the main configuration structure.
type Config struct {
	OrganPath string          `json:"organPath,omitempty"`
	MIDIPort  string          `json:"midiPort,omitempty"`
	APIPort   int             `json:"apiPort,omitempty"`
	Displays  []DisplayConfig `json:"displays,omitempty"`
	UI        UIConfig        `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIPort: 8080,
		UI: UIConfig{
			Columns: 3,
		},
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-pipes"), nil
}

// ConfigPath returns the full path to config.json.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = 8080
	}
	if cfg.UI.Columns == 0 {
		cfg.UI.Columns = 3
	}
	return &cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NextDisplayID returns the lowest unused display id.
func (c *Config) NextDisplayID() int {
	used := make(map[int]bool, len(c.Displays))
	for _, d := range c.Displays {
		used[d.ID] = true
	}
	id := 0
	for used[id] {
		id++
	}
	return id
}

// AddDisplay appends a new display with defaults and returns its index.
func (c *Config) AddDisplay() int {
	c.Displays = append(c.Displays, DisplayConfig{
		ID:    c.NextDisplayID(),
		Color: DisplayColors[0],
		Line1: LineOrganName,
		Line2: LineActiveStops,
	})
	return len(c.Displays) - 1
}

// RemoveDisplay deletes the display at index i.
func (c *Config) RemoveDisplay(i int) {
	if i < 0 || i >= len(c.Displays) {
		return
	}
	c.Displays = append(c.Displays[:i], c.Displays[i+1:]...)
}
