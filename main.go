package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"go-pipes/api"
	"go-pipes/config"
	"go-pipes/console"
	"go-pipes/control"
	"go-pipes/debug"
	"go-pipes/midi"
	"go-pipes/organ"
	"go-pipes/picker"
	"go-pipes/render"
)

func main() {
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/go-pipes/debug.log")
	apiPort := flag.Int("port", 0, "HTTP API port (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if *debugLog {
		if err := debug.Enable(""); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	// Organ path: argument, then config, then the native picker.
	organPath := flag.Arg(0)
	if organPath == "" {
		organPath = cfg.OrganPath
	}
	if organPath == "" {
		organPath, err = picker.Dialog{}.PickOrganFile("")
		if err != nil {
			if errors.Is(err, picker.ErrCancelled) {
				fmt.Fprintf(os.Stderr, "Usage: %s <path-to-organ-file>\n", os.Args[0])
			} else {
				fmt.Fprintf(os.Stderr, "file picker: %v\n", err)
			}
			os.Exit(1)
		}
	}
	if _, err := os.Stat(organPath); err != nil {
		fmt.Fprintf(os.Stderr, "File not found: %s\n", organPath)
		os.Exit(1)
	}

	// The organ definition is immutable for the process lifetime and
	// shared read-only by every goroutine.
	fmt.Println("Loading organ definition...")
	org, err := organ.ManifestLoader{}.Load(organPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load organ: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully loaded organ: %s\n", org.Name)
	fmt.Printf("Found %d stops.\n", len(org.Stops))

	fmt.Println("Normalizing samples...")
	if err := organ.PrepareSamples(org, filepath.Dir(organPath)); err != nil {
		fmt.Fprintf(os.Stderr, "prepare samples: %v\n", err)
		os.Exit(1)
	}

	bus := control.NewBus()
	feedback := control.NewFeedback()
	state := control.NewState(len(org.Stops), bus)

	fmt.Println("Starting audio engine...")
	handle, err := render.Start(bus, org, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio: %v\n", err)
		os.Exit(1)
	}
	defer handle.Close()

	fmt.Println("Initializing MIDI...")
	input, err := midi.Open(cfg.MIDIPort, bus, feedback)
	if err != nil {
		// Console and API still work without a MIDI device; tell the
		// console about it and move on.
		feedback.Errorf("MIDI unavailable: %v", err)
		debug.Log("main", "midi: %v", err)
	} else {
		fmt.Printf("MIDI input enabled on %s.\n", input.PortName())
		defer input.Close()
	}

	port := cfg.APIPort
	if *apiPort != 0 {
		port = *apiPort
	}
	server := api.New(org, state, port)
	server.Start()
	defer server.Shutdown(context.Background())

	fmt.Println("Starting console... Press 'q' to quit.")
	m := console.NewModel(org, state, bus, feedback, cfg, nil)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Shutting down...")
}
