// midiprobe is a small diagnostic tool: list MIDI ports, or monitor a
// port and print each event the way the organ's decoder sees it.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-pipes/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		name := ""
		if len(os.Args) > 2 {
			name = os.Args[2]
		}
		monitor(name)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  midiprobe list             - list MIDI input ports")
	fmt.Println("  midiprobe monitor [name]   - print decoded events from a port")
}

func listPorts() {
	ports := gomidi.GetInPorts()
	if len(ports) == 0 {
		fmt.Println("No MIDI input ports found.")
		return
	}
	for i, p := range ports {
		fmt.Printf("%d: %s\n", i, p.String())
	}
}

func monitor(name string) {
	ports := gomidi.GetInPorts()
	if len(ports) == 0 {
		fmt.Println("No MIDI input ports found.")
		os.Exit(1)
	}

	port := ports[0]
	if name != "" {
		found := false
		for _, p := range ports {
			if strings.Contains(p.String(), name) {
				port = p
				found = true
				break
			}
		}
		if !found {
			fmt.Printf("No port matching %q.\n", name)
			os.Exit(1)
		}
	}

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		raw := msg.Bytes()
		line := midi.FormatEvent(raw)
		if cmd, ok := midi.Decode(raw); ok {
			line += fmt.Sprintf("  -> %#v", cmd)
		}
		fmt.Println(line)
	})
	if err != nil {
		fmt.Printf("listen on %s: %v\n", port.String(), err)
		os.Exit(1)
	}
	defer stop()

	fmt.Printf("Monitoring %s, ctrl+c to stop.\n", port.String())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
