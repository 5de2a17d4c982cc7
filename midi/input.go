// Package midi turns raw performance events into renderer commands.
// The decoder is pure; Input binds it to a real port via gomidi.
package midi

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-pipes/control"
	"go-pipes/debug"
)

var ErrNoPorts = errors.New("no MIDI input ports found")

// Input owns a MIDI port subscription. The driver invokes its callback
// on the driver's own thread; the callback never blocks beyond the
// brief bus send and never propagates errors upward.
type Input struct {
	portName string
	stop     func()
}

// Open connects to a MIDI input port and feeds decoded events onto the
// bus, with a formatted line per event on the feedback channel.
// preferred narrows port selection by substring match; when several
// ports remain the user is prompted on stdin (the console is not up
// yet at this point in startup).
func Open(preferred string, bus *control.Bus, fb *control.Feedback) (*Input, error) {
	port, err := selectPort(preferred)
	if err != nil {
		return nil, err
	}

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		raw := msg.Bytes()
		fb.Post(control.Log{Text: FormatEvent(raw)})

		cmd, ok := Decode(raw)
		if !ok {
			return
		}
		if err := bus.Send(cmd); err != nil {
			// The callback must not unwind. Report and move on; a
			// closed bus only happens during shutdown.
			fb.Errorf("midi: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open midi input %s: %w", port.String(), err)
	}

	debug.Log("midi", "listening on %s", port.String())
	return &Input{portName: port.String(), stop: stop}, nil
}

// PortName returns the connected port's name.
func (i *Input) PortName() string { return i.portName }

// Close releases the port subscription.
func (i *Input) Close() {
	if i.stop != nil {
		i.stop()
		i.stop = nil
	}
}

func selectPort(preferred string) (drivers.In, error) {
	ports := gomidi.GetInPorts()
	if len(ports) == 0 {
		return nil, ErrNoPorts
	}
	if preferred != "" {
		for _, p := range ports {
			if strings.Contains(p.String(), preferred) {
				return p, nil
			}
		}
	}
	if len(ports) == 1 {
		return ports[0], nil
	}

	fmt.Println("Available MIDI input ports:")
	for i, p := range ports {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Print("Select port number: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read port selection: %w", err)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 0 || idx >= len(ports) {
		return nil, fmt.Errorf("invalid port number %q", strings.TrimSpace(line))
	}
	return ports[idx], nil
}
