package control

import (
	"fmt"
	"sync"
)

// LogCapacity is the number of recent log lines the console retains.
const LogCapacity = 10

// State is the single source of truth for stop/channel activation. One
// mutex guards both the activation matrix and the log buffer; it is
// never held across a blocking call, and mutation frequency is bounded
// by human and MIDI-event speed, so there is no separate read path.
type State struct {
	mu        sync.Mutex
	stopCount int
	active    map[int]uint16 // stop index -> bitmask of channels 0-15
	bus       *Bus

	logLines []string
	lastErr  string
}

// NewState creates an empty activation matrix for an instrument with
// stopCount stops. Accepted changes are forwarded on bus.
func NewState(stopCount int, bus *Bus) *State {
	return &State{
		stopCount: stopCount,
		active:    make(map[int]uint16),
		bus:       bus,
	}
}

// StopCount returns the number of stops the matrix covers.
func (s *State) StopCount() int { return s.stopCount }

// SetStopChannel enables or disables channel for the stop at index
// stop, then emits exactly one StopToggle carrying the membership
// state after the edit. Redundant toggles still emit, so consumers see
// at-least-once delivery and must apply toggles idempotently.
//
// On ErrBusClosed the in-memory change has already been committed and
// is not rolled back; the bus only closes during shutdown.
func (s *State) SetStopChannel(stop, channel int, active bool) error {
	if channel < 0 || channel > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	if stop < 0 || stop >= s.stopCount {
		return fmt.Errorf("%w: %d", ErrStopIndex, stop)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bit := uint16(1) << uint(channel)
	if active {
		s.active[stop] |= bit
	} else {
		s.active[stop] &^= bit
		if s.active[stop] == 0 {
			delete(s.active, stop)
		}
	}
	resulting := s.active[stop]&bit != 0

	// Sent while holding the lock so producers racing on the same pair
	// land on the bus in commit order.
	if err := s.bus.Send(StopToggle{Stop: stop, Channel: channel, Active: resulting}); err != nil {
		return err
	}
	return nil
}

// IsActive reports whether channel is enabled for stop.
func (s *State) IsActive(stop, channel int) bool {
	if channel < 0 || channel > 15 || stop < 0 || stop >= s.stopCount {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[stop]&(uint16(1)<<uint(channel)) != 0
}

// ActiveChannels returns the channels enabled for stop, ascending.
func (s *State) ActiveChannels(stop int) []int {
	s.mu.Lock()
	mask := s.active[stop]
	s.mu.Unlock()

	var channels []int
	for ch := 0; ch < 16; ch++ {
		if mask&(uint16(1)<<uint(ch)) != 0 {
			channels = append(channels, ch)
		}
	}
	return channels
}

// Snapshot returns the active channels of every stop, indexed by stop.
func (s *State) Snapshot() [][]int {
	s.mu.Lock()
	masks := make([]uint16, s.stopCount)
	for stop, mask := range s.active {
		masks[stop] = mask
	}
	s.mu.Unlock()

	out := make([][]int, s.stopCount)
	for stop, mask := range masks {
		for ch := 0; ch < 16; ch++ {
			if mask&(uint16(1)<<uint(ch)) != 0 {
				out[stop] = append(out[stop], ch)
			}
		}
	}
	return out
}

// AddLog appends line to the log ring, evicting the oldest entry once
// LogCapacity is reached.
func (s *State) AddLog(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logLines) == LogCapacity {
		s.logLines = append(s.logLines[:0], s.logLines[1:]...)
		s.logLines[LogCapacity-1] = line
		return
	}
	s.logLines = append(s.logLines, line)
}

// SetError records text in the single most-recent-error slot.
func (s *State) SetError(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = text
}

// ClearError empties the error slot.
func (s *State) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

// Logs returns a copy of the log ring, oldest first.
func (s *State) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.logLines))
	copy(out, s.logLines)
	return out
}

// LastError returns the error slot, or "" when it is empty.
func (s *State) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
