// Package render is the consuming end of the command bus: a pull-model
// audio output whose read path drains pending commands without
// blocking, applies a bounded amount of work per render period, and
// hands the resulting note/stop picture to a signal Source. The Source
// does the actual voicing and is external to this core; the default is
// silence.
package render

import (
	"go-pipes/control"
	"go-pipes/organ"
)

// maxDrainPerPeriod bounds how many commands one render period may
// apply, so a burst of toggles cannot starve the audio callback.
const maxDrainPerPeriod = 64

// Note is an active note with the velocity it was struck at.
type Note struct {
	Note     uint8
	Velocity uint8
}

// Source produces the audio signal for the current control picture.
// Render must fill dst completely with interleaved float32 samples in
// [-1,1] and must not block.
type Source interface {
	Render(dst []float32, notes []Note)
}

// Silence is the built-in Source used when no synthesizer is attached.
type Silence struct{}

func (Silence) Render(dst []float32, _ []Note) {
	for i := range dst {
		dst[i] = 0
	}
}

// Engine tracks the renderer-side mirror of notes and stop activation.
// It is driven from exactly one goroutine (the audio read path), so it
// needs no locking of its own.
type Engine struct {
	bus    *control.Bus
	organ  *organ.Organ
	source Source

	velocities [128]uint8 // 0 = note off
	stops      []uint16   // activation mirror, bitmask per stop
	quitting   bool

	noteBuf []Note
}

func NewEngine(bus *control.Bus, o *organ.Organ, src Source) *Engine {
	if src == nil {
		src = Silence{}
	}
	return &Engine{
		bus:    bus,
		organ:  o,
		source: src,
		stops:  make([]uint16, len(o.Stops)),
	}
}

// Drain applies pending commands without blocking and returns how many
// it consumed, at most maxDrainPerPeriod.
func (e *Engine) Drain() int {
	for n := 0; n < maxDrainPerPeriod; n++ {
		msg, ok := e.bus.TryRecv()
		if !ok {
			return n
		}
		e.apply(msg)
	}
	return maxDrainPerPeriod
}

func (e *Engine) apply(msg control.Message) {
	switch m := msg.(type) {
	case control.NoteOn:
		if m.Note < 128 {
			e.velocities[m.Note] = m.Velocity
		}
	case control.NoteOff:
		if m.Note < 128 {
			e.velocities[m.Note] = 0
		}
	case control.StopToggle:
		// Toggles are at-least-once; applying the reported state is
		// naturally idempotent.
		if m.Stop >= 0 && m.Stop < len(e.stops) && m.Channel >= 0 && m.Channel < 16 {
			bit := uint16(1) << uint(m.Channel)
			if m.Active {
				e.stops[m.Stop] |= bit
			} else {
				e.stops[m.Stop] &^= bit
			}
		}
	case control.Quit:
		e.quitting = true
	}
}

// Process renders one period into dst: drain first, then voice.
func (e *Engine) Process(dst []float32) {
	e.Drain()
	e.source.Render(dst, e.activeNotes())
}

func (e *Engine) activeNotes() []Note {
	e.noteBuf = e.noteBuf[:0]
	for n, v := range e.velocities {
		if v > 0 {
			e.noteBuf = append(e.noteBuf, Note{Note: uint8(n), Velocity: v})
		}
	}
	return e.noteBuf
}

// StopActive reports the renderer's view of a stop/channel pair.
func (e *Engine) StopActive(stop, channel int) bool {
	if stop < 0 || stop >= len(e.stops) || channel < 0 || channel > 15 {
		return false
	}
	return e.stops[stop]&(uint16(1)<<uint(channel)) != 0
}

// Quitting reports whether a Quit command has been drained.
func (e *Engine) Quitting() bool { return e.quitting }
