package render

import (
	"testing"

	"go-pipes/control"
	"go-pipes/organ"
)

func testOrgan(stops int) *organ.Organ {
	o := &organ.Organ{Name: "Test"}
	for i := 0; i < stops; i++ {
		o.Stops = append(o.Stops, organ.Stop{Name: "Stop"})
	}
	return o
}

func TestDrainIsBounded(t *testing.T) {
	t.Parallel()

	bus := control.NewBus()
	e := NewEngine(bus, testOrgan(1), nil)

	const sent = 100
	for i := 0; i < sent; i++ {
		if err := bus.Send(control.NoteOn{Note: uint8(i % 128), Velocity: 1}); err != nil {
			t.Fatal(err)
		}
	}

	if n := e.Drain(); n != maxDrainPerPeriod {
		t.Errorf("first drain applied %d, want %d", n, maxDrainPerPeriod)
	}
	if n := e.Drain(); n != sent-maxDrainPerPeriod {
		t.Errorf("second drain applied %d, want %d", n, sent-maxDrainPerPeriod)
	}
	if n := e.Drain(); n != 0 {
		t.Errorf("empty drain applied %d, want 0", n)
	}
}

func TestNoteTracking(t *testing.T) {
	t.Parallel()

	bus := control.NewBus()
	e := NewEngine(bus, testOrgan(1), nil)

	bus.Send(control.NoteOn{Note: 60, Velocity: 100})
	bus.Send(control.NoteOn{Note: 64, Velocity: 80})
	bus.Send(control.NoteOff{Note: 60})
	e.Drain()

	notes := e.activeNotes()
	if len(notes) != 1 || notes[0].Note != 64 || notes[0].Velocity != 80 {
		t.Errorf("active notes = %v, want [{64 80}]", notes)
	}
}

func TestStopToggleIdempotent(t *testing.T) {
	t.Parallel()

	bus := control.NewBus()
	e := NewEngine(bus, testOrgan(3), nil)

	// At-least-once delivery: repeated toggles must converge, not flip.
	bus.Send(control.StopToggle{Stop: 1, Channel: 0, Active: true})
	bus.Send(control.StopToggle{Stop: 1, Channel: 0, Active: true})
	bus.Send(control.StopToggle{Stop: 2, Channel: 15, Active: true})
	bus.Send(control.StopToggle{Stop: 2, Channel: 15, Active: false})
	e.Drain()

	if !e.StopActive(1, 0) {
		t.Error("stop 1 ch 0 inactive, want active")
	}
	if e.StopActive(2, 15) {
		t.Error("stop 2 ch 15 active, want inactive")
	}
	// Out-of-range toggles are ignored, not applied.
	bus.Send(control.StopToggle{Stop: 9, Channel: 0, Active: true})
	e.Drain()
	if e.StopActive(9, 0) {
		t.Error("out-of-range stop tracked")
	}
}

func TestQuit(t *testing.T) {
	t.Parallel()

	bus := control.NewBus()
	e := NewEngine(bus, testOrgan(1), nil)

	if e.Quitting() {
		t.Fatal("quitting before Quit")
	}
	bus.Send(control.Quit{})
	e.Drain()
	if !e.Quitting() {
		t.Error("Quit not observed after drain")
	}
}

type countingSource struct {
	calls int
	notes int
}

func (s *countingSource) Render(dst []float32, notes []Note) {
	s.calls++
	s.notes = len(notes)
	for i := range dst {
		dst[i] = 0.5
	}
}

func TestProcessDrainsThenVoices(t *testing.T) {
	t.Parallel()

	bus := control.NewBus()
	src := &countingSource{}
	e := NewEngine(bus, testOrgan(1), src)

	bus.Send(control.NoteOn{Note: 60, Velocity: 100})

	dst := make([]float32, 8)
	e.Process(dst)

	if src.calls != 1 {
		t.Fatalf("source called %d times, want 1", src.calls)
	}
	if src.notes != 1 {
		t.Errorf("source saw %d notes, want 1 (drain happens before voicing)", src.notes)
	}
	for i, v := range dst {
		if v != 0.5 {
			t.Fatalf("dst[%d] = %v, want source output", i, v)
		}
	}
}

func TestSilenceSource(t *testing.T) {
	t.Parallel()

	dst := []float32{1, -1, 0.3}
	Silence{}.Render(dst, nil)
	for i, v := range dst {
		if v != 0 {
			t.Errorf("dst[%d] = %v, want 0", i, v)
		}
	}
}
