package control

import (
	"errors"
	"testing"
)

func TestBusSendRecv(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	if err := bus.Send(NoteOn{Note: 60, Velocity: 100}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := bus.Send(NoteOff{Note: 60}); err != nil {
		t.Fatal(err)
	}

	msg, ok := bus.TryRecv()
	if !ok {
		t.Fatal("TryRecv() found nothing")
	}
	on, ok := msg.(NoteOn)
	if !ok || on.Note != 60 || on.Velocity != 100 {
		t.Errorf("first message = %#v, want NoteOn{60 100}", msg)
	}

	if _, ok := bus.TryRecv(); !ok {
		t.Fatal("second message missing")
	}
	if _, ok := bus.TryRecv(); ok {
		t.Error("TryRecv() on empty bus returned a message")
	}
}

func TestBusClose(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	bus.Close()
	bus.Close() // idempotent

	if err := bus.Send(Quit{}); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Send() after close = %v, want ErrBusClosed", err)
	}
}

func TestFeedbackLossy(t *testing.T) {
	t.Parallel()

	fb := NewFeedback()
	// Overfill well past capacity: posts must never block or fail.
	for i := 0; i < feedbackCapacity*2; i++ {
		fb.Logf("event %d", i)
	}

	var drained int
	for {
		if _, ok := fb.TryRecv(); !ok {
			break
		}
		drained++
	}
	if drained != feedbackCapacity {
		t.Errorf("drained %d messages, want %d (overflow dropped)", drained, feedbackCapacity)
	}
}

func TestFeedbackKinds(t *testing.T) {
	t.Parallel()

	fb := NewFeedback()
	fb.Logf("0x90 0x3C 0x64 (Note On)")
	fb.Errorf("boom: %d", 7)

	msg, _ := fb.TryRecv()
	if log, ok := msg.(Log); !ok || log.Text != "0x90 0x3C 0x64 (Note On)" {
		t.Errorf("first = %#v, want Log", msg)
	}
	msg, _ = fb.TryRecv()
	if e, ok := msg.(Error); !ok || e.Text != "boom: 7" {
		t.Errorf("second = %#v, want Error{boom: 7}", msg)
	}
}
