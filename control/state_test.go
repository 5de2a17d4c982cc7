package control

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func drainToggles(t *testing.T, bus *Bus) []StopToggle {
	t.Helper()
	var out []StopToggle
	for {
		msg, ok := bus.TryRecv()
		if !ok {
			return out
		}
		st, ok := msg.(StopToggle)
		if !ok {
			t.Fatalf("unexpected message %#v", msg)
		}
		out = append(out, st)
	}
}

func TestSetStopChannelToggleSequence(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	s := NewState(3, bus)

	// Same pair toggled repeatedly: final membership equals the last
	// call's value, one message per call.
	seq := []bool{true, true, false, true, false, false}
	for _, active := range seq {
		if err := s.SetStopChannel(1, 0, active); err != nil {
			t.Fatalf("SetStopChannel() error = %v", err)
		}
	}

	if s.IsActive(1, 0) {
		t.Error("final membership = active, want inactive")
	}
	toggles := drainToggles(t, bus)
	if len(toggles) != len(seq) {
		t.Fatalf("emitted %d messages, want %d", len(toggles), len(seq))
	}
	for i, want := range seq {
		got := toggles[i]
		if got.Stop != 1 || got.Channel != 0 || got.Active != want {
			t.Errorf("message %d = %+v, want {1 0 %v}", i, got, want)
		}
	}
}

func TestRedundantEnableEmitsActive(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	s := NewState(3, bus)

	for i := 0; i < 2; i++ {
		if err := s.SetStopChannel(1, 0, true); err != nil {
			t.Fatal(err)
		}
	}

	if got := s.ActiveChannels(1); len(got) != 1 || got[0] != 0 {
		t.Errorf("ActiveChannels(1) = %v, want [0]", got)
	}
	toggles := drainToggles(t, bus)
	if len(toggles) != 2 {
		t.Fatalf("emitted %d messages, want 2", len(toggles))
	}
	for i, st := range toggles {
		if !st.Active {
			t.Errorf("message %d reports inactive, want active after redundant enable", i)
		}
	}
}

func TestSetStopChannelBounds(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	s := NewState(3, bus)

	if err := s.SetStopChannel(3, 0, true); !errors.Is(err, ErrStopIndex) {
		t.Errorf("stop 3 of 3: error = %v, want ErrStopIndex", err)
	}
	if err := s.SetStopChannel(-1, 0, true); !errors.Is(err, ErrStopIndex) {
		t.Errorf("stop -1: error = %v, want ErrStopIndex", err)
	}
	if err := s.SetStopChannel(0, 16, true); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("channel 16: error = %v, want ErrInvalidChannel", err)
	}
	if err := s.SetStopChannel(0, -1, true); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("channel -1: error = %v, want ErrInvalidChannel", err)
	}
	if err := s.SetStopChannel(2, 0, true); err != nil {
		t.Errorf("stop 2 of 3 (boundary): error = %v, want nil", err)
	}
	if err := s.SetStopChannel(0, 15, true); err != nil {
		t.Errorf("channel 15 (boundary): error = %v, want nil", err)
	}

	// Failed calls emit nothing.
	if toggles := drainToggles(t, bus); len(toggles) != 2 {
		t.Errorf("emitted %d messages, want 2 (from the two valid calls)", len(toggles))
	}
}

func TestBusClosedKeepsStateChange(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	s := NewState(3, bus)
	bus.Close()

	err := s.SetStopChannel(0, 0, true)
	if !errors.Is(err, ErrBusClosed) {
		t.Fatalf("error = %v, want ErrBusClosed", err)
	}
	// State and delivery are not transactional: the edit stays.
	if !s.IsActive(0, 0) {
		t.Error("state change rolled back on bus failure")
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	s := NewState(3, bus)
	mustSet := func(stop, ch int, active bool) {
		t.Helper()
		if err := s.SetStopChannel(stop, ch, active); err != nil {
			t.Fatal(err)
		}
	}
	mustSet(0, 3, true)
	mustSet(2, 0, true)
	mustSet(2, 15, true)
	mustSet(2, 0, false)

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d stops, want 3", len(snap))
	}
	if len(snap[0]) != 1 || snap[0][0] != 3 {
		t.Errorf("stop 0 = %v, want [3]", snap[0])
	}
	if snap[1] != nil {
		t.Errorf("stop 1 = %v, want nil", snap[1])
	}
	if len(snap[2]) != 1 || snap[2][0] != 15 {
		t.Errorf("stop 2 = %v, want [15]", snap[2])
	}
}

func TestConcurrentProducers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	s := NewState(4, bus)

	const producers = 4
	const perProducer = 50

	// Consumer drains continuously so producers never hit a full bus.
	var consumed int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for consumed < producers*perProducer {
			if _, ok := bus.TryRecv(); ok {
				consumed++
			}
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := s.SetStopChannel(p, i%16, i%2 == 0); err != nil {
					t.Errorf("producer %d: %v", p, err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	<-done

	if consumed != producers*perProducer {
		t.Errorf("consumed %d messages, want %d", consumed, producers*perProducer)
	}
}

func TestLogRing(t *testing.T) {
	t.Parallel()

	s := NewState(1, NewBus())
	for i := 0; i < LogCapacity+2; i++ {
		s.AddLog(fmt.Sprintf("line %d", i))
	}

	logs := s.Logs()
	if len(logs) != LogCapacity {
		t.Fatalf("log holds %d lines, want %d", len(logs), LogCapacity)
	}
	if logs[0] != "line 2" {
		t.Errorf("oldest line = %q, want %q (oldest evicted first)", logs[0], "line 2")
	}
	if logs[LogCapacity-1] != fmt.Sprintf("line %d", LogCapacity+1) {
		t.Errorf("newest line = %q", logs[LogCapacity-1])
	}
}

func TestErrorSlot(t *testing.T) {
	t.Parallel()

	s := NewState(1, NewBus())
	s.SetError("first")
	s.SetError("second")
	if got := s.LastError(); got != "second" {
		t.Errorf("LastError() = %q, want most recent", got)
	}
	s.ClearError()
	if got := s.LastError(); got != "" {
		t.Errorf("LastError() after clear = %q, want empty", got)
	}
}
