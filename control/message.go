package control

// Message is a command for the audio renderer. Producers (MIDI input,
// console, HTTP API) construct messages; the renderer drains them from
// the Bus once per render period.
type Message interface {
	isMessage()
}

// NoteOn is a raw performance event passed through to the renderer.
// It carries no channel-activation semantics.
type NoteOn struct {
	Note     uint8
	Velocity uint8
}

// NoteOff releases a note previously started by NoteOn.
type NoteOff struct {
	Note uint8
}

// StopToggle reports the activation state of one stop/channel pair
// after an edit. It is emitted for every accepted SetStopChannel call,
// including redundant ones, so consumers must apply it idempotently.
type StopToggle struct {
	Stop    int
	Channel int
	Active  bool
}

// Quit asks the renderer to wind down. The console sends it exactly
// once, on exit, and performs no further sends afterwards.
type Quit struct{}

func (NoteOn) isMessage()     {}
func (NoteOff) isMessage()    {}
func (StopToggle) isMessage() {}
func (Quit) isMessage()       {}

// FeedbackMessage travels the opposite direction: from producers back
// to the console, which displays logs and errors.
type FeedbackMessage interface {
	isFeedback()
}

// Log is a human-readable description of an event.
type Log struct {
	Text string
}

// Error is shown in the console's dedicated error slot.
type Error struct {
	Text string
}

func (Log) isFeedback()   {}
func (Error) isFeedback() {}
