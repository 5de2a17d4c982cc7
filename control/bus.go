package control

import (
	"fmt"
	"sync"
)

// Bus capacity is generous on purpose: a full bus would stall the MIDI
// driver callback, which must never block materially.
const busCapacity = 256

// Bus is the one-way command channel from control producers to the
// audio renderer. Sends are FIFO per producer; the consumer drains
// without blocking.
type Bus struct {
	ch        chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewBus() *Bus {
	return &Bus{
		ch:   make(chan Message, busCapacity),
		done: make(chan struct{}),
	}
}

// Send delivers m to the consumer. It returns ErrBusClosed once the
// consumer side has disconnected, which is expected only during
// shutdown.
func (b *Bus) Send(m Message) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}
	select {
	case b.ch <- m:
		return nil
	case <-b.done:
		return ErrBusClosed
	}
}

// TryRecv returns the next pending message without blocking.
func (b *Bus) TryRecv() (Message, bool) {
	select {
	case m := <-b.ch:
		return m, true
	default:
		return nil, false
	}
}

// Close disconnects the consumer side. Pending messages are dropped;
// subsequent sends fail with ErrBusClosed. Safe to call more than once.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

const feedbackCapacity = 64

// Feedback carries Log and Error messages back to the console. Posting
// never blocks a producer; a message that does not fit is silently
// dropped.
type Feedback struct {
	ch chan FeedbackMessage
}

func NewFeedback() *Feedback {
	return &Feedback{ch: make(chan FeedbackMessage, feedbackCapacity)}
}

// Post enqueues msg if there is room and discards it otherwise.
func (f *Feedback) Post(msg FeedbackMessage) {
	select {
	case f.ch <- msg:
	default:
	}
}

// Logf posts a formatted Log message.
func (f *Feedback) Logf(format string, args ...any) {
	f.Post(Log{Text: fmt.Sprintf(format, args...)})
}

// Errorf posts a formatted Error message.
func (f *Feedback) Errorf(format string, args ...any) {
	f.Post(Error{Text: fmt.Sprintf(format, args...)})
}

// TryRecv returns the next pending feedback message without blocking.
func (f *Feedback) TryRecv() (FeedbackMessage, bool) {
	select {
	case m := <-f.ch:
		return m, true
	default:
		return nil, false
	}
}
