package midi

import (
	"fmt"
	"strings"

	"go-pipes/control"
)

// Decode maps a raw status/data byte triplet to a renderer command.
// Status 0x90-0x9F is note-on, 0x80-0x8F note-off; everything else is
// ignored. The status channel nibble is deliberately not used for
// stop/channel routing - routing goes exclusively through
// SetStopChannel.
func Decode(raw []byte) (control.Message, bool) {
	if len(raw) < 3 {
		return nil, false
	}
	switch {
	case raw[0] >= 0x90 && raw[0] <= 0x9F:
		return control.NoteOn{Note: raw[1], Velocity: raw[2]}, true
	case raw[0] >= 0x80 && raw[0] <= 0x8F:
		return control.NoteOff{Note: raw[1]}, true
	}
	return nil, false
}

// FormatEvent renders a raw event as hex bytes plus a coarse
// interpretation, e.g. "0x90 0x3C 0x64 (Note On)".
func FormatEvent(raw []byte) string {
	var b strings.Builder
	for i, by := range raw {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "0x%02X", by)
	}
	if len(raw) == 0 {
		return "(empty)"
	}
	switch {
	case raw[0] >= 0x90 && raw[0] <= 0x9F:
		b.WriteString(" (Note On)")
	case raw[0] >= 0x80 && raw[0] <= 0x8F:
		b.WriteString(" (Note Off)")
	case raw[0] >= 0xB0 && raw[0] <= 0xBF:
		b.WriteString(" (Control Change)")
	case raw[0] >= 0xE0 && raw[0] <= 0xEF:
		b.WriteString(" (Pitch Bend)")
	default:
		b.WriteString(" (Other)")
	}
	return b.String()
}
