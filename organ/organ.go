// Package organ holds the immutable instrument definition. An Organ is
// loaded once at startup and then shared read-only by every goroutine,
// so no locking applies to it.
package organ

// Stop is a named instrument voice with its sample file references,
// relative to the instrument's base directory.
type Stop struct {
	Name       string   `json:"name"`
	SampleRefs []string `json:"samples"`
}

// Organ is a named, ordered sequence of stops.
type Organ struct {
	Name  string `json:"name"`
	Stops []Stop `json:"stops"`
}

// Loader parses an instrument definition file. The full organ-format
// parser is an external collaborator; this package only fixes its
// surface.
type Loader interface {
	Load(path string) (*Organ, error)
}
