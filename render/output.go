package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ebitengine/oto/v3"

	"go-pipes/control"
	"go-pipes/debug"
	"go-pipes/organ"
)

const (
	sampleRate   = 44100
	channelCount = 2
)

// Handle owns the audio output stream. Closing it tears down the
// player and disconnects the consumer side of the bus; producers then
// see ErrBusClosed, which only happens during shutdown.
type Handle struct {
	ctx    *oto.Context
	player *oto.Player
	bus    *control.Bus
	engine *Engine
	buf    []float32
}

// Start opens the audio device and begins consuming the bus. The
// device pulls through Read, so draining happens once per render
// period on the device's schedule.
func Start(bus *control.Bus, o *organ.Organ, src Source) (*Handle, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}
	<-ready

	h := &Handle{
		ctx:    ctx,
		bus:    bus,
		engine: NewEngine(bus, o, src),
		buf:    make([]float32, 4096),
	}
	h.player = ctx.NewPlayer(h)
	h.player.Play()
	debug.Log("render", "audio output started (%d Hz, %d ch)", sampleRate, channelCount)
	return h, nil
}

// Read is the render period entry point. It must never block: the
// drain is non-blocking and bounded, and the Source contract forbids
// blocking too.
func (h *Handle) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	if len(h.buf) < numSamples {
		h.buf = make([]float32, numSamples)
	}
	samples := h.buf[:numSamples]

	h.engine.Process(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:i*4+4], math.Float32bits(s))
	}
	return numSamples * 4, nil
}

// Close stops playback and disconnects from the bus.
func (h *Handle) Close() {
	h.player.Close()
	h.bus.Close()
	debug.Log("render", "audio output stopped")
}
