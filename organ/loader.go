package organ

import (
	"encoding/json"
	"fmt"
	"os"

	"go-pipes/wavconv"
)

// ManifestLoader reads a JSON organ manifest. It stands in for the
// full instrument-definition parser, which is out of this core's
// scope; anything satisfying Loader can replace it.
type ManifestLoader struct{}

func (ManifestLoader) Load(path string) (*Organ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read organ definition: %w", err)
	}
	var o Organ
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse organ definition %s: %w", path, err)
	}
	if o.Name == "" {
		o.Name = "Unnamed organ"
	}
	return &o, nil
}

// PrepareSamples runs every sample reference through the normalization
// codec, rewriting refs in place to point at the 16-bit files the
// renderer will play. It must be called during loading, before the
// organ is shared. The first failing file aborts the whole
// preparation; skipping individual stops is the caller's call to make
// by filtering beforehand.
func PrepareSamples(o *Organ, baseDir string) error {
	for si := range o.Stops {
		stop := &o.Stops[si]
		for ri, ref := range stop.SampleRefs {
			normalized, err := wavconv.Normalize(ref, baseDir)
			if err != nil {
				return fmt.Errorf("stop %q sample %s: %w", stop.Name, ref, err)
			}
			stop.SampleRefs[ri] = normalized
		}
	}
	return nil
}
