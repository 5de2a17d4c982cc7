package organ

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go-pipes/wavconv"
)

func TestManifestLoader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := `{
		"name": "Chapel",
		"stops": [
			{"name": "Principal 8'", "samples": ["principal/c3.wav"]},
			{"name": "Gedackt 8'", "samples": []}
		]
	}`
	path := filepath.Join(dir, "chapel.json")
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	o, err := ManifestLoader{}.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if o.Name != "Chapel" {
		t.Errorf("name = %q, want Chapel", o.Name)
	}
	if len(o.Stops) != 2 || o.Stops[0].Name != "Principal 8'" {
		t.Errorf("stops = %+v", o.Stops)
	}
	if got := o.Stops[0].SampleRefs; len(got) != 1 || got[0] != "principal/c3.wav" {
		t.Errorf("sample refs = %v", got)
	}
}

func TestManifestLoaderErrors(t *testing.T) {
	t.Parallel()

	if _, err := (ManifestLoader{}).Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file: want error")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := (ManifestLoader{}).Load(bad); err == nil {
		t.Error("invalid JSON: want error")
	}
}

// write24BitWav creates a minimal 24-bit mono WAV at path.
func write24BitWav(t *testing.T, path string) {
	t.Helper()
	data := []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}
	body := make([]byte, 0, 64)
	body = append(body, "WAVE"...)
	body = append(body, "fmt "...)
	body = binary.LittleEndian.AppendUint32(body, 16)
	body = binary.LittleEndian.AppendUint16(body, 1)
	body = binary.LittleEndian.AppendUint16(body, 1)
	body = binary.LittleEndian.AppendUint32(body, 44100)
	body = binary.LittleEndian.AppendUint32(body, 44100*3)
	body = binary.LittleEndian.AppendUint16(body, 3)
	body = binary.LittleEndian.AppendUint16(body, 24)
	body = append(body, "data"...)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(data)))
	body = append(body, data...)

	file := append([]byte("RIFF"), binary.LittleEndian.AppendUint32(nil, uint32(len(body)))...)
	file = append(file, body...)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, file, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPrepareSamples(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write24BitWav(t, filepath.Join(dir, "principal", "c3.wav"))

	o := &Organ{
		Name: "Chapel",
		Stops: []Stop{
			{Name: "Principal 8'", SampleRefs: []string{filepath.Join("principal", "c3.wav")}},
		},
	}
	if err := PrepareSamples(o, dir); err != nil {
		t.Fatalf("PrepareSamples() error = %v", err)
	}

	want := filepath.Join("principal", "c3.wav.16.wav")
	if got := o.Stops[0].SampleRefs[0]; got != want {
		t.Errorf("sample ref = %q, want rewritten to %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
		t.Errorf("converted file missing: %v", err)
	}
}

func TestPrepareSamplesMissingFile(t *testing.T) {
	t.Parallel()

	o := &Organ{
		Stops: []Stop{
			{Name: "Ghost", SampleRefs: []string{"nope.wav"}},
		},
	}
	err := PrepareSamples(o, t.TempDir())
	if !errors.Is(err, wavconv.ErrNotFound) {
		t.Errorf("error = %v, want wavconv.ErrNotFound", err)
	}
}
