// Package wavconv normalizes organ sample files to 16-bit PCM before
// playback. 24-bit sources are converted once and cached next to the
// original; 16-bit sources pass through untouched. Chunks the codec
// does not understand (loop points, sampler metadata) are preserved
// byte-exact in the converted file.
package wavconv

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Format holds the fmt-chunk fields the codec cares about. Byte rate
// and block align are re-derived from these, never trusted from the
// source.
type Format struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// foreignChunk is any chunk other than fmt and data, kept verbatim.
type foreignChunk struct {
	id   [4]byte
	data []byte
}

// parsedWav is the result of one scan over the container. The data
// chunk is never buffered; only its position and declared length are
// recorded, since sample files can be arbitrarily large.
type parsedWav struct {
	format     Format
	dataOffset int64
	dataSize   uint32
	foreign    []foreignChunk
}

// Normalize checks the sample at relPath (relative to baseDir). A
// 24-bit file is converted to a 16-bit copy and the copy's relative
// path is returned; a 16-bit file is returned as-is with no write.
// When the converted file already exists it is returned immediately
// without re-validating its contents.
func Normalize(relPath, baseDir string) (string, error) {
	fullPath := filepath.Join(baseDir, relPath)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, fullPath)
		}
		return "", fmt.Errorf("stat %s: %w", fullPath, err)
	}

	newRel := CachePath(relPath)
	newFull := filepath.Join(baseDir, newRel)
	if _, err := os.Stat(newFull); err == nil {
		return newRel, nil
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fullPath, err)
	}
	defer f.Close()

	pw, err := parse(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", fullPath, err)
	}

	switch pw.format.BitsPerSample {
	case 16:
		return relPath, nil
	case 24:
		if err := convert(f, pw, newFull); err != nil {
			return "", fmt.Errorf("convert %s: %w", fullPath, err)
		}
		return newRel, nil
	default:
		return "", fmt.Errorf("%w: %d in %s", ErrUnsupportedFormat, pw.format.BitsPerSample, fullPath)
	}
}

// CachePath derives the converted file's relative path from the
// source's. A name with extension E gets ".16.wav" appended after E
// ("sample.wav" -> "sample.wav.16.wav"); a name without extension maps
// to plain "16.wav" in the same directory.
func CachePath(relPath string) string {
	dir, name := filepath.Split(relPath)
	if filepath.Ext(name) == "" {
		return filepath.Join(dir, "16.wav")
	}
	return relPath + ".16.wav"
}

func parse(r io.ReadSeeker) (*parsedWav, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: short RIFF header", ErrMalformed)
	}
	if string(hdr[0:4]) != "RIFF" {
		return nil, fmt.Errorf("%w: not a RIFF file", ErrMalformed)
	}
	// hdr[4:8] is the stored total size; ignored, the scan walks to EOF.
	if string(hdr[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a WAVE file", ErrMalformed)
	}

	pw := &parsedWav{dataOffset: -1}
	haveFmt := false

	for {
		var ch [8]byte
		_, err := io.ReadFull(r, ch[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: truncated chunk header", ErrMalformed)
		}

		size := binary.LittleEndian.Uint32(ch[4:8])
		start, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}
		// Payloads are padded to an even boundary.
		next := start + int64(size) + int64(size%2)

		switch string(ch[0:4]) {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk of %d bytes", ErrMalformed, size)
			}
			var raw [16]byte
			if _, err := io.ReadFull(r, raw[:]); err != nil {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrMalformed)
			}
			pw.format = Format{
				AudioFormat:   binary.LittleEndian.Uint16(raw[0:2]),
				NumChannels:   binary.LittleEndian.Uint16(raw[2:4]),
				SampleRate:    binary.LittleEndian.Uint32(raw[4:8]),
				BitsPerSample: binary.LittleEndian.Uint16(raw[14:16]),
			}
			haveFmt = true
		case "data":
			pw.dataOffset = start
			pw.dataSize = size
		default:
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("%w: truncated %q chunk", ErrMalformed, ch[0:4])
			}
			var id [4]byte
			copy(id[:], ch[0:4])
			pw.foreign = append(pw.foreign, foreignChunk{id: id, data: data})
		}

		if _, err := r.Seek(next, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: no fmt chunk", ErrMissingChunk)
	}
	if pw.dataOffset < 0 {
		return nil, fmt.Errorf("%w: no data chunk", ErrMissingChunk)
	}
	return pw, nil
}

// sampleBatch is how many 24-bit samples are converted per read.
const sampleBatch = 4096

// convert writes the 16-bit version of src to dstPath. Output chunk
// order is canonical regardless of the source: fmt, foreign chunks in
// first-seen order, data. The file is written under a temporary name
// and renamed into place so a failed conversion never leaves a
// half-written cache file.
func convert(src io.ReadSeeker, pw *parsedWav, dstPath string) error {
	numSamples := pw.dataSize / 3
	newDataSize := numSamples * 2
	blockAlign := pw.format.NumChannels * 2
	byteRate := pw.format.SampleRate * uint32(blockAlign)

	var foreignTotal uint32
	for _, c := range pw.foreign {
		n := uint32(len(c.data))
		foreignTotal += 8 + n + n%2
	}
	riffSize := 4 + (8 + 16) + foreignTotal + (8 + newDataSize)

	tmpPath := dstPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}
	ok := false
	defer func() {
		out.Close()
		if !ok {
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(out)

	header := make([]byte, 36)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], riffSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // minimal PCM descriptor
	binary.LittleEndian.PutUint16(header[20:22], pw.format.AudioFormat)
	binary.LittleEndian.PutUint16(header[22:24], pw.format.NumChannels)
	binary.LittleEndian.PutUint32(header[24:28], pw.format.SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var chunkHdr [8]byte
	for _, c := range pw.foreign {
		copy(chunkHdr[0:4], c.id[:])
		binary.LittleEndian.PutUint32(chunkHdr[4:8], uint32(len(c.data)))
		if _, err := w.Write(chunkHdr[:]); err != nil {
			return fmt.Errorf("write chunk header: %w", err)
		}
		if _, err := w.Write(c.data); err != nil {
			return fmt.Errorf("write %q chunk: %w", c.id, err)
		}
		if len(c.data)%2 != 0 {
			if err := w.WriteByte(0); err != nil {
				return fmt.Errorf("write padding: %w", err)
			}
		}
	}

	copy(chunkHdr[0:4], "data")
	binary.LittleEndian.PutUint32(chunkHdr[4:8], newDataSize)
	if _, err := w.Write(chunkHdr[:]); err != nil {
		return fmt.Errorf("write data header: %w", err)
	}

	if _, err := src.Seek(pw.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek data: %w", err)
	}
	br := bufio.NewReader(src)

	inBuf := make([]byte, sampleBatch*3)
	outBuf := make([]byte, sampleBatch*2)
	remaining := numSamples
	for remaining > 0 {
		batch := uint32(sampleBatch)
		if remaining < batch {
			batch = remaining
		}
		if _, err := io.ReadFull(br, inBuf[:batch*3]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return fmt.Errorf("%w: data chunk shorter than declared", ErrMalformed)
			}
			return fmt.Errorf("read samples: %w", err)
		}
		for i := uint32(0); i < batch; i++ {
			in := inBuf[i*3 : i*3+3]
			v := int32(in[0]) | int32(in[1])<<8 | int32(in[2])<<16
			// Sign-extend from 24 bits, then keep the top 16. Plain
			// truncation, no dithering.
			v = (v << 8) >> 8
			binary.LittleEndian.PutUint16(outBuf[i*2:i*2+2], uint16(int16(v>>8)))
		}
		if _, err := w.Write(outBuf[:batch*2]); err != nil {
			return fmt.Errorf("write samples: %w", err)
		}
		remaining -= batch
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}
	ok = true
	return nil
}
