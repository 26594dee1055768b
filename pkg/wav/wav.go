// Package wav reads and writes the mono 16-bit PCM WAV files
// cmd/mdcmodem uses to carry samples to and from pkg/mdc's Encoder and
// Decoder. It is a thin wrapper over go-audio/wav and go-audio/audio.
package wav

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitsPerSample = 16
	numChannels   = 1
	wavFormat     = 1 // PCM
)

// WriteFile writes samples (signed 16-bit PCM, already in wire order)
// to a new mono WAV file at path, sampled at sampleRate Hz.
func WriteFile(path string, sampleRate int, samples []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wav: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitsPerSample, numChannels, wavFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		SourceBitDepth: bitsPerSample,
		Data:           samples,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: write %s: %w", path, err)
	}
	return enc.Close()
}

// ReadFile reads a mono WAV file at path and returns its PCM samples
// and sample rate.
func ReadFile(path string) ([]int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("wav: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wav: decode %s: %w", path, err)
	}
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("wav: %s is not a valid WAV file", path)
	}

	return buf.Data, buf.Format.SampleRate, nil
}
