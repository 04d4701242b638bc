// ABOUTME: PCM format description and sample conversion
// ABOUTME: Decodes 16-bit little-endian PCM and mixes channels to mono
package audio

import (
	"encoding/binary"
	"fmt"
)

const (
	// BytesPerSample is fixed: the input contract is signed 16-bit PCM.
	BytesPerSample = 2

	// MaxSample is the largest positive 16-bit sample value.
	MaxSample = 32767
)

// Format describes the raw PCM stream. The stream itself is not
// self-describing; these values come from configuration.
type Format struct {
	SampleRate int
	Channels   int
}

// Validate checks the format for usable values.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	return nil
}

// BytesPerFrame returns the size of one interleaved sample frame.
func (f Format) BytesPerFrame() int {
	return BytesPerSample * f.Channels
}

// DecodeSamples converts 16-bit little-endian PCM bytes to normalized
// float64 samples in [-1, 1]. Channels remain interleaved.
func DecodeSamples(data []byte) []float64 {
	numSamples := len(data) / BytesPerSample
	samples := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
		samples[i] = float64(s) / 32768.0
	}
	return samples
}

// MixMono averages interleaved channels into a single mono stream.
// Mono input is returned as-is. Trailing samples that do not form a
// complete frame are ignored.
func MixMono(samples []float64, channels int) []float64 {
	if channels <= 1 {
		return samples
	}

	frames := len(samples) / channels
	mono := make([]float64, frames)
	inv := 1.0 / float64(channels)
	for f := 0; f < frames; f++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += samples[f*channels+c]
		}
		mono[f] = sum * inv
	}
	return mono
}
