// ABOUTME: Spectral feature extraction for audio-reactive lighting
// ABOUTME: Derives level, peak, 16-band profile, dominant frequency and magnitude sum per chunk
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/wledfeed/wledfeed-go/pkg/audio"
)

const (
	// NumBands is the number of frequency bands in the wire format.
	NumBands = 16

	// Band partition: logarithmic spacing from bandLowHz up to
	// bandHighHz (or Nyquist, whichever is lower). Matches perceptual
	// frequency resolution; the receiver renders bands as bar heights.
	bandLowHz  = 43.0
	bandHighHz = 16000.0

	// epsilon guards normalization against silence.
	epsilon = 1e-9
)

// Features is the per-chunk analysis result. Values are created fresh
// for every chunk and never mutated afterwards. SmoothedLevel is not
// derived from the chunk alone; the pipeline fills it in from its
// level smoother before encoding.
type Features struct {
	RawLevel      float64   // RMS of normalized samples, 0.0-1.0
	SmoothedLevel float64   // exponentially smoothed RawLevel
	PeakLevel     uint8     // max absolute sample scaled to 0-255
	Bands         [16]uint8 // frequency-band magnitudes, 0-255
	DominantFreq  float64   // Hz of the strongest FFT bin
	MagnitudeSum  float64   // unnormalized sum of bin magnitudes
}

// Analyzer converts one fixed-size PCM chunk into Features.
type Analyzer struct {
	format    audio.Format
	chunkSize int
	frames    int // mono samples per chunk, also the FFT size

	// binToBand maps FFT bin index to band index, -1 for bins outside
	// the band range (DC and anything past the top edge).
	binToBand []int
}

// NewAnalyzer creates an analyzer for chunks of chunkSize bytes in the
// given format. The chunk size must be a multiple of the frame size so
// chunks always hold whole interleaved frames.
func NewAnalyzer(format audio.Format, chunkSize int) (*Analyzer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if chunkSize <= 0 || chunkSize%format.BytesPerFrame() != 0 {
		return nil, fmt.Errorf("chunk size %d must be a positive multiple of frame size %d", chunkSize, format.BytesPerFrame())
	}

	frames := chunkSize / format.BytesPerFrame()
	if frames < 2*NumBands {
		return nil, fmt.Errorf("chunk of %d frames is too small to resolve %d bands", frames, NumBands)
	}

	a := &Analyzer{
		format:    format,
		chunkSize: chunkSize,
		frames:    frames,
	}
	a.buildBandMap()
	return a, nil
}

// buildBandMap assigns each FFT bin to a logarithmically spaced band
// by its center frequency.
func (a *Analyzer) buildBandMap() {
	nyquist := float64(a.format.SampleRate) / 2
	high := math.Min(bandHighHz, nyquist)
	logSpan := math.Log(high / bandLowHz)

	numBins := a.frames/2 + 1
	a.binToBand = make([]int, numBins)
	for bin := 0; bin < numBins; bin++ {
		freq := float64(bin) * float64(a.format.SampleRate) / float64(a.frames)
		if bin == 0 || freq < bandLowHz || freq > high {
			a.binToBand[bin] = -1
			continue
		}
		band := int(float64(NumBands) * math.Log(freq/bandLowHz) / logSpan)
		if band >= NumBands {
			band = NumBands - 1
		}
		a.binToBand[bin] = band
	}
}

// Analyze computes the spectral features of one chunk. The chunk must
// be exactly the configured chunk size. An all-zero chunk yields
// all-zero features; normalization never divides by zero.
func (a *Analyzer) Analyze(chunk []byte) Features {
	samples := audio.DecodeSamples(chunk)
	mono := audio.MixMono(samples, a.format.Channels)

	var feat Features

	// Raw level (RMS) and peak over the time-domain chunk.
	sumSq := 0.0
	peak := 0.0
	for _, s := range mono {
		sumSq += s * s
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	feat.RawLevel = math.Sqrt(sumSq / float64(len(mono)))
	feat.PeakLevel = clampByte(peak * 255)

	// Windowed FFT. The Hann window reduces spectral leakage so the
	// dominant bin stays sharp for tonal input.
	windowed := make([]float64, len(mono))
	copy(windowed, mono)
	window.Apply(windowed, window.Hann)
	spectrum := fft.FFTReal(windowed)

	numBins := a.frames/2 + 1
	maxMag := 0.0
	maxBin := 0
	var bandMags [NumBands]float64
	for bin := 0; bin < numBins; bin++ {
		mag := cmplx.Abs(spectrum[bin])
		feat.MagnitudeSum += mag
		if mag > maxMag {
			maxMag = mag
			maxBin = bin
		}
		if band := a.binToBand[bin]; band >= 0 {
			bandMags[band] += mag
		}
	}

	if maxMag > epsilon {
		feat.DominantFreq = float64(maxBin) * float64(a.format.SampleRate) / float64(a.frames)
	}

	// Per-chunk peak normalization: the loudest band maps to 255.
	// Deterministic, and silence stays all-zero.
	maxBand := 0.0
	for _, m := range bandMags {
		if m > maxBand {
			maxBand = m
		}
	}
	if maxBand > epsilon {
		for i, m := range bandMags {
			feat.Bands[i] = clampByte(m * 255 / maxBand)
		}
	}

	return feat
}

// Frames returns the number of mono frames per chunk (the FFT size).
func (a *Analyzer) Frames() int {
	return a.frames
}

// BinResolution returns the frequency width of one FFT bin in Hz.
func (a *Analyzer) BinResolution() float64 {
	return float64(a.format.SampleRate) / float64(a.frames)
}

func clampByte(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}
