// ABOUTME: WAV file input source
// ABOUTME: Streams 16-bit PCM out of a WAV container as raw interleaved bytes
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/wledfeed/wledfeed-go/pkg/audio"
)

// wavReadSamples is the decode granularity in samples.
const wavReadSamples = 4096

// WAVFile yields the raw interleaved sample bytes of a 16-bit PCM WAV
// file, after verifying the container matches the configured format.
// Handy for driving a light rig without a live audio pipe.
type WAVFile struct {
	f       *os.File
	dec     *wav.Decoder
	buf     *gaudio.IntBuffer
	pending []byte
}

// OpenWAV opens path and validates it against the expected format.
// Mismatched rate or channel count fails here rather than producing a
// silently mistimed light show.
func OpenWAV(path string, format audio.Format) (*WAVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav %q: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%q is not a valid WAV file", path)
	}
	if dec.BitDepth != 16 {
		f.Close()
		return nil, fmt.Errorf("%q is %d-bit; only 16-bit PCM is supported", path, dec.BitDepth)
	}
	if int(dec.SampleRate) != format.SampleRate {
		f.Close()
		return nil, fmt.Errorf("%q sample rate %d does not match configured %d", path, dec.SampleRate, format.SampleRate)
	}
	if int(dec.NumChans) != format.Channels {
		f.Close()
		return nil, fmt.Errorf("%q has %d channels, configured for %d", path, dec.NumChans, format.Channels)
	}

	return &WAVFile{
		f:   f,
		dec: dec,
		buf: &gaudio.IntBuffer{
			Data:   make([]int, wavReadSamples),
			Format: &gaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		},
	}, nil
}

// Read implements io.Reader, producing little-endian 16-bit PCM bytes.
func (w *WAVFile) Read(p []byte) (int, error) {
	for len(w.pending) == 0 {
		n, err := w.dec.PCMBuffer(w.buf)
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("decode wav: %w", err)
		}
		if n == 0 {
			return 0, io.EOF
		}
		w.pending = make([]byte, n*audio.BytesPerSample)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint16(w.pending[i*audio.BytesPerSample:], uint16(int16(w.buf.Data[i])))
		}
	}

	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

// Close releases the underlying file.
func (w *WAVFile) Close() error {
	return w.f.Close()
}
