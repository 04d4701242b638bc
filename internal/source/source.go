// ABOUTME: Input-stream collaborators feeding the pipeline
// ABOUTME: Selects between raw PCM readers and WAV file decoding
package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wledfeed/wledfeed-go/pkg/audio"
)

// StdinPath selects standard input, the usual hookup when an AirPlay
// receiver pipes its output into this process.
const StdinPath = "-"

// Open returns a byte-block source for the given input path. The
// pipeline needs nothing more than an io.ReadCloser producing raw
// interleaved 16-bit PCM in the configured format; how those bytes are
// acquired is this package's concern alone.
func Open(path string, format audio.Format) (io.ReadCloser, error) {
	if path == StdinPath || path == "" {
		return io.NopCloser(os.Stdin), nil
	}

	if strings.HasSuffix(strings.ToLower(path), ".wav") {
		return OpenWAV(path, format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", path, err)
	}
	return f, nil
}
