// ABOUTME: Tests for input source selection
// ABOUTME: Covers stdin, raw files and the .wav dispatch rule
package source

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/wledfeed/wledfeed-go/pkg/audio"
)

var testFormat = audio.Format{SampleRate: 44100, Channels: 2}

func TestOpenStdin(t *testing.T) {
	for _, path := range []string{"-", ""} {
		src, err := Open(path, testFormat)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", path, err)
		}
		if src == nil {
			t.Fatalf("Open(%q) returned nil source", path)
		}
		src.Close()
	}
}

func TestOpenRawFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.pcm")
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		t.Fatalf("failed to write raw file: %v", err)
	}

	src, err := Open(path, testFormat)
	if err != nil {
		t.Fatalf("failed to open raw file: %v", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("failed to read raw file: %v", err)
	}
	if len(data) != len(payload) {
		t.Errorf("read %d bytes, want %d", len(data), len(payload))
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/no/such/file.pcm", testFormat); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOpenWAVDispatch(t *testing.T) {
	path := writeWAV(t, testFormat.SampleRate, testFormat.Channels, []int{1, 2, 3, 4})

	src, err := Open(path, testFormat)
	if err != nil {
		t.Fatalf("failed to open wav via Open: %v", err)
	}
	defer src.Close()

	if _, ok := src.(*WAVFile); !ok {
		t.Errorf("Open selected %T for a .wav path, want *WAVFile", src)
	}
}
