// ABOUTME: Fixed-delay byte FIFO for aligning the light show with audio
// ABOUTME: Releases chunks only once the configured backlog is held
package audio

import "fmt"

// DelayBuffer is a byte FIFO that holds back a constant backlog so the
// packet stream lags the audio input by exactly its capacity. It is
// owned by the single pipeline goroutine; no locking.
type DelayBuffer struct {
	capacity  int
	chunkSize int
	buf       []byte
	start     int
}

// NewDelayBuffer creates a delay buffer. Capacity must be a positive
// multiple of chunkSize so pops never straddle the delay boundary.
func NewDelayBuffer(capacity, chunkSize int) (*DelayBuffer, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if capacity <= 0 || capacity%chunkSize != 0 {
		return nil, fmt.Errorf("capacity %d must be a positive multiple of chunk size %d", capacity, chunkSize)
	}

	return &DelayBuffer{
		capacity:  capacity,
		chunkSize: chunkSize,
		buf:       make([]byte, 0, capacity+chunkSize),
	}, nil
}

// Push appends bytes at the tail. The buffer grows as needed; bytes
// are never dropped, since dropped audio would desynchronize
// channel/sample alignment.
func (d *DelayBuffer) Push(p []byte) {
	d.buf = append(d.buf, p...)
}

// TryPop removes and returns the oldest chunk, but only while the
// buffer holds at least its full capacity. Before that threshold no
// data is released, which is what produces the fixed output delay.
func (d *DelayBuffer) TryPop() ([]byte, bool) {
	if len(d.buf)-d.start < d.capacity {
		return nil, false
	}

	chunk := make([]byte, d.chunkSize)
	copy(chunk, d.buf[d.start:])
	d.start += d.chunkSize

	// Compact once the dead prefix reaches one full capacity.
	if d.start >= d.capacity {
		n := copy(d.buf, d.buf[d.start:])
		d.buf = d.buf[:n]
		d.start = 0
	}

	return chunk, true
}

// Len returns the number of bytes currently held.
func (d *DelayBuffer) Len() int {
	return len(d.buf) - d.start
}

// Capacity returns the configured delay in bytes.
func (d *DelayBuffer) Capacity() int {
	return d.capacity
}
