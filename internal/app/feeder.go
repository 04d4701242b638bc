// ABOUTME: Main pipeline orchestration
// ABOUTME: Pulls PCM blocks through delay, analysis, encoding and dispatch in order
package app

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/wledfeed/wledfeed-go/internal/config"
	"github.com/wledfeed/wledfeed-go/pkg/audio"
	"github.com/wledfeed/wledfeed-go/pkg/dsp"
	"github.com/wledfeed/wledfeed-go/pkg/protocol"
)

// Sender is the dispatch surface the pipeline needs. Satisfied by
// dispatch.Dispatcher.
type Sender interface {
	Send(pkt []byte)
	Sent() uint64
	Errors() uint64
}

// Stats are the pipeline counters surfaced to the UI and final log.
type Stats struct {
	Chunks   uint64 // chunks analyzed and encoded
	Sent     uint64 // datagrams handed to the socket
	Errors   uint64 // failed sends
	Buffered int    // bytes currently held in the delay buffer
}

// Feeder runs the whole signal path on a single goroutine: read a
// block, push it into the delay buffer, and for every released chunk
// analyze, encode and dispatch, strictly in that order. Packets reach
// the network in chunk order; nothing here needs a lock.
type Feeder struct {
	src        io.Reader
	delay      *audio.DelayBuffer
	analyzer   *dsp.Analyzer
	smoother   *dsp.LevelSmoother
	encoder    *protocol.Encoder
	dispatcher Sender
	chunkSize  int

	stats   Stats
	onChunk func(dsp.Features, Stats)
}

// New wires the pipeline from validated configuration. Unicast
// dispatch uses the legacy V1 record; multicast uses the V2 sync
// record the group receivers expect.
func New(cfg *config.Config, src io.Reader, dispatcher Sender) (*Feeder, error) {
	delay, err := audio.NewDelayBuffer(cfg.Audio.BufferSize, cfg.Audio.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("delay buffer: %w", err)
	}

	analyzer, err := dsp.NewAnalyzer(cfg.Format(), cfg.Audio.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	variant := protocol.VariantV1
	if cfg.WLED.Multicast {
		variant = protocol.VariantV2
	}
	encoder, err := protocol.NewEncoder(variant)
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}

	return &Feeder{
		src:        src,
		delay:      delay,
		analyzer:   analyzer,
		smoother:   dsp.NewLevelSmoother(dsp.DefaultSmoothing),
		encoder:    encoder,
		dispatcher: dispatcher,
		chunkSize:  cfg.Audio.ChunkSize,
	}, nil
}

// OnChunk registers a callback invoked after each processed chunk,
// on the pipeline goroutine. Used by the TUI; may stay nil.
func (f *Feeder) OnChunk(fn func(dsp.Features, Stats)) {
	f.onChunk = fn
}

// Run pulls the input until EOF or cancellation. A clean EOF is normal
// termination; partial trailing data is never processed. Any other
// read failure is fatal, since there is no data left to keep going on.
func (f *Feeder) Run(ctx context.Context) error {
	log.Infof("Pipeline running: %d-byte chunks, %d-byte delay (%s packets)",
		f.chunkSize, f.delay.Capacity(), f.encoder.Variant())

	buf := make([]byte, f.chunkSize)
	for {
		select {
		case <-ctx.Done():
			log.Infof("Pipeline stopped after %d chunks", f.stats.Chunks)
			return nil
		default:
		}

		// The only blocking call in the cycle. A stalled source
		// stalls the whole pipeline, which is the intended
		// backpressure for a real-time stream.
		_, err := io.ReadFull(f.src, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			log.Infof("Input stream ended after %d chunks", f.stats.Chunks)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		f.delay.Push(buf)
		for {
			chunk, ok := f.delay.TryPop()
			if !ok {
				break
			}
			f.process(chunk)
		}
	}
}

func (f *Feeder) process(chunk []byte) {
	feat := f.analyzer.Analyze(chunk)
	feat.SmoothedLevel = f.smoother.Next(feat.RawLevel)

	pkt := f.encoder.Encode(feat)
	f.dispatcher.Send(pkt)

	f.stats.Chunks++
	f.stats.Sent = f.dispatcher.Sent()
	f.stats.Errors = f.dispatcher.Errors()
	f.stats.Buffered = f.delay.Len()

	if f.onChunk != nil {
		f.onChunk(feat, f.stats)
	}
}

// Stats returns a snapshot of the pipeline counters.
func (f *Feeder) Stats() Stats {
	return f.stats
}
