// ABOUTME: Entry point for the wledfeed audio-reactive bridge
// ABOUTME: Parses CLI flags, wires the pipeline and handles shutdown
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/wledfeed/wledfeed-go/internal/app"
	"github.com/wledfeed/wledfeed-go/internal/config"
	"github.com/wledfeed/wledfeed-go/internal/discovery"
	"github.com/wledfeed/wledfeed-go/internal/dispatch"
	"github.com/wledfeed/wledfeed-go/internal/source"
	"github.com/wledfeed/wledfeed-go/internal/ui"
	"github.com/wledfeed/wledfeed-go/internal/version"
	"github.com/wledfeed/wledfeed-go/pkg/dsp"
)

var (
	configPath = flag.String("config", "wledfeed.yaml", "Configuration file path")
	inputPath  = flag.String("input", "-", "Audio input: '-' for stdin, a raw PCM file, or a .wav file")
	discover   = flag.Bool("discover", false, "Browse mDNS for WLED controllers when no addresses are configured")
	discoverS  = flag.Int("discover-timeout", 3, "Discovery browse window in seconds")
	useTUI     = flag.Bool("tui", false, "Show the spectrum TUI (logs then go to the log file only)")
	logFile    = flag.String("log-file", "", "Log file path (default: stdout)")
	logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	setupLogging()

	cfg, err := config.Parse(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if *discover && !cfg.WLED.Multicast && len(cfg.WLED.Addresses) == 0 {
		log.Infof("No addresses configured, browsing mDNS for WLED controllers...")
		controllers, err := discovery.Browse(time.Duration(*discoverS) * time.Second)
		if err != nil {
			log.Warnf("Discovery error: %v", err)
		}
		if len(controllers) == 0 {
			log.Fatalf("No WLED controllers found after %ds", *discoverS)
		}
		cfg.WLED.Addresses = discovery.Addresses(controllers)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	dispatcher, err := dispatch.New(dispatch.Config{
		Addresses:        cfg.WLED.Addresses,
		Port:             cfg.WLED.Port,
		Multicast:        cfg.WLED.Multicast,
		MulticastAddress: cfg.WLED.MulticastAddress,
	})
	if err != nil {
		log.Fatalf("Dispatch setup failed: %v", err)
	}
	defer dispatcher.Close()

	src, err := source.Open(*inputPath, cfg.Format())
	if err != nil {
		log.Fatalf("Input setup failed: %v", err)
	}
	defer src.Close()

	feeder, err := app.New(cfg, src, dispatcher)
	if err != nil {
		log.Fatalf("Pipeline setup failed: %v", err)
	}

	log.Infof("Starting %s %s", version.Product, version.Version)
	log.Infof("Sending to %s", dispatcher.Destinations())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Infof("Received %v signal, shutting down", sig)
		cancel()
	}()

	var tuiProg *tea.Program
	if *useTUI {
		formatDesc := fmt.Sprintf("%dHz %dch s16le, %s", cfg.Audio.SampleRate, cfg.Audio.Channels, *inputPath)
		keyboard := *inputPath != source.StdinPath && *inputPath != ""
		tuiProg = ui.Run(dispatcher.Destinations(), formatDesc, cfg.Audio.BufferSize, keyboard)

		feeder.OnChunk(func(feat dsp.Features, stats app.Stats) {
			tuiProg.Send(ui.StatusMsg{Features: feat, Stats: stats})
		})

		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			cancel()
		}()
	}

	runErr := feeder.Run(ctx)

	if tuiProg != nil {
		tuiProg.Quit()
	}

	if runErr != nil {
		log.Fatalf("Pipeline error: %v", runErr)
	}

	stats := feeder.Stats()
	log.Infof("Done: %d chunks processed, %d packets sent, %d send errors",
		stats.Chunks, stats.Sent, stats.Errors)
}

// setupLogging configures logrus level and destination. With the TUI
// active the terminal belongs to the spectrum view, so logs are
// written to the log file only (or discarded without one).
func setupLogging() {
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	var out io.Writer = os.Stdout
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		if *useTUI {
			out = f
		} else {
			out = io.MultiWriter(os.Stdout, f)
		}
	} else if *useTUI {
		out = io.Discard
	}
	log.SetOutput(out)
}
