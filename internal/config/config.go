// ABOUTME: Typed configuration schema and YAML loader
// ABOUTME: Applies defaults and fails fast on incoherent settings
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/wledfeed/wledfeed-go/pkg/audio"
	"gopkg.in/yaml.v3"
)

// Defaults match the original controller deployment.
const (
	DefaultPort             = 11988
	DefaultMulticastAddress = "239.0.0.1"
	DefaultChannels         = 2
)

// Config is the root configuration, loaded once at startup and passed
// explicitly into the pipeline constructors. It is never mutated after
// Load returns.
type Config struct {
	WLED  WLEDConfig  `yaml:"wled"`
	Audio AudioConfig `yaml:"audio"`
}

// WLEDConfig selects the dispatch destinations. Exactly one mode is
// active per run: a unicast address list, or one multicast group.
type WLEDConfig struct {
	Addresses        AddressList `yaml:"addresses"`
	Port             int         `yaml:"port"`
	Multicast        bool        `yaml:"multicast"`
	MulticastAddress string      `yaml:"multicast_address"`
}

// AudioConfig describes the raw PCM input and the pipeline geometry.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BufferSize int `yaml:"buffer_size"` // delay-buffer capacity, bytes
	ChunkSize  int `yaml:"chunk_size"`  // bytes processed per cycle
}

// AddressList accepts either a YAML sequence of addresses or one
// comma-separated string, the original configuration format.
type AddressList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *AddressList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*a = splitAddresses(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		var out AddressList
		for _, s := range list {
			out = append(out, splitAddresses(s)...)
		}
		*a = out
		return nil
	default:
		return fmt.Errorf("addresses must be a list or a comma-separated string")
	}
}

func splitAddresses(s string) AddressList {
	var out AddressList
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Load reads and validates the YAML configuration file at path.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes the file and applies defaults without validating.
// Callers that fill in destinations from discovery validate afterwards.
func Parse(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := parseReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests with string-literal configs.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg, err := parseReader(r)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.WLED.Port == 0 {
		c.WLED.Port = DefaultPort
	}
	if c.WLED.MulticastAddress == "" {
		c.WLED.MulticastAddress = DefaultMulticastAddress
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = DefaultChannels
	}
}

// Validate checks that the configuration is coherent. All failures are
// joined so a broken config is diagnosable in one pass.
func (c *Config) Validate() error {
	var errs []error

	if c.WLED.Port <= 0 || c.WLED.Port > 65535 {
		errs = append(errs, fmt.Errorf("wled.port %d out of range", c.WLED.Port))
	}

	if c.WLED.Multicast {
		ip := net.ParseIP(c.WLED.MulticastAddress)
		switch {
		case ip == nil:
			errs = append(errs, fmt.Errorf("wled.multicast_address %q is not an IP address", c.WLED.MulticastAddress))
		case !ip.IsMulticast():
			errs = append(errs, fmt.Errorf("wled.multicast_address %q is not a multicast group", c.WLED.MulticastAddress))
		}
	} else {
		if len(c.WLED.Addresses) == 0 {
			errs = append(errs, errors.New("wled.addresses is empty and multicast is disabled"))
		}
		for _, addr := range c.WLED.Addresses {
			if net.ParseIP(addr) == nil {
				errs = append(errs, fmt.Errorf("wled.addresses entry %q is not an IP address", addr))
			}
		}
	}

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", c.Audio.SampleRate))
	}
	if c.Audio.Channels <= 0 {
		errs = append(errs, fmt.Errorf("audio.channels %d must be positive", c.Audio.Channels))
	}

	frameSize := audio.BytesPerSample * c.Audio.Channels
	switch {
	case c.Audio.ChunkSize <= 0:
		errs = append(errs, fmt.Errorf("audio.chunk_size %d must be positive", c.Audio.ChunkSize))
	case c.Audio.Channels > 0 && c.Audio.ChunkSize%frameSize != 0:
		errs = append(errs, fmt.Errorf("audio.chunk_size %d must be a multiple of the %d-byte frame", c.Audio.ChunkSize, frameSize))
	}

	switch {
	case c.Audio.BufferSize <= 0:
		errs = append(errs, fmt.Errorf("audio.buffer_size %d must be positive", c.Audio.BufferSize))
	case c.Audio.ChunkSize > 0 && c.Audio.BufferSize%c.Audio.ChunkSize != 0:
		errs = append(errs, fmt.Errorf("audio.buffer_size %d must be a multiple of chunk_size %d", c.Audio.BufferSize, c.Audio.ChunkSize))
	}

	return errors.Join(errs...)
}

// Format returns the PCM format described by the audio section.
func (c *Config) Format() audio.Format {
	return audio.Format{
		SampleRate: c.Audio.SampleRate,
		Channels:   c.Audio.Channels,
	}
}
