package device

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/robotalks/fbrpc/pkg/display"
	"github.com/robotalks/fbrpc/pkg/framework"
	"github.com/robotalks/fbrpc/pkg/rpc"
)

// EnvLink overrides the link URL from the environment.
const EnvLink = "LCDSIM_LINK"

// PayloadSlack is the room for request framing around a full image.
const PayloadSlack = 256

// Config defines the configurations of the emulated device.
type Config struct {
	Link          string        `toml:"link"`
	DeviceID      string        `toml:"device_id"`
	Width         int           `toml:"width"`
	Height        int           `toml:"height"`
	MaxPayload    int           `toml:"max_payload"`
	RingSize      int           `toml:"ring_size"`
	ResponseLimit int           `toml:"response_limit"`
	PollInterval  time.Duration `toml:"poll_interval"`
	DefaultImage  string        `toml:"default_image"`
	Snapshot      string        `toml:"snapshot"`
	MetricsAddr   string        `toml:"metrics_addr"`
}

var (
	defaultConfig = builtinDefaults()
	configFile    string
)

func builtinDefaults() Config {
	return Config{
		Link:          "tcp://127.0.0.1:3456",
		Width:         display.DefaultWidth,
		Height:        display.DefaultHeight,
		ResponseLimit: rpc.DefaultResponseLimit,
		PollInterval:  framework.DefaultInterval,
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", "", "TOML config file, flags override its values.")
	setupFlagsOn(flag.CommandLine, &defaultConfig)
}

func setupFlagsOn(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Link, "link", c.Link, "Link URL to listen on: tcp://, serial://, ws://, mqtt://. Env "+EnvLink+" overrides the default.")
	fs.StringVar(&c.DeviceID, "id", c.DeviceID, "Device ID on shared links, default derived from machine ID.")
	fs.IntVar(&c.Width, "width", c.Width, "Display width in pixels.")
	fs.IntVar(&c.Height, "height", c.Height, "Display height in pixels.")
	fs.IntVar(&c.MaxPayload, "max-payload", c.MaxPayload, "Max request payload in bytes, 0 for a full image plus slack.")
	fs.IntVar(&c.RingSize, "ring-size", c.RingSize, "Receive ring buffer size, 0 for max payload.")
	fs.IntVar(&c.ResponseLimit, "response-limit", c.ResponseLimit, "Max encoded response size in bytes.")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "Idle polling interval.")
	fs.StringVar(&c.DefaultImage, "default-image", c.DefaultImage, "Default image file (PNG or raw RGB565), built-in test pattern if empty.")
	fs.StringVar(&c.Snapshot, "snapshot", c.Snapshot, "Save the display as PNG to this file on every update.")
	fs.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Serve Prometheus metrics on this address.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load resolves the effective config from the command line after
// flag.Parse.
func Load() (*Config, error) {
	return LoadFrom(configFile, flag.CommandLine, &defaultConfig)
}

// LoadFrom layers the config: built-in defaults, the TOML file, the
// environment, then flags explicitly set in fs whose values are in flagged.
func LoadFrom(file string, fs *flag.FlagSet, flagged *Config) (*Config, error) {
	conf := builtinDefaults()
	if file != "" {
		if _, err := toml.DecodeFile(file, &conf); err != nil {
			return nil, fmt.Errorf("config %s: %w", file, err)
		}
	}
	if link := os.Getenv(EnvLink); link != "" {
		conf.Link = link
	}
	fs.Visit(func(f *flag.Flag) {
		if apply := flagSetters[f.Name]; apply != nil {
			apply(&conf, flagged)
		}
	})
	return &conf, conf.Validate()
}

var flagSetters = map[string]func(dst, src *Config){
	"link":           func(dst, src *Config) { dst.Link = src.Link },
	"id":             func(dst, src *Config) { dst.DeviceID = src.DeviceID },
	"width":          func(dst, src *Config) { dst.Width = src.Width },
	"height":         func(dst, src *Config) { dst.Height = src.Height },
	"max-payload":    func(dst, src *Config) { dst.MaxPayload = src.MaxPayload },
	"ring-size":      func(dst, src *Config) { dst.RingSize = src.RingSize },
	"response-limit": func(dst, src *Config) { dst.ResponseLimit = src.ResponseLimit },
	"poll-interval":  func(dst, src *Config) { dst.PollInterval = src.PollInterval },
	"default-image":  func(dst, src *Config) { dst.DefaultImage = src.DefaultImage },
	"snapshot":       func(dst, src *Config) { dst.Snapshot = src.Snapshot },
	"metrics":        func(dst, src *Config) { dst.MetricsAddr = src.MetricsAddr },
}

// Validate checks the values.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Width, c.Height)
	}
	if c.MaxPayload < 0 || c.RingSize < 0 || c.ResponseLimit < 0 {
		return errors.New("negative buffer size")
	}
	if c.RingSize == 1 {
		return errors.New("ring size must be at least 2")
	}
	return nil
}

// FramebufferSize is the display memory size in bytes.
func (c *Config) FramebufferSize() int {
	return c.Width * c.Height * display.BytesPerPixel
}

// EffectiveMaxPayload is the max accepted request payload.
func (c *Config) EffectiveMaxPayload() int {
	if c.MaxPayload > 0 {
		return c.MaxPayload
	}
	return c.FramebufferSize() + PayloadSlack
}

// EffectiveRingSize is the receive ring buffer size.
func (c *Config) EffectiveRingSize() int {
	if c.RingSize > 0 {
		return c.RingSize
	}
	return c.EffectiveMaxPayload()
}
