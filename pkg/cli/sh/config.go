package sh

import (
	"flag"
	"os"
	"time"
)

// Config provides the options to reach a device.
type Config struct {
	// Link is the device URL, e.g. tcp://localhost:3456.
	Link string
	// DeviceID selects the device on shared links.
	DeviceID string
	// Timeout bounds each request.
	Timeout time.Duration
}

var defaultConfig = Config{
	Link:    "tcp://localhost:3456",
	Timeout: 5 * time.Second,
}

func init() {
	if val := os.Getenv("LCD_LINK"); val != "" {
		defaultConfig.Link = val
	}
	if val := os.Getenv("LCD_ID"); val != "" {
		defaultConfig.DeviceID = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Link, "link", defaultConfig.Link, "Device link URL.")
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID on shared links.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Request timeout.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
