package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config is the whole configuration of the emuka server.
type Config struct {
	Emulator   Emulator
	Library    Library
	Server     Server
	Audio      Audio
	Monitoring Monitoring
	Debug      bool
}

// allows custom config path
var configPath string

// NewConfig reads the config from the disk (or the --conf path) and the env.
func NewConfig() (*Config, error) {
	var conf Config
	if err := LoadConfig(&conf, configPath); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &conf, nil
}

// WithFlags overrides some config params with the command-line flags.
// It should be called after the flags are parsed.
func (c *Config) WithFlags(fs *pflag.FlagSet) *Config {
	c.Server.WithFlags(fs)
	fs.StringVar(&c.Emulator.Core, "core", c.Emulator.Core, "Path to the libretro core library")
	fs.StringVar(&c.Library.BasePath, "games", c.Library.BasePath, "Games library folder")
	fs.BoolVar(&c.Audio.Output, "audio", c.Audio.Output, "Play the emulator audio locally")
	fs.IntVar(&c.Monitoring.Port, "monitoring.port", c.Monitoring.Port, "Monitoring server port")
	fs.BoolVarP(&c.Debug, "debug", "d", c.Debug, "Print debug info")
	return c
}

// FlagConfigPath binds the --conf flag, it has to be parsed before NewConfig.
func FlagConfigPath(fs *pflag.FlagSet) {
	fs.StringVarP(&configPath, "conf", "c", "", "Set custom configuration file path")
}
