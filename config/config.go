// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the ggvideo server configuration from TOML.
//
// Every field has a default, so an empty or missing file yields a working
// configuration. Paths may start with ~ and are expanded to the home
// directory by Load.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the complete configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Storage Storage `toml:"storage"`
	Video   Video   `toml:"video"`
	Text    Text    `toml:"text"`
	Log     Log     `toml:"log"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Storage configures where videos and the catalog live.
type Storage struct {
	Dir      string `toml:"dir"`
	Database string `toml:"database"`
}

// Video configures the encoder output.
type Video struct {
	Width     int      `toml:"width"`
	Height    int      `toml:"height"`
	FrameRate int      `toml:"frame_rate"`
	Backend   string   `toml:"backend"`
	Timeout   Duration `toml:"stop_timeout"`

	// MaxViewSize bounds each side of a view size sent by a client.
	MaxViewSize int `toml:"max_view_size"`
}

// Text configures the text renderer.
type Text struct {
	FontSize       float64 `toml:"font_size"`
	RegularFont    string  `toml:"regular_font"`
	BoldFont       string  `toml:"bold_font"`
	ItalicFont     string  `toml:"italic_font"`
	BoldItalicFont string  `toml:"bold_italic_font"`
	Padding        int     `toml:"padding"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Storage: Storage{
			Dir:      "~/.ggvideo/videos",
			Database: "~/.ggvideo/catalog.bolt",
		},
		Video: Video{
			Width:       960,
			Height:      1280,
			FrameRate:   20,
			Timeout:     Duration{10 * time.Second},
			MaxViewSize: 8192,
		},
		Text: Text{
			FontSize: 48,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of the defaults; an empty path yields the
// defaults. The result has its paths expanded and is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		p, err := homedir.Expand(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: expand %s: %w", path, err)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", p, err)
		}
	}
	if err := cfg.Expand(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML data on top of the defaults. Unknown keys are errors.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Expand replaces a leading ~ in every path with the home directory.
func (c *Config) Expand() error {
	for _, p := range []*string{
		&c.Storage.Dir,
		&c.Storage.Database,
		&c.Text.RegularFont,
		&c.Text.BoldFont,
		&c.Text.ItalicFont,
		&c.Text.BoldItalicFont,
	} {
		v, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("config: expand %s: %w", *p, err)
		}
		*p = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	case c.Storage.Dir == "":
		return fmt.Errorf("%w: storage.dir is empty", ErrInvalid)
	case c.Storage.Database == "":
		return fmt.Errorf("%w: storage.database is empty", ErrInvalid)
	case c.Video.Width <= 0 || c.Video.Width%2 != 0:
		return fmt.Errorf("%w: video.width must be positive and even, got %d", ErrInvalid, c.Video.Width)
	case c.Video.Height <= 0 || c.Video.Height%2 != 0:
		return fmt.Errorf("%w: video.height must be positive and even, got %d", ErrInvalid, c.Video.Height)
	case c.Video.FrameRate <= 0:
		return fmt.Errorf("%w: video.frame_rate must be positive, got %d", ErrInvalid, c.Video.FrameRate)
	case c.Video.Timeout.Duration <= 0:
		return fmt.Errorf("%w: video.stop_timeout must be positive", ErrInvalid)
	case c.Video.MaxViewSize <= 0:
		return fmt.Errorf("%w: video.max_view_size must be positive", ErrInvalid)
	case c.Text.FontSize <= 0:
		return fmt.Errorf("%w: text.font_size must be positive", ErrInvalid)
	case c.Text.Padding < 0:
		return fmt.Errorf("%w: text.padding must not be negative", ErrInvalid)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// SlogLevel parses the configured log level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return lvl, nil
}
