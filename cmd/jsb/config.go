// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/xdg-go/jsb"
)

// Config holds the settings of a run.  It is loaded from the file named by
// --config, if any; there is no automatic discovery.  Command line flags
// override file values.
type Config struct {
	// InputWindow is the input window size in bytes.
	InputWindow int `yaml:"input_window"`

	// OutputWindow is the output window size in bytes.
	OutputWindow int `yaml:"output_window"`

	// MaxDepth limits container nesting of JSON input.
	MaxDepth int `yaml:"max_depth"`

	Lines bool `yaml:"lines"`
	ASCII bool `yaml:"ascii"`

	// Compress zstd-compresses the output.
	Compress bool `yaml:"compress"`

	// CompressLevel is a zstd encoder level name: fastest, default,
	// better or best.
	CompressLevel string `yaml:"compress_level"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the settings used without a config file.
func DefaultConfig() *Config {
	return &Config{
		InputWindow:   32 << 20,
		OutputWindow:  32 << 20,
		MaxDepth:      jsb.DefaultMaxDepth,
		CompressLevel: "default",
		LogLevel:      "info",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	if c.InputWindow <= 0 {
		return fmt.Errorf("input_window must be positive, got %d", c.InputWindow)
	}
	if c.OutputWindow <= 0 {
		return fmt.Errorf("output_window must be positive, got %d", c.OutputWindow)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if _, err := c.encoderLevel(); err != nil {
		return err
	}
	if _, err := c.logLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) flags() jsb.Flags {
	var flags jsb.Flags
	if c.Lines {
		flags |= jsb.Lines
	}
	if c.ASCII {
		flags |= jsb.ASCII
	}
	return flags
}

func (c *Config) encoderLevel() (zstd.EncoderLevel, error) {
	ok, level := zstd.EncoderLevelFromString(c.CompressLevel)
	if !ok {
		return 0, fmt.Errorf("unknown compress_level %q", c.CompressLevel)
	}
	return level, nil
}

func (c *Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
