// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for sessionwatch
// binaries.
//
// Configuration comes from a single YAML file named by the --config
// flag or the SESSIONWATCH_CONFIG environment variable. There is no
// automatic discovery and no hidden override chain; when neither is
// set, the built-in defaults apply and the server runs with no config
// file at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config
// flag is given.
const EnvVar = "SESSIONWATCH_CONFIG"

// Config is the full configuration for the sessionwatch server.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Ingest bounds inbound event handling.
	Ingest IngestConfig `yaml:"ingest"`

	// Feed configures change delivery to subscribers.
	Feed FeedConfig `yaml:"feed"`

	// Sweep configures the optional pending-tool-call sweeper.
	Sweep SweepConfig `yaml:"sweep"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the TCP listen address. Default ":8787".
	Address string `yaml:"address"`

	// ShutdownTimeout bounds graceful shutdown. Default 10s.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// IngestConfig bounds inbound event handling.
type IngestConfig struct {
	// MaxBodyBytes caps a single event POST body. Default 4 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// MaxPayloadLen caps rendered opaque payloads (tool inputs,
	// outputs, hook output). Longer values are truncated with a
	// marker. Default 10000.
	MaxPayloadLen int `yaml:"max_payload_len"`
}

// FeedConfig configures change delivery to subscribers.
type FeedConfig struct {
	// BufferSize is the per-subscriber change buffer. A subscriber
	// that falls this far behind is marked stale. Default 256.
	BufferSize int `yaml:"buffer_size"`

	// Heartbeat is the keepalive interval on stream connections.
	// Default 10s.
	Heartbeat Duration `yaml:"heartbeat"`
}

// SweepConfig configures the pending-tool-call sweeper, a best-effort
// liveness aid for starts that never receive an end.
type SweepConfig struct {
	// Disabled turns the sweeper off entirely.
	Disabled bool `yaml:"disabled"`

	// Interval is how often the sweep runs. Default 1m.
	Interval Duration `yaml:"interval"`

	// PendingMaxAge is how long a call may stay pending before the
	// sweep transitions it to orphaned. Default 30m.
	PendingMaxAge Duration `yaml:"pending_max_age"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8787",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Ingest: IngestConfig{
			MaxBodyBytes:  4 * 1024 * 1024,
			MaxPayloadLen: 10_000,
		},
		Feed: FeedConfig{
			BufferSize: 256,
			Heartbeat:  Duration(10 * time.Second),
		},
		Sweep: SweepConfig{
			Interval:      Duration(time.Minute),
			PendingMaxAge: Duration(30 * time.Minute),
		},
	}
}

// Load reads the configuration file at path, falling back to the
// SESSIONWATCH_CONFIG environment variable and then to the built-in
// defaults when path is empty. Fields absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address must not be empty")
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	if c.Ingest.MaxBodyBytes <= 0 {
		return errors.New("ingest.max_body_bytes must be positive")
	}
	if c.Ingest.MaxPayloadLen <= 0 {
		return errors.New("ingest.max_payload_len must be positive")
	}
	if c.Feed.BufferSize <= 0 {
		return errors.New("feed.buffer_size must be positive")
	}
	if c.Feed.Heartbeat.Std() <= 0 {
		return errors.New("feed.heartbeat must be positive")
	}
	if !c.Sweep.Disabled {
		if c.Sweep.Interval.Std() <= 0 {
			return errors.New("sweep.interval must be positive")
		}
		if c.Sweep.PendingMaxAge.Std() <= 0 {
			return errors.New("sweep.pending_max_age must be positive")
		}
	}
	return nil
}
