// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessionwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":8787" {
		t.Fatalf("default address = %q", cfg.Server.Address)
	}
	if cfg.Sweep.Disabled {
		t.Fatal("sweeper disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestLoadOverridesSubsetOfFields(t *testing.T) {
	path := writeConfig(t, `
server:
  address: "127.0.0.1:9090"
feed:
  heartbeat: 30s
sweep:
  pending_max_age: 2h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != "127.0.0.1:9090" {
		t.Fatalf("address = %q", cfg.Server.Address)
	}
	if cfg.Feed.Heartbeat.Std() != 30*time.Second {
		t.Fatalf("heartbeat = %v", cfg.Feed.Heartbeat.Std())
	}
	if cfg.Sweep.PendingMaxAge.Std() != 2*time.Hour {
		t.Fatalf("pending_max_age = %v", cfg.Sweep.PendingMaxAge.Std())
	}
	// Untouched fields keep defaults.
	if cfg.Ingest.MaxPayloadLen != 10_000 {
		t.Fatalf("max_payload_len = %d, default lost", cfg.Ingest.MaxPayloadLen)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	path := writeConfig(t, `server: {address: ":7000"}`)
	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":7000" {
		t.Fatalf("address = %q, env config not picked up", cfg.Server.Address)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `feed: {heartbeat: "soon"}`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), `duration "soon"`) {
		t.Fatalf("err = %v, want duration parse failure", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `ingest: {max_body_bytes: -1}`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "max_body_bytes") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of a missing explicit path succeeded")
	}
}
