// Copyright 2026 The Sessionwatch Authors
// SPDX-License-Identifier: Apache-2.0

// Sessionwatch-mock replays a scripted event scenario against a
// running sessionwatch-server, for demos and integration testing.
//
// A scenario is a JSONC file (comments and trailing commas allowed)
// holding an ordered list of steps. Each step posts either a wire
// event to /events or a raw hook payload to /hook, optionally after a
// delay:
//
//	{
//	  "steps": [
//	    // A coding session opens and runs one tool call.
//	    {"event": {"type": "session_start", "sessionId": "s1", ...}},
//	    {"delayMs": 250, "event": {"type": "tool_start", ...}},
//	    {"hook": {"hook_type": "PostToolUse", "session_id": "s1", ...}},
//	  ],
//	}
//
// With --loop the scenario replays until interrupted, which keeps a
// stream client busy during manual testing.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/jwtor7/sessionwatch/lib/process"
	"github.com/jwtor7/sessionwatch/lib/version"
)

// step is one scenario entry. Exactly one of Event and Hook must be
// present.
type step struct {
	DelayMs int64           `json:"delayMs"`
	Event   json.RawMessage `json:"event"`
	Hook    json.RawMessage `json:"hook"`
}

type scenario struct {
	Steps []step `json:"steps"`
}

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("sessionwatch-mock", pflag.ContinueOnError)
	serverURL := flags.String("server", "http://localhost:8787", "base URL of the sessionwatch server")
	scenarioPath := flags.String("scenario", "", "path to a JSONC scenario file")
	loop := flags.Bool("loop", false, "replay the scenario until interrupted")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		version.Print("sessionwatch-mock")
		return nil
	}
	if *scenarioPath == "" {
		return fmt.Errorf("--scenario is required")
	}

	script, err := loadScenario(*scenarioPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 10 * time.Second}
	for {
		if err := replay(ctx, client, *serverURL, script, logger); err != nil {
			return err
		}
		if !*loop || ctx.Err() != nil {
			return nil
		}
		logger.Info("scenario complete, looping")
	}
}

// loadScenario reads and validates a scenario file. Validation is
// shape-level only; the server is the authority on event contents and
// rejects bad steps with a descriptive 400.
func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var script scenario
	if err := json.Unmarshal(jsonc.ToJSON(data), &script); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: no steps", path)
	}
	for i, s := range script.Steps {
		if (s.Event == nil) == (s.Hook == nil) {
			return nil, fmt.Errorf("scenario %s: step %d must have exactly one of event or hook", path, i)
		}
		if s.DelayMs < 0 {
			return nil, fmt.Errorf("scenario %s: step %d: negative delayMs", path, i)
		}
	}
	return &script, nil
}

// replay posts every step in order, honoring per-step delays. A
// rejected step aborts the replay: scenarios are scripts, and a 400
// midway means the script itself is wrong.
func replay(ctx context.Context, client *http.Client, serverURL string, script *scenario, logger *slog.Logger) error {
	for i, s := range script.Steps {
		if s.DelayMs > 0 {
			select {
			case <-time.After(time.Duration(s.DelayMs) * time.Millisecond):
			case <-ctx.Done():
				return nil
			}
		}

		path, body := "/events", s.Event
		if s.Hook != nil {
			path, body = "/hook", s.Hook
		}
		if err := postStep(ctx, client, serverURL+path, body); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		logger.Debug("step posted", "step", i, "path", path)
	}
	return nil
}

func postStep(ctx context.Context, client *http.Client, url string, body json.RawMessage) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusNoContent {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return fmt.Errorf("POST %s: %s: %s", url, response.Status, bytes.TrimSpace(detail))
	}
	return nil
}
