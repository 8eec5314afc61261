/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in usage events about plans (counts and
// formats, never geometry or names) and crash reports.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "floorplanner/internal/log"
	"floorplanner/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = "FPL_TELEMETRY_OPT_IN"
	EnvEventsURL = "FPL_TELEMETRY_URL"
	EnvCrashURL  = "FPL_CRASH_UPLOAD_URL"
	EnvTimeoutMS = "FPL_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "FPL_TELEMETRY_DEBUG"
)

const (
	defaultTimeout = 1500 * time.Millisecond
	queueSize      = 64
)

// Config is off unless OptIn is set and a URL is configured.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
	// Debug logs every send attempt.
	Debug bool
}

// FromEnv builds a Config from the environment. Any optIn value from the
// user config that is true enables telemetry as well.
func FromEnv(optIn ...bool) Config {
	cfg := Config{
		OptIn:     parseBool(os.Getenv(EnvOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:  strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:   defaultTimeout,
		Debug:     os.Getenv(EnvDebug) != "",
	}
	for _, v := range optIn {
		cfg.OptIn = cfg.OptIn || v
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMS)); ms != "" {
		if d, err := time.ParseDuration(ms + "ms"); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Event names.
const (
	EventProjectOpened   = "project_opened"
	EventProjectExported = "project_exported"
	EventAdvisorRequest  = "advisor_request"
)

// Payload is the JSON body of one usage event.
type Payload struct {
	Name    string         `json:"name"`
	Time    time.Time      `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client queues events and posts them from one goroutine. Methods on a nil
// Client do nothing.
type Client struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client

	queue chan Payload
	// pending counts queued events not yet handled
	pending  atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:   cfg,
		log:   applog.WithComponent("telemetry"),
		http:  &http.Client{Timeout: cfg.Timeout},
		queue: make(chan Payload, queueSize),
		stop:  make(chan struct{}),
	}
	go c.run()
	return c
}

// Enabled reports whether usage events leave the machine.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// ProjectOpened records an opened plan by size only.
func (c *Client) ProjectOpened(items int, calibrated, recovered bool) {
	c.Event(EventProjectOpened, map[string]any{"items": items, "calibrated": calibrated, "recovered": recovered})
}

// ProjectExported records an export format (json, svg, png, pdf).
func (c *Client) ProjectExported(format string) {
	c.Event(EventProjectExported, map[string]any{"format": format})
}

// AdvisorRequest records one finished advisor call.
func (c *Client) AdvisorRequest(flow string, ok bool, elapsed time.Duration) {
	c.Event(EventAdvisorRequest, map[string]any{"flow": flow, "ok": ok, "elapsed_ms": elapsed.Milliseconds()})
}

// Event queues a usage event. It never blocks; a full queue drops it.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	p := Payload{
		Name:    name,
		Time:    time.Now().UTC(),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if len(props) > 0 {
		p.Props = make(map[string]any, len(props))
		for k, v := range props {
			p.Props[k] = v
		}
	}
	select {
	case <-c.stop:
		return
	default:
	}
	c.pending.Add(1)
	select {
	case c.queue <- p:
	default:
		c.pending.Add(-1)
		c.debug("telemetry queue full, event dropped", slog.String("event", name))
	}
}

// Flush waits until every queued event was handled or ctx ends.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for c.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// Close stops the sender; events still queued are dropped.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) run() {
	for {
		select {
		case <-c.stop:
			for {
				select {
				case <-c.queue:
					c.pending.Add(-1)
				default:
					return
				}
			}
		case p := <-c.queue:
			body, err := json.Marshal(p)
			if err == nil {
				err = c.post(c.cfg.EventsURL, "application/json", body)
			}
			if err != nil {
				c.debug("telemetry event failed", slog.String("event", p.Name), slog.Any("err", err))
			} else {
				c.debug("telemetry event sent", slog.String("event", p.Name))
			}
			c.pending.Add(-1)
		}
	}
}

// UploadCrash posts a crash report and waits for the answer, bounded by the
// client timeout. It is called right before the process exits.
func (c *Client) UploadCrash(report []byte) error {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return nil
	}
	if err := c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report); err != nil {
		c.debug("crash upload failed", slog.Any("err", err))
		return err
	}
	c.debug("crash report uploaded")
	return nil
}

func (c *Client) post(url, contentType string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telemetry endpoint answered %s", resp.Status)
	}
	return nil
}

func (c *Client) debug(msg string, attrs ...any) {
	if c.cfg.Debug {
		c.log.Debug(msg, attrs...)
	}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// SetDefault installs the process-wide client used by crash handling.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}

// Default returns the process-wide client, building it from the
// environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}
