/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDisabledClientSendsNothing(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	off := New(Config{EventsURL: srv.URL, CrashURL: srv.URL})
	defer off.Close()
	if off.Enabled() {
		t.Fatalf("client without opt-in must be disabled")
	}
	off.ProjectOpened(1, false, false)
	if err := off.UploadCrash([]byte("report")); err != nil {
		t.Fatalf("disabled crash upload returned %v", err)
	}
	off.Flush(context.Background())

	noURL := New(Config{OptIn: true})
	defer noURL.Close()
	if noURL.Enabled() {
		t.Fatalf("client without events URL must be disabled")
	}
	noURL.ProjectExported("png")

	on := New(Config{OptIn: true, EventsURL: srv.URL})
	defer on.Close()
	on.Event("", map[string]any{"x": 1})
	on.Flush(context.Background())

	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("got %d requests, want none", n)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatalf("nil client reports enabled")
	}
	c.ProjectOpened(3, true, true)
	c.AdvisorRequest("suggest_layout", true, time.Second)
	c.Flush(context.Background())
	c.Close()
	if err := c.UploadCrash([]byte("x")); err != nil {
		t.Fatalf("nil client upload: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvOptIn, "")
	t.Setenv(EnvEventsURL, " http://telemetry.local/events ")
	t.Setenv(EnvCrashURL, "")
	t.Setenv(EnvTimeoutMS, "250")
	t.Setenv(EnvDebug, "1")

	cfg := FromEnv()
	if cfg.OptIn {
		t.Fatalf("telemetry must be opt-in")
	}
	if cfg.EventsURL != "http://telemetry.local/events" || cfg.Timeout != 250*time.Millisecond || !cfg.Debug {
		t.Fatalf("FromEnv = %+v", cfg)
	}
	if !FromEnv(false, true).OptIn {
		t.Fatalf("config opt-in should enable telemetry")
	}

	t.Setenv(EnvOptIn, "Yes")
	t.Setenv(EnvTimeoutMS, "soon")
	cfg = FromEnv()
	if !cfg.OptIn || cfg.Timeout != defaultTimeout {
		t.Fatalf("FromEnv = %+v", cfg)
	}
}

func TestDefaultClientCanBeReplaced(t *testing.T) {
	t.Setenv(EnvOptIn, "")
	SetDefault(nil)
	t.Cleanup(func() { SetDefault(nil) })
	if Default().Enabled() {
		t.Fatalf("default client from empty env should be disabled")
	}
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:1"})
	defer c.Close()
	SetDefault(c)
	if Default() != c {
		t.Fatalf("SetDefault did not install the client")
	}
}
