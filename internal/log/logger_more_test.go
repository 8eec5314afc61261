/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("FPL_LOG_LEVEL", "warn")
	t.Setenv("FPL_LOG_FORMAT", "json")
	t.Setenv("FPL_LOG_SOURCE", "true")
	t.Setenv("FPL_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("FPL_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestConsoleHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{opts: consoleOpts{Level: slog.LevelWarn}, w: &buf}

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("tool", "measure")}).WithGroup("viewport")
	r := slog.NewRecord(time.Now(), slog.LevelError, "zoom failed", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("ratio", 1.5), slog.Bool("ok", true), slog.String("name", "living room"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "zoom failed", "viewport.tool=measure", "viewport.n=42", "viewport.ratio=1.5", "viewport.ok=true", `viewport.name="living room"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, " WARNING ": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo}
	for in, want := range cases {
		if got := parseLevel(in).Level(); got != want {
			t.Fatalf("parseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestFanoutDeliversToAll(t *testing.T) {
	var a, b bytes.Buffer
	f := &fanout{hs: []slog.Handler{
		&consoleHandler{opts: consoleOpts{Level: slog.LevelDebug}, w: &a},
		&consoleHandler{opts: consoleOpts{Level: slog.LevelError}, w: &b},
	}}
	l := slog.New(f)
	l.Info("only first")
	if !strings.Contains(a.String(), "only first") || b.Len() != 0 {
		t.Fatalf("fanout level filtering wrong: a=%q b=%q", a.String(), b.String())
	}
	l.Error("both")
	if !strings.Contains(b.String(), "both") {
		t.Fatalf("second handler missed error record")
	}
}
