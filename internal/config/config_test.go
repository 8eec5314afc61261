/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

// isolate points the config file at a temp dir and swaps the keychain for
// an in-memory mock.
func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("FPL_CONFIG", path)
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv(EnvJWTSecret, "")
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, secrets, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.SnapRadiusPx != 10 || cfg.Advisor.Mode != AdvisorOpenAI || cfg.Server.Addr == "" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if secrets != (Secrets{}) {
		t.Fatalf("expected no secrets, got %#v", secrets)
	}
}

func TestEnvOverridesAdvisor(t *testing.T) {
	isolate(t)
	t.Setenv(EnvAdvisorMode, "HTTP")
	t.Setenv(EnvAdvisorURL, "https://example.test:8443")
	t.Setenv(EnvAdvisorTimeoutMs, "2500")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Advisor.Mode != AdvisorHTTP || cfg.Advisor.BaseURL != "https://example.test:8443" {
		t.Fatalf("advisor overrides not applied: %#v", cfg.Advisor)
	}
	if got := cfg.Advisor.Timeout(); got != 2500*time.Millisecond {
		t.Fatalf("Timeout() = %v", got)
	}
	if name, ok := EnvOverrideFor("advisor.base_url"); !ok || name != EnvAdvisorURL {
		t.Fatalf("EnvOverrideFor = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("advisor.model"); ok {
		t.Fatalf("model is not overridden")
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.Editor.SnapRadiusPx = 14
	cfg.Advisor.Mode = AdvisorOff
	cfg.Server.EnableMetrics = false
	if err := Save(cfg, Secrets{OpenAIKey: "sk-123", JWTSecret: "shh"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("config file empty")
	}
	got, secrets, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Editor.SnapRadiusPx != 14 || got.Advisor.Mode != AdvisorOff || got.Server.EnableMetrics {
		t.Fatalf("file values not loaded: %#v", got)
	}
	if secrets.OpenAIKey != "sk-123" || secrets.JWTSecret != "shh" || secrets.AdvisorToken != "" {
		t.Fatalf("secrets not read from keychain: %#v", secrets)
	}
	if err := ForgetSecret(KeyOpenAI); err != nil {
		t.Fatalf("ForgetSecret: %v", err)
	}
	if err := ForgetSecret(KeyOpenAI); err != nil {
		t.Fatalf("forgetting a missing secret should not fail: %v", err)
	}
	_, secrets, _ = Load()
	if secrets.OpenAIKey != "" {
		t.Fatalf("secret still present after ForgetSecret")
	}
}

func TestEnvSecretBeatsKeychain(t *testing.T) {
	isolate(t)
	if err := Save(Defaults(), Secrets{OpenAIKey: "from-keychain"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvOpenAIKey, "from-env")
	_, secrets, _ := Load()
	if secrets.OpenAIKey != "from-env" {
		t.Fatalf("OpenAIKey = %q", secrets.OpenAIKey)
	}
}

func TestMergeKeepsDefaultsForZeroes(t *testing.T) {
	dst := Defaults()
	var src AppConfig
	src.Editor.HandleRadiusPx = 12
	src.Advisor.Mode = " OFF "
	mergeInto(&dst, &src)
	if dst.Editor.SnapRadiusPx != 10 || dst.Editor.HandleRadiusPx != 12 {
		t.Fatalf("editor merge wrong: %#v", dst.Editor)
	}
	if dst.Advisor.Mode != AdvisorOff || dst.Advisor.Model != "gpt-4o-mini" {
		t.Fatalf("advisor merge wrong: %#v", dst.Advisor)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/fpl.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/fpl.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/fpl.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/fpl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSetSecretStoresInKeychain(t *testing.T) {
	isolate(t)
	if err := SetSecret(KeyAdvisor, ""); err == nil {
		t.Fatalf("empty secret should be rejected")
	}
	if err := SetSecret(KeyAdvisor, "tok"); err != nil {
		t.Fatalf("SetSecret: %v", err)
	}
	_, secrets, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if secrets.AdvisorToken != "tok" {
		t.Fatalf("AdvisorToken = %q", secrets.AdvisorToken)
	}
}
