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
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Secrets never go to the file; they live in the OS keychain.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

// EditorConfig holds the interaction tolerances, in screen pixels unless
// noted.
type EditorConfig struct {
	SnapRadiusPx   float64 `yaml:"snap_radius_px"`
	HandleRadiusPx float64 `yaml:"handle_radius_px"`
	HitTolerancePx float64 `yaml:"hit_tolerance_px"`
	// ZoomFactor scales one wheel notch; 1 keeps the built-in rate.
	ZoomFactor float64 `yaml:"zoom_factor"`
	// PasteOffset is in document units.
	PasteOffset float64 `yaml:"paste_offset"`
}

type AdvisorMode string

const (
	AdvisorOpenAI AdvisorMode = "openai"
	AdvisorHTTP   AdvisorMode = "http"
	AdvisorOff    AdvisorMode = "off"
)

type AdvisorConfig struct {
	Mode      AdvisorMode `yaml:"mode"`
	Model     string      `yaml:"model"`
	BaseURL   string      `yaml:"base_url"`
	TimeoutMs int         `yaml:"timeout_ms"`
	// API key / bearer token are not stored on disk; they live in the OS keychain.
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	EnableMetrics bool   `yaml:"enable_metrics"`
	AccessLog     bool   `yaml:"access_log"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Advisor       AdvisorConfig `yaml:"advisor"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Editor:        EditorConfig{SnapRadiusPx: 10, HandleRadiusPx: 8, HitTolerancePx: 4, ZoomFactor: 1, PasteOffset: 20},
		Advisor:       AdvisorConfig{Mode: AdvisorOpenAI, Model: "gpt-4o-mini", BaseURL: "http://127.0.0.1:8787", TimeoutMs: 60000},
		Server:        ServerConfig{Addr: "127.0.0.1:8787", EnableMetrics: true},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvAdvisorMode      = "FPL_ADVISOR_MODE"
	EnvAdvisorModel     = "FPL_ADVISOR_MODEL"
	EnvAdvisorURL       = "FPL_ADVISOR_URL"
	EnvAdvisorTimeoutMs = "FPL_ADVISOR_TIMEOUT_MS"
	EnvServerAddr       = "FPL_SERVER_ADDR"
	EnvTelemetryOptIn   = "FPL_TELEMETRY_OPT_IN"
	EnvSnapRadius       = "FPL_SNAP_RADIUS_PX"
	// Secrets may come from the environment instead of the keychain.
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvJWTSecret = "FPL_JWT_SECRET"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "FPL_LOG_LEVEL"
	EnvLogFormat = "FPL_LOG_FORMAT"
	EnvLogSource = "FPL_LOG_SOURCE"
	EnvLogFile   = "FPL_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "FloorPlanner"
	KeyOpenAI      = "openai_api_key"
	KeyAdvisor     = "advisor_token"
	KeyJWTSecret   = "server_jwt_secret"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// Secrets are the keychain-held values the editor and server need.
type Secrets struct {
	OpenAIKey    string
	AdvisorToken string
	JWTSecret    string
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := os.Getenv("FPL_CONFIG"); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "FloorPlanner")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "FloorPlanner")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "floorplanner")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// Secrets are read from the keychain, with environment variables taking precedence.
func Load() (AppConfig, Secrets, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, Secrets{}, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, loadSecrets(), nil
}

func loadSecrets() Secrets {
	var s Secrets
	s.OpenAIKey, _ = tokenStore.Get(keyringService, KeyOpenAI)
	s.AdvisorToken, _ = tokenStore.Get(keyringService, KeyAdvisor)
	s.JWTSecret, _ = tokenStore.Get(keyringService, KeyJWTSecret)
	if v := strings.TrimSpace(os.Getenv(EnvOpenAIKey)); v != "" {
		s.OpenAIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJWTSecret)); v != "" {
		s.JWTSecret = v
	}
	return s
}

// Save writes the user config YAML and persists non-empty secrets into the OS keyring.
func Save(cfg AppConfig, secrets Secrets) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	for key, value := range map[string]string{KeyOpenAI: secrets.OpenAIKey, KeyAdvisor: secrets.AdvisorToken, KeyJWTSecret: secrets.JWTSecret} {
		if value == "" {
			continue
		}
		if err := tokenStore.Set(keyringService, key, value); err != nil {
			return err
		}
	}
	return nil
}

// SetSecret stores one secret in the OS keychain.
func SetSecret(key, value string) error {
	if value == "" {
		return errors.New("secret value is empty")
	}
	return tokenStore.Set(keyringService, key, value)
}

// ForgetSecret removes one keychain entry; a missing entry is not an error.
func ForgetSecret(key string) error {
	if err := tokenStore.Delete(keyringService, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// editor: zero means "not set"
	mergeFloat(&dst.Editor.SnapRadiusPx, src.Editor.SnapRadiusPx)
	mergeFloat(&dst.Editor.HandleRadiusPx, src.Editor.HandleRadiusPx)
	mergeFloat(&dst.Editor.HitTolerancePx, src.Editor.HitTolerancePx)
	mergeFloat(&dst.Editor.ZoomFactor, src.Editor.ZoomFactor)
	mergeFloat(&dst.Editor.PasteOffset, src.Editor.PasteOffset)
	// advisor
	if m := AdvisorMode(strings.ToLower(strings.TrimSpace(string(src.Advisor.Mode)))); m != "" {
		dst.Advisor.Mode = m
	}
	if strings.TrimSpace(src.Advisor.Model) != "" {
		dst.Advisor.Model = strings.TrimSpace(src.Advisor.Model)
	}
	if src.Advisor.BaseURL != "" {
		dst.Advisor.BaseURL = src.Advisor.BaseURL
	}
	if src.Advisor.TimeoutMs != 0 {
		dst.Advisor.TimeoutMs = src.Advisor.TimeoutMs
	}
	// server
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	dst.Server.EnableMetrics = src.Server.EnableMetrics
	dst.Server.AccessLog = src.Server.AccessLog
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func mergeFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAdvisorMode)); v != "" {
		cfg.Advisor.Mode = AdvisorMode(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvAdvisorModel)); v != "" {
		cfg.Advisor.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAdvisorURL)); v != "" {
		cfg.Advisor.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAdvisorTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Advisor.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapRadius)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Editor.SnapRadiusPx = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"advisor.mode":             EnvAdvisorMode,
		"advisor.model":            EnvAdvisorModel,
		"advisor.base_url":         EnvAdvisorURL,
		"advisor.timeout_ms":       EnvAdvisorTimeoutMs,
		"server.addr":              EnvServerAddr,
		"editor.snap_radius_px":    EnvSnapRadius,
		"general.telemetry_opt_in": EnvTelemetryOptIn,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Timeout returns the advisor request timeout.
func (a AdvisorConfig) Timeout() time.Duration {
	if a.TimeoutMs <= 0 {
		return time.Duration(Defaults().Advisor.TimeoutMs) * time.Millisecond
	}
	return time.Duration(a.TimeoutMs) * time.Millisecond
}
