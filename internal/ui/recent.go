/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package ui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	recentPrefsKey = "recent.projects"
	maxRecent      = 10
)

// prefStore is the slice of the toolkit's preferences the recent list needs.
type prefStore interface {
	StringWithFallback(key, fallback string) string
	SetString(key, value string)
}

// loadRecent returns the remembered plan files that still exist, newest first.
func loadRecent(p prefStore) []string {
	var items []string
	if raw := p.StringWithFallback(recentPrefsKey, ""); strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &items)
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// addRecent moves path to the front of the list.
func addRecent(p prefStore, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	out := []string{abs}
	for _, s := range loadRecent(p) {
		// case-insensitive so Windows paths dedupe
		if !strings.EqualFold(s, abs) {
			out = append(out, s)
		}
	}
	if len(out) > maxRecent {
		out = out[:maxRecent]
	}
	b, _ := json.Marshal(out)
	p.SetString(recentPrefsKey, string(b))
}
