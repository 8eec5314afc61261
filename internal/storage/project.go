/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"floorplanner/internal/domain"
	applog "floorplanner/internal/log"
)

const BackupsDirName = "backups"

// ProjectHandle ties a plan to the file it was loaded from or saved to.
type ProjectHandle struct {
	Path    string
	Project domain.Project
	// Recovered is set when Open had to fall back to a backup.
	Recovered bool
	// Live, when set, returns the current in-memory plan. Crash snapshots
	// prefer it over Project, which only reflects the last load or save.
	Live func() domain.Project
}

// Create writes proj to path, failing if the file already exists.
func Create(path string, proj domain.Project) (*ProjectHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("project path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("project file %s already exists", path)
	}
	ph := &ProjectHandle{Path: path, Project: proj}
	if err := Save(ph); err != nil {
		return nil, err
	}
	return ph, nil
}

// Open loads a project file. If it cannot be read or does not decode, the
// newest backup is tried instead.
func Open(path string) (*ProjectHandle, error) {
	l := applog.WithComponent("storage")
	b, err := os.ReadFile(path)
	if err == nil {
		var p domain.Project
		if p, err = Decode(b); err == nil {
			l.Debug("project opened", slog.String("path", path), slog.Int("items", len(p.Items)))
			return &ProjectHandle{Path: path, Project: p}, nil
		}
	}
	proj, bpath, berr := openFromLatestBackup(path)
	if berr != nil {
		return nil, fmt.Errorf("open project: %w; backup attempt: %v", err, berr)
	}
	l.Warn("project restored from backup", slog.String("path", path), slog.String("backup", bpath), slog.Any("err", err))
	return &ProjectHandle{Path: path, Project: *proj, Recovered: true}, nil
}

func backupDir(path string) string { return filepath.Join(filepath.Dir(path), BackupsDirName) }

// Save writes the current ProjectHandle.Project to disk with transactional semantics
// and a timestamped backup of the previous file (if present).
func Save(ph *ProjectHandle) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if ph.Path == "" {
		return errors.New("invalid ProjectHandle: missing path")
	}
	data, err := Encode(ph.Project)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(ph.Path), 0o755); err != nil {
		return fmt.Errorf("ensure project dir: %w", err)
	}

	// If a current file exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(ph.Path); statErr == nil {
		bdir := backupDir(ph.Path)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(ph.Path), stamp))
		if cerr := copyFile(ph.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current project: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(ph.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(ph.Path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp project: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(ph.Path); err == nil {
		_ = os.Remove(ph.Path)
	}
	if rerr := os.Rename(temp, ph.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace project: %w", rerr)
	}
	applog.WithComponent("storage").Debug("project saved", slog.String("path", ph.Path), slog.Int("bytes", len(data)))
	return nil
}

// SaveAs writes the project to a new path and updates the handle.
func SaveAs(ph *ProjectHandle, newPath string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if newPath == "" {
		return errors.New("new path is empty")
	}
	ph.Path = newPath
	return Save(ph)
}

// AutosaveCrashSnapshot writes the live plan next to the backups without
// touching the project file itself. It returns the snapshot path.
func AutosaveCrashSnapshot(ph *ProjectHandle) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	proj := ph.Project
	if ph.Live != nil {
		proj = ph.Live()
	}
	data, err := Encode(proj)
	if err != nil {
		return "", err
	}
	dir := os.TempDir()
	base := "untitled.json"
	if ph.Path != "" {
		dir = backupDir(ph.Path)
		base = filepath.Base(ph.Path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure snapshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", strings.TrimSuffix(base, filepath.Ext(base)), time.Now().Format("20060102-150405")))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries backups of path from newest to oldest and
// returns the first that decodes.
func openFromLatestBackup(path string) (*domain.Project, string, error) {
	bdir := backupDir(path)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, "", fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, "", errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = fmt.Errorf("read backup: %w", err)
			continue
		}
		p, err := Decode(b)
		if err != nil {
			lastErr = fmt.Errorf("parse backup %s: %w", filepath.Base(candidates[i]), err)
			continue
		}
		return &p, candidates[i], nil
	}
	return nil, "", lastErr
}
