/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic on the editor or CLI goroutine into a
// snapshot of the open plan plus a report file, then exits.
package crash

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	"floorplanner/internal/domain"
	applog "floorplanner/internal/log"
	"floorplanner/internal/storage"
	"floorplanner/internal/telemetry"
	"floorplanner/internal/version"
)

// ExitCode is what the process exits with after a recovered panic.
const ExitCode = 2

// replaced in tests
var (
	exitFn           = os.Exit
	stderr io.Writer = os.Stderr
)

// Recover must be deferred directly: defer crash.Recover(ph).
// ph may be nil when no plan is open.
func Recover(ph *storage.ProjectHandle) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	rep := newReport(ph, r, stack)
	if ph != nil {
		if path, err := storage.AutosaveCrashSnapshot(ph); err != nil {
			l.Error("crash snapshot failed", slog.Any("err", err))
		} else {
			rep.Snapshot = path
			l.Info("crash snapshot written", slog.String("path", path))
		}
	}
	path, err := rep.write()
	if err != nil {
		l.Error("crash report not written", slog.String("path", path), slog.Any("err", err))
	}
	if err := telemetry.Default().UploadCrash(rep.Bytes()); err != nil {
		l.Warn("crash report upload failed", slog.Any("err", err))
	}
	rep.notify(stderr, path)
	exitFn(ExitCode)
}

// report describes one crash. The plan summary holds counts only.
type report struct {
	When    time.Time
	Panic   any
	Stack   []byte
	Project string // file path, empty for an unsaved plan
	Items   map[domain.Kind]int
	Total   int
	Scale   string
	// Snapshot is where the unsaved plan went, if it could be written.
	Snapshot string
}

func newReport(ph *storage.ProjectHandle, panicVal any, stack []byte) *report {
	rep := &report{When: time.Now(), Panic: panicVal, Stack: stack}
	if ph == nil {
		return rep
	}
	rep.Project = ph.Path
	p, ok := livePlan(ph)
	if !ok {
		rep.Scale = "unknown (plan unreadable)"
		return rep
	}
	rep.Items = map[domain.Kind]int{}
	for _, it := range p.Items {
		rep.Items[it.Kind()]++
	}
	rep.Total = len(p.Items)
	rep.Scale = "not calibrated"
	if p.Scale.Calibrated() {
		rep.Scale = fmt.Sprintf("1 m = %.1f px", p.Scale.Pixels/p.Scale.Meters)
	}
	return rep
}

// livePlan reads the in-memory plan; a store broken by the panic falls back
// to the last loaded or saved state.
func livePlan(ph *storage.ProjectHandle) (p domain.Project, ok bool) {
	if ph.Live == nil {
		return ph.Project, true
	}
	defer func() {
		if recover() != nil {
			p, ok = ph.Project, false
		}
	}()
	return ph.Live(), true
}

func (r *report) Bytes() []byte {
	var b bytes.Buffer
	fmt.Fprintln(&b, "Floor Planner crash report")
	fmt.Fprintf(&b, "Time:    %s\n", r.When.Format(time.RFC3339))
	fmt.Fprintf(&b, "Version: %s (%s, %s/%s)\n", version.String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if r.Project != "" || r.Items != nil {
		name := r.Project
		if name == "" {
			name = "(unsaved)"
		}
		fmt.Fprintf(&b, "Plan:    %s\n", name)
		fmt.Fprintf(&b, "Items:   %d", r.Total)
		kinds := make([]domain.Kind, 0, len(r.Items))
		for k := range r.Items {
			kinds = append(kinds, k)
		}
		slices.Sort(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&b, " %s=%d", k, r.Items[k])
		}
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Scale:   %s\n", r.Scale)
	}
	if r.Snapshot != "" {
		fmt.Fprintf(&b, "Snapshot: %s\n", r.Snapshot)
	}
	fmt.Fprintf(&b, "\nPanic: %v\n\n%s\n", r.Panic, r.Stack)
	return b.Bytes()
}

// dir is the backups folder next to the plan, or the temp dir.
func (r *report) dir() string {
	if r.Project == "" {
		return os.TempDir()
	}
	return filepath.Join(filepath.Dir(r.Project), storage.BackupsDirName)
}

func (r *report) write() (string, error) {
	dir := r.dir()
	path := filepath.Join(dir, "crash-"+r.When.Format("20060102-150405")+".log")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, err
	}
	return path, os.WriteFile(path, r.Bytes(), 0o644)
}

func (r *report) notify(w io.Writer, path string) {
	fmt.Fprintln(w, "Floor Planner stopped after an internal error.")
	if r.Snapshot != "" {
		fmt.Fprintln(w, "Your unsaved plan was written to:", r.Snapshot)
	}
	fmt.Fprintln(w, "Crash report:", path)
}
