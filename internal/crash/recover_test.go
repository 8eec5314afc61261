/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
	"floorplanner/internal/storage"
	"floorplanner/internal/telemetry"
)

// intercept swaps exit and stderr for the test and returns the exit code
// pointer and the captured output.
func intercept(t *testing.T) (*int, *bytes.Buffer) {
	t.Helper()
	code := -1
	out := &bytes.Buffer{}
	oldExit, oldErr := exitFn, stderr
	exitFn = func(c int) { code = c }
	stderr = out
	t.Cleanup(func() { exitFn, stderr = oldExit, oldErr })
	return &code, out
}

func TestRecoverSnapshotsPlanAndReports(t *testing.T) {
	code, out := intercept(t)

	uploads := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		uploads <- b
	}))
	defer srv.Close()
	tc := telemetry.New(telemetry.Config{OptIn: true, CrashURL: srv.URL, Timeout: 2 * time.Second})
	defer tc.Close()
	telemetry.SetDefault(tc)
	t.Cleanup(func() { telemetry.SetDefault(nil) })

	root := t.TempDir()
	ph := &storage.ProjectHandle{Path: filepath.Join(root, "plan.json")}
	ph.Live = func() domain.Project {
		return domain.Project{Items: []domain.Item{domain.NewAnnotation("a1", geom.Pt(0, 0), "unsaved")}}
	}

	func() {
		defer Recover(ph)
		panic("boom")
	}()

	if *code != ExitCode {
		t.Fatalf("exit code = %d, want %d", *code, ExitCode)
	}

	var logPath, snapshot string
	bdir := filepath.Join(root, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			logPath = filepath.Join(bdir, f.Name())
		case strings.HasPrefix(f.Name(), "plan.crash-") && strings.HasSuffix(f.Name(), ".json"):
			snapshot = filepath.Join(bdir, f.Name())
		}
	}
	if logPath == "" || snapshot == "" {
		t.Fatalf("backups dir lacks report or snapshot: %v", files)
	}
	snap, err := os.ReadFile(snapshot)
	if err != nil || !bytes.Contains(snap, []byte("unsaved")) {
		t.Fatalf("snapshot does not hold the live plan: %v %s", err, snap)
	}
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"Panic: boom", "Items:   1 annotation=1", "Snapshot: " + snapshot} {
		if !bytes.Contains(b, []byte(want)) {
			t.Fatalf("report lacks %q:\n%s", want, b)
		}
	}

	select {
	case up := <-uploads:
		if !bytes.Equal(up, b) {
			t.Fatalf("uploaded report differs from the file")
		}
	default:
		t.Fatalf("crash report was not uploaded before exit")
	}

	msg := out.String()
	if !strings.Contains(msg, "Your unsaved plan was written to: "+snapshot) || !strings.Contains(msg, "Crash report: "+logPath) {
		t.Fatalf("stderr notice incomplete:\n%s", msg)
	}
}

func TestRecoverWithoutPanicDoesNothing(t *testing.T) {
	code, out := intercept(t)
	func() {
		defer Recover(nil)
	}()
	if *code != -1 || out.Len() != 0 {
		t.Fatalf("Recover acted without a panic: code=%d out=%q", *code, out.String())
	}
}
