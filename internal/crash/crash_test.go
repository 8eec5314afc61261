package crash

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
	"floorplanner/internal/storage"
)

func plan() domain.Project {
	return domain.Project{
		Items: []domain.Item{
			domain.DefaultRoom(geom.Pt(0, 0)),
			domain.NewAnnotation("a1", geom.Pt(5, 5), "entrance"),
			domain.NewAnnotation("a2", geom.Pt(9, 9), "window"),
		},
		Scale: geom.Scale{Pixels: 200, Meters: 4},
	}
}

func TestReportSummarisesLivePlan(t *testing.T) {
	ph := &storage.ProjectHandle{Path: "/plans/flat.json", Live: plan}
	rep := newReport(ph, "boom", []byte("goroutine 1"))
	rep.Snapshot = "/plans/backups/flat.crash.json"
	s := string(rep.Bytes())
	for _, want := range []string{
		"Floor Planner crash report",
		"Plan:    /plans/flat.json",
		"Items:   3 annotation=2 room=1",
		"Scale:   1 m = 50.0 px",
		"Snapshot: /plans/backups/flat.crash.json",
		"Panic: boom",
		"goroutine 1",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("report lacks %q:\n%s", want, s)
		}
	}
	if got := rep.dir(); got != filepath.Join("/plans", storage.BackupsDirName) {
		t.Fatalf("report dir = %s", got)
	}
}

func TestReportWithoutPlan(t *testing.T) {
	rep := newReport(nil, errors.New("nil map"), nil)
	s := string(rep.Bytes())
	if strings.Contains(s, "Plan:") || strings.Contains(s, "Snapshot:") {
		t.Fatalf("plan lines without a plan:\n%s", s)
	}
	if !strings.Contains(s, "Panic: nil map") {
		t.Fatalf("panic missing:\n%s", s)
	}
	if rep.dir() != os.TempDir() {
		t.Fatalf("expected temp dir, got %s", rep.dir())
	}

	rep = newReport(&storage.ProjectHandle{}, "x", nil)
	if !strings.Contains(string(rep.Bytes()), "Plan:    (unsaved)") {
		t.Fatalf("unsaved plan not named:\n%s", rep.Bytes())
	}
}

func TestReportFallsBackWhenLivePlanPanics(t *testing.T) {
	saved := plan()
	ph := &storage.ProjectHandle{
		Path:    "/plans/flat.json",
		Project: saved,
		Live:    func() domain.Project { panic("store corrupted") },
	}
	p, ok := livePlan(ph)
	if ok {
		t.Fatalf("expected live plan to be reported unreadable")
	}
	if len(p.Items) != len(saved.Items) {
		t.Fatalf("fallback plan has %d items, want %d", len(p.Items), len(saved.Items))
	}
	if s := string(newReport(ph, "boom", nil).Bytes()); !strings.Contains(s, "Scale:   unknown (plan unreadable)") {
		t.Fatalf("unreadable plan not flagged:\n%s", s)
	}
}

func TestWriteReportIntoBackups(t *testing.T) {
	root := t.TempDir()
	rep := newReport(&storage.ProjectHandle{Path: filepath.Join(root, "plan.json")}, "kaboom", []byte("stack"))
	rep.When = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	path, err := rep.write()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if want := filepath.Join(root, storage.BackupsDirName, "crash-20250301-123000.log"); path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}
	b, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(b), "Panic: kaboom") {
		t.Fatalf("report not written: %v %s", err, b)
	}
}
