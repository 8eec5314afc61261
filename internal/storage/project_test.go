package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
)

func samplePlan() domain.Project {
	room := domain.NewRoom("r1", "Kitchen", []geom.Point{{0, 0}, {300, 0}, {300, 200}, {0, 200}})
	sofa := domain.NewFurniture("f1", "Sofa", geom.Pt(150, 100), 120, 60)
	m := domain.NewMeasurement("m1", geom.Pt(0, 220), geom.Pt(200, 220))
	m.IsReference = true
	m.RealLength = 2
	wall := domain.NewSurface("s1", domain.SurfaceWall, []geom.Point{{0, 0}, {300, 0}, {300, 200}}, domain.DefaultWallThickness)
	return domain.Project{
		Items: []domain.Item{room, sofa, m, wall, domain.NewAnnotation("a1", geom.Pt(10, 10), "check plugs")},
		Scale: geom.Scale{Pixels: 200, Meters: 2},
	}
}

func TestCreateRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	if _, err := Create(path, samplePlan()); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := Create(path, samplePlan()); err == nil {
		t.Fatalf("expected error for existing project file")
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	ph, err := Create(path, samplePlan())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Change something and save again to force a backup
	ph.Project.Items = ph.Project.Items[:1]
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	ents, err := os.ReadDir(filepath.Join(filepath.Dir(path), BackupsDirName))
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	found := false
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), "plan.json.") && strings.HasSuffix(e.Name(), ".bak") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a plan.json.<stamp>.bak backup, got %v", ents)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if len(reopened.Project.Items) != 1 || reopened.Recovered {
		t.Fatalf("unexpected reopened project: %d items, recovered=%v", len(reopened.Project.Items), reopened.Recovered)
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	ph, err := Create(path, samplePlan())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	// Second save leaves the first version as a backup
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open should fall back to backup: %v", err)
	}
	if !got.Recovered {
		t.Fatalf("expected Recovered flag")
	}
	if len(got.Project.Items) != 5 {
		t.Fatalf("expected 5 items from backup, got %d", len(got.Project.Items))
	}
}

func TestOpenWithoutBackupsFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSaveAsUpdatesPath(t *testing.T) {
	dir := t.TempDir()
	ph := &ProjectHandle{Path: filepath.Join(dir, "a.json"), Project: samplePlan()}
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := SaveAs(ph, filepath.Join(dir, "sub", "b.json")); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub", "b.json")); err != nil {
		t.Fatalf("expected new file: %v", err)
	}
	if err := SaveAs(ph, ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, samplePlan()); err != nil {
		t.Fatalf("Export error: %v", err)
	}
	first := buf.String()
	p, err := Import(strings.NewReader(first))
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if p.Version != domain.SchemaVersion || p.Scale.Pixels != 200 || len(p.Items) != 5 {
		t.Fatalf("unexpected import: %+v", p)
	}
	m, ok := p.Items[2].(*domain.Measurement)
	if !ok || !m.IsReference || m.RealLength != 2 {
		t.Fatalf("reference measurement lost: %#v", p.Items[2])
	}
	buf.Reset()
	if err := Export(&buf, p); err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if buf.String() != first {
		t.Fatalf("export is not stable across a round trip:\n%s\n---\n%s", first, buf.String())
	}
}

func TestDecodeMigratesLegacyFile(t *testing.T) {
	legacy := `{
  "items": [
    {"type": "room", "id": "r1", "name": "Hall", "x": 10, "y": 20, "width": 100, "height": 50},
    {"type": "furniture", "id": "f1", "name": "Bed", "x": 50, "y": 40, "width": 90, "height": 200},
    {"type": "surface", "id": "s1", "start": {"x": 0, "y": 0}, "end": {"x": 100, "y": 0}}
  ],
  "scale": {"pixels": 100, "meters": 1}
}`
	p, err := Decode([]byte(legacy))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	room, ok := p.Items[0].(*domain.Room)
	if !ok || len(room.Points) != 4 || !room.Visible {
		t.Fatalf("legacy room not upgraded: %#v", p.Items[0])
	}
	if room.Points[2] != geom.Pt(110, 70) {
		t.Fatalf("unexpected corner: %v", room.Points[2])
	}
	f := p.Items[1].(*domain.Furniture)
	if f.Category != domain.CategoryFurniture || f.Shape != domain.ShapeRectangle || f.Color != domain.DefaultFurnitureColor {
		t.Fatalf("furniture defaults missing: %#v", f)
	}
	s := p.Items[2].(*domain.Surface)
	if s.SurfaceType != domain.SurfaceWall || s.Thickness != domain.DefaultWallThickness {
		t.Fatalf("surface defaults missing: %#v", s)
	}
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"not json":   {`{"items":`, nil},
		"array":      {`[]`, nil},
		"no items":   {`{"scale": {"pixels": 1, "meters": 1}}`, domain.ErrNoItems},
		"no scale":   {`{"items": []}`, domain.ErrNoScale},
		"bad scale":  {`{"items": [], "scale": 3}`, domain.ErrNoScale},
		"short room": {`{"items": [{"type": "room", "id": "r", "name": "x", "points": [{"x":0,"y":0},{"x":1,"y":0}]}], "scale": {"pixels": 0, "meters": 0}}`, nil},
		"bad kind":   {`{"items": [{"type": "stairs", "id": "x"}], "scale": {"pixels": 0, "meters": 0}}`, nil},
		"same id":    {`{"items": [{"type": "furniture", "id": "f", "x": 0, "y": 0, "width": 1, "height": 1}, {"type": "furniture", "id": "f", "x": 5, "y": 5, "width": 1, "height": 1}], "scale": {"pixels": 0, "meters": 0}}`, domain.ErrDuplicateID},
		"bad shape":  {`{"items": [{"type": "furniture", "id": "f", "x": 0, "y": 0, "width": 1, "height": 1, "shape": "hexagon"}], "scale": {"pixels": 0, "meters": 0}}`, nil},
	}
	for name, tc := range cases {
		_, err := Decode([]byte(tc.doc))
		if !errors.Is(err, ErrInvalidProject) {
			t.Fatalf("%s: expected ErrInvalidProject, got %v", name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", name, tc.want, err)
		}
	}
}

func TestAutosaveCrashSnapshotPrefersLivePlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	ph, err := Create(path, samplePlan())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	ph.Live = func() domain.Project {
		p := samplePlan()
		p.Items = p.Items[:2]
		return p
	}
	snap, err := AutosaveCrashSnapshot(ph)
	if err != nil {
		t.Fatalf("snapshot error: %v", err)
	}
	if filepath.Dir(snap) != filepath.Join(filepath.Dir(path), BackupsDirName) {
		t.Fatalf("snapshot outside backups dir: %s", snap)
	}
	b, err := os.ReadFile(snap)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	p, err := Decode(b)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("snapshot should hold the live plan, got %d items", len(p.Items))
	}
	// the project file itself is untouched
	orig, err := Open(path)
	if err != nil || len(orig.Project.Items) != 5 {
		t.Fatalf("project file changed: %v", err)
	}
}

func TestSchemaIsEmbedded(t *testing.T) {
	if !bytes.Contains(Schema(), []byte(`"definitions"`)) {
		t.Fatalf("embedded schema looks empty")
	}
}
