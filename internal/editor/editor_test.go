package editor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorplanner/internal/advisor"
	"floorplanner/internal/config"
	"floorplanner/internal/domain"
	"floorplanner/internal/export"
	"floorplanner/internal/geom"
	"floorplanner/internal/input"
	"floorplanner/internal/interact"
	"floorplanner/internal/render"
	"floorplanner/internal/storage"
	"floorplanner/internal/store"
)

func click(e *Editor, x, y float64) {
	ev := interact.PointerEvent{Pos: geom.Pt(x, y), Button: interact.ButtonPrimary, Clicks: 1}
	e.Controller.PointerDown(ev)
	e.Controller.PointerUp(ev)
}

func mounted(t *testing.T, opts Options) *Editor {
	t.Helper()
	e := New(opts)
	e.View.Resize(800, 600)
	return e
}

func TestAddActionsSelectNewItems(t *testing.T) {
	e := mounted(t, Options{})
	r, err := e.AddRoom()
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(250, 200), r.Anchor())
	assert.Equal(t, r.ID, e.Store.SelectedID())

	f, err := e.AddFurniture("sofa")
	require.NoError(t, err)
	assert.Equal(t, "Sofa", f.Name)
	assert.Equal(t, e.View.Center(), f.Anchor())
	assert.Equal(t, f.ID, e.Store.SelectedID())

	_, err = e.AddFurniture("piano")
	assert.Error(t, err)

	a, err := e.AddAnnotation()
	require.NoError(t, err)
	assert.Equal(t, e.View.Center(), a.Bounds().Center())

	rows := e.Layers()
	require.Len(t, rows, 3)
	assert.Equal(t, a.ID, rows[0].ID)
	assert.True(t, rows[0].Selected)

	assert.True(t, e.Keys.KeyDown(input.KeyEvent{Key: input.KeyDelete}))
	assert.Equal(t, 2, e.Store.Len())
	assert.False(t, e.Keys.KeyDown(input.KeyEvent{Key: input.KeyDelete}), "nothing selected after delete")
}

func TestDrawRoomThroughTheCanvas(t *testing.T) {
	e := mounted(t, Options{})
	e.Controller.SetTool(interact.ToolDrawRoom)
	click(e, 100, 100)
	click(e, 300, 100)
	click(e, 300, 250)
	assert.True(t, e.Controller.Drawing())

	sc := e.Scene()
	var preview bool
	for _, p := range sc.Prims {
		if p.Kind == render.PrimPolyline && p.ItemID == "" {
			preview = true
		}
	}
	assert.True(t, preview, "pending room should be drawn as a preview")

	// Enter commits through the keyboard dispatcher
	assert.True(t, e.Keys.KeyDown(input.KeyEvent{Key: input.KeyReturn}))
	rooms, _ := advisor.Split(e.Store.Items())
	require.Len(t, rooms, 1)
	assert.Len(t, rooms[0].Points, 3)
	assert.Equal(t, interact.ToolSelect, e.Controller.Tool())
}

func TestCalibrateAndFormat(t *testing.T) {
	e := mounted(t, Options{})
	e.Controller.SetTool(interact.ToolMeasure)
	click(e, 100, 100)
	click(e, 300, 100)
	ref, ok := e.Store.Reference()
	require.True(t, ok)
	assert.Equal(t, ref.ID, e.Store.SelectedID())

	require.NoError(t, e.SetReference(400, geom.UnitCentimeter))
	assert.Equal(t, geom.Scale{Pixels: 200, Meters: 4}, e.Store.Scale())
	assert.Equal(t, "2.00 m", e.Store.FormatLength(100))

	s, err := e.PromoteSelected()
	require.NoError(t, err)
	assert.Equal(t, domain.SurfaceWall, s.SurfaceType)

	e.Store.ClearSelection()
	assert.Error(t, e.SetReference(1, geom.UnitMeter))
}

func TestClearAllResetsPlan(t *testing.T) {
	e := mounted(t, Options{})
	_, _ = e.AddRoom()
	e.Controller.SetTool(interact.ToolSurface)
	click(e, 10, 10)
	e.ClearAll()
	assert.Equal(t, 0, e.Store.Len())
	assert.False(t, e.Controller.Drawing())
	assert.Equal(t, interact.ToolSelect, e.Controller.Tool())
}

func TestSaveOpenAndImportKeepStateOnFailure(t *testing.T) {
	dir := t.TempDir()
	e := mounted(t, Options{})
	_, _ = e.AddRoom()
	_, _ = e.AddFurniture("bed")
	assert.ErrorIs(t, e.Save(), ErrNoProjectPath)

	path := filepath.Join(dir, "flat.json")
	require.NoError(t, e.SaveAs(path))
	assert.Equal(t, path, e.Path())
	require.NoError(t, e.Save())

	other := mounted(t, Options{})
	h := other.Handle()
	require.NoError(t, other.Open(path))
	assert.Same(t, h, other.Handle())
	assert.Equal(t, 2, other.Store.Len())
	assert.Equal(t, path, other.Path())

	// a broken document leaves the plan alone
	err := other.Import(strings.NewReader(`{"items": []}`))
	assert.ErrorIs(t, err, storage.ErrInvalidProject)
	assert.Equal(t, 2, other.Store.Len())

	var buf bytes.Buffer
	require.NoError(t, other.Export(&buf))
	fresh := mounted(t, Options{})
	require.NoError(t, fresh.Import(&buf))
	assert.Equal(t, 2, fresh.Store.Len())

	// crash snapshots see unsaved edits
	_, _ = other.AddAnnotation()
	snap, err := storage.AutosaveCrashSnapshot(other.Handle())
	require.NoError(t, err)
	b, err := os.ReadFile(snap)
	require.NoError(t, err)
	assert.Contains(t, string(b), "New note")
}

func TestImportWithDuplicateIDsKeepsDrawing(t *testing.T) {
	src := New(Options{})
	_, _ = src.AddAnnotation()
	_, _ = src.AddAnnotation()
	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf))
	dup := regexp.MustCompile(`"id":\s*"[^"]+"`).ReplaceAllString(buf.String(), `"id": "a"`)

	e := mounted(t, Options{})
	_, _ = e.AddRoom()
	e.Controller.SetTool(interact.ToolMeasure)
	click(e, 600, 500)
	require.True(t, e.Controller.Drawing())
	require.Equal(t, 2, e.Store.Len())

	err := e.Import(strings.NewReader(dup))
	require.ErrorIs(t, err, storage.ErrInvalidProject)
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	assert.Equal(t, 2, e.Store.Len(), "the live measurement survives")
	assert.True(t, e.Controller.Drawing())
	assert.Equal(t, interact.ToolMeasure, e.Controller.Tool())

	// the same check guards projects handed over without decoding
	p, err := storage.Decode(buf.Bytes())
	require.NoError(t, err)
	p.Items[1] = p.Items[0].Clone()
	require.ErrorIs(t, e.load(p), domain.ErrDuplicateID)
	assert.True(t, e.Controller.Drawing())
}

func TestUpdateSelectedPerKind(t *testing.T) {
	e := mounted(t, Options{})
	assert.ErrorIs(t, e.UpdateSelected(Changes{}), store.ErrNotFound)

	f, err := e.AddFurniture("sofa")
	require.NoError(t, err)
	name, w, h, rot := "  Couch ", 200.0, 0.5, 450.0
	require.NoError(t, e.UpdateSelected(Changes{Name: &name, Width: &w, Height: &h, Rotation: &rot}))
	it, ok := e.Properties()
	require.True(t, ok)
	got := it.(*domain.Furniture)
	assert.Equal(t, "Couch", got.Name)
	assert.Equal(t, 200.0, got.Width)
	assert.Equal(t, domain.MinFurnitureSize, got.Height)
	assert.Equal(t, 90.0, got.Rotation)
	assert.Equal(t, f.Anchor(), got.Anchor())

	bad := -3.0
	assert.ErrorIs(t, e.UpdateSelected(Changes{Name: &name, Width: &bad}), ErrInvalidProperty)
	color := "teal"
	assert.ErrorIs(t, e.UpdateSelected(Changes{Color: &color}), ErrInvalidProperty)
	it, _ = e.Properties()
	assert.Equal(t, 200.0, it.(*domain.Furniture).Width)
	assert.Equal(t, domain.DefaultFurnitureColor, it.(*domain.Furniture).Color)

	_, err = e.AddAnnotation()
	require.NoError(t, err)
	text := "Radiator under window"
	require.NoError(t, e.UpdateSelected(Changes{Text: &text, Width: &w}))
	it, _ = e.Properties()
	assert.Equal(t, text, it.(*domain.Annotation).Text)

	e.Controller.SetTool(interact.ToolMeasure)
	click(e, 100, 100)
	click(e, 300, 100)
	_, err = e.PromoteSelected()
	require.NoError(t, err)
	door, thick := domain.SurfaceDoor, 8.0
	require.NoError(t, e.UpdateSelected(Changes{SurfaceType: &door, Thickness: &thick}))
	it, _ = e.Properties()
	sf := it.(*domain.Surface)
	assert.Equal(t, domain.SurfaceDoor, sf.SurfaceType)
	assert.Equal(t, 8.0, sf.Thickness)

	gate := domain.SurfaceType("gate")
	assert.ErrorIs(t, e.UpdateSelected(Changes{SurfaceType: &gate, Thickness: &thick}), ErrInvalidProperty)
	zero := 0.0
	assert.ErrorIs(t, e.UpdateSelected(Changes{Thickness: &zero}), ErrInvalidProperty)
	it, _ = e.Properties()
	assert.Equal(t, domain.SurfaceDoor, it.(*domain.Surface).SurfaceType)
	assert.Equal(t, 8.0, it.(*domain.Surface).Thickness)
}

func TestExportImageByExtension(t *testing.T) {
	dir := t.TempDir()
	e := mounted(t, Options{})
	_, _ = e.AddRoom()
	for _, name := range []string{"plan.svg", "plan.png", "plan.pdf"} {
		out := filepath.Join(dir, name)
		require.NoError(t, e.ExportImage(out, "", export.Options{}))
		st, err := os.Stat(out)
		require.NoError(t, err)
		assert.Positive(t, st.Size())
	}
	assert.Error(t, e.ExportImage(filepath.Join(dir, "plan.gif"), "", export.Options{}))
}

type scripted struct{}

func (scripted) SuggestLayout(_ context.Context, req advisor.LayoutRequest) (*advisor.LayoutSuggestion, error) {
	return &advisor.LayoutSuggestion{
		Placements: []advisor.Placement{{FurnitureName: "SOFA", X: 1, Y: 0.5, Rotation: 450}},
		Reasoning:  "sofa facing the window",
	}, nil
}

func (scripted) Evaluate(context.Context, advisor.EvaluationRequest) (*advisor.Evaluation, error) {
	return nil, errors.New("unreachable")
}

func waitResults(t *testing.T, e *Editor, n int) []Notification {
	t.Helper()
	var out []Notification
	deadline := time.Now().Add(2 * time.Second)
	for len(out) < n && time.Now().Before(deadline) {
		out = append(out, e.Poll()...)
		time.Sleep(5 * time.Millisecond)
	}
	require.Len(t, out, n)
	return out
}

func TestAdvisorFlows(t *testing.T) {
	e := mounted(t, Options{Advisor: scripted{}})
	assert.ErrorIs(t, e.SuggestLayout(), advisor.ErrNeedRoom)
	room, _ := e.AddRoom()
	assert.ErrorIs(t, e.SuggestLayout(), advisor.ErrNeedFurniture)
	sofa, _ := e.AddFurniture("Sofa")

	require.NoError(t, e.SuggestLayout())
	n := waitResults(t, e, 1)[0]
	assert.Equal(t, LevelInfo, n.Level)
	assert.Equal(t, "sofa facing the window", n.Message)
	assert.False(t, e.Loading())

	// uncalibrated: 1 m = 100 px from the room's top-left corner
	assert.Equal(t, 1, e.ApplyLayout(n.Result.Layout))
	got, _ := e.Store.Get(sofa.ID)
	f := got.(*domain.Furniture)
	assert.Equal(t, geom.Pt(room.Bounds().MinX+100, room.Bounds().MinY+50), f.Anchor())
	assert.Equal(t, 90.0, f.Rotation)

	require.NoError(t, e.Evaluate("", ""))
	n = waitResults(t, e, 1)[0]
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Failed to evaluate arrangement.", n.Message)
}

func TestAdvisorDisabledNotifies(t *testing.T) {
	e := mounted(t, Options{})
	_, _ = e.AddRoom()
	_, _ = e.AddFurniture("Lamp")
	require.NoError(t, e.SuggestLayout())
	n := waitResults(t, e, 1)[0]
	assert.Equal(t, LevelError, n.Level)
	assert.Contains(t, n.Message, "Failed to suggest layout.")
	assert.ErrorIs(t, n.Result.Err, advisor.ErrDisabled)
}

func TestFromConfigCarriesEditorSettings(t *testing.T) {
	c := config.Defaults().Editor
	c.PasteOffset = 35
	opts := FromConfig(c)
	assert.Equal(t, 10.0, opts.Interact.SnapRadius)
	assert.Equal(t, 8.0, opts.Interact.HandleRadius)

	e := mounted(t, opts)
	_, _ = e.AddFurniture("Chair")
	require.True(t, e.Store.Copy())
	pasted, ok := e.Store.Paste()
	require.True(t, ok)
	assert.Equal(t, e.View.Center().Add(geom.Pt(35, 35)), pasted.Anchor())
}

func TestWaitBlocksForResult(t *testing.T) {
	e := mounted(t, Options{Advisor: scripted{}})
	_, _ = e.AddRoom()
	_, _ = e.AddFurniture("Sofa")
	require.NoError(t, e.SuggestLayout())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := e.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Layout suggestion", n.Title)

	short, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stop()
	_, err = e.Wait(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
