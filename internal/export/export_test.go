/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
	"floorplanner/internal/render"
)

func sampleScene() render.Scene {
	room := domain.NewRoom("r1", "Living", []geom.Point{{0, 0}, {400, 0}, {400, 300}, {0, 300}})
	sofa := domain.NewFurniture("f1", "Sofa & Co", geom.Pt(200, 150), 180, 90)
	lamp := domain.NewFurniture("f2", "Lamp", geom.Pt(350, 50), 40, 40)
	lamp.Shape = domain.ShapeCircle
	wall := domain.NewSurface("s1", domain.SurfaceWall, []geom.Point{{0, 0}, {400, 0}}, domain.DefaultWallThickness)
	m := domain.NewMeasurement("m1", geom.Pt(0, 320), geom.Pt(200, 320))
	m.IsReference = true
	m.RealLength = 1
	note := domain.NewAnnotation("a1", geom.Pt(420, 0), "<check>")
	return render.Build(render.Input{
		Items:      []domain.Item{room, sofa, lamp, wall, m, note},
		SelectedID: "r1",
		Scale:      geom.Scale{Pixels: 200, Meters: 1},
	})
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sampleScene(), Options{Title: "Test"}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<svg", "<polygon", "<ellipse", "<polyline", "stroke-dasharray", "Sofa &amp; Co", "&lt;check&gt;", "2.00 m × 1.50 m"} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q", want)
		}
	}
}

func TestRasterizeSizeFollowsBounds(t *testing.T) {
	sc := sampleScene()
	img := Rasterize(sc, Options{Margin: 10, Scale: 2})
	b := sc.Bounds
	wantW := int((b.Width + 20) * 2)
	if img.Bounds().Dx() < wantW || img.Bounds().Dx() > wantW+1 {
		t.Fatalf("width %d, want ~%d", img.Bounds().Dx(), wantW)
	}
	// the room fill differs from the white background
	if c := img.RGBAAt(int((100+10)*2), int((200+10)*2)); c.R == 255 && c.G == 255 && c.B == 255 {
		t.Fatalf("expected painted pixel inside the room, got %v", c)
	}
}

func TestRasterizeViewMapsViewBox(t *testing.T) {
	sc := sampleScene()
	img := RasterizeView(sc, 0, 0, 400, 300, 800, 600, render.White)
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 600 {
		t.Fatalf("size %v", img.Bounds())
	}
	if c := img.RGBAAt(200, 400); c.R == 255 && c.G == 255 && c.B == 255 {
		t.Fatalf("expected room fill at doc (100,200), got %v", c)
	}
	empty := RasterizeView(sc, 5000, 5000, 100, 100, 50, 50, render.White)
	if c := empty.RGBAAt(25, 25); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Fatalf("view outside the plan should be background, got %v", c)
	}
	if tiny := RasterizeView(sc, 0, 0, 0, 0, 0, 0, render.White); tiny.Bounds().Dx() != 1 {
		t.Fatalf("zero size should clamp to one pixel")
	}
}

func TestWritePNGDecodes(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, sampleScene(), Options{}); err != nil {
		t.Fatalf("png: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestExportPDF_CreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "plan.pdf")
	if err := ExportPDF(out, sampleScene(), Options{Scale: 0.75}); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
}

func TestEmptySceneStillExports(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, render.Scene{}, Options{}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	if img := Rasterize(render.Scene{}, Options{Margin: 1}); img.Bounds().Dx() != 802 {
		t.Fatalf("empty plan should use the default page, got %v", img.Bounds())
	}
}

func TestBatchExport_Presets(t *testing.T) {
	root := t.TempDir()
	sc := sampleScene()
	web, err := BatchExport(sc, BatchOptions{Preset: PresetWeb, OutDir: root, Name: "flat"})
	if err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	printed, err := BatchExport(sc, BatchOptions{Preset: PresetPrint, OutDir: root, Name: "flat"})
	if err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	checks := []string{
		filepath.Join(root, "web", "flat.png"),
		filepath.Join(root, "web", "flat.svg"),
		filepath.Join(root, "print", "flat.pdf"),
		filepath.Join(root, "print", "flat.png"),
	}
	if len(web)+len(printed) != len(checks) {
		t.Fatalf("unexpected outputs: %v %v", web, printed)
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
	if _, err := BatchExport(sc, BatchOptions{OutDir: root, Formats: []string{"cbz"}}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"SVG": FormatSVG, "out/plan.png": FormatPNG, "pdf": FormatPDF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDashSegments(t *testing.T) {
	segs := dashSegments([]geom.Point{{0, 0}, {10, 0}}, []float64{2, 3})
	// on 0-2, off 2-5, on 5-7, off 7-10
	if len(segs) != 2 || math.Abs(segs[1][0].X-5) > 1e-9 || math.Abs(segs[1][1].X-7) > 1e-9 {
		t.Fatalf("unexpected dashes: %v", segs)
	}
	if n := len(dashSegments([]geom.Point{{0, 0}, {1, 0}, {1, 1}}, nil)); n != 2 {
		t.Fatalf("solid path segments: %d", n)
	}
}
