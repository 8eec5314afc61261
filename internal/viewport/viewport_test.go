/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"
	"testing"

	"floorplanner/internal/geom"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func nearPt(a, b geom.Point) bool { return near(a.X, b.X) && near(a.Y, b.Y) }

func TestResizeTracksOneToOne(t *testing.T) {
	v := New()
	v.Resize(800, 600)
	if b := v.ViewBox(); b.Width != 800 || b.Height != 600 || b.X != 0 || b.Y != 0 {
		t.Fatalf("unexpected initial box: %+v", b)
	}
	v.PanBy(geom.Pt(-100, -50))
	v.Resize(1024, 768)
	b := v.ViewBox()
	if b.Width != 1024 || b.Height != 768 || b.X != 100 || b.Y != 50 {
		t.Fatalf("resize should keep origin and track size: %+v", b)
	}
	v.Resize(0, 10)
	if v.ViewBox() != b {
		t.Fatalf("non-positive resize must be ignored")
	}
}

func TestResizeKeepsZoomRatio(t *testing.T) {
	v := New()
	v.Resize(800, 600)
	v.ZoomBy(geom.Pt(0, 0), 2)
	origin := geom.Pt(v.ViewBox().X, v.ViewBox().Y)
	v.Resize(400, 300)
	b := v.ViewBox()
	if !near(v.Ratio(), 2) || !near(b.Width, 800) || !near(b.Height, 600) {
		t.Fatalf("zoomed view should stay zoomed after resize: ratio=%v box=%+v", v.Ratio(), b)
	}
	if !nearPt(geom.Pt(b.X, b.Y), origin) {
		t.Fatalf("resize moved the origin: %+v", b)
	}
}

func TestScreenDocRoundTrip(t *testing.T) {
	v := New()
	v.Resize(800, 600)
	v.ZoomBy(geom.Pt(123, 45), 2.5)
	v.PanBy(geom.Pt(17, -3))
	for _, p := range []geom.Point{{0, 0}, {400, 300}, {799, 1}} {
		if back := v.DocToScreen(v.ScreenToDoc(p)); !nearPt(back, p) {
			t.Fatalf("round trip %v -> %v", p, back)
		}
	}
}

func TestZoomKeepsCursorPointFixed(t *testing.T) {
	v := New()
	v.Resize(800, 600)
	cursor := geom.Pt(200, 150)
	before := v.ScreenToDoc(cursor)

	v.Zoom(cursor, 1) // out
	if !near(v.Ratio(), 1.1) {
		t.Fatalf("zoom out ratio: %v", v.Ratio())
	}
	if after := v.ScreenToDoc(cursor); !nearPt(before, after) {
		t.Fatalf("cursor point moved on zoom out: %v -> %v", before, after)
	}

	v.Zoom(cursor, -1)
	v.Zoom(cursor, -1) // in
	if !near(v.Ratio(), 1/1.1) {
		t.Fatalf("zoom in ratio: %v", v.Ratio())
	}
	if after := v.ScreenToDoc(cursor); !nearPt(before, after) {
		t.Fatalf("cursor point moved on zoom in: %v -> %v", before, after)
	}

	box := v.ViewBox()
	v.Zoom(cursor, 0)
	if v.ViewBox() != box {
		t.Fatalf("zero delta must not zoom")
	}
}

func TestZoomIsClamped(t *testing.T) {
	v := New()
	v.Resize(100, 100)
	for i := 0; i < 200; i++ {
		v.Zoom(geom.Pt(50, 50), 1)
	}
	if v.Ratio() > MaxRatio+1e-9 {
		t.Fatalf("ratio above max: %v", v.Ratio())
	}
	for i := 0; i < 400; i++ {
		v.Zoom(geom.Pt(50, 50), -1)
	}
	if v.Ratio() < MinRatio-1e-9 {
		t.Fatalf("ratio below min: %v", v.Ratio())
	}
}

func TestPanSpeedScalesWithZoom(t *testing.T) {
	v := New()
	v.Resize(800, 600)
	v.ZoomBy(geom.Pt(0, 0), 2)
	v.BeginPan(geom.Pt(100, 100))
	v.PanTo(geom.Pt(150, 120))
	v.EndPan()
	b := v.ViewBox()
	if !near(b.X, -100) || !near(b.Y, -40) {
		t.Fatalf("pan should move by -delta*ratio, got %+v", b)
	}
	v.PanTo(geom.Pt(500, 500))
	if v.ViewBox() != b {
		t.Fatalf("PanTo after EndPan must be a no-op")
	}
}

func TestUnmountedIsIdentityAndNoop(t *testing.T) {
	v := New()
	p := geom.Pt(12, 34)
	if v.ScreenToDoc(p) != p || v.DocToScreen(p) != p {
		t.Fatalf("unmounted conversion must be identity")
	}
	v.Zoom(p, 1)
	v.PanBy(p)
	if v.ViewBox() != (ViewBox{}) {
		t.Fatalf("unmounted viewport must ignore pan/zoom")
	}
}

func TestFitAndCenter(t *testing.T) {
	v := New()
	v.Resize(800, 600)
	v.Fit(geom.RectBounds(0, 0, 1600, 600), 0)
	if !near(v.Ratio(), 2) {
		t.Fatalf("fit ratio: %v", v.Ratio())
	}
	if c := v.Center(); !nearPt(c, geom.Pt(800, 300)) {
		t.Fatalf("fit center: %v", c)
	}
	v.Reset()
	if v.Ratio() != 1 || v.ViewBox().X != 0 {
		t.Fatalf("reset failed: %+v", v.ViewBox())
	}
}
