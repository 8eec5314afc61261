//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"floorplanner/internal/editor"
	"floorplanner/internal/geom"
	"floorplanner/internal/interact"
	applog "floorplanner/internal/log"
)

// FloorCanvas shows the plan and feeds pointer gestures to the editor's
// interaction controller. Pan with the middle button, the pan tool or a
// held space bar; the wheel zooms around the cursor.
type FloorCanvas struct {
	widget.BaseWidget
	ed *editor.Editor

	// button held since MouseDown, cleared on release or drag end
	down    bool
	button  interact.Button
	lastPos fyne.Position

	bgRef string
	bgImg image.Image

	log *slog.Logger
}

func NewFloorCanvas(ed *editor.Editor) *FloorCanvas {
	c := &FloorCanvas{ed: ed, log: applog.WithComponent("canvas")}
	c.ExtendBaseWidget(c)
	return c
}

func (c *FloorCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &floorCanvasRenderer{c: c}
	r.raster = canvas.NewRaster(r.draw)
	return r
}

// PreferredSize sets a decent default size for the widget.
func (c *FloorCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func (c *FloorCanvas) background() image.Image {
	ref := c.ed.Store.Background()
	if ref == c.bgRef {
		return c.bgImg
	}
	c.bgRef = ref
	img, err := decodeBackground(ref)
	if err != nil {
		c.log.Warn("background not shown", slog.Any("err", err))
	}
	c.bgImg = img
	return img
}

func pointer(pos fyne.Position, b interact.Button, clicks int) interact.PointerEvent {
	return interact.PointerEvent{Pos: geom.Pt(float64(pos.X), float64(pos.Y)), Button: b, Clicks: clicks}
}

func buttonOf(b desktop.MouseButton) interact.Button {
	switch b {
	case desktop.MouseButtonSecondary:
		return interact.ButtonSecondary
	case desktop.MouseButtonTertiary:
		return interact.ButtonMiddle
	}
	return interact.ButtonPrimary
}

func (c *FloorCanvas) MouseDown(e *desktop.MouseEvent) {
	c.down, c.button, c.lastPos = true, buttonOf(e.Button), e.Position
	c.ed.Controller.PointerDown(pointer(e.Position, c.button, 1))
	c.Refresh()
}

func (c *FloorCanvas) MouseUp(e *desktop.MouseEvent) {
	c.release(e.Position)
}

func (c *FloorCanvas) release(pos fyne.Position) {
	if !c.down {
		return
	}
	c.down = false
	c.ed.Controller.PointerUp(pointer(pos, c.button, 1))
	c.Refresh()
}

// DoubleTapped finishes a wall or circuit run.
func (c *FloorCanvas) DoubleTapped(e *fyne.PointEvent) {
	c.ed.Controller.PointerDown(pointer(e.Position, interact.ButtonPrimary, 2))
	c.Refresh()
}

func (c *FloorCanvas) MouseIn(e *desktop.MouseEvent)    { c.move(e.Position) }
func (c *FloorCanvas) MouseMoved(e *desktop.MouseEvent) { c.move(e.Position) }

func (c *FloorCanvas) MouseOut() {
	c.ed.Controller.PointerLeave()
	c.Refresh()
}

func (c *FloorCanvas) Dragged(e *fyne.DragEvent) { c.move(e.Position) }
func (c *FloorCanvas) DragEnd()                  { c.release(c.lastPos) }

func (c *FloorCanvas) move(pos fyne.Position) {
	c.lastPos = pos
	c.ed.Controller.PointerMove(pointer(pos, c.button, 0))
	c.Refresh()
}

func (c *FloorCanvas) Scrolled(e *fyne.ScrollEvent) {
	// toolkit reports wheel-up as positive
	c.ed.View.Zoom(geom.Pt(float64(e.Position.X), float64(e.Position.Y)), -float64(e.Scrolled.DY))
	c.Refresh()
}

func (c *FloorCanvas) Cursor() desktop.Cursor {
	switch c.ed.Controller.EffectiveTool() {
	case interact.ToolPan:
		return desktop.PointerCursor
	case interact.ToolSelect:
		return desktop.DefaultCursor
	}
	return desktop.CrosshairCursor
}

type floorCanvasRenderer struct {
	c      *FloorCanvas
	raster *canvas.Raster
}

func (r *floorCanvasRenderer) Destroy()                     {}
func (r *floorCanvasRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.raster} }
func (r *floorCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(320, 240) }
func (r *floorCanvasRenderer) Refresh()                     { canvas.Refresh(r.raster) }

func (r *floorCanvasRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	r.raster.Move(fyne.NewPos(0, 0))
	r.c.ed.View.Resize(float64(size.Width), float64(size.Height))
}

// draw runs with the raster's pixel size, which differs from the widget
// size on scaled displays; the view box is stretched to fit.
func (r *floorCanvasRenderer) draw(w, h int) image.Image {
	ed := r.c.ed
	return composeView(ed.Scene(), r.c.background(), ed.View.ViewBox(), w, h)
}
