/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact is the pointer state machine of the editor. One tool is
// active at a time; every gesture converts screen positions to document
// space through the viewport before touching geometry, and all mutations
// go through the item store.
package interact

import (
	"fmt"
	"log/slog"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
	applog "floorplanner/internal/log"
	"floorplanner/internal/store"
	"floorplanner/internal/viewport"
)

// Tool is the active editing mode.
type Tool string

const (
	ToolSelect   Tool = "select"
	ToolPan      Tool = "pan"
	ToolMeasure  Tool = "measure"
	ToolDrawRoom Tool = "draw-room"
	ToolSurface  Tool = "surface"
	ToolCircuit  Tool = "circuit"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolPan, ToolMeasure, ToolDrawRoom, ToolSurface, ToolCircuit}

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	for _, t := range Tools {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// Button identifies the pointer button of an event.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// PointerEvent carries a position in surface pixels.
type PointerEvent struct {
	Pos    geom.Point
	Button Button
	Clicks int // 2 for a double click
}

// Options are thresholds in screen pixels unless noted.
type Options struct {
	SnapRadius   float64
	HandleRadius float64
	HitTolerance float64
	// MinRoomSize is the smallest room width or height, in document units.
	MinRoomSize float64
}

func DefaultOptions() Options {
	return Options{SnapRadius: 10, HandleRadius: 8, HitTolerance: 4, MinRoomSize: 1}
}

type gesture int

const (
	gestureNone gesture = iota
	gesturePan
	gestureDrag
	gestureResize
)

// Preview is the transient drawing state the renderer overlays on the plan.
type Preview struct {
	Tool      Tool
	Pending   []geom.Point
	Cursor    geom.Point
	HasCursor bool
	// Closing is set while the cursor would close the room polygon.
	Closing   bool
	Measuring string
}

// Controller routes pointer and key gestures to the store and viewport.
type Controller struct {
	store *store.Store
	view  *viewport.Viewport
	opts  Options

	tool      Tool
	spaceHeld bool

	gesture    gesture
	dragID     string
	dragOffset geom.Point
	resizeID   string
	resizeIdx  int

	measureID string
	pending   []geom.Point
	cursor    geom.Point
	hasCursor bool
	rooms     int

	// OnToolChange is called whenever the effective tool changes.
	OnToolChange func(Tool)

	log *slog.Logger
}

func New(s *store.Store, v *viewport.Viewport, opts Options) *Controller {
	def := DefaultOptions()
	if opts.SnapRadius <= 0 {
		opts.SnapRadius = def.SnapRadius
	}
	if opts.HandleRadius <= 0 {
		opts.HandleRadius = def.HandleRadius
	}
	if opts.HitTolerance < 0 {
		opts.HitTolerance = def.HitTolerance
	}
	if opts.MinRoomSize <= 0 {
		opts.MinRoomSize = def.MinRoomSize
	}
	return &Controller{store: s, view: v, opts: opts, tool: ToolSelect, log: applog.WithComponent("interact")}
}

// Tool returns the selected tool, ignoring a held space bar.
func (c *Controller) Tool() Tool { return c.tool }

// EffectiveTool is the tool pointer gestures currently use.
func (c *Controller) EffectiveTool() Tool {
	if c.spaceHeld {
		return ToolPan
	}
	return c.tool
}

// Drawing reports whether a room, surface or measurement is in progress.
func (c *Controller) Drawing() bool { return len(c.pending) > 0 || c.measureID != "" }

// SetTool switches tools, discarding any partial drawing of the old tool.
func (c *Controller) SetTool(t Tool) {
	if t == c.tool {
		return
	}
	c.abandon()
	c.endGesture()
	prev := c.EffectiveTool()
	c.tool = t
	c.log.Debug("tool changed", slog.String("tool", string(t)))
	c.notify(prev)
}

func (c *Controller) notify(prev Tool) {
	if now := c.EffectiveTool(); now != prev && c.OnToolChange != nil {
		c.OnToolChange(now)
	}
}

// SpaceDown forces the pan tool until SpaceUp.
func (c *Controller) SpaceDown() {
	if c.spaceHeld {
		return
	}
	prev := c.EffectiveTool()
	if c.gesture == gestureDrag || c.gesture == gestureResize {
		c.endGesture()
	}
	c.spaceHeld = true
	c.notify(prev)
}

// SpaceUp restores the tool that was active before SpaceDown.
func (c *Controller) SpaceUp() {
	if !c.spaceHeld {
		return
	}
	prev := c.EffectiveTool()
	if c.gesture == gesturePan {
		c.endGesture()
	}
	c.spaceHeld = false
	c.notify(prev)
}

// Preview returns the live drawing state.
func (c *Controller) Preview() Preview {
	p := Preview{Tool: c.EffectiveTool(), Cursor: c.cursor, HasCursor: c.hasCursor, Measuring: c.measureID}
	if len(c.pending) > 0 {
		p.Pending = append([]geom.Point(nil), c.pending...)
		p.Closing = c.tool == ToolDrawRoom && c.closesRoom(c.cursor)
	}
	return p
}

// PointerDown starts a gesture.
func (c *Controller) PointerDown(ev PointerEvent) {
	if ev.Button == ButtonSecondary {
		return
	}
	if ev.Button == ButtonMiddle || c.EffectiveTool() == ToolPan {
		c.view.BeginPan(ev.Pos)
		c.gesture = gesturePan
		return
	}
	doc := c.view.ScreenToDoc(ev.Pos)
	c.cursor, c.hasCursor = doc, true

	switch c.tool {
	case ToolSelect:
		c.selectDown(doc)
	case ToolMeasure:
		c.measureDown(doc)
	case ToolDrawRoom:
		// the double-click event repeats a vertex the single clicks already placed
		if ev.Clicks >= 2 {
			return
		}
		if len(c.pending) >= 3 && c.closesRoom(doc) {
			c.FinishRoom()
			return
		}
		if c.nearLastVertex(doc) {
			return
		}
		c.pending = append(c.pending, doc)
	case ToolSurface, ToolCircuit:
		if ev.Clicks >= 2 {
			if n := len(c.pending); n == 0 || c.pending[n-1] != doc {
				c.pending = append(c.pending, doc)
			}
			c.FinishSurface()
			return
		}
		c.pending = append(c.pending, doc)
	}
}

// PointerMove updates the active gesture and the preview cursor.
func (c *Controller) PointerMove(ev PointerEvent) {
	if c.gesture == gesturePan {
		c.view.PanTo(ev.Pos)
		return
	}
	doc := c.view.ScreenToDoc(ev.Pos)
	c.cursor, c.hasCursor = doc, true

	switch c.gesture {
	case gestureDrag:
		c.dragMove(doc)
		return
	case gestureResize:
		c.resizeMove(doc)
		return
	}
	if c.measureID != "" {
		c.updateMeasurement(doc)
	}
}

// PointerUp ends drag, resize and pan gestures. A measurement dragged out
// far enough is committed on release.
func (c *Controller) PointerUp(ev PointerEvent) {
	if c.gesture != gestureNone {
		c.endGesture()
		return
	}
	if c.measureID == "" {
		return
	}
	doc := c.view.ScreenToDoc(ev.Pos)
	it, ok := c.store.Get(c.measureID)
	if !ok {
		c.measureID = ""
		return
	}
	if geom.Distance(it.(*domain.Measurement).Start, doc) >= c.view.ScreenLength(c.opts.SnapRadius) {
		c.commitMeasurement(doc)
	}
}

// PointerLeave hides the preview cursor.
func (c *Controller) PointerLeave() { c.hasCursor = false }

func (c *Controller) endGesture() {
	if c.gesture == gesturePan {
		c.view.EndPan()
	}
	c.gesture = gestureNone
	c.dragID, c.resizeID = "", ""
}

// Cancel aborts the drawing in progress and returns to the select tool.
func (c *Controller) Cancel() {
	drawingTool := c.tool == ToolDrawRoom || c.tool == ToolSurface || c.tool == ToolCircuit || c.tool == ToolMeasure
	c.abandon()
	if drawingTool {
		c.SetTool(ToolSelect)
	}
}

// abandon drops partial drawing state.
func (c *Controller) abandon() {
	if len(c.pending) > 0 {
		c.log.Debug("drawing cancelled", slog.Int("points", len(c.pending)))
	}
	c.pending = nil
	if c.measureID != "" {
		_ = c.store.Delete(c.measureID)
		c.measureID = ""
	}
}

// Finish commits whatever the active tool is drawing (Enter key).
func (c *Controller) Finish() {
	switch c.tool {
	case ToolDrawRoom:
		c.FinishRoom()
	case ToolSurface, ToolCircuit:
		c.FinishSurface()
	}
}
