/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"fmt"
	"log/slog"
	"math"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
)

// minRoomArea rejects rings whose vertices are collinear.
const minRoomArea = 1e-6

func draggable(it domain.Item) bool {
	switch it.Kind() {
	case domain.KindRoom, domain.KindFurniture, domain.KindAnnotation:
		return true
	}
	return false
}

func (c *Controller) selectDown(doc geom.Point) {
	if idx, id, ok := c.vertexUnder(doc); ok {
		c.gesture = gestureResize
		c.resizeID, c.resizeIdx = id, idx
		return
	}
	it, ok := c.store.HitTest(doc, c.view.ScreenLength(c.opts.HitTolerance))
	if !ok {
		c.store.ClearSelection()
		return
	}
	_ = c.store.Select(it.ItemID())
	if draggable(it) {
		c.gesture = gestureDrag
		c.dragID = it.ItemID()
		c.dragOffset = doc.Sub(it.Anchor())
	}
}

// vertexUnder finds a vertex handle of the selected room near doc.
func (c *Controller) vertexUnder(doc geom.Point) (int, string, bool) {
	sel, ok := c.store.Selected()
	if !ok || !sel.IsVisible() {
		return 0, "", false
	}
	room, ok := sel.(*domain.Room)
	if !ok {
		return 0, "", false
	}
	r := c.view.ScreenLength(c.opts.HandleRadius)
	for i, v := range room.Points {
		if geom.Distance(v, doc) <= r {
			return i, room.ID, true
		}
	}
	return 0, "", false
}

func (c *Controller) dragMove(doc geom.Point) {
	it, ok := c.store.Get(c.dragID)
	if !ok {
		c.endGesture()
		return
	}
	domain.MoveTo(it, doc.Sub(c.dragOffset))
	_ = c.store.Update(it)
}

func (c *Controller) resizeMove(doc geom.Point) {
	it, ok := c.store.Get(c.resizeID)
	if !ok {
		c.endGesture()
		return
	}
	room, ok := it.(*domain.Room)
	if !ok || c.resizeIdx >= len(room.Points) {
		c.endGesture()
		return
	}
	pts := append([]geom.Point(nil), room.Points...)
	pts[c.resizeIdx] = doc
	if b := geom.PolygonBounds(pts); b.Width < c.opts.MinRoomSize || b.Height < c.opts.MinRoomSize {
		return
	}
	room.Points = pts
	room.Normalize()
	_ = c.store.Update(room)
}

func (c *Controller) measureDown(doc geom.Point) {
	if c.measureID != "" {
		if _, ok := c.store.Get(c.measureID); ok {
			c.commitMeasurement(doc)
			return
		}
		c.measureID = ""
	}
	m := domain.NewMeasurement(domain.NewID(domain.KindMeasurement), doc, doc)
	m.IsReference = !c.store.HasReference()
	if err := c.store.Add(m); err != nil {
		c.log.Warn("measurement not started", slog.Any("err", err))
		return
	}
	c.measureID = m.ID
}

func (c *Controller) updateMeasurement(doc geom.Point) {
	it, ok := c.store.Get(c.measureID)
	if !ok {
		c.measureID = ""
		return
	}
	m := it.(*domain.Measurement)
	m.End = doc
	_ = c.store.Update(m)
}

func (c *Controller) commitMeasurement(doc geom.Point) {
	id := c.measureID
	c.measureID = ""
	it, ok := c.store.Get(id)
	if !ok {
		return
	}
	m := it.(*domain.Measurement)
	m.End = doc
	if m.PixelLength() == 0 {
		_ = c.store.Delete(id)
		c.log.Debug("zero-length measurement discarded")
		c.SetTool(ToolSelect)
		return
	}
	_ = c.store.Update(m)
	if m.IsReference {
		if err := c.store.CalibrateDefault(id); err != nil {
			c.log.Warn("calibration failed", slog.String("id", id), slog.Any("err", err))
		}
	}
	_ = c.store.Select(id)
	c.SetTool(ToolSelect)
}

// closesRoom reports whether doc is within the snap radius of the first
// pending vertex.
func (c *Controller) closesRoom(doc geom.Point) bool {
	if len(c.pending) < 3 {
		return false
	}
	return geom.Distance(doc, c.pending[0]) <= c.view.ScreenLength(c.opts.SnapRadius)
}

// nearLastVertex reports whether doc is within the snap radius of the most
// recent pending vertex.
func (c *Controller) nearLastVertex(doc geom.Point) bool {
	n := len(c.pending)
	return n > 0 && geom.Distance(doc, c.pending[n-1]) <= c.view.ScreenLength(c.opts.SnapRadius)
}

// FinishRoom commits the pending polygon as a room when it has at least
// three distinct vertices enclosing an area at least MinRoomSize wide and
// high; anything less is cancelled. Either way the select tool is restored.
func (c *Controller) FinishRoom() (*domain.Room, bool) {
	pts := dedupe(c.pending)
	c.pending = nil
	defer c.SetTool(ToolSelect)
	if len(pts) < 3 {
		return nil, false
	}
	if b := geom.PolygonBounds(pts); b.Width < c.opts.MinRoomSize || b.Height < c.opts.MinRoomSize ||
		math.Abs(geom.SignedArea(pts)) < minRoomArea {
		c.log.Debug("degenerate room discarded", slog.Int("points", len(pts)))
		return nil, false
	}
	c.rooms++
	room := domain.NewRoom(domain.NewID(domain.KindRoom), fmt.Sprintf("Room %d", c.rooms), pts)
	if err := c.store.Add(room); err != nil {
		c.log.Warn("room not added", slog.Any("err", err))
		return nil, false
	}
	_ = c.store.Select(room.ID)
	c.log.Info("room drawn", slog.String("id", room.ID), slog.Int("points", len(pts)))
	return room, true
}

// FinishSurface commits the pending polyline as a wall (surface tool) or
// a circuit run (circuit tool). Fewer than two distinct points cancel.
func (c *Controller) FinishSurface() (*domain.Surface, bool) {
	pts := dedupe(c.pending)
	c.pending = nil
	tool := c.tool
	defer c.SetTool(ToolSelect)
	if len(pts) < 2 {
		return nil, false
	}
	st, thickness := domain.SurfaceWall, domain.DefaultWallThickness
	if tool == ToolCircuit {
		st, thickness = domain.SurfaceOther, domain.DefaultCircuitThickness
	}
	s := domain.NewSurface(domain.NewID(domain.KindSurface), st, pts, thickness)
	if err := c.store.Add(s); err != nil {
		c.log.Warn("surface not added", slog.Any("err", err))
		return nil, false
	}
	_ = c.store.Select(s.ID)
	c.log.Info("surface drawn", slog.String("id", s.ID), slog.String("type", string(st)), slog.Int("points", len(pts)))
	return s, true
}

// dedupe drops consecutive duplicate points.
func dedupe(pts []geom.Point) []geom.Point {
	var out []geom.Point
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}
