/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"

	"floorplanner/internal/geom"
)

// Validation and migration work on the generic decoded document so that
// files written by older versions can be upgraded before typed decoding.

var (
	ErrNoItems = errors.New("project file has no items list")
	ErrNoScale = errors.New("project file has no scale")
)

// ValidateDocument checks the minimal shape of a project document.
func ValidateDocument(doc map[string]any) error {
	items, ok := doc["items"]
	if !ok {
		return ErrNoItems
	}
	if _, ok := items.([]any); !ok {
		return fmt.Errorf("%w: items is %T, want a list", ErrNoItems, items)
	}
	scale, ok := doc["scale"]
	if !ok {
		return ErrNoScale
	}
	if _, ok := scale.(map[string]any); !ok {
		return fmt.Errorf("%w: scale is %T, want an object", ErrNoScale, scale)
	}
	return nil
}

// Migrate backfills fields introduced after a document was written. It
// reports whether anything changed; running it twice is a no-op the
// second time.
func Migrate(doc map[string]any) bool {
	changed := false
	items, _ := doc["items"].([]any)
	for _, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if migrateItem(m) {
			changed = true
		}
	}
	if v, ok := doc["version"].(float64); !ok || int(v) != SchemaVersion {
		doc["version"] = float64(SchemaVersion)
		changed = true
	}
	return changed
}

func migrateItem(m map[string]any) bool {
	changed := setDefault(m, "visible", true)
	switch Kind(str(m["type"])) {
	case KindFurniture:
		changed = setDefault(m, "category", string(CategoryFurniture)) || changed
		changed = setDefault(m, "shape", string(ShapeRectangle)) || changed
		changed = setDefault(m, "color", DefaultFurnitureColor) || changed
		changed = setDefault(m, "rotation", 0.0) || changed
	case KindRoom:
		changed = migrateRoom(m) || changed
	case KindSurface:
		changed = setDefault(m, "surfaceType", string(SurfaceWall)) || changed
		changed = setDefault(m, "thickness", DefaultWallThickness) || changed
	case KindMeasurement:
		changed = setDefault(m, "isReference", false) || changed
	}
	return changed
}

func migrateRoom(m map[string]any) bool {
	changed := false
	pts := readPoints(m["points"])
	if len(pts) == 0 {
		// Rectangle rooms predate polygons: x/y was the top-left corner.
		x, y := num(m["x"]), num(m["y"])
		w, h := num(m["width"]), num(m["height"])
		if w <= 0 || h <= 0 {
			return false
		}
		pts = []geom.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
		m["points"] = writePoints(pts)
		delete(m, "x")
		delete(m, "y")
		changed = true
	}
	b := geom.PolygonBounds(pts)
	c := geom.PolygonCentroid(pts)
	for k, v := range map[string]float64{"width": b.Width, "height": b.Height, "x": c.X, "y": c.Y} {
		changed = setDefault(m, k, v) || changed
	}
	changed = setDefault(m, "name", "Room") || changed
	changed = setDefault(m, "rotation", 0.0) || changed
	return changed
}

func setDefault(m map[string]any, key string, v any) bool {
	if cur, ok := m[key]; ok && cur != nil {
		return false
	}
	m[key] = v
	return true
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	f, _ := v.(float64)
	return f
}

func readPoints(v any) []geom.Point {
	list, _ := v.([]any)
	out := make([]geom.Point, 0, len(list))
	for _, e := range list {
		pm, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, geom.Point{X: num(pm["x"]), Y: num(pm["y"])})
	}
	return out
}

func writePoints(pts []geom.Point) []any {
	out := make([]any, len(pts))
	for i, p := range pts {
		out[i] = map[string]any{"x": p.X, "y": p.Y}
	}
	return out
}
