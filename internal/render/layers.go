/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import "floorplanner/internal/domain"

// LayerRow is one line of the layer panel.
type LayerRow struct {
	ID       string
	Kind     domain.Kind
	Label    string
	Visible  bool
	Selected bool
}

// Layers lists items top-most first, the reverse of drawing order.
func Layers(items []domain.Item, selectedID string) []LayerRow {
	rows := make([]LayerRow, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if m, ok := it.(*domain.Measurement); ok && m.IsSurface {
			continue
		}
		rows = append(rows, LayerRow{
			ID:       it.ItemID(),
			Kind:     it.Kind(),
			Label:    kindLabel(it) + ": " + it.Label(),
			Visible:  it.IsVisible(),
			Selected: it.ItemID() == selectedID,
		})
	}
	return rows
}

func kindLabel(it domain.Item) string {
	if s, ok := it.(*domain.Surface); ok && s.SurfaceType == domain.SurfaceOther && s.Thickness == domain.DefaultCircuitThickness {
		return "Circuit"
	}
	switch it.Kind() {
	case domain.KindRoom:
		return "Room"
	case domain.KindFurniture:
		return "Furniture"
	case domain.KindAnnotation:
		return "Note"
	case domain.KindMeasurement:
		return "Measurement"
	case domain.KindSurface:
		return "Surface"
	}
	return string(it.Kind())
}
