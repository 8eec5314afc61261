/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"

	"floorplanner/internal/geom"
)

// Preset is a catalog entry for quick furniture placement. Sizes are in
// document pixels, drawn at one pixel per centimetre.
type Preset struct {
	Name     string
	Width    float64
	Height   float64
	Category Category
	Shape    Shape
}

// Presets lists the toolbox catalog in display order.
var Presets = []Preset{
	{Name: "Sofa", Width: 180, Height: 90, Category: CategoryFurniture, Shape: ShapeRectangle},
	{Name: "Bed", Width: 160, Height: 200, Category: CategoryFurniture, Shape: ShapeRectangle},
	{Name: "Table", Width: 120, Height: 70, Category: CategoryFurniture, Shape: ShapeRectangle},
	{Name: "Chair", Width: 60, Height: 60, Category: CategoryFurniture, Shape: ShapeCircle},
	{Name: "TV", Width: 140, Height: 15, Category: CategoryFurniture, Shape: ShapeRectangle},
	{Name: "Lamp", Width: 40, Height: 40, Category: CategoryFurniture, Shape: ShapeCircle},
	{Name: "Outlet", Width: 12, Height: 12, Category: CategoryElectrical, Shape: ShapeCircle},
	{Name: "Switch", Width: 10, Height: 10, Category: CategoryElectrical, Shape: ShapeRectangle},
}

// PresetByName finds a preset case-insensitively.
func PresetByName(name string) (Preset, error) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown preset %q", name)
}

// Instantiate creates furniture for the preset centred on c.
func (p Preset) Instantiate(c geom.Point) *Furniture {
	f := NewFurniture(NewID(KindFurniture), p.Name, c, p.Width, p.Height)
	f.Category = p.Category
	f.Shape = p.Shape
	if p.Category == CategoryElectrical {
		f.Color = "#ecc94b"
	}
	return f
}

// Default geometry for the "add room" and "add note" actions.
const (
	DefaultRoomWidth  = 400.0
	DefaultRoomHeight = 300.0
)

// DefaultRoom returns a rectangular room with its top-left at origin.
func DefaultRoom(origin geom.Point) *Room {
	x, y := origin.X, origin.Y
	return NewRoom(NewID(KindRoom), "Room", []geom.Point{
		{X: x, Y: y},
		{X: x + DefaultRoomWidth, Y: y},
		{X: x + DefaultRoomWidth, Y: y + DefaultRoomHeight},
		{X: x, Y: y + DefaultRoomHeight},
	})
}

// DefaultAnnotation returns a note at topLeft.
func DefaultAnnotation(topLeft geom.Point) *Annotation {
	return NewAnnotation(NewID(KindAnnotation), topLeft, "New note")
}
