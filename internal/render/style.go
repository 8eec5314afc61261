/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"strconv"
	"strings"

	"floorplanner/internal/domain"
)

// Styles and paint definitions.

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

// Hex renders c as #rrggbb, dropping alpha.
func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Opacity is the alpha channel in [0,1].
func (c Color) Opacity() float64 { return float64(c.A) / 255 }

// ParseHex accepts #rgb and #rrggbb.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

type Stroke struct {
	Color Color
	Width float64
	Cap   LineCap
	// Dash alternates on/off lengths; empty means solid.
	Dash []float64
}

// Theme holds the paints the scene builder uses.
type Theme struct {
	RoomFill       Color
	RoomStroke     Color
	FurnitureLine  Color
	NoteFill       Color
	NoteStroke     Color
	Measure        Color
	Reference      Color
	Selection      Color
	Text           Color
	Preview        Color
	SurfaceColors  map[domain.SurfaceType]Color
	FontSize       float64 // screen px
	HandleSize     float64 // screen px
	SelectionWidth float64 // screen px
}

func DefaultTheme() Theme {
	return Theme{
		RoomFill:      Color{237, 242, 247, 200},
		RoomStroke:    Color{45, 55, 72, 255},
		FurnitureLine: Color{74, 85, 104, 255},
		NoteFill:      Color{254, 252, 191, 255},
		NoteStroke:    Color{214, 158, 46, 255},
		Measure:       Color{113, 128, 150, 255},
		Reference:     Color{229, 62, 62, 255},
		Selection:     Color{49, 130, 206, 255},
		Text:          Color{26, 32, 44, 255},
		Preview:       Color{49, 130, 206, 160},
		SurfaceColors: map[domain.SurfaceType]Color{
			domain.SurfaceWall:   {45, 55, 72, 255},
			domain.SurfaceWindow: {99, 179, 237, 255},
			domain.SurfaceDoor:   {156, 101, 57, 255},
			domain.SurfaceOther:  {221, 107, 32, 255},
		},
		FontSize:       12,
		HandleSize:     8,
		SelectionWidth: 1.5,
	}
}
