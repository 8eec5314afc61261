/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes a rendered plan to SVG, PNG and PDF files.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"floorplanner/internal/geom"
	"floorplanner/internal/render"
)

// Options shared by every exporter. Zero values get defaults.
type Options struct {
	// Margin around the drawing in document units.
	Margin float64
	// Scale is output units (px or pt) per document unit.
	Scale float64
	// Title ends up in document metadata where the format has any.
	Title      string
	Background render.Color
}

// Default page area for an empty plan.
const (
	emptyWidth  = 800.0
	emptyHeight = 600.0
)

func (o Options) withDefaults() Options {
	if o.Margin <= 0 {
		o.Margin = 40
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Background == (render.Color{}) {
		o.Background = render.White
	}
	if o.Title == "" {
		o.Title = "Floor plan"
	}
	return o
}

// frame maps document space onto the output page.
type frame struct {
	minX, minY float64
	w, h       float64 // document units, margin included
	scale      float64
}

func newFrame(sc render.Scene, o Options) frame {
	b := sc.Bounds
	if b.Width <= 0 || b.Height <= 0 {
		b = geom.RectBounds(b.MinX, b.MinY, math.Max(b.Width, emptyWidth), math.Max(b.Height, emptyHeight))
	}
	return frame{
		minX:  b.MinX - o.Margin,
		minY:  b.MinY - o.Margin,
		w:     b.Width + 2*o.Margin,
		h:     b.Height + 2*o.Margin,
		scale: o.Scale,
	}
}

// pt converts a document point to output coordinates.
func (f frame) pt(p geom.Point) (float64, float64) {
	return (p.X - f.minX) * f.scale, (p.Y - f.minY) * f.scale
}

func (f frame) dist(v float64) float64 { return v * f.scale }

func (f frame) size() (float64, float64) { return f.w * f.scale, f.h * f.scale }

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}

// ellipsePoints approximates a rotated ellipse with a closed polygon.
func ellipsePoints(p render.Primitive, segments int) []geom.Point {
	rot := geom.RotateAround(p.Center, geom.Radians(p.Rotation))
	out := make([]geom.Point, segments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(segments)
		out[i] = rot.Apply(geom.Pt(p.Center.X+p.RX*math.Cos(a), p.Center.Y+p.RY*math.Sin(a)))
	}
	return out
}
