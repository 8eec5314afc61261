/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport maps the visible rectangle of document space (the view
// box) onto the pixels of the drawing surface and implements pan and
// cursor-anchored zoom on top of that mapping.
package viewport

import (
	"math"

	"floorplanner/internal/geom"
)

// ViewBox is the visible rectangle in document space.
type ViewBox struct {
	X, Y          float64
	Width, Height float64
}

const (
	DefaultZoomFactor = 1.1
	MinRatio          = 0.05
	MaxRatio          = 20.0
)

// Viewport is not safe for concurrent use.
type Viewport struct {
	box          ViewBox
	surfW, surfH float64
	ZoomFactor   float64
	panning      bool
	panLast      geom.Point
}

func New() *Viewport { return &Viewport{ZoomFactor: DefaultZoomFactor} }

// Mounted reports whether a surface size is known.
func (v *Viewport) Mounted() bool { return v.surfW > 0 && v.surfH > 0 }

func (v *Viewport) ViewBox() ViewBox { return v.box }

// Surface returns the on-screen size in pixels.
func (v *Viewport) Surface() (w, h float64) { return v.surfW, v.surfH }

// Ratio is document units per screen pixel; 1 means no zoom.
func (v *Viewport) Ratio() float64 {
	if !v.Mounted() || v.box.Width <= 0 {
		return 1
	}
	return v.box.Width / v.surfW
}

// Resize tracks a new surface size. The origin is kept; the first resize
// maps 1:1 and later ones keep the current zoom ratio.
func (v *Viewport) Resize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	r := v.Ratio()
	v.surfW, v.surfH = w, h
	v.box.Width, v.box.Height = w*r, h*r
}

// ScreenToDoc converts a surface pixel position to document space.
func (v *Viewport) ScreenToDoc(p geom.Point) geom.Point {
	if !v.Mounted() {
		return p
	}
	r := v.Ratio()
	return geom.Pt(v.box.X+p.X*r, v.box.Y+p.Y*r)
}

// DocToScreen converts a document position to surface pixels.
func (v *Viewport) DocToScreen(p geom.Point) geom.Point {
	if !v.Mounted() {
		return p
	}
	return v.Transform().Apply(p)
}

// Transform is the document-to-screen affine transform.
func (v *Viewport) Transform() geom.Affine2D {
	if !v.Mounted() {
		return geom.Identity
	}
	s := 1 / v.Ratio()
	return geom.Scaling(s, s).Mul(geom.Translate(-v.box.X, -v.box.Y))
}

// ScreenLength converts a screen distance to document units.
func (v *Viewport) ScreenLength(px float64) float64 { return px * v.Ratio() }

// Center returns the document point in the middle of the surface.
func (v *Viewport) Center() geom.Point {
	return geom.Pt(v.box.X+v.box.Width/2, v.box.Y+v.box.Height/2)
}

// BeginPan records the screen position a pan starts from.
func (v *Viewport) BeginPan(screen geom.Point) {
	v.panning = true
	v.panLast = screen
}

func (v *Viewport) Panning() bool { return v.panning }

// PanTo moves the origin against the pointer movement since the last call.
func (v *Viewport) PanTo(screen geom.Point) {
	if !v.panning {
		return
	}
	v.PanBy(screen.Sub(v.panLast))
	v.panLast = screen
}

// PanBy shifts the view by a screen-space delta.
func (v *Viewport) PanBy(d geom.Point) {
	if !v.Mounted() {
		return
	}
	r := v.Ratio()
	v.box.X -= d.X * r
	v.box.Y -= d.Y * r
}

func (v *Viewport) EndPan() { v.panning = false }

// Zoom scales the view around the screen position p. Positive wheel deltas
// zoom out, negative ones zoom in.
func (v *Viewport) Zoom(p geom.Point, wheelDeltaY float64) {
	if !v.Mounted() || wheelDeltaY == 0 {
		return
	}
	f := v.ZoomFactor
	if f <= 1 {
		f = DefaultZoomFactor
	}
	if wheelDeltaY < 0 {
		f = 1 / f
	}
	v.ZoomBy(p, f)
}

// ZoomBy multiplies the view size by factor keeping the document point
// under screen position p fixed. The ratio is clamped.
func (v *Viewport) ZoomBy(p geom.Point, factor float64) {
	if !v.Mounted() || factor <= 0 {
		return
	}
	anchor := v.ScreenToDoc(p)
	r := math.Max(MinRatio, math.Min(MaxRatio, v.Ratio()*factor))
	v.box.Width, v.box.Height = v.surfW*r, v.surfH*r
	v.box.X = anchor.X - p.X*r
	v.box.Y = anchor.Y - p.Y*r
}

// Reset restores 1:1 mapping at the document origin.
func (v *Viewport) Reset() {
	v.box = ViewBox{Width: v.surfW, Height: v.surfH}
}

// Fit zooms so b fills the surface with margin screen pixels on each side.
func (v *Viewport) Fit(b geom.Bounds, margin float64) {
	if !v.Mounted() || b.Width <= 0 || b.Height <= 0 {
		return
	}
	aw, ah := v.surfW-2*margin, v.surfH-2*margin
	if aw <= 0 || ah <= 0 {
		aw, ah = v.surfW, v.surfH
	}
	r := math.Max(MinRatio, math.Min(MaxRatio, math.Max(b.Width/aw, b.Height/ah)))
	v.box.Width, v.box.Height = v.surfW*r, v.surfH*r
	c := b.Center()
	v.box.X = c.X - v.box.Width/2
	v.box.Y = c.Y - v.box.Height/2
}
