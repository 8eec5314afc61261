/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render projects editor state into a flat list of vector
// primitives in document space. It holds no state of its own; the canvas
// widget and the file exporters both draw from a Scene.
package render

import (
	"fmt"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
	"floorplanner/internal/interact"
)

type PrimKind uint8

const (
	PrimPolygon PrimKind = iota
	PrimPolyline
	PrimEllipse
	PrimText
	PrimHandle
)

// Primitive is one drawable. Which fields matter depends on Kind:
// polygons and polylines use Points, ellipses Center/RX/RY/Rotation, text
// and handles At.
type Primitive struct {
	Kind     PrimKind
	ItemID   string
	Points   []geom.Point
	Center   geom.Point
	RX, RY   float64
	Rotation float64 // degrees
	At       geom.Point
	Text     string
	Size     float64
	// Centered text is anchored at its horizontal middle, otherwise at its
	// left edge. Baseline is At.Y in both cases.
	Centered bool
	Fill     Color
	Stroke   Stroke
}

// Scene is ordered back to front.
type Scene struct {
	Prims      []Primitive
	Bounds     geom.Bounds
	Background string
}

// Input is everything a frame depends on.
type Input struct {
	Items      []domain.Item
	SelectedID string
	Scale      geom.Scale
	Background string
	Preview    *interact.Preview
	// Ratio is document units per screen pixel; sizes given in screen
	// pixels by the theme are multiplied by it.
	Ratio float64
	Theme *Theme
}

type builder struct {
	in    Input
	th    Theme
	ratio float64
	prims []Primitive
}

// Build projects in into a scene. Hidden items are skipped.
func Build(in Input) Scene {
	b := &builder{in: in, th: DefaultTheme(), ratio: in.Ratio}
	if in.Theme != nil {
		b.th = *in.Theme
	}
	if b.ratio <= 0 {
		b.ratio = 1
	}
	var bounds geom.Bounds
	first := true
	var selected domain.Item
	for _, it := range in.Items {
		if !it.IsVisible() {
			continue
		}
		if first {
			bounds, first = it.Bounds(), false
		} else {
			bounds = bounds.Union(it.Bounds())
		}
		b.item(it)
		if it.ItemID() == in.SelectedID {
			selected = it
		}
	}
	if selected != nil {
		b.selection(selected)
	}
	if in.Preview != nil {
		b.preview(*in.Preview)
	}
	return Scene{Prims: b.prims, Bounds: bounds, Background: in.Background}
}

func (b *builder) px(v float64) float64 { return v * b.ratio }

func (b *builder) length(px float64) string { return geom.FormatDistance(px, b.in.Scale, nil) }

func (b *builder) add(p Primitive) { b.prims = append(b.prims, p) }

func (b *builder) text(id string, at geom.Point, s string) {
	b.add(Primitive{Kind: PrimText, ItemID: id, At: at, Text: s, Size: b.px(b.th.FontSize), Fill: b.th.Text, Centered: true})
}

func (b *builder) item(it domain.Item) {
	switch v := it.(type) {
	case *domain.Room:
		b.add(Primitive{
			Kind: PrimPolygon, ItemID: v.ID, Points: v.Points, Fill: b.th.RoomFill,
			Stroke: Stroke{Color: b.th.RoomStroke, Width: b.px(2)},
		})
		c := v.Anchor()
		b.text(v.ID, c, v.Label())
		b.text(v.ID, c.Add(geom.Pt(0, b.px(b.th.FontSize*1.3))), dims(b.length(v.Width), b.length(v.Height)))
	case *domain.Furniture:
		b.furniture(v)
	case *domain.Annotation:
		bb := v.Bounds()
		b.add(Primitive{
			Kind: PrimPolygon, ItemID: v.ID, Points: rect(bb), Fill: b.th.NoteFill,
			Stroke: Stroke{Color: b.th.NoteStroke, Width: b.px(1)},
		})
		b.add(Primitive{
			Kind: PrimText, ItemID: v.ID, At: geom.Pt(bb.MinX+6, bb.MinY+6+b.th.FontSize),
			Text: v.Text, Size: b.th.FontSize, Fill: b.th.Text,
		})
	case *domain.Measurement:
		col := b.th.Measure
		var override *float64
		if v.IsReference {
			col = b.th.Reference
			if v.RealLength > 0 {
				override = &v.RealLength
			}
		}
		b.add(Primitive{
			Kind: PrimPolyline, ItemID: v.ID, Points: []geom.Point{v.Start, v.End},
			Stroke: Stroke{Color: col, Width: b.px(1.5), Dash: []float64{b.px(6), b.px(4)}},
		})
		b.text(v.ID, v.Anchor(), geom.FormatDistance(v.PixelLength(), b.in.Scale, override))
	case *domain.Surface:
		col, ok := b.th.SurfaceColors[v.SurfaceType]
		if !ok {
			col = b.th.SurfaceColors[domain.SurfaceOther]
		}
		path := v.Path()
		b.add(Primitive{
			Kind: PrimPolyline, ItemID: v.ID, Points: path,
			Stroke: Stroke{Color: col, Width: v.Thickness, Cap: CapSquare},
		})
		if v.SurfaceType != domain.SurfaceOther {
			b.text(v.ID, v.Anchor(), b.length(pathLength(path)))
		}
	}
}

func (b *builder) furniture(f *domain.Furniture) {
	fill, err := ParseHex(f.Color)
	if err != nil {
		fill, _ = ParseHex(domain.DefaultFurnitureColor)
	}
	stroke := Stroke{Color: b.th.FurnitureLine, Width: b.px(1)}
	if f.Shape == domain.ShapeCircle {
		b.add(Primitive{
			Kind: PrimEllipse, ItemID: f.ID, Center: f.Anchor(), RX: f.Width / 2, RY: f.Height / 2,
			Rotation: f.Rotation, Fill: fill, Stroke: stroke,
		})
	} else {
		b.add(Primitive{Kind: PrimPolygon, ItemID: f.ID, Points: f.Corners(), Fill: fill, Stroke: stroke})
	}
	if f.Category == domain.CategoryElectrical {
		return
	}
	b.text(f.ID, f.Anchor(), f.Label())
	b.text(f.ID, f.Anchor().Add(geom.Pt(0, b.px(b.th.FontSize*1.3))), dims(b.length(f.Width), b.length(f.Height)))
}

func (b *builder) selection(it domain.Item) {
	st := Stroke{Color: b.th.Selection, Width: b.px(b.th.SelectionWidth), Dash: []float64{b.px(4), b.px(3)}}
	if r, ok := it.(*domain.Room); ok {
		b.add(Primitive{Kind: PrimPolygon, ItemID: r.ID, Points: r.Points, Stroke: st})
		for _, p := range r.Points {
			b.add(Primitive{Kind: PrimHandle, ItemID: r.ID, At: p, Size: b.px(b.th.HandleSize), Fill: White, Stroke: Stroke{Color: b.th.Selection, Width: b.px(1)}})
		}
		return
	}
	pad := b.px(3)
	bb := it.Bounds()
	bb = geom.RectBounds(bb.MinX-pad, bb.MinY-pad, bb.Width+2*pad, bb.Height+2*pad)
	b.add(Primitive{Kind: PrimPolygon, ItemID: it.ItemID(), Points: rect(bb), Stroke: st})
}

func (b *builder) preview(p interact.Preview) {
	if len(p.Pending) == 0 {
		return
	}
	st := Stroke{Color: b.th.Preview, Width: b.px(1.5), Dash: []float64{b.px(5), b.px(3)}}
	pts := append([]geom.Point(nil), p.Pending...)
	if p.HasCursor {
		pts = append(pts, p.Cursor)
	}
	b.add(Primitive{Kind: PrimPolyline, Points: pts, Stroke: st})
	for i, v := range p.Pending {
		h := Primitive{Kind: PrimHandle, At: v, Size: b.px(b.th.HandleSize / 2), Fill: White, Stroke: Stroke{Color: b.th.Preview, Width: b.px(1)}}
		if i == 0 && p.Closing {
			h.Size = b.px(b.th.HandleSize)
			h.Fill = b.th.Selection
		}
		b.add(h)
	}
	if p.HasCursor {
		last := p.Pending[len(p.Pending)-1]
		mid := geom.PathCentroid([]geom.Point{last, p.Cursor})
		b.text("", mid, b.length(geom.Distance(last, p.Cursor)))
	}
}

func dims(w, h string) string { return fmt.Sprintf("%s × %s", w, h) }

func rect(bb geom.Bounds) []geom.Point {
	return []geom.Point{{X: bb.MinX, Y: bb.MinY}, {X: bb.MaxX, Y: bb.MinY}, {X: bb.MaxX, Y: bb.MaxY}, {X: bb.MinX, Y: bb.MaxY}}
}

func pathLength(path []geom.Point) float64 {
	var n float64
	for i := 1; i < len(path); i++ {
		n += geom.Distance(path[i-1], path[i])
	}
	return n
}
