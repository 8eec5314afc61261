/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the placeable entities of a floor plan. Every entity is
// its own variant type implementing the sealed Item interface; code that
// needs kind-specific behaviour switches on the concrete type.

import (
	"encoding/json"
	"strings"

	"floorplanner/internal/geom"
)

// Kind is the discriminant written to the "type" field of every item.
type Kind string

const (
	KindRoom        Kind = "room"
	KindFurniture   Kind = "furniture"
	KindAnnotation  Kind = "annotation"
	KindMeasurement Kind = "measurement"
	KindSurface     Kind = "surface"
)

// Item is implemented only by the variants in this package.
type Item interface {
	ItemID() string
	Kind() Kind
	IsVisible() bool
	SetVisible(bool)
	// Anchor is the point an item is dragged and pasted by.
	Anchor() geom.Point
	Bounds() geom.Bounds
	// Hit reports whether p (document space) touches the item, with tol
	// document units of slack for thin shapes.
	Hit(p geom.Point, tol float64) bool
	Translate(d geom.Point)
	Clone() Item
	Label() string

	sealed()
}

// Base holds the fields shared by every entity.
type Base struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
}

func (b *Base) ItemID() string    { return b.ID }
func (b *Base) IsVisible() bool   { return b.Visible }
func (b *Base) SetVisible(v bool) { b.Visible = v }
func (b *Base) sealed()           {}

func newBase(id string) Base { return Base{ID: id, Visible: true} }

// MoveTo translates it so its anchor lands on target.
func MoveTo(it Item, target geom.Point) {
	it.Translate(target.Sub(it.Anchor()))
}

// Room is a closed polygon. X/Y hold the polygon centroid and Width/Height
// its bounding box; both are derived from Points by Normalize.
type Room struct {
	Base
	Name     string       `json:"name"`
	Points   []geom.Point `json:"points"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Rotation float64      `json:"rotation"`
}

func NewRoom(id, name string, points []geom.Point) *Room {
	r := &Room{Base: newBase(id), Name: name, Points: append([]geom.Point(nil), points...)}
	r.Normalize()
	return r
}

// Normalize recomputes the derived centroid and bounding box from Points.
func (r *Room) Normalize() {
	b := geom.PolygonBounds(r.Points)
	c := geom.PolygonCentroid(r.Points)
	r.Width, r.Height = b.Width, b.Height
	r.X, r.Y = c.X, c.Y
}

func (r *Room) Kind() Kind          { return KindRoom }
func (r *Room) Anchor() geom.Point  { return geom.Pt(r.X, r.Y) }
func (r *Room) Bounds() geom.Bounds { return geom.PolygonBounds(r.Points) }

func (r *Room) Translate(d geom.Point) {
	r.Points = geom.TranslatePoints(r.Points, d)
	r.Normalize()
}

func (r *Room) Hit(p geom.Point, tol float64) bool {
	if len(r.Points) == 0 {
		return false
	}
	if geom.PointInPolygon(p, r.Points) {
		return true
	}
	ring := append(append([]geom.Point(nil), r.Points...), r.Points[0])
	return geom.DistanceToPolyline(p, ring) <= tol
}

func (r *Room) Clone() Item {
	c := *r
	c.Points = append([]geom.Point(nil), r.Points...)
	return &c
}

func (r *Room) Label() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return "Room"
}

// Category separates regular furniture from electrical fixtures.
type Category string

const (
	CategoryFurniture  Category = "furniture"
	CategoryElectrical Category = "electrical"
)

// Shape is the outline furniture is drawn with.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeCircle    Shape = "circle"
)

const DefaultFurnitureColor = "#a0aec0"

// Furniture is anchored at its centre; rotation pivots there too.
type Furniture struct {
	Base
	Name     string   `json:"name"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation"`
	Category Category `json:"category"`
	Shape    Shape    `json:"shape"`
	Color    string   `json:"color"`
}

func NewFurniture(id, name string, center geom.Point, w, h float64) *Furniture {
	f := &Furniture{
		Base:     newBase(id),
		Name:     name,
		X:        center.X,
		Y:        center.Y,
		Width:    w,
		Height:   h,
		Category: CategoryFurniture,
		Shape:    ShapeRectangle,
		Color:    DefaultFurnitureColor,
	}
	f.Normalize()
	return f
}

// MinFurnitureSize is the floor applied to furniture width and height.
const MinFurnitureSize = 1.0

// Normalize wraps the rotation and floors the size.
func (f *Furniture) Normalize() {
	f.Rotation = geom.NormalizeDegrees(f.Rotation)
	f.Width = max(f.Width, MinFurnitureSize)
	f.Height = max(f.Height, MinFurnitureSize)
}

func (f *Furniture) Kind() Kind         { return KindFurniture }
func (f *Furniture) Anchor() geom.Point { return geom.Pt(f.X, f.Y) }
func (f *Furniture) Translate(d geom.Point) {
	f.X += d.X
	f.Y += d.Y
}

// Corners returns the rotated outline, clockwise from the top-left.
func (f *Furniture) Corners() []geom.Point {
	hw, hh := f.Width/2, f.Height/2
	m := geom.Translate(f.X, f.Y).Mul(geom.Rotate(geom.Radians(f.Rotation)))
	return []geom.Point{
		m.Apply(geom.Pt(-hw, -hh)),
		m.Apply(geom.Pt(hw, -hh)),
		m.Apply(geom.Pt(hw, hh)),
		m.Apply(geom.Pt(-hw, hh)),
	}
}

func (f *Furniture) Bounds() geom.Bounds { return geom.PolygonBounds(f.Corners()) }

func (f *Furniture) Hit(p geom.Point, tol float64) bool {
	c := f.Anchor()
	if f.Shape == ShapeCircle {
		return geom.PointInEllipse(p, c, f.Width+2*tol, f.Height+2*tol, f.Rotation)
	}
	return geom.PointInRotatedRect(p, c, f.Width+2*tol, f.Height+2*tol, f.Rotation)
}

func (f *Furniture) Clone() Item {
	c := *f
	return &c
}

func (f *Furniture) Label() string {
	if f.Name == "" {
		return "Furniture"
	}
	return f.Name
}

// Annotation boxes have a fixed size.
const (
	AnnotationWidth  = 120.0
	AnnotationHeight = 80.0
)

// Annotation is a sticky note anchored at its top-left corner.
type Annotation struct {
	Base
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

func NewAnnotation(id string, topLeft geom.Point, text string) *Annotation {
	return &Annotation{Base: newBase(id), X: topLeft.X, Y: topLeft.Y, Text: text}
}

func (a *Annotation) Kind() Kind         { return KindAnnotation }
func (a *Annotation) Anchor() geom.Point { return geom.Pt(a.X, a.Y) }
func (a *Annotation) Bounds() geom.Bounds {
	return geom.RectBounds(a.X, a.Y, AnnotationWidth, AnnotationHeight)
}
func (a *Annotation) Hit(p geom.Point, _ float64) bool { return a.Bounds().Contains(p) }
func (a *Annotation) Translate(d geom.Point) {
	a.X += d.X
	a.Y += d.Y
}
func (a *Annotation) Clone() Item {
	c := *a
	return &c
}

func (a *Annotation) Label() string {
	t := strings.TrimSpace(a.Text)
	if t == "" {
		return "Note"
	}
	if r := []rune(t); len(r) > 24 {
		return string(r[:24]) + "…"
	}
	return t
}

// Measurement is a two-point dimension line. RealLength is in meters and
// only meaningful while IsReference is set.
type Measurement struct {
	Base
	Start       geom.Point `json:"start"`
	End         geom.Point `json:"end"`
	IsReference bool       `json:"isReference"`
	RealLength  float64    `json:"realLength,omitempty"`
	IsSurface   bool       `json:"isSurface,omitempty"`
}

func NewMeasurement(id string, start, end geom.Point) *Measurement {
	return &Measurement{Base: newBase(id), Start: start, End: end}
}

func (m *Measurement) Kind() Kind           { return KindMeasurement }
func (m *Measurement) PixelLength() float64 { return geom.Distance(m.Start, m.End) }
func (m *Measurement) Anchor() geom.Point   { return geom.PathCentroid([]geom.Point{m.Start, m.End}) }
func (m *Measurement) Bounds() geom.Bounds  { return geom.PolygonBounds([]geom.Point{m.Start, m.End}) }
func (m *Measurement) Hit(p geom.Point, tol float64) bool {
	return geom.DistanceToSegment(p, m.Start, m.End) <= tol
}
func (m *Measurement) Translate(d geom.Point) {
	m.Start = m.Start.Add(d)
	m.End = m.End.Add(d)
}
func (m *Measurement) Clone() Item {
	c := *m
	return &c
}

func (m *Measurement) Label() string {
	if m.IsReference {
		return "Reference"
	}
	return "Measurement"
}

// Demote clears the reference flag and its declared length.
func (m *Measurement) Demote() {
	m.IsReference = false
	m.RealLength = 0
}

// SurfaceType classifies a linear building element.
type SurfaceType string

const (
	SurfaceWall   SurfaceType = "wall"
	SurfaceWindow SurfaceType = "window"
	SurfaceDoor   SurfaceType = "door"
	SurfaceOther  SurfaceType = "other"
)

const (
	DefaultWallThickness    = 5.0
	DefaultCircuitThickness = 2.0
)

// Surface is a wall, window, door or other run. Points, when present, is
// the full polyline and Start/End mirror its ends.
type Surface struct {
	Base
	Start       geom.Point   `json:"start"`
	End         geom.Point   `json:"end"`
	Points      []geom.Point `json:"points,omitempty"`
	SurfaceType SurfaceType  `json:"surfaceType"`
	Thickness   float64      `json:"thickness"`
}

func NewSurface(id string, st SurfaceType, path []geom.Point, thickness float64) *Surface {
	s := &Surface{Base: newBase(id), SurfaceType: st, Thickness: thickness}
	s.SetPath(path)
	return s
}

// SetPath stores path; two-point paths collapse to a plain segment.
func (s *Surface) SetPath(path []geom.Point) {
	if len(path) == 0 {
		return
	}
	s.Start, s.End = path[0], path[len(path)-1]
	if len(path) > 2 {
		s.Points = append([]geom.Point(nil), path...)
	} else {
		s.Points = nil
	}
}

// Path returns the polyline, falling back to Start/End.
func (s *Surface) Path() []geom.Point {
	if len(s.Points) >= 2 {
		return s.Points
	}
	return []geom.Point{s.Start, s.End}
}

func (s *Surface) Kind() Kind          { return KindSurface }
func (s *Surface) Anchor() geom.Point  { return geom.PathCentroid(s.Path()) }
func (s *Surface) Bounds() geom.Bounds { return geom.PolygonBounds(s.Path()) }
func (s *Surface) Hit(p geom.Point, tol float64) bool {
	return geom.DistanceToPolyline(p, s.Path()) <= max(tol, s.Thickness/2)
}
func (s *Surface) Translate(d geom.Point) {
	s.Start = s.Start.Add(d)
	s.End = s.End.Add(d)
	if len(s.Points) > 0 {
		s.Points = geom.TranslatePoints(s.Points, d)
	}
}
func (s *Surface) Clone() Item {
	c := *s
	c.Points = append([]geom.Point(nil), s.Points...)
	if len(s.Points) == 0 {
		c.Points = nil
	}
	return &c
}
func (s *Surface) Label() string {
	if s.SurfaceType == "" {
		return "Surface"
	}
	return strings.ToUpper(string(s.SurfaceType[:1])) + string(s.SurfaceType[1:])
}

// MarshalJSON methods inject the "type" discriminant.

func (r *Room) MarshalJSON() ([]byte, error) {
	type alias Room
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindRoom, (*alias)(r)})
}

func (f *Furniture) MarshalJSON() ([]byte, error) {
	type alias Furniture
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindFurniture, (*alias)(f)})
}

func (a *Annotation) MarshalJSON() ([]byte, error) {
	type alias Annotation
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindAnnotation, (*alias)(a)})
}

func (m *Measurement) MarshalJSON() ([]byte, error) {
	type alias Measurement
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindMeasurement, (*alias)(m)})
}

func (s *Surface) MarshalJSON() ([]byte, error) {
	type alias Surface
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindSurface, (*alias)(s)})
}
