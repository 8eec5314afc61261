/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom is the geometry kernel of the editor: points and bounds in
// document space, polygon helpers, hit tests, affine transforms and the
// scale-aware distance formatting used by every label on the canvas.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in document space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromVec(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return fromVec(r2.Add(p.vec(), q.vec())) }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return fromVec(r2.Sub(p.vec(), q.vec())) }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return fromVec(r2.Scale(f, p.vec())) }

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
	Width      float64
	Height     float64
}

// Contains reports whether p lies inside b (edges included).
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.Y >= b.MinY && p.X <= b.MaxX && p.Y <= b.MaxY
}

// Center returns the middle of the box.
func (b Bounds) Center() Point { return Point{X: b.MinX + b.Width/2, Y: b.MinY + b.Height/2} }

// Union returns the minimal box containing both.
func (b Bounds) Union(o Bounds) Bounds {
	return boundsOf(math.Min(b.MinX, o.MinX), math.Min(b.MinY, o.MinY), math.Max(b.MaxX, o.MaxX), math.Max(b.MaxY, o.MaxY))
}

func boundsOf(minX, minY, maxX, maxY float64) Bounds {
	return Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY, Width: maxX - minX, Height: maxY - minY}
}

// RectBounds returns the box of a rectangle given by its top-left corner and size.
func RectBounds(x, y, w, h float64) Bounds { return boundsOf(x, y, x+w, y+h) }

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 { return r2.Norm(r2.Sub(b.vec(), a.vec())) }

// PolygonBounds scans points for their extent. Empty input yields the zero Bounds.
func PolygonBounds(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return boundsOf(minX, minY, maxX, maxY)
}

// PathCentroid is the arithmetic mean of the points. Used for open point
// lists such as polylines, where an enclosed area is meaningless.
func PathCentroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n}
}

// PolygonCentroid returns the area centroid of the ring described by points.
// The ring is implicitly closed; a repeated closing vertex is ignored.
// Degenerate rings (zero signed area) fall back to PathCentroid.
func PolygonCentroid(points []Point) Point {
	ring := openRing(points)
	if len(ring) < 3 {
		return PathCentroid(ring)
	}
	area := SignedArea(ring)
	if math.Abs(area) < 1e-12 {
		return PathCentroid(ring)
	}
	var cx, cy float64
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		cross := r2.Cross(a.vec(), b.vec())
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
	}
	return Point{X: cx / (6 * area), Y: cy / (6 * area)}
}

// SignedArea uses the shoelace formula; positive for counter-clockwise rings
// in a y-up frame.
func SignedArea(points []Point) float64 {
	ring := openRing(points)
	if len(ring) < 3 {
		return 0
	}
	var s float64
	for i := range ring {
		s += r2.Cross(ring[i].vec(), ring[(i+1)%len(ring)].vec())
	}
	return s / 2
}

func openRing(points []Point) []Point {
	if n := len(points); n > 1 && points[0] == points[n-1] {
		return points[:n-1]
	}
	return points
}

// TranslatePoints returns a copy of points moved by d.
func TranslatePoints(points []Point, d Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.Add(d)
	}
	return out
}

// PointInPolygon is an even-odd ray cast.
func PointInPolygon(p Point, poly []Point) bool {
	ring := openRing(poly)
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// DistanceToSegment is the shortest distance from p to segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	ab := r2.Sub(b.vec(), a.vec())
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return Distance(p, a)
	}
	t := r2.Dot(r2.Sub(p.vec(), a.vec()), ab) / l2
	t = math.Max(0, math.Min(1, t))
	proj := r2.Add(a.vec(), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p.vec(), proj))
}

// DistanceToPolyline is the shortest distance from p to any segment of the open path.
func DistanceToPolyline(p Point, path []Point) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return Distance(p, path[0])
	}
	best := math.Inf(1)
	for i := 1; i < len(path); i++ {
		best = math.Min(best, DistanceToSegment(p, path[i-1], path[i]))
	}
	return best
}

// PointInRotatedRect tests p against a w*h rectangle centred on c and rotated
// by deg degrees around its centre.
func PointInRotatedRect(p, c Point, w, h, deg float64) bool {
	q := Rotate(-Radians(deg)).Apply(p.Sub(c))
	return math.Abs(q.X) <= w/2 && math.Abs(q.Y) <= h/2
}

// PointInEllipse tests p against the ellipse inscribed in a w*h box centred on c.
func PointInEllipse(p, c Point, w, h, deg float64) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	q := Rotate(-Radians(deg)).Apply(p.Sub(c))
	rx, ry := w/2, h/2
	return (q.X*q.X)/(rx*rx)+(q.Y*q.Y)/(ry*ry) <= 1
}

// Radians converts degrees.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// NormalizeDegrees wraps deg into [0,360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Round rounds v to n decimal places.
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
