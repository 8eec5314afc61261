/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"floorplanner/internal/geom"
	"floorplanner/internal/render"
)

// ellipseSegments is the polygon resolution used for raster ellipses.
const ellipseSegments = 48

// Rasterize draws sc into a new RGBA image. Text uses the fixed 7x13
// bitmap face regardless of the primitive size.
func Rasterize(sc render.Scene, opt Options) *image.RGBA {
	opt = opt.withDefaults()
	f := newFrame(sc, opt)
	w, h := f.size()
	return rasterize(sc, f, int(math.Ceil(w)), int(math.Ceil(h)), opt.Background)
}

// RasterizeView draws the part of sc inside the document rectangle
// (x, y, docW, docH) into a pixW x pixH image. The live canvas uses it with
// the current view box.
func RasterizeView(sc render.Scene, x, y, docW, docH float64, pixW, pixH int, bg render.Color) *image.RGBA {
	if pixW < 1 {
		pixW = 1
	}
	if pixH < 1 {
		pixH = 1
	}
	scale := 1.0
	if docW > 0 {
		scale = float64(pixW) / docW
	}
	f := frame{minX: x, minY: y, w: docW, h: docH, scale: scale}
	return rasterize(sc, f, pixW, pixH, bg)
}

func rasterize(sc render.Scene, f frame, pixW, pixH int, bg render.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), image.NewUniform(toNRGBA(bg)), image.Point{}, draw.Src)

	r := &raster{img: img, f: f, z: vector.NewRasterizer(pixW, pixH)}
	for _, p := range sc.Prims {
		switch p.Kind {
		case render.PrimPolygon:
			r.fill(p.Points, p.Fill)
			r.stroke(p.Points, true, p.Stroke)
		case render.PrimPolyline:
			r.stroke(p.Points, false, p.Stroke)
		case render.PrimEllipse:
			pts := ellipsePoints(p, ellipseSegments)
			r.fill(pts, p.Fill)
			r.stroke(pts, true, p.Stroke)
		case render.PrimHandle:
			s := p.Size / 2
			pts := []geom.Point{{X: p.At.X - s, Y: p.At.Y - s}, {X: p.At.X + s, Y: p.At.Y - s}, {X: p.At.X + s, Y: p.At.Y + s}, {X: p.At.X - s, Y: p.At.Y + s}}
			r.fill(pts, p.Fill)
			r.stroke(pts, true, p.Stroke)
		case render.PrimText:
			r.text(p)
		}
	}
	return img
}

// WritePNG encodes the rasterized scene to w.
func WritePNG(w io.Writer, sc render.Scene, opt Options) error {
	if err := png.Encode(w, Rasterize(sc, opt)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPNG writes sc to path, creating parent directories.
func ExportPNG(path string, sc render.Scene, opt Options) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := WritePNG(out, sc, opt); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

func toNRGBA(c render.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

type raster struct {
	img *image.RGBA
	f   frame
	z   *vector.Rasterizer
}

func (r *raster) paint(c render.Color) {
	b := r.img.Bounds()
	r.z.Draw(r.img, b, image.NewUniform(toNRGBA(c)), image.Point{})
	r.z.Reset(b.Dx(), b.Dy())
}

func (r *raster) moveTo(p geom.Point) {
	x, y := r.f.pt(p)
	r.z.MoveTo(float32(x), float32(y))
}

func (r *raster) lineTo(p geom.Point) {
	x, y := r.f.pt(p)
	r.z.LineTo(float32(x), float32(y))
}

func (r *raster) fill(pts []geom.Point, c render.Color) {
	if c.A == 0 || len(pts) < 3 {
		return
	}
	r.moveTo(pts[0])
	for _, p := range pts[1:] {
		r.lineTo(p)
	}
	r.z.ClosePath()
	r.paint(c)
}

// stroke outlines each (dashed) segment as a quad of the stroke width.
func (r *raster) stroke(pts []geom.Point, closed bool, st render.Stroke) {
	if st.Width <= 0 || st.Color.A == 0 || len(pts) < 2 {
		return
	}
	path := pts
	if closed {
		path = append(append([]geom.Point(nil), pts...), pts[0])
	}
	half := st.Width / 2
	if r.f.dist(half) < 0.5 {
		half = 0.5 / r.f.scale
	}
	extend := st.Cap == render.CapSquare
	for _, seg := range dashSegments(path, st.Dash) {
		r.quad(seg[0], seg[1], half, extend)
	}
	r.paint(st.Color)
}

func (r *raster) quad(a, b geom.Point, half float64, extend bool) {
	l := geom.Distance(a, b)
	if l == 0 {
		return
	}
	d := b.Sub(a).Scale(1 / l)
	n := geom.Pt(-d.Y*half, d.X*half)
	if extend {
		a = a.Sub(d.Scale(half))
		b = b.Add(d.Scale(half))
	}
	r.moveTo(a.Add(n))
	r.lineTo(b.Add(n))
	r.lineTo(b.Sub(n))
	r.lineTo(a.Sub(n))
	r.z.ClosePath()
}

func (r *raster) text(p render.Primitive) {
	if p.Text == "" {
		return
	}
	s := strings.NewReplacer("×", "x", "…", "...").Replace(p.Text)
	face := basicfont.Face7x13
	x, y := r.f.pt(p.At)
	if p.Centered {
		x -= float64(font.MeasureString(face, s).Round()) / 2
	}
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(toNRGBA(p.Fill)),
		Face: face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(s)
}

// dashSegments splits a polyline into drawn segments following the on/off
// pattern. An empty pattern yields the polyline's own segments.
func dashSegments(path []geom.Point, dash []float64) [][2]geom.Point {
	var out [][2]geom.Point
	valid := len(dash) > 0
	for _, v := range dash {
		if v <= 0 {
			valid = false
		}
	}
	if !valid {
		for i := 1; i < len(path); i++ {
			out = append(out, [2]geom.Point{path[i-1], path[i]})
		}
		return out
	}
	idx, left, on := 0, dash[0], true
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		l := geom.Distance(a, b)
		pos := 0.0
		for pos < l {
			step := math.Min(left, l-pos)
			if on {
				p0 := a.Add(b.Sub(a).Scale(pos / l))
				p1 := a.Add(b.Sub(a).Scale((pos + step) / l))
				out = append(out, [2]geom.Point{p0, p1})
			}
			pos += step
			left -= step
			if left <= 1e-9 {
				idx = (idx + 1) % len(dash)
				left = dash[idx]
				on = !on
			}
		}
	}
	return out
}
