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
	"io"

	"github.com/jung-kurt/gofpdf"

	"floorplanner/internal/geom"
	"floorplanner/internal/render"
	"floorplanner/internal/version"
)

// buildPDF lays the scene out on a single page sized to the drawing.
// Units are points; Options.Scale maps document units to points.
//
// Coordinates:
// - Page origin is top-left, matching document space.
// - Text uses built-in Helvetica so nothing is embedded.
func buildPDF(sc render.Scene, opt Options) *gofpdf.Fpdf {
	opt = opt.withDefaults()
	f := newFrame(sc, opt)
	w, h := f.size()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
		// orientation follows the size
		OrientationStr: "",
	})
	pdf.SetTitle(opt.Title, true)
	pdf.SetCreator("floorplanner "+version.String(), false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	setFillColor(pdf, opt.Background)
	pdf.Rect(0, 0, w, h, "F")

	for _, p := range sc.Prims {
		switch p.Kind {
		case render.PrimPolygon:
			pdfShape(pdf, f, p.Points, p.Fill, p.Stroke)
		case render.PrimPolyline:
			if !strokes(p.Stroke) {
				continue
			}
			applyStroke(pdf, f, p.Stroke)
			for i := 1; i < len(p.Points); i++ {
				x0, y0 := f.pt(p.Points[i-1])
				x1, y1 := f.pt(p.Points[i])
				pdf.Line(x0, y0, x1, y1)
			}
			resetStroke(pdf)
		case render.PrimEllipse:
			cx, cy := f.pt(p.Center)
			style := styleOf(p.Fill, p.Stroke)
			if style == "" {
				continue
			}
			setFillColor(pdf, p.Fill)
			applyStroke(pdf, f, p.Stroke)
			// gofpdf rotates counter-clockwise; document space is y-down
			pdf.Ellipse(cx, cy, f.dist(p.RX), f.dist(p.RY), -p.Rotation, style)
			resetStroke(pdf)
		case render.PrimHandle:
			s := p.Size / 2
			pdfShape(pdf, f, []geom.Point{
				{X: p.At.X - s, Y: p.At.Y - s}, {X: p.At.X + s, Y: p.At.Y - s},
				{X: p.At.X + s, Y: p.At.Y + s}, {X: p.At.X - s, Y: p.At.Y + s},
			}, p.Fill, p.Stroke)
		case render.PrimText:
			if p.Text == "" {
				continue
			}
			size := f.dist(p.Size)
			if size <= 0 {
				size = 12
			}
			pdf.SetFont("Helvetica", "", size)
			pdf.SetTextColor(int(p.Fill.R), int(p.Fill.G), int(p.Fill.B))
			txt := tr(p.Text)
			x, y := f.pt(p.At)
			if p.Centered {
				x -= pdf.GetStringWidth(txt) / 2
			}
			pdf.Text(x, y, txt)
		}
	}
	return pdf
}

// WritePDF renders sc as a one-page PDF to w.
func WritePDF(w io.Writer, sc render.Scene, opt Options) error {
	pdf := buildPDF(sc, opt)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes sc to path, creating parent directories.
func ExportPDF(path string, sc render.Scene, opt Options) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	pdf := buildPDF(sc, opt)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func strokes(st render.Stroke) bool { return st.Width > 0 && st.Color.A > 0 }

func styleOf(fill render.Color, st render.Stroke) string {
	switch {
	case fill.A > 0 && strokes(st):
		return "FD"
	case fill.A > 0:
		return "F"
	case strokes(st):
		return "D"
	}
	return ""
}

func pdfShape(pdf *gofpdf.Fpdf, f frame, pts []geom.Point, fill render.Color, st render.Stroke) {
	style := styleOf(fill, st)
	if style == "" || len(pts) < 2 {
		return
	}
	poly := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		x, y := f.pt(p)
		poly[i] = gofpdf.PointType{X: x, Y: y}
	}
	setFillColor(pdf, fill)
	if fill.A > 0 && fill.A < 255 {
		pdf.SetAlpha(fill.Opacity(), "Normal")
	}
	applyStroke(pdf, f, st)
	pdf.Polygon(poly, style)
	pdf.SetAlpha(1, "Normal")
	resetStroke(pdf)
}

func applyStroke(pdf *gofpdf.Fpdf, f frame, st render.Stroke) {
	setDrawColor(pdf, st.Color)
	pdf.SetLineWidth(f.dist(st.Width))
	switch st.Cap {
	case render.CapRound:
		pdf.SetLineCapStyle("round")
	case render.CapSquare:
		pdf.SetLineCapStyle("square")
	default:
		pdf.SetLineCapStyle("butt")
	}
	if len(st.Dash) > 0 {
		d := make([]float64, len(st.Dash))
		for i, v := range st.Dash {
			d[i] = f.dist(v)
		}
		pdf.SetDashPattern(d, 0)
	}
}

func resetStroke(pdf *gofpdf.Fpdf) {
	pdf.SetDashPattern([]float64{}, 0)
}

func setDrawColor(pdf *gofpdf.Fpdf, c render.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c render.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
