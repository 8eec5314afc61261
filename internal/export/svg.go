/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"floorplanner/internal/geom"
	"floorplanner/internal/render"
)

// WriteSVG renders sc as a standalone SVG document. Coordinates stay in
// document units; the viewBox frames the drawing and Scale only sets the
// width/height attributes.
func WriteSVG(w io.Writer, sc render.Scene, opt Options) error {
	opt = opt.withDefaults()
	f := newFrame(sc, opt)
	pxW, pxH := f.size()

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"%g %g %g %g\">\n",
		int(math.Round(pxW)), int(math.Round(pxH)), f.minX, f.minY, f.w, f.h)
	wf("  <title>%s</title>\n", escText(opt.Title))
	wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", f.minX, f.minY, f.w, f.h, opt.Background.Hex())
	if sc.Background != "" {
		wf("  <image href=\"%s\" x=\"0\" y=\"0\" preserveAspectRatio=\"xMinYMin\"/>\n", escAttr(sc.Background))
	}

	for _, p := range sc.Prims {
		switch p.Kind {
		case render.PrimPolygon:
			wf("  <polygon points=\"%s\" %s/>\n", svgPoints(p.Points), paint(p.Fill, p.Stroke))
		case render.PrimPolyline:
			wf("  <polyline points=\"%s\" %s/>\n", svgPoints(p.Points), paint(render.Transparent, p.Stroke))
		case render.PrimEllipse:
			wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" transform=\"rotate(%g %g %g)\" %s/>\n",
				p.Center.X, p.Center.Y, p.RX, p.RY, p.Rotation, p.Center.X, p.Center.Y, paint(p.Fill, p.Stroke))
		case render.PrimHandle:
			s := p.Size
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" %s/>\n", p.At.X-s/2, p.At.Y-s/2, s, s, paint(p.Fill, p.Stroke))
		case render.PrimText:
			anchor := "start"
			if p.Centered {
				anchor = "middle"
			}
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" text-anchor=\"%s\" fill=\"%s\">%s</text>\n",
				p.At.X, p.At.Y, p.Size, anchor, p.Fill.Hex(), escText(p.Text))
		}
	}
	wf("</svg>\n")

	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// ExportSVG writes sc to path, creating parent directories.
func ExportSVG(path string, sc render.Scene, opt Options) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sc, opt); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgPoints(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%g,%g", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func paint(fill render.Color, st render.Stroke) string {
	var sb strings.Builder
	if fill.A == 0 {
		sb.WriteString(`fill="none"`)
	} else {
		fmt.Fprintf(&sb, `fill="%s"`, fill.Hex())
		if fill.A < 255 {
			fmt.Fprintf(&sb, ` fill-opacity="%.3g"`, fill.Opacity())
		}
	}
	if st.Width <= 0 || st.Color.A == 0 {
		sb.WriteString(` stroke="none"`)
		return sb.String()
	}
	fmt.Fprintf(&sb, ` stroke="%s" stroke-width="%g"`, st.Color.Hex(), st.Width)
	if st.Color.A < 255 {
		fmt.Fprintf(&sb, ` stroke-opacity="%.3g"`, st.Color.Opacity())
	}
	switch st.Cap {
	case render.CapRound:
		sb.WriteString(` stroke-linecap="round"`)
	case render.CapSquare:
		sb.WriteString(` stroke-linecap="square"`)
	}
	if len(st.Dash) > 0 {
		d := make([]string, len(st.Dash))
		for i, v := range st.Dash {
			d[i] = fmt.Sprintf("%g", v)
		}
		fmt.Fprintf(&sb, ` stroke-dasharray="%s"`, strings.Join(d, " "))
	}
	return sb.String()
}

func escAttr(s string) string {
	// naive escaping sufficient for our simple usage
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, '&', 'q', 'u', 'o', 't', ';')
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
