/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"

	xdraw "golang.org/x/image/draw"

	"floorplanner/internal/export"
	"floorplanner/internal/render"
	"floorplanner/internal/viewport"
)

var errBadDataURI = errors.New("background is not a base64 data URI")

// encodeBackground turns image bytes into the data URI stored in the plan.
func encodeBackground(data []byte) string {
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// decodeBackground accepts a data URI or a local file path.
func decodeBackground(ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	var data []byte
	if strings.HasPrefix(ref, "data:") {
		meta, payload, ok := strings.Cut(ref[len("data:"):], ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, errBadDataURI
		}
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadDataURI, err)
		}
		data = b
	} else {
		b, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("read background: %w", err)
		}
		data = b
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	return img, nil
}

// composeView renders what the canvas shows: the background image at
// document origin in its natural size, then the scene on top.
func composeView(sc render.Scene, bg image.Image, box viewport.ViewBox, w, h int) *image.RGBA {
	if bg == nil {
		return export.RasterizeView(sc, box.X, box.Y, box.Width, box.Height, w, h, render.White)
	}
	out := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	if box.Width > 0 && box.Height > 0 {
		sx := float64(out.Bounds().Dx()) / box.Width
		sy := float64(out.Bounds().Dy()) / box.Height
		b := bg.Bounds()
		dst := image.Rect(
			int((0-box.X)*sx), int((0-box.Y)*sy),
			int((float64(b.Dx())-box.X)*sx), int((float64(b.Dy())-box.Y)*sy),
		)
		xdraw.ApproxBiLinear.Scale(out, dst, bg, b, xdraw.Over, nil)
	}
	scene := export.RasterizeView(sc, box.X, box.Y, box.Width, box.Height, w, h, render.Color{})
	draw.Draw(out, out.Bounds(), scene, image.Point{}, draw.Over)
	return out
}
