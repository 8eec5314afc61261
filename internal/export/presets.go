/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"floorplanner/internal/render"
)

// Format is an output file type.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = ext[1:]
	}
	switch Format(s) {
	case FormatSVG, FormatPNG, FormatPDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format: %s", s)
}

// Write exports sc to path in format.
func Write(path string, format Format, sc render.Scene, opt Options) error {
	switch format {
	case FormatSVG:
		return ExportSVG(path, sc, opt)
	case FormatPNG:
		return ExportPNG(path, sc, opt)
	case FormatPDF:
		return ExportPDF(path, sc, opt)
	}
	return fmt.Errorf("unknown format: %s", format)
}

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export across multiple formats.
//
// Path semantics:
//   - OutDir is created when missing; files land in <OutDir>/<preset>/.
//   - Every file is named <Name>.<format>.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: pdf, png, svg; empty means preset defaults
	OutDir  string
	Name    string
	Options Options
}

// BatchExport runs exports according to the given preset and returns the
// written paths.
func BatchExport(sc render.Scene, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	name := opt.Name
	if name == "" {
		name = "plan"
	}
	preset := opt.Preset
	if preset == "" {
		preset = PresetWeb
	}
	base := filepath.Join(opt.OutDir, string(preset))

	var written []string
	for _, raw := range formats {
		f, err := ParseFormat(raw)
		if err != nil {
			return written, err
		}
		o := opt.Options
		if o.Scale <= 0 {
			o.Scale = presetScale(preset, f)
		}
		out := filepath.Join(base, name+"."+string(f))
		if err := Write(out, f, sc, o); err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		written = append(written, out)
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"png", "svg"}
	}
}

// presetScale picks output units per document unit. Print rasters are
// doubled; PDF maps one document pixel to 0.75pt (96 dpi).
func presetScale(p PresetName, f Format) float64 {
	switch {
	case f == FormatPDF:
		return 0.75
	case p == PresetPrint && f == FormatPNG:
		return 2
	default:
		return 1
	}
}
