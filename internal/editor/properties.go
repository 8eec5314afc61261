/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
	"floorplanner/internal/render"
	"floorplanner/internal/store"
)

// ErrInvalidProperty is returned for values an item cannot take.
var ErrInvalidProperty = errors.New("invalid property value")

// Changes lists edits for the selected item. Nil fields stay as they are;
// fields the item's kind does not have are ignored.
type Changes struct {
	Name     *string  // room, furniture
	Rotation *float64 // room, furniture; degrees
	// Width and Height are document units; furniture only.
	Width  *float64
	Height *float64
	Shape  *domain.Shape
	Color  *string
	Text   *string // annotation

	SurfaceType *domain.SurfaceType
	Thickness   *float64
}

// Properties returns a copy of the selected item for display.
func (e *Editor) Properties() (domain.Item, bool) {
	return e.Store.Selected()
}

// UpdateSelected applies ch to the selected item. Nothing changes when a
// value is rejected.
func (e *Editor) UpdateSelected(ch Changes) error {
	it, ok := e.Store.Selected()
	if !ok {
		return store.ErrNotFound
	}
	var err error
	switch v := it.(type) {
	case *domain.Room:
		err = ch.applyRoom(v)
	case *domain.Furniture:
		err = ch.applyFurniture(v)
	case *domain.Annotation:
		if ch.Text != nil {
			v.Text = *ch.Text
		}
	case *domain.Surface:
		err = ch.applySurface(v)
	case *domain.Measurement:
		// calibrated and promoted through the scale operations
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.Store.Update(it); err != nil {
		return err
	}
	e.log.Debug("properties updated", slog.String("id", it.ItemID()), slog.String("kind", string(it.Kind())))
	return nil
}

func (ch Changes) applyRoom(r *domain.Room) error {
	if ch.Name != nil {
		r.Name = strings.TrimSpace(*ch.Name)
	}
	if ch.Rotation != nil {
		r.Rotation = geom.NormalizeDegrees(*ch.Rotation)
	}
	return nil
}

func (ch Changes) applyFurniture(f *domain.Furniture) error {
	if ch.Width != nil && *ch.Width <= 0 {
		return fmt.Errorf("%w: width %g", ErrInvalidProperty, *ch.Width)
	}
	if ch.Height != nil && *ch.Height <= 0 {
		return fmt.Errorf("%w: height %g", ErrInvalidProperty, *ch.Height)
	}
	if ch.Shape != nil && *ch.Shape != domain.ShapeRectangle && *ch.Shape != domain.ShapeCircle {
		return fmt.Errorf("%w: shape %q", ErrInvalidProperty, *ch.Shape)
	}
	if ch.Color != nil {
		if _, err := render.ParseHex(*ch.Color); err != nil {
			return fmt.Errorf("%w: color %q", ErrInvalidProperty, *ch.Color)
		}
		f.Color = strings.ToLower(strings.TrimSpace(*ch.Color))
	}
	if ch.Name != nil {
		f.Name = strings.TrimSpace(*ch.Name)
	}
	if ch.Width != nil {
		f.Width = *ch.Width
	}
	if ch.Height != nil {
		f.Height = *ch.Height
	}
	if ch.Rotation != nil {
		f.Rotation = *ch.Rotation
	}
	if ch.Shape != nil {
		f.Shape = *ch.Shape
	}
	f.Normalize()
	return nil
}

func (ch Changes) applySurface(s *domain.Surface) error {
	if ch.SurfaceType != nil {
		switch *ch.SurfaceType {
		case domain.SurfaceWall, domain.SurfaceWindow, domain.SurfaceDoor, domain.SurfaceOther:
		default:
			return fmt.Errorf("%w: surface type %q", ErrInvalidProperty, *ch.SurfaceType)
		}
	}
	if ch.Thickness != nil && *ch.Thickness <= 0 {
		return fmt.Errorf("%w: thickness %g", ErrInvalidProperty, *ch.Thickness)
	}
	if ch.SurfaceType != nil {
		s.SurfaceType = *ch.SurfaceType
	}
	if ch.Thickness != nil {
		s.Thickness = *ch.Thickness
	}
	return nil
}
