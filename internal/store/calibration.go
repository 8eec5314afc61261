/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"fmt"
	"log/slog"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
)

// Scale returns the calibrated pixel/meter pair.
func (s *Store) Scale() geom.Scale { return s.scale }

// FormatLength formats a document length through the current scale.
func (s *Store) FormatLength(px float64) string { return geom.FormatDistance(px, s.scale, nil) }

// Reference returns a copy of the reference measurement, if any.
func (s *Store) Reference() (*domain.Measurement, bool) {
	for _, it := range s.items {
		if m, ok := it.(*domain.Measurement); ok && m.IsReference {
			return m.Clone().(*domain.Measurement), true
		}
	}
	return nil, false
}

// HasReference reports whether any measurement is flagged as reference.
func (s *Store) HasReference() bool {
	_, ok := s.Reference()
	return ok
}

func (s *Store) measurement(id string) (*domain.Measurement, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m, ok := s.items[i].(*domain.Measurement)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotMeasurement, id, s.items[i].Kind())
	}
	return m, nil
}

// promote flags m as the only reference, demoting every other measurement.
func (s *Store) promote(m *domain.Measurement, meters float64) {
	for _, it := range s.items {
		if o, ok := it.(*domain.Measurement); ok && o != m && o.IsReference {
			o.Demote()
		}
	}
	m.IsReference = true
	m.RealLength = meters
	s.scale = geom.Scale{Pixels: m.PixelLength(), Meters: meters}
}

// CalibrateDefault makes id the reference with a provisional real length of
// one meter. Used when the first measurement of a plan is committed.
func (s *Store) CalibrateDefault(id string) error {
	m, err := s.measurement(id)
	if err != nil {
		return err
	}
	if m.PixelLength() <= 0 {
		return fmt.Errorf("%w: measurement %s has zero length", ErrInvalidLength, id)
	}
	s.promote(m, 1)
	s.log.Info("scale calibrated", slog.String("id", id), slog.Float64("pixels", s.scale.Pixels), slog.Float64("meters", 1))
	s.changed()
	return nil
}

// DeclareReference assigns a real length to measurement id and makes it
// the reference. Any previous reference is demoted in the same call.
func (s *Store) DeclareReference(id string, value float64, unit geom.Unit) error {
	if value <= 0 {
		return ErrInvalidLength
	}
	meters, err := geom.ToMeters(value, unit)
	if err != nil {
		return err
	}
	m, err := s.measurement(id)
	if err != nil {
		return err
	}
	if m.PixelLength() <= 0 {
		return fmt.Errorf("%w: measurement %s has zero length", ErrInvalidLength, id)
	}
	s.promote(m, meters)
	s.log.Info("reference declared",
		slog.String("id", id),
		slog.Float64("pixels", s.scale.Pixels),
		slog.Float64("meters", meters),
		slog.String("unit", string(unit)))
	s.changed()
	return nil
}

// PromoteToSurface turns a measurement into a wall. The measurement stays
// in the plan, hidden and flagged as converted; the new wall is selected.
// A measurement converts once.
func (s *Store) PromoteToSurface(id string) (*domain.Surface, error) {
	m, err := s.measurement(id)
	if err != nil {
		return nil, err
	}
	if m.IsSurface {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyWall, id)
	}
	surf := domain.NewSurface(domain.NewID(domain.KindSurface), domain.SurfaceWall, []geom.Point{m.Start, m.End}, domain.DefaultWallThickness)
	m.IsSurface = true
	m.Visible = false
	s.items = append(s.items, surf.Clone())
	s.selected = surf.ID
	s.log.Info("measurement promoted", slog.String("measurement", id), slog.String("surface", surf.ID))
	s.changed()
	return surf, nil
}
