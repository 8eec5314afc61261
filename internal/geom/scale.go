/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"fmt"
	"strings"
)

// Scale maps document pixels to real-world meters: Pixels document units
// correspond to Meters meters. The zero value is uncalibrated.
type Scale struct {
	Pixels float64 `json:"pixels"`
	Meters float64 `json:"meters"`
}

// Calibrated reports whether s can convert pixels to meters.
func (s Scale) Calibrated() bool { return s.Pixels > 0 && s.Meters > 0 }

// ToMeters converts a pixel length. ok is false when s is uncalibrated.
func (s Scale) ToMeters(px float64) (m float64, ok bool) {
	if !s.Calibrated() {
		return 0, false
	}
	return px / s.Pixels * s.Meters, true
}

// ToPixels converts meters back to document pixels.
func (s Scale) ToPixels(m float64) (px float64, ok bool) {
	if !s.Calibrated() {
		return 0, false
	}
	return m / s.Meters * s.Pixels, true
}

// FormatDistance renders a length for display. A non-nil override (meters)
// is formatted directly; otherwise the pixel length is converted through
// the scale. Uncalibrated scales degrade to a raw "px" value.
func FormatDistance(pixelLength float64, s Scale, override *float64) string {
	if override != nil {
		return FormatMeters(*override)
	}
	m, ok := s.ToMeters(pixelLength)
	if !ok {
		return fmt.Sprintf("%.0fpx", pixelLength)
	}
	return FormatMeters(m)
}

// FormatMeters picks mm below one centimetre, cm below one metre and m otherwise.
func FormatMeters(m float64) string {
	switch {
	case m < 0.01:
		return fmt.Sprintf("%.1f mm", m*1000)
	case m < 1:
		return fmt.Sprintf("%.1f cm", m*100)
	default:
		return fmt.Sprintf("%.2f m", m)
	}
}

// Unit is a length unit accepted when a real length is declared.
type Unit string

const (
	UnitMeter      Unit = "m"
	UnitCentimeter Unit = "cm"
	UnitMillimeter Unit = "mm"
	UnitFoot       Unit = "ft"
	UnitInch       Unit = "in"
)

var metersPer = map[Unit]float64{
	UnitMeter:      1,
	UnitCentimeter: 0.01,
	UnitMillimeter: 0.001,
	UnitFoot:       0.3048,
	UnitInch:       0.0254,
}

// ParseUnit accepts the unit symbols above, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := metersPer[u]; !ok {
		return "", fmt.Errorf("unknown unit %q", s)
	}
	return u, nil
}

// ToMeters normalizes value expressed in unit to meters.
func ToMeters(value float64, unit Unit) (float64, error) {
	f, ok := metersPer[unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	return value * f, nil
}
