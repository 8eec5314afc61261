/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
)

func TestPasteProducesFreshIDAndOffset(t *testing.T) {
	s := seeded(t)
	_, ok := s.Paste()
	require.False(t, ok, "paste with empty clipboard is a no-op")
	require.False(t, s.Copy(), "copy without selection")

	require.NoError(t, s.Select("b"))
	require.True(t, s.Copy())
	pasted, ok := s.Paste()
	require.True(t, ok)

	existing := map[string]bool{"a": true, "b": true, "c": true}
	require.False(t, existing[pasted.ItemID()])
	require.Equal(t, pasted.ItemID(), s.SelectedID())
	f := pasted.(*domain.Furniture)
	require.Equal(t, 120.0, f.X)
	require.Equal(t, 20.0, f.Y)

	second, _ := s.Paste()
	require.NotEqual(t, pasted.ItemID(), second.ItemID())
	require.Equal(t, 140.0, second.(*domain.Furniture).X, "pastes cascade")

	require.NoError(t, s.Delete(pasted.ItemID()))
	src, ok := s.Get("b")
	require.True(t, ok, "deleting a pasted copy leaves the source intact")
	require.Equal(t, 100.0, src.(*domain.Furniture).X)
}

func TestPasteRoomMovesCentroid(t *testing.T) {
	s := New()
	room := domain.NewRoom("r1", "Hall", []geom.Point{{0, 0}, {400, 0}, {400, 300}, {0, 300}})
	require.NoError(t, s.Add(room))
	require.NoError(t, s.Select("r1"))
	require.True(t, s.Copy())

	it, ok := s.PasteAt(geom.Pt(1000, 1000))
	require.True(t, ok)
	r := it.(*domain.Room)
	require.InDelta(t, 1000, r.X, 1e-9)
	require.InDelta(t, 1000, r.Y, 1e-9)
	require.InDelta(t, 800, r.Points[0].X, 1e-9)
	require.InDelta(t, 850, r.Points[0].Y, 1e-9)
	require.Equal(t, 400.0, r.Width)
	require.Equal(t, 300.0, r.Height)
}

func TestPastedMeasurementIsNeverReference(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(domain.NewMeasurement("m1", geom.Pt(0, 0), geom.Pt(100, 0))))
	require.NoError(t, s.CalibrateDefault("m1"))
	require.NoError(t, s.Select("m1"))
	require.True(t, s.Copy())
	it, ok := s.Paste()
	require.True(t, ok)
	require.False(t, it.(*domain.Measurement).IsReference)
	require.Equal(t, 1, countReferences(s))
}
