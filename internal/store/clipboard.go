/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"log/slog"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
)

// Copy snapshots the selected item. It reports false when nothing is selected.
func (s *Store) Copy() bool {
	it, ok := s.Selected()
	if !ok {
		return false
	}
	s.clipboard = it
	return true
}

// HasClipboard reports whether Paste has something to insert.
func (s *Store) HasClipboard() bool { return s.clipboard != nil }

// Paste inserts a copy of the clipboard shifted by PasteOffset from the
// copied item. Repeated pastes cascade.
func (s *Store) Paste() (domain.Item, bool) {
	if s.clipboard == nil {
		return nil, false
	}
	target := s.clipboard.Anchor().Add(geom.Pt(s.PasteOffset, s.PasteOffset))
	return s.PasteAt(target)
}

// PasteAt inserts a copy of the clipboard with its anchor on target. Rooms
// move as a whole so their centroid lands on target.
func (s *Store) PasteAt(target geom.Point) (domain.Item, bool) {
	if s.clipboard == nil {
		return nil, false
	}
	it := withFreshID(s.clipboard.Clone())
	domain.MoveTo(it, target)
	s.items = append(s.items, it.Clone())
	s.clipboard = it.Clone()
	s.selected = it.ItemID()
	s.log.Debug("item pasted", slog.String("id", it.ItemID()))
	s.changed()
	return it, true
}

func withFreshID(it domain.Item) domain.Item {
	id := domain.NewID(it.Kind())
	switch v := it.(type) {
	case *domain.Room:
		v.ID = id
	case *domain.Furniture:
		v.ID = id
	case *domain.Annotation:
		v.ID = id
	case *domain.Measurement:
		// a pasted copy never inherits the reference role
		v.ID = id
		v.Demote()
	case *domain.Surface:
		v.ID = id
	}
	return it
}
