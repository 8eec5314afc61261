/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store holds the floor plan in memory: the z-ordered item list,
// the selection, the clipboard and the calibrated scale. It is driven from
// a single event loop and is not safe for concurrent use.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
	applog "floorplanner/internal/log"
)

var (
	ErrNotFound       = errors.New("item not found")
	ErrDuplicateID    = domain.ErrDuplicateID
	ErrNotMeasurement = errors.New("item is not a measurement")
	ErrInvalidLength  = errors.New("real length must be positive")
	ErrAlreadyWall    = errors.New("measurement is already a wall")
)

// Direction moves an item one step in z-order. Up brings it one step
// closer to the top of the drawing (later in Items, earlier in Layers).
type Direction int

const (
	Up Direction = iota
	Down
)

// DefaultPasteOffset is the document-space shift applied on paste.
const DefaultPasteOffset = 20.0

// Store is the single source of truth for editor items.
type Store struct {
	items      []domain.Item
	selected   string
	clipboard  domain.Item
	scale      geom.Scale
	background string

	// PasteOffset shifts pasted copies away from their source on both axes.
	PasteOffset float64

	onChange func()
	log      *slog.Logger
}

func New() *Store {
	return &Store{PasteOffset: DefaultPasteOffset, log: applog.WithComponent("store")}
}

// OnChange registers fn to run after every mutation.
func (s *Store) OnChange(fn func()) { s.onChange = fn }

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

// Add appends it on top of the drawing. The store keeps its own copy.
func (s *Store) Add(it domain.Item) error {
	if it == nil {
		return errors.New("nil item")
	}
	if s.indexOf(it.ItemID()) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, it.ItemID())
	}
	s.items = append(s.items, it.Clone())
	s.log.Debug("item added", slog.String("id", it.ItemID()), slog.String("kind", string(it.Kind())))
	s.changed()
	return nil
}

// Get returns a copy of the item with id.
func (s *Store) Get(id string) (domain.Item, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.items[i].Clone(), true
}

// Items returns copies of all items in render order (bottom first).
func (s *Store) Items() []domain.Item {
	out := make([]domain.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Layers returns the items top-most first, the reverse of Items.
func (s *Store) Layers() []domain.Item {
	out := make([]domain.Item, len(s.items))
	for i, it := range s.items {
		out[len(s.items)-1-i] = it.Clone()
	}
	return out
}

func (s *Store) Len() int { return len(s.items) }

// Update replaces the stored item with the same id by a copy of it.
func (s *Store) Update(it domain.Item) error {
	i := s.indexOf(it.ItemID())
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, it.ItemID())
	}
	s.items[i] = it.Clone()
	s.changed()
	return nil
}

// Delete removes the item and drops any selection pointing at it.
func (s *Store) Delete(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	s.log.Debug("item deleted", slog.String("id", id))
	s.changed()
	return nil
}

// Reorder swaps the item with its neighbour in dir. Moving past either end
// is a no-op.
func (s *Store) Reorder(id string, dir Direction) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	j := i + 1
	if dir == Down {
		j = i - 1
	}
	if j < 0 || j >= len(s.items) {
		return nil
	}
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.changed()
	return nil
}

// SetVisible toggles rendering of an item without removing it.
func (s *Store) SetVisible(id string, visible bool) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.items[i].SetVisible(visible)
	s.changed()
	return nil
}

// Select marks id as the current selection.
func (s *Store) Select(id string) error {
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.selected = id
	s.changed()
	return nil
}

func (s *Store) ClearSelection() {
	if s.selected == "" {
		return
	}
	s.selected = ""
	s.changed()
}

// SelectedID is the selected id, or "" when the selection no longer resolves.
func (s *Store) SelectedID() string {
	if s.indexOf(s.selected) < 0 {
		return ""
	}
	return s.selected
}

// Selected resolves the selection against the current items.
func (s *Store) Selected() (domain.Item, bool) {
	if s.selected == "" {
		return nil, false
	}
	return s.Get(s.selected)
}

// HitTest returns the top-most visible item under p.
func (s *Store) HitTest(p geom.Point, tol float64) (domain.Item, bool) {
	for i := len(s.items) - 1; i >= 0; i-- {
		it := s.items[i]
		if it.IsVisible() && it.Hit(p, tol) {
			return it.Clone(), true
		}
	}
	return nil, false
}

// Background returns the background image reference.
func (s *Store) Background() string { return s.background }

func (s *Store) SetBackground(ref string) {
	s.background = ref
	s.changed()
}

// Clear removes every item and resets calibration.
func (s *Store) Clear() {
	s.items = nil
	s.selected = ""
	s.clipboard = nil
	s.scale = geom.Scale{}
	s.background = ""
	s.log.Info("store cleared")
	s.changed()
}

// Project snapshots the store for export.
func (s *Store) Project() domain.Project {
	return domain.Project{Version: domain.SchemaVersion, Items: s.Items(), Scale: s.scale, BackgroundImage: s.background}
}

// Load replaces the store contents with p. Selection and clipboard are reset.
func (s *Store) Load(p domain.Project) error {
	if err := p.CheckIDs(); err != nil {
		return err
	}
	items := make([]domain.Item, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, it.Clone())
	}
	s.items = items
	s.scale = p.Scale
	s.background = p.BackgroundImage
	s.selected = ""
	s.clipboard = nil
	s.enforceSingleReference()
	s.log.Info("project loaded", slog.Int("items", len(items)))
	s.changed()
	return nil
}

// enforceSingleReference keeps the last flagged reference and demotes the rest.
func (s *Store) enforceSingleReference() {
	keep := ""
	for _, it := range s.items {
		if m, ok := it.(*domain.Measurement); ok && m.IsReference {
			keep = m.ID
		}
	}
	for _, it := range s.items {
		if m, ok := it.(*domain.Measurement); ok && m.IsReference && m.ID != keep {
			m.Demote()
		}
	}
}
