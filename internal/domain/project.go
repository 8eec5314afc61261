/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"floorplanner/internal/geom"
)

// SchemaVersion is written to every exported project file.
const SchemaVersion = 2

// Project is the persisted form of a floor plan: all items in z-order, the
// calibrated scale and an optional background image (data URI or path).
type Project struct {
	Version         int
	Items           []Item
	Scale           geom.Scale
	BackgroundImage string
}

type projectFile struct {
	Version         int               `json:"version"`
	Items           []json.RawMessage `json:"items"`
	Scale           geom.Scale        `json:"scale"`
	BackgroundImage string            `json:"backgroundImage,omitempty"`
}

// NewID returns a fresh identifier prefixed with the item kind.
func NewID(k Kind) string { return string(k) + "-" + uuid.NewString() }

func (p Project) MarshalJSON() ([]byte, error) {
	f := projectFile{Version: p.Version, Scale: p.Scale, BackgroundImage: p.BackgroundImage, Items: make([]json.RawMessage, 0, len(p.Items))}
	if f.Version == 0 {
		f.Version = SchemaVersion
	}
	for _, it := range p.Items {
		b, err := json.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("encode item %s: %w", it.ItemID(), err)
		}
		f.Items = append(f.Items, b)
	}
	return json.Marshal(f)
}

func (p *Project) UnmarshalJSON(data []byte) error {
	var f projectFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	items := make([]Item, 0, len(f.Items))
	for i, raw := range f.Items {
		it, err := DecodeItem(raw)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, it)
	}
	*p = Project{Version: f.Version, Items: items, Scale: f.Scale, BackgroundImage: f.BackgroundImage}
	return nil
}

// ErrDuplicateID is returned when two items share an id.
var ErrDuplicateID = errors.New("duplicate item id")

// CheckIDs fails on the first empty or repeated item id.
func (p Project) CheckIDs() error {
	seen := make(map[string]bool, len(p.Items))
	for i, it := range p.Items {
		id := it.ItemID()
		if id == "" {
			return fmt.Errorf("item %d has no id", i)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = true
	}
	return nil
}

// ErrUnknownKind is returned for items whose "type" is not recognised.
var ErrUnknownKind = errors.New("unknown item type")

// DecodeItem decodes one tagged item.
func DecodeItem(raw json.RawMessage) (Item, error) {
	var tag struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	var it Item
	switch tag.Type {
	case KindRoom:
		it = &Room{}
	case KindFurniture:
		it = &Furniture{}
	case KindAnnotation:
		it = &Annotation{}
	case KindMeasurement:
		it = &Measurement{}
	case KindSurface:
		it = &Surface{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, tag.Type)
	}
	if err := json.Unmarshal(raw, it); err != nil {
		return nil, fmt.Errorf("decode %s: %w", tag.Type, err)
	}
	if it.ItemID() == "" {
		return nil, fmt.Errorf("%s without id", tag.Type)
	}
	return it, nil
}
