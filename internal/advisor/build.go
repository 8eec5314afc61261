/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
)

const fallbackDescription = "The user has not provided a description, but here is the furniture list: "

// meters converts document pixels, assuming 1px = 1cm until calibrated.
func meters(px float64, s geom.Scale) float64 {
	if m, ok := s.ToMeters(px); ok {
		return geom.Round(m, 2)
	}
	return geom.Round(px/100, 2)
}

func trimFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Split picks the rooms and furniture out of a mixed item list.
func Split(items []domain.Item) (rooms []*domain.Room, furniture []*domain.Furniture) {
	for _, it := range items {
		switch v := it.(type) {
		case *domain.Room:
			rooms = append(rooms, v)
		case *domain.Furniture:
			furniture = append(furniture, v)
		}
	}
	return rooms, furniture
}

// BuildLayoutRequest describes the first room and every furniture piece.
func BuildLayoutRequest(rooms []*domain.Room, furniture []*domain.Furniture, s geom.Scale) (LayoutRequest, error) {
	if len(rooms) == 0 {
		return LayoutRequest{}, ErrNeedRoom
	}
	if len(furniture) == 0 {
		return LayoutRequest{}, ErrNeedFurniture
	}
	room := rooms[0]
	req := LayoutRequest{
		Room:      Dimensions{Width: meters(room.Width, s), Length: meters(room.Height, s)},
		Furniture: make([]FurniturePiece, 0, len(furniture)),
	}
	for _, f := range furniture {
		req.Furniture = append(req.Furniture, FurniturePiece{Name: f.Label(), Width: meters(f.Width, s), Length: meters(f.Height, s)})
	}
	return req, nil
}

// BuildEvaluationRequest describes the first room; an empty description is
// replaced by the furniture names.
func BuildEvaluationRequest(rooms []*domain.Room, furniture []*domain.Furniture, s geom.Scale, description, preferences string) (EvaluationRequest, error) {
	if len(rooms) == 0 {
		return EvaluationRequest{}, ErrNeedRoom
	}
	room := rooms[0]
	desc := strings.TrimSpace(description)
	if desc == "" {
		names := make([]string, 0, len(furniture))
		for _, f := range furniture {
			names = append(names, f.Label())
		}
		desc = fallbackDescription + strings.Join(names, ", ")
	}
	return EvaluationRequest{
		RoomDimensions:         fmt.Sprintf("%sm x %sm", trimFloat(meters(room.Width, s)), trimFloat(meters(room.Height, s))),
		ArrangementDescription: desc,
		UserPreferences:        strings.TrimSpace(preferences),
	}, nil
}
