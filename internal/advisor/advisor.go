/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package advisor holds the request/response contract of the two AI flows
// (layout suggestion and arrangement evaluation), the backends that answer
// them and an asynchronous session the editor polls for results.
package advisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrDisabled      = errors.New("advisor is disabled")
	ErrNeedRoom      = errors.New("add at least one room first")
	ErrNeedFurniture = errors.New("add some furniture first")
	ErrBadResponse   = errors.New("malformed advisor response")
)

// Dimensions are meters.
type Dimensions struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Length float64 `json:"length" validate:"gt=0"`
}

type FurniturePiece struct {
	Name   string  `json:"name" validate:"required"`
	Width  float64 `json:"width" validate:"gt=0"`
	Length float64 `json:"length" validate:"gt=0"`
}

type LayoutRequest struct {
	Room      Dimensions       `json:"roomDimensions"`
	Furniture []FurniturePiece `json:"furniture" validate:"required,min=1,dive"`
}

// Placement positions one piece; X/Y are meters from the room's top-left
// corner and Rotation is degrees.
type Placement struct {
	FurnitureName string  `json:"furnitureName"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Rotation      float64 `json:"rotation"`
}

type LayoutSuggestion struct {
	Placements []Placement `json:"layoutSuggestions"`
	Reasoning  string      `json:"reasoning"`
}

type EvaluationRequest struct {
	RoomDimensions         string `json:"roomDimensions" validate:"required"`
	ArrangementDescription string `json:"furnitureArrangementDescription" validate:"required"`
	UserPreferences        string `json:"userPreferences,omitempty"`
}

type Evaluation struct {
	OverallAssessment     string   `json:"overallAssessment"`
	FlowFeedback          string   `json:"flowFeedback"`
	AestheticsFeedback    string   `json:"aestheticsFeedback"`
	FunctionalityFeedback string   `json:"functionalityFeedback"`
	Suggestions           []string `json:"suggestions"`
}

// Advisor answers both flows. Implementations must be safe to call from
// several goroutines.
type Advisor interface {
	SuggestLayout(ctx context.Context, req LayoutRequest) (*LayoutSuggestion, error)
	Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
}

var validate = validator.New()

// Validate checks a request before it leaves the process.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// Disabled is the backend used when no model is configured.
type Disabled struct{}

func (Disabled) SuggestLayout(context.Context, LayoutRequest) (*LayoutSuggestion, error) {
	return nil, ErrDisabled
}

func (Disabled) Evaluate(context.Context, EvaluationRequest) (*Evaluation, error) {
	return nil, ErrDisabled
}
