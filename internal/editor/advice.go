/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"errors"
	"strings"

	"floorplanner/internal/advisor"
	"floorplanner/internal/domain"
	"floorplanner/internal/geom"
)

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a transient message for the user. Result carries the
// advisor output when the notification reports a finished request.
type Notification struct {
	Level   Level
	Title   string
	Message string
	Result  *advisor.Result
}

// SuggestLayout starts a layout request for the first room and all
// furniture. Missing items are reported right away; everything else
// arrives through Poll.
func (e *Editor) SuggestLayout() error {
	rooms, furniture := advisor.Split(e.Store.Items())
	req, err := advisor.BuildLayoutRequest(rooms, furniture, e.Store.Scale())
	if err != nil {
		return err
	}
	e.Advisor.SuggestLayout(req)
	return nil
}

// Evaluate starts an arrangement evaluation. An empty description falls
// back to the furniture list.
func (e *Editor) Evaluate(description, preferences string) error {
	rooms, furniture := advisor.Split(e.Store.Items())
	req, err := advisor.BuildEvaluationRequest(rooms, furniture, e.Store.Scale(), description, preferences)
	if err != nil {
		return err
	}
	e.Advisor.Evaluate(req)
	return nil
}

// Loading reports whether any advisor request is outstanding.
func (e *Editor) Loading() bool { return e.Advisor.Loading() > 0 }

// Poll turns finished advisor requests into notifications.
func (e *Editor) Poll() []Notification {
	results := e.Advisor.Poll()
	out := make([]Notification, 0, len(results))
	for i := range results {
		out = append(out, e.finished(results[i]))
	}
	return out
}

// Wait blocks until the next advisor request finishes or ctx ends.
func (e *Editor) Wait(ctx context.Context) (Notification, error) {
	r, err := e.Advisor.Wait(ctx)
	if err != nil {
		return Notification{}, err
	}
	return e.finished(r), nil
}

func (e *Editor) finished(r advisor.Result) Notification {
	if e.tel != nil {
		e.tel.AdvisorRequest(string(r.Flow), r.Err == nil, r.Elapsed)
	}
	return notificationFor(&r)
}

func notificationFor(r *advisor.Result) Notification {
	if r.Err != nil {
		msg := "Failed to evaluate arrangement."
		if r.Flow == advisor.FlowSuggestLayout {
			msg = "Failed to suggest layout."
		}
		if errors.Is(r.Err, advisor.ErrDisabled) {
			msg += " The advisor is not configured."
		}
		return Notification{Level: LevelError, Title: "Error", Message: msg, Result: r}
	}
	if r.Layout != nil {
		return Notification{Level: LevelInfo, Title: "Layout suggestion", Message: r.Layout.Reasoning, Result: r}
	}
	return Notification{Level: LevelInfo, Title: "Arrangement feedback", Message: r.Evaluation.OverallAssessment, Result: r}
}

// ApplyLayout moves furniture to the suggested placements. Names match
// case-insensitively, first unused piece wins; positions are meters from the
// first room's top-left corner. It returns how many pieces moved.
func (e *Editor) ApplyLayout(s *advisor.LayoutSuggestion) int {
	if s == nil {
		return 0
	}
	rooms, furniture := advisor.Split(e.Store.Items())
	if len(rooms) == 0 {
		return 0
	}
	origin := geom.Pt(rooms[0].Bounds().MinX, rooms[0].Bounds().MinY)
	scale := e.Store.Scale()
	toPx := func(m float64) float64 {
		if px, ok := scale.ToPixels(m); ok {
			return px
		}
		return m * 100
	}
	used := map[string]bool{}
	moved := 0
	for _, p := range s.Placements {
		var f *domain.Furniture
		for _, cand := range furniture {
			if !used[cand.ID] && strings.EqualFold(cand.Label(), strings.TrimSpace(p.FurnitureName)) {
				f = cand
				break
			}
		}
		if f == nil {
			continue
		}
		used[f.ID] = true
		domain.MoveTo(f, origin.Add(geom.Pt(toPx(p.X), toPx(p.Y))))
		f.Rotation = geom.NormalizeDegrees(p.Rotation)
		if err := e.Store.Update(f); err != nil {
			continue
		}
		moved++
	}
	return moved
}
