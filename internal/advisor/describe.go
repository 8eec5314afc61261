/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package advisor

import (
	"fmt"
	"strings"

	"floorplanner/internal/geom"
)

// Describe renders a finished request as plain text for people.
func Describe(r *Result) string {
	if r == nil {
		return ""
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	var b strings.Builder
	switch {
	case r.Layout != nil:
		if r.Layout.Reasoning != "" {
			b.WriteString(r.Layout.Reasoning)
			b.WriteString("\n\n")
		}
		for _, p := range r.Layout.Placements {
			fmt.Fprintf(&b, "%s: x %s, y %s, %g°\n", p.FurnitureName, geom.FormatMeters(p.X), geom.FormatMeters(p.Y), p.Rotation)
		}
	case r.Evaluation != nil:
		ev := r.Evaluation
		section := func(title, body string) {
			if strings.TrimSpace(body) == "" {
				return
			}
			fmt.Fprintf(&b, "%s\n%s\n\n", title, body)
		}
		section("Overall", ev.OverallAssessment)
		section("Flow", ev.FlowFeedback)
		section("Aesthetics", ev.AestheticsFeedback)
		section("Functionality", ev.FunctionalityFeedback)
		if len(ev.Suggestions) > 0 {
			b.WriteString("Suggestions\n")
			for _, s := range ev.Suggestions {
				fmt.Fprintf(&b, "- %s\n", s)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
