/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package ui

import (
	"floorplanner/internal/input"
	"floorplanner/internal/interact"
)

// keyFor maps a toolkit key name onto the dispatcher's keys. Names match
// except for the keypad enter key.
func keyFor(name string) (input.Key, bool) {
	switch name {
	case "KP_Enter":
		return input.KeyEnter, true
	case string(input.KeyDelete), string(input.KeyBackspace), string(input.KeyReturn),
		string(input.KeyEscape), string(input.KeySpace), string(input.KeyC), string(input.KeyV):
		return input.Key(name), true
	}
	return "", false
}

// toolButtons is the toolbox order.
var toolButtons = []struct {
	Label string
	Tool  interact.Tool
}{
	{"Select", interact.ToolSelect},
	{"Pan", interact.ToolPan},
	{"Measure", interact.ToolMeasure},
	{"Draw room", interact.ToolDrawRoom},
	{"Wall", interact.ToolSurface},
	{"Circuit", interact.ToolCircuit},
}
