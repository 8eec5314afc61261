/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package input is the single keyboard subscription of the editor. It maps
// key presses to store and controller calls.
package input

import (
	"log/slog"

	"floorplanner/internal/domain"
	applog "floorplanner/internal/log"
)

// Key names follow the fyne KeyName strings so the UI can pass them through.
type Key string

const (
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "BackSpace"
	KeyReturn    Key = "Return"
	KeyEnter     Key = "Enter"
	KeyEscape    Key = "Escape"
	KeySpace     Key = "Space"
	KeyC         Key = "C"
	KeyV         Key = "V"
)

// Modifier is a bit set of held modifier keys.
type Modifier int

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	// ModSuper is Cmd on macOS.
	ModSuper
)

type KeyEvent struct {
	Key       Key
	Modifiers Modifier
}

func (e KeyEvent) shortcut() bool { return e.Modifiers&(ModControl|ModSuper) != 0 }

// Items is the part of the item store the shortcuts touch.
type Items interface {
	SelectedID() string
	Delete(id string) error
	Copy() bool
	Paste() (domain.Item, bool)
}

// Gestures is the part of the interaction controller the shortcuts touch.
type Gestures interface {
	Finish()
	Cancel()
	SpaceDown()
	SpaceUp()
}

type Dispatcher struct {
	items    Items
	gestures Gestures
	// TextFocused reports whether a text field owns the keyboard. While it
	// does every key is left to the field.
	TextFocused func() bool
	log         *slog.Logger
}

func NewDispatcher(items Items, gestures Gestures) *Dispatcher {
	return &Dispatcher{items: items, gestures: gestures, log: applog.WithComponent("input")}
}

func (d *Dispatcher) focused() bool { return d.TextFocused != nil && d.TextFocused() }

// KeyDown handles a press and reports whether it was consumed.
func (d *Dispatcher) KeyDown(ev KeyEvent) bool {
	if d.focused() {
		return false
	}
	switch ev.Key {
	case KeyDelete, KeyBackspace:
		id := d.items.SelectedID()
		if id == "" {
			return false
		}
		if err := d.items.Delete(id); err != nil {
			d.log.Warn("delete failed", slog.String("id", id), slog.Any("err", err))
			return false
		}
		return true
	case KeyC:
		if !ev.shortcut() {
			return false
		}
		return d.items.Copy()
	case KeyV:
		if !ev.shortcut() {
			return false
		}
		_, ok := d.items.Paste()
		return ok
	case KeyReturn, KeyEnter:
		d.gestures.Finish()
		return true
	case KeyEscape:
		d.gestures.Cancel()
		return true
	case KeySpace:
		d.gestures.SpaceDown()
		return true
	}
	return false
}

// KeyUp handles a release. Only Space matters; it is honoured even while a
// text field has focus so a pan override can never get stuck.
func (d *Dispatcher) KeyUp(ev KeyEvent) bool {
	if ev.Key != KeySpace {
		return false
	}
	d.gestures.SpaceUp()
	return true
}
