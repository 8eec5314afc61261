//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"floorplanner/internal/advisor"
	"floorplanner/internal/domain"
	"floorplanner/internal/editor"
	"floorplanner/internal/geom"
	"floorplanner/internal/interact"
	"floorplanner/internal/render"
	"floorplanner/internal/store"
)

// panels holds the side panels around the canvas and keeps them in sync
// with the editor.
type panels struct {
	w      fyne.Window
	ed     *editor.Editor
	canvas *FloorCanvas
	status *widget.Label
	log    *slog.Logger

	tools map[interact.Tool]*widget.Button

	layerBox  *fyne.Container
	layerRows []render.LayerRow

	propBox  *fyne.Container
	propSeen string

	scaleLabel *widget.Label
	refValue   *widget.Entry
	refUnit    *widget.Select

	description *widget.Entry
	preferences *widget.Entry
	busy        *widget.ProgressBarInfinite
	result      *widget.Label
	applyBtn    *widget.Button
	lastLayout  *advisor.LayoutSuggestion
}

func (p *panels) showErr(err error) {
	p.log.Warn("action failed", slog.Any("err", err))
	dialog.ShowError(err, p.w)
}

// sync refreshes everything that mirrors store state.
func (p *panels) sync() {
	p.canvas.Refresh()
	p.syncLayers()
	p.syncScale()
	p.syncProperties()
}

// ---------- toolbox ----------

func (p *panels) toolbox() fyne.CanvasObject {
	p.tools = map[interact.Tool]*widget.Button{}
	box := container.NewVBox(widget.NewLabelWithStyle("Tools", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	for _, tb := range toolButtons {
		tool := tb.Tool
		btn := widget.NewButton(tb.Label, func() { p.ed.Controller.SetTool(tool) })
		p.tools[tool] = btn
		box.Add(btn)
	}
	p.syncTool(p.ed.Controller.EffectiveTool())

	box.Add(widget.NewSeparator())
	box.Add(widget.NewButtonWithIcon("Add room", theme.ContentAddIcon(), func() {
		if _, err := p.ed.AddRoom(); err != nil {
			p.showErr(err)
		}
	}))
	box.Add(widget.NewButtonWithIcon("Add note", theme.DocumentCreateIcon(), func() {
		if _, err := p.ed.AddAnnotation(); err != nil {
			p.showErr(err)
		}
	}))

	box.Add(widget.NewLabelWithStyle("Furniture", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	furniture := container.NewGridWithColumns(2)
	electrical := container.NewGridWithColumns(2)
	for _, pr := range domain.Presets {
		name := pr.Name
		btn := widget.NewButton(name, func() {
			if _, err := p.ed.AddFurniture(name); err != nil {
				p.showErr(err)
			}
		})
		if pr.Category == domain.CategoryElectrical {
			electrical.Add(btn)
		} else {
			furniture.Add(btn)
		}
	}
	box.Add(furniture)
	box.Add(widget.NewLabelWithStyle("Electrical", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	box.Add(electrical)
	return container.NewVScroll(box)
}

func (p *panels) syncTool(active interact.Tool) {
	for tool, btn := range p.tools {
		want := widget.MediumImportance
		if tool == active {
			want = widget.HighImportance
		}
		if btn.Importance != want {
			btn.Importance = want
			btn.Refresh()
		}
	}
	p.status.SetText("Tool: " + string(active))
}

// ---------- layers ----------

func (p *panels) layersPanel() fyne.CanvasObject {
	p.layerBox = container.NewVBox()
	p.syncLayers()
	return container.NewBorder(
		widget.NewLabelWithStyle("Layers", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		nil, nil, nil,
		container.NewVScroll(p.layerBox),
	)
}

func (p *panels) syncLayers() {
	if p.layerBox == nil {
		return
	}
	rows := p.ed.Layers()
	if slices.Equal(rows, p.layerRows) {
		return
	}
	p.layerRows = rows
	objs := make([]fyne.CanvasObject, 0, len(rows))
	for _, row := range rows {
		objs = append(objs, p.layerRow(row))
	}
	p.layerBox.Objects = objs
	p.layerBox.Refresh()
}

func (p *panels) layerRow(row render.LayerRow) fyne.CanvasObject {
	id := row.ID
	vis := widget.NewCheck("", nil)
	vis.Checked = row.Visible
	vis.OnChanged = func(v bool) {
		if err := p.ed.Store.SetVisible(id, v); err != nil {
			p.showErr(err)
		}
	}
	label := widget.NewButton(fmt.Sprintf("%s (%s)", row.Label, row.Kind), func() {
		if err := p.ed.Store.Select(id); err != nil {
			p.showErr(err)
		}
	})
	label.Alignment = widget.ButtonAlignLeading
	if row.Selected {
		label.Importance = widget.HighImportance
	} else {
		label.Importance = widget.LowImportance
	}
	reorder := func(dir store.Direction) func() {
		return func() {
			if err := p.ed.Store.Reorder(id, dir); err != nil {
				p.showErr(err)
			}
		}
	}
	actions := container.NewHBox(
		widget.NewButtonWithIcon("", theme.MoveUpIcon(), reorder(store.Up)),
		widget.NewButtonWithIcon("", theme.MoveDownIcon(), reorder(store.Down)),
		widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
			if err := p.ed.Store.Delete(id); err != nil {
				p.showErr(err)
			}
		}),
	)
	return container.NewBorder(nil, nil, vis, actions, label)
}

// ---------- properties ----------

func (p *panels) propertiesPanel() fyne.CanvasObject {
	p.propBox = container.NewVBox()
	p.syncProperties()
	return container.NewBorder(
		widget.NewLabelWithStyle("Properties", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		nil, nil, nil,
		container.NewVScroll(p.propBox),
	)
}

// syncProperties rebuilds the form only when the selected item changed, so
// entries keep what the user is typing otherwise.
func (p *panels) syncProperties() {
	if p.propBox == nil {
		return
	}
	it, ok := p.ed.Properties()
	seen := ""
	if ok {
		seen = fmt.Sprintf("%+v", it)
	}
	if seen == p.propSeen {
		return
	}
	p.propSeen = seen
	if !ok {
		p.propBox.Objects = []fyne.CanvasObject{widget.NewLabel("Select an item to edit its properties.")}
	} else {
		p.propBox.Objects = []fyne.CanvasObject{p.propertiesForm(it)}
	}
	p.propBox.Refresh()
}

func numberEntry(v float64) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.FormatFloat(v, 'f', -1, 64))
	return e
}

func parseNumber(label string, e *widget.Entry) (*float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(e.Text), 64)
	if err != nil {
		return nil, fmt.Errorf("enter a number for %s", label)
	}
	return &v, nil
}

func (p *panels) propertiesForm(it domain.Item) fyne.CanvasObject {
	form := widget.NewForm()
	var collect func() (editor.Changes, error)

	switch v := it.(type) {
	case *domain.Room:
		name := widget.NewEntry()
		name.SetText(v.Name)
		form.Append("Name", name)
		form.Append("Width", widget.NewLabel(p.ed.Store.FormatLength(v.Width)))
		form.Append("Height", widget.NewLabel(p.ed.Store.FormatLength(v.Height)))
		collect = func() (editor.Changes, error) {
			return editor.Changes{Name: &name.Text}, nil
		}
	case *domain.Furniture:
		name := widget.NewEntry()
		name.SetText(v.Name)
		width, height, rot := numberEntry(v.Width), numberEntry(v.Height), numberEntry(v.Rotation)
		shape := widget.NewSelect([]string{string(domain.ShapeRectangle), string(domain.ShapeCircle)}, nil)
		shape.SetSelected(string(v.Shape))
		color := widget.NewEntry()
		color.SetText(v.Color)
		form.Append("Name", name)
		form.Append("Width", width)
		form.Append("Height", height)
		form.Append("Rotation", rot)
		form.Append("Shape", shape)
		form.Append("Color", color)
		collect = func() (editor.Changes, error) {
			ch := editor.Changes{Name: &name.Text, Color: &color.Text}
			var err error
			if ch.Width, err = parseNumber("the width", width); err != nil {
				return ch, err
			}
			if ch.Height, err = parseNumber("the height", height); err != nil {
				return ch, err
			}
			if ch.Rotation, err = parseNumber("the rotation", rot); err != nil {
				return ch, err
			}
			s := domain.Shape(shape.Selected)
			ch.Shape = &s
			return ch, nil
		}
	case *domain.Annotation:
		text := widget.NewMultiLineEntry()
		text.SetText(v.Text)
		text.SetMinRowsVisible(3)
		form.Append("Text", text)
		collect = func() (editor.Changes, error) {
			return editor.Changes{Text: &text.Text}, nil
		}
	case *domain.Surface:
		types := []string{string(domain.SurfaceWall), string(domain.SurfaceWindow), string(domain.SurfaceDoor), string(domain.SurfaceOther)}
		kind := widget.NewSelect(types, nil)
		kind.SetSelected(string(v.SurfaceType))
		thick := numberEntry(v.Thickness)
		form.Append("Type", kind)
		form.Append("Thickness", thick)
		collect = func() (editor.Changes, error) {
			st := domain.SurfaceType(kind.Selected)
			t, err := parseNumber("the thickness", thick)
			return editor.Changes{SurfaceType: &st, Thickness: t}, err
		}
	case *domain.Measurement:
		form.Append("Length", widget.NewLabel(p.ed.Store.FormatLength(v.PixelLength())))
		return container.NewVBox(form, widget.NewLabel("Use the Scale tab to calibrate or convert it to a wall."))
	}

	apply := widget.NewButton("Apply", func() {
		ch, err := collect()
		if err == nil {
			err = p.ed.UpdateSelected(ch)
		}
		if err != nil {
			p.showErr(err)
		}
	})
	return container.NewVBox(form, apply)
}

// ---------- scale ----------

func (p *panels) scalePanel() fyne.CanvasObject {
	p.scaleLabel = widget.NewLabel("")
	p.scaleLabel.Wrapping = fyne.TextWrapWord
	p.refValue = widget.NewEntry()
	p.refValue.SetPlaceHolder("Real length")
	units := []string{string(geom.UnitMeter), string(geom.UnitCentimeter), string(geom.UnitMillimeter), string(geom.UnitFoot), string(geom.UnitInch)}
	p.refUnit = widget.NewSelect(units, nil)
	p.refUnit.SetSelected(string(geom.UnitMeter))

	apply := widget.NewButton("Set length of selected measurement", func() {
		v, err := strconv.ParseFloat(strings.TrimSpace(p.refValue.Text), 64)
		if err != nil {
			p.showErr(fmt.Errorf("enter a number for the real length"))
			return
		}
		unit, err := geom.ParseUnit(p.refUnit.Selected)
		if err != nil {
			p.showErr(err)
			return
		}
		if err := p.ed.SetReference(v, unit); err != nil {
			p.showErr(err)
		}
	})
	promote := widget.NewButton("Convert measurement to wall", func() {
		if _, err := p.ed.PromoteSelected(); err != nil {
			p.showErr(err)
		}
	})
	p.syncScale()
	return container.NewVBox(
		widget.NewLabelWithStyle("Scale", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		p.scaleLabel,
		container.NewBorder(nil, nil, nil, p.refUnit, p.refValue),
		apply,
		promote,
	)
}

func (p *panels) syncScale() {
	if p.scaleLabel == nil {
		return
	}
	s := p.ed.Store.Scale()
	if !s.Calibrated() {
		p.scaleLabel.SetText("Not calibrated. Draw a measurement over a known length.")
		return
	}
	txt := fmt.Sprintf("1 m = %.1f px", s.Pixels/s.Meters)
	if ref, ok := p.ed.Store.Reference(); ok {
		txt += fmt.Sprintf("\nReference: %.0f px = %s", ref.PixelLength(), geom.FormatMeters(s.Meters))
	}
	p.scaleLabel.SetText(txt)
}

// ---------- advisor ----------

func (p *panels) aiPanel() fyne.CanvasObject {
	p.description = widget.NewMultiLineEntry()
	p.description.SetPlaceHolder("Describe the arrangement (optional)")
	p.description.SetMinRowsVisible(3)
	p.preferences = widget.NewEntry()
	p.preferences.SetPlaceHolder("Preferences, e.g. cozy, lots of light")
	p.busy = widget.NewProgressBarInfinite()
	p.busy.Hide()
	p.result = widget.NewLabel("")
	p.result.Wrapping = fyne.TextWrapWord

	p.applyBtn = widget.NewButton("Apply suggested layout", func() {
		n := p.ed.ApplyLayout(p.lastLayout)
		p.status.SetText(fmt.Sprintf("Moved %d furniture pieces", n))
	})
	p.applyBtn.Disable()

	suggest := widget.NewButton("Suggest layout", func() {
		if err := p.ed.SuggestLayout(); err != nil {
			p.showErr(err)
			return
		}
		p.syncBusy()
	})
	evaluate := widget.NewButton("Evaluate arrangement", func() {
		if err := p.ed.Evaluate(p.description.Text, p.preferences.Text); err != nil {
			p.showErr(err)
			return
		}
		p.syncBusy()
	})
	return container.NewBorder(
		container.NewVBox(
			widget.NewLabelWithStyle("AI advisor", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			suggest,
			p.description,
			p.preferences,
			evaluate,
			p.busy,
		),
		p.applyBtn, nil, nil,
		container.NewVScroll(p.result),
	)
}

func (p *panels) syncBusy() {
	if p.ed.Loading() {
		p.busy.Show()
		p.busy.Start()
		return
	}
	p.busy.Stop()
	p.busy.Hide()
}

// deliver shows finished advisor requests. Runs on the UI goroutine.
func (p *panels) deliver() {
	for _, n := range p.ed.Poll() {
		text := advisor.Describe(n.Result)
		if n.Level == editor.LevelError {
			dialog.ShowInformation(n.Title, n.Message, p.w)
			p.result.SetText(text)
			continue
		}
		p.result.SetText(text)
		if n.Result.Layout != nil {
			p.lastLayout = n.Result.Layout
			p.applyBtn.Enable()
		}
		p.status.SetText(n.Title)
	}
	p.syncBusy()
}
