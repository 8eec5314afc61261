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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"floorplanner/internal/crash"
	"floorplanner/internal/editor"
	"floorplanner/internal/export"
	"floorplanner/internal/input"
	"floorplanner/internal/interact"
	applog "floorplanner/internal/log"
	"floorplanner/internal/version"
)

// Run opens the editor window and blocks until it is closed.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	eo := editor.FromConfig(opts.Config.Editor)
	eo.Advisor = opts.Advisor
	eo.AdvisorTimeout = opts.Config.Advisor.Timeout()
	eo.Telemetry = opts.Telemetry
	ed := editor.New(eo)
	defer crash.Recover(ed.Handle())

	fyneApp := app.NewWithID("floorplanner")
	w := fyneApp.NewWindow("Floor Planner")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	fc := NewFloorCanvas(ed)
	p := &panels{w: w, ed: ed, canvas: fc, status: status, log: l}

	setTitle := func() {
		name := "Untitled"
		if path := ed.Path(); path != "" {
			name = filepath.Base(path)
		}
		w.SetTitle("Floor Planner - " + name)
	}

	ed.Store.OnChange(p.sync)
	ed.Controller.OnToolChange = func(t interact.Tool) {
		p.syncTool(t)
		fc.Refresh()
	}
	// advisor results arrive on a request goroutine
	ed.Advisor.Notify = func() { fyne.Do(p.deliver) }

	left := p.toolbox()
	right := container.NewAppTabs(
		container.NewTabItem("Layers", p.layersPanel()),
		container.NewTabItem("Properties", p.propertiesPanel()),
		container.NewTabItem("Scale", p.scalePanel()),
		container.NewTabItem("AI", p.aiPanel()),
	)
	split := container.NewHSplit(fc, right)
	split.SetOffset(0.75)
	w.SetContent(container.NewBorder(nil, status, left, nil, split))

	// ---------- keyboard ----------
	ed.Keys.TextFocused = func() bool {
		switch w.Canvas().Focused().(type) {
		case *widget.Entry, *widget.SelectEntry:
			return true
		}
		return false
	}
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			if k, ok := keyFor(string(ev.Name)); ok && ed.Keys.KeyDown(input.KeyEvent{Key: k}) {
				fc.Refresh()
			}
		})
		dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			if k, ok := keyFor(string(ev.Name)); ok && ed.Keys.KeyUp(input.KeyEvent{Key: k}) {
				fc.Refresh()
			}
		})
	}
	for _, k := range []fyne.KeyName{fyne.KeyC, fyne.KeyV} {
		key := input.Key(k)
		w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: k, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
			ed.Keys.KeyDown(input.KeyEvent{Key: key, Modifiers: input.ModControl})
		})
	}

	// ---------- files ----------
	openPath := func(path string) {
		if err := ed.Open(path); err != nil {
			l.Error("open failed", slog.String("path", path), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		addRecent(prefs, path)
		setTitle()
		if ed.Handle().Recovered {
			dialog.ShowInformation("Recovered", "The plan file was damaged. The latest backup was loaded instead.", w)
		}
		status.SetText("Opened " + path)
	}
	saveAs := func() {
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			if err := ed.SaveAs(path); err != nil {
				dialog.ShowError(err, w)
				return
			}
			addRecent(prefs, path)
			setTitle()
			status.SetText("Saved " + path)
		}, w)
		fd.SetFileName("plan.json")
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		fd.Show()
	}

	newItem := fyne.NewMenuItem("New", func() {
		dialog.ShowConfirm("New plan", "Discard the current plan?", func(ok bool) {
			if ok {
				ed.ClearAll()
				status.SetText("Cleared")
			}
		}, w)
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			openPath(path)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		fd.Show()
	})
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	rebuildRecent := func() {
		var items []*fyne.MenuItem
		for _, path := range loadRecent(prefs) {
			path := path
			items = append(items, fyne.NewMenuItem(path, func() { openPath(path) }))
		}
		if len(items) == 0 {
			none := fyne.NewMenuItem("(none)", nil)
			none.Disabled = true
			items = append(items, none)
		}
		recentItem.ChildMenu = fyne.NewMenu("Open Recent", items...)
	}
	rebuildRecent()
	saveItem := fyne.NewMenuItem("Save", func() {
		err := ed.Save()
		if errors.Is(err, editor.ErrNoProjectPath) {
			saveAs()
			return
		}
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved " + ed.Path())
	})
	saveAsItem := fyne.NewMenuItem("Save As…", saveAs)
	importItem := fyne.NewMenuItem("Import JSON…", func() {
		fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil || ur == nil {
				if err != nil {
					dialog.ShowError(err, w)
				}
				return
			}
			defer ur.Close()
			if err := ed.Import(ur); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Imported " + ur.URI().Name())
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		fd.Show()
	})
	exportJSONItem := fyne.NewMenuItem("Export JSON…", func() {
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				if err != nil {
					dialog.ShowError(err, w)
				}
				return
			}
			defer uc.Close()
			if err := ed.Export(uc); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
		fd.SetFileName("floorplan.json")
		fd.Show()
	})
	backgroundItem := fyne.NewMenuItem("Set Background Image…", func() {
		fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil || ur == nil {
				if err != nil {
					dialog.ShowError(err, w)
				}
				return
			}
			defer ur.Close()
			data, err := io.ReadAll(ur)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			ref := encodeBackground(data)
			if _, err := decodeBackground(ref); err != nil {
				dialog.ShowError(err, w)
				return
			}
			ed.Store.SetBackground(ref)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg"}))
		fd.Show()
	})
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierShortcutDefault}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}

	exportImage := func(format export.Format) *fyne.MenuItem {
		label := fmt.Sprintf("Export as %s…", strings.ToUpper(string(format)))
		return fyne.NewMenuItem(label, func() {
			fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
				if err != nil || uc == nil {
					if err != nil {
						dialog.ShowError(err, w)
					}
					return
				}
				path := uc.URI().Path()
				_ = uc.Close()
				if err := ed.ExportImage(path, format, export.Options{}); err != nil {
					dialog.ShowError(err, w)
					return
				}
				dialog.ShowInformation("Export", "Exported to "+path, w)
			}, w)
			fd.SetFileName("floorplan." + string(format))
			fd.Show()
		})
	}

	fileMenu := fyne.NewMenu("File", newItem, openItem, recentItem, saveItem, saveAsItem,
		fyne.NewMenuItemSeparator(), importItem, exportJSONItem, backgroundItem)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete Selected", func() { ed.Keys.KeyDown(input.KeyEvent{Key: input.KeyDelete}) }),
		fyne.NewMenuItem("Clear All", func() {
			dialog.ShowConfirm("Clear all", "Remove every item, the scale and the background?", func(ok bool) {
				if ok {
					ed.ClearAll()
				}
			}, w)
		}),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Fit to Content", func() { ed.FitToContent(); fc.Refresh() }),
		fyne.NewMenuItem("Zoom In", func() { ed.View.ZoomBy(ed.View.DocToScreen(ed.View.Center()), 1/ed.View.ZoomFactor); fc.Refresh() }),
		fyne.NewMenuItem("Zoom Out", func() { ed.View.ZoomBy(ed.View.DocToScreen(ed.View.Center()), ed.View.ZoomFactor); fc.Refresh() }),
		fyne.NewMenuItem("Reset View", func() { ed.View.Reset(); fc.Refresh() }),
	)
	exportMenu := fyne.NewMenu("Export", exportImage(export.FormatSVG), exportImage(export.FormatPNG), exportImage(export.FormatPDF))
	aboutItem := fyne.NewMenuItem("About Floor Planner", func() {
		exe, _ := os.Executable()
		info := fmt.Sprintf("Floor Planner\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("Installation Environment", info, w)
	})
	copyrightItem := fyne.NewMenuItem("Copyright…", func() {
		msg := fmt.Sprintf("Floor Planner\nCopyright © 2025-%d Alexander Drost\n\nLicensed under the Apache License, Version 2.0.", time.Now().Year())
		dialog.ShowInformation("Copyright", msg, w)
	})
	aboutMenu := fyne.NewMenu("About", aboutItem, copyrightItem)
	mainMenu := fyne.NewMainMenu(fileMenu, editMenu, viewMenu, exportMenu, aboutMenu)
	w.SetMainMenu(mainMenu)

	// recent list changes after every open or save
	prefs.AddChangeListener(func() {
		rebuildRecent()
		mainMenu.Refresh()
	})

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	if opts.ProjectPath != "" {
		openPath(opts.ProjectPath)
	}
	setTitle()
	p.sync()

	w.ShowAndRun()
	return nil
}
