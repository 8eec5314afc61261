/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires one editing session together: item store, viewport,
// interaction controller, keyboard dispatcher and advisor session. The UI
// and the CLI both drive the plan through it.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"floorplanner/internal/advisor"
	"floorplanner/internal/config"
	"floorplanner/internal/domain"
	"floorplanner/internal/export"
	"floorplanner/internal/geom"
	"floorplanner/internal/input"
	"floorplanner/internal/interact"
	applog "floorplanner/internal/log"
	"floorplanner/internal/render"
	"floorplanner/internal/storage"
	"floorplanner/internal/store"
	"floorplanner/internal/telemetry"
	"floorplanner/internal/viewport"
)

// ErrNoProjectPath is returned by Save when the plan was never saved.
var ErrNoProjectPath = errors.New("project has no file yet; use save as")

// DefaultRoomOrigin is where "add room" puts the new room's top-left corner.
var DefaultRoomOrigin = geom.Pt(50, 50)

type Options struct {
	Interact    interact.Options
	ZoomFactor  float64
	PasteOffset float64
	Theme       *render.Theme
	// Advisor answers the AI flows; nil disables them.
	Advisor        advisor.Advisor
	AdvisorTimeout time.Duration
	Telemetry      *telemetry.Client
}

// FromConfig maps the editor settings of the app config onto Options.
func FromConfig(c config.EditorConfig) Options {
	return Options{
		Interact: interact.Options{
			SnapRadius:   c.SnapRadiusPx,
			HandleRadius: c.HandleRadiusPx,
			HitTolerance: c.HitTolerancePx,
		},
		ZoomFactor:  c.ZoomFactor,
		PasteOffset: c.PasteOffset,
	}
}

type Editor struct {
	Store      *store.Store
	View       *viewport.Viewport
	Controller *interact.Controller
	Keys       *input.Dispatcher
	Advisor    *advisor.Session

	handle *storage.ProjectHandle
	theme  *render.Theme
	tel    *telemetry.Client
	log    *slog.Logger
}

func New(opts Options) *Editor {
	s := store.New()
	if opts.PasteOffset > 0 {
		s.PasteOffset = opts.PasteOffset
	}
	v := viewport.New()
	if opts.ZoomFactor > 0 && opts.ZoomFactor != 1 {
		v.ZoomFactor = viewport.DefaultZoomFactor * opts.ZoomFactor
	}
	c := interact.New(s, v, opts.Interact)
	e := &Editor{
		Store:      s,
		View:       v,
		Controller: c,
		Keys:       input.NewDispatcher(s, c),
		Advisor:    advisor.NewSession(opts.Advisor, opts.AdvisorTimeout),
		theme:      opts.Theme,
		tel:        opts.Telemetry,
		log:        applog.WithComponent("editor"),
	}
	e.handle = &storage.ProjectHandle{Live: s.Project}
	return e
}

// Scene renders the plan as the canvas shows it, including selection and
// any drawing in progress.
func (e *Editor) Scene() render.Scene {
	pv := e.Controller.Preview()
	return render.Build(render.Input{
		Items:      e.Store.Items(),
		SelectedID: e.Store.SelectedID(),
		Scale:      e.Store.Scale(),
		Background: e.Store.Background(),
		Preview:    &pv,
		Ratio:      e.View.Ratio(),
		Theme:      e.theme,
	})
}

// ExportScene renders the plan without editing overlays.
func (e *Editor) ExportScene() render.Scene {
	return render.Build(render.Input{
		Items:      e.Store.Items(),
		Scale:      e.Store.Scale(),
		Background: e.Store.Background(),
		Ratio:      1,
		Theme:      e.theme,
	})
}

// Layers lists the layer panel rows, topmost first.
func (e *Editor) Layers() []render.LayerRow {
	return render.Layers(e.Store.Items(), e.Store.SelectedID())
}

func (e *Editor) viewCenter() geom.Point {
	if !e.View.Mounted() {
		return geom.Pt(DefaultRoomOrigin.X+domain.DefaultRoomWidth/2, DefaultRoomOrigin.Y+domain.DefaultRoomHeight/2)
	}
	return e.View.Center()
}

// AddFurniture drops a preset piece in the middle of the view and selects it.
func (e *Editor) AddFurniture(preset string) (*domain.Furniture, error) {
	p, err := domain.PresetByName(preset)
	if err != nil {
		return nil, err
	}
	f := p.Instantiate(e.viewCenter())
	if err := e.addAndSelect(f); err != nil {
		return nil, err
	}
	return f, nil
}

// AddRoom adds the default rectangular room.
func (e *Editor) AddRoom() (*domain.Room, error) {
	r := domain.DefaultRoom(DefaultRoomOrigin)
	if err := e.addAndSelect(r); err != nil {
		return nil, err
	}
	return r, nil
}

// AddAnnotation adds a note at the middle of the view.
func (e *Editor) AddAnnotation() (*domain.Annotation, error) {
	c := e.viewCenter()
	a := domain.DefaultAnnotation(geom.Pt(c.X-domain.AnnotationWidth/2, c.Y-domain.AnnotationHeight/2))
	if err := e.addAndSelect(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (e *Editor) addAndSelect(it domain.Item) error {
	if err := e.Store.Add(it); err != nil {
		return err
	}
	return e.Store.Select(it.ItemID())
}

// ClearAll drops every item, the calibration, the background and any
// drawing in progress.
func (e *Editor) ClearAll() {
	e.Controller.Cancel()
	e.Controller.SetTool(interact.ToolSelect)
	e.Store.Clear()
}

// SetReference declares the real length of the selected measurement.
func (e *Editor) SetReference(value float64, unit geom.Unit) error {
	id := e.Store.SelectedID()
	if id == "" {
		return store.ErrNotFound
	}
	return e.Store.DeclareReference(id, value, unit)
}

// PromoteSelected turns the selected measurement into a wall.
func (e *Editor) PromoteSelected() (*domain.Surface, error) {
	id := e.Store.SelectedID()
	if id == "" {
		return nil, store.ErrNotFound
	}
	return e.Store.PromoteToSurface(id)
}

// FitToContent frames every visible item. Empty or degenerate plans keep
// the current view.
func (e *Editor) FitToContent() {
	e.View.Fit(e.ExportScene().Bounds, 40)
}

// ============================================================
// Files
// ============================================================

// Path is the file the plan was last opened from or saved to.
func (e *Editor) Path() string { return e.handle.Path }

// Open replaces the plan with the file at path. On failure the current plan
// is left untouched.
func (e *Editor) Open(path string) error {
	ph, err := storage.Open(path)
	if err != nil {
		return err
	}
	if err := e.load(ph.Project); err != nil {
		return err
	}
	ph.Live = e.Store.Project
	// keep the pointer stable; crash recovery holds on to it
	*e.handle = *ph
	if e.tel != nil {
		e.tel.ProjectOpened(len(ph.Project.Items), ph.Project.Scale.Calibrated(), ph.Recovered)
	}
	e.log.InfoContext(e.logCtx(), "project opened", slog.Bool("recovered", ph.Recovered), slog.Int("items", len(ph.Project.Items)))
	return nil
}

// logCtx tags log records with the current project file.
func (e *Editor) logCtx() context.Context {
	return applog.WithProject(context.Background(), e.handle.Path)
}

func (e *Editor) load(p domain.Project) error {
	// nothing may change before the project is known to load
	if err := p.CheckIDs(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidProject, err)
	}
	e.Controller.Cancel()
	e.Controller.SetTool(interact.ToolSelect)
	if err := e.Store.Load(p); err != nil {
		return err
	}
	e.FitToContent()
	return nil
}

// Import reads a project document; the plan is replaced only if it is valid.
func (e *Editor) Import(r io.Reader) error {
	p, err := storage.Import(r)
	if err != nil {
		return err
	}
	return e.load(p)
}

// Export writes the plan as a project document.
func (e *Editor) Export(w io.Writer) error {
	if err := storage.Export(w, e.Store.Project()); err != nil {
		return err
	}
	if e.tel != nil {
		e.tel.ProjectExported("json")
	}
	return nil
}

// Save writes the plan back to its file.
func (e *Editor) Save() error {
	if e.handle.Path == "" {
		return ErrNoProjectPath
	}
	e.handle.Project = e.Store.Project()
	if err := storage.Save(e.handle); err != nil {
		e.log.ErrorContext(e.logCtx(), "save failed", slog.Any("err", err))
		return err
	}
	e.log.DebugContext(e.logCtx(), "project saved")
	return nil
}

// SaveAs writes the plan to path and remembers it.
func (e *Editor) SaveAs(path string) error {
	e.handle.Project = e.Store.Project()
	if err := storage.SaveAs(e.handle, path); err != nil {
		e.log.Error("save as failed", slog.String("path", path), slog.Any("err", err))
		return err
	}
	e.log.InfoContext(e.logCtx(), "project saved as")
	return nil
}

// Handle exposes the project handle for crash recovery. The pointer stays
// the same for the editor's lifetime.
func (e *Editor) Handle() *storage.ProjectHandle { return e.handle }

// Telemetry returns the client usage events go to; may be nil.
func (e *Editor) Telemetry() *telemetry.Client { return e.tel }

// ExportImage renders the plan to path; the format follows the extension
// unless given.
func (e *Editor) ExportImage(path string, format export.Format, opt export.Options) error {
	if format == "" {
		f, err := export.ParseFormat(path)
		if err != nil {
			return err
		}
		format = f
	}
	if opt.Title == "" && e.handle.Path != "" {
		opt.Title = strings.TrimSuffix(filepath.Base(e.handle.Path), filepath.Ext(e.handle.Path))
	}
	if err := export.Write(path, format, e.ExportScene(), opt); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	if e.tel != nil {
		e.tel.ProjectExported(string(format))
	}
	return nil
}
