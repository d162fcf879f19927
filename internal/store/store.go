/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store owns the annotation document state: the shape list, the
// current selection and hover, the temp shape of an in-progress gesture and
// the active tool settings. All shared state is read through accessors on
// the store; mutations publish events on the bus.
package store

import (
	"fmt"
	"log/slog"
	"time"

	"annocanvas/internal/config"
	"annocanvas/internal/events"
	"annocanvas/internal/geometry"
	applog "annocanvas/internal/log"
	"annocanvas/internal/shape"
	"annocanvas/internal/version"
)

// DefaultWorldPerPixel is the fallback scale when the input layer has not
// reported one yet.
const DefaultWorldPerPixel = 0.01

// HitTarget is what the pointer landed on. ControlPoint is non-nil only when
// a handle of the selected shape was hit; Shape is always set on a hit.
type HitTarget struct {
	Shape        shape.Shape
	ControlPoint *shape.ControlPoint
}

// Settings is the persisted tool state.
type Settings struct {
	CurrentTool  shape.Kind     `json:"current_tool"`
	CurrentColor shape.Color    `json:"current_color"`
	CurrentWidth shape.PenWidth `json:"current_width"`
}

// Metadata describes the document.
type Metadata struct {
	Version      string `json:"version"`
	CreatedTime  string `json:"created_time"`
	ModifiedTime string `json:"modified_time"`
}

// Snapshot is the full serialized document.
type Snapshot struct {
	Shapes   []shape.Record `json:"shapes"`
	Metadata Metadata       `json:"metadata"`
	Settings Settings       `json:"settings"`
}

// Store holds the document state. It is not safe for concurrent use; the
// interaction layer drives it from a single goroutine.
type Store struct {
	bus *events.Bus
	cfg config.InteractionConfig
	log *slog.Logger

	shapes   []shape.Shape
	selected shape.Shape
	hovered  shape.Shape
	temp     shape.Shape

	settings Settings
	meta     Metadata
}

// New creates an empty store publishing on bus.
func New(bus *events.Bus, cfg config.InteractionConfig) *Store {
	now := time.Now().Format(time.RFC3339)
	return &Store{
		bus: bus,
		cfg: cfg,
		log: applog.WithComponent("store"),
		settings: Settings{
			CurrentTool:  shape.KindNone,
			CurrentColor: shape.ColorRed,
			CurrentWidth: shape.PenMedium,
		},
		meta: Metadata{Version: version.String(), CreatedTime: now, ModifiedTime: now},
	}
}

func (st *Store) touch() {
	st.meta.ModifiedTime = time.Now().Format(time.RFC3339)
}

// Shapes returns the shape list in stacking order (last element on top).
func (st *Store) Shapes() []shape.Shape { return st.shapes }

// ShapeByID finds a shape by id, or nil.
func (st *Store) ShapeByID(id string) shape.Shape {
	for _, s := range st.shapes {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// AddShape appends s unless it is already present. Adding a duplicate is a
// warned no-op so operation redo stays idempotent.
func (st *Store) AddShape(s shape.Shape) bool {
	if s == nil {
		return false
	}
	if st.ShapeByID(s.ID()) != nil {
		st.log.Warn("shape already in store", slog.String("id", s.ID()), slog.String("kind", s.Kind().String()))
		return false
	}
	st.shapes = append(st.shapes, s)
	st.touch()
	_ = st.bus.Publish(events.NewEvent(events.ShapeAdded, "shape", s, "shape_id", s.ID()))
	return true
}

// RemoveShape removes s and reports whether it was present. Selection and
// hover referring to the removed shape are cleared.
func (st *Store) RemoveShape(s shape.Shape) bool {
	if s == nil {
		return false
	}
	for i, cur := range st.shapes {
		if cur.ID() == s.ID() {
			st.shapes = append(st.shapes[:i:i], st.shapes[i+1:]...)
			if st.selected != nil && st.selected.ID() == s.ID() {
				st.selected.Attrs().Selected = false
				st.selected = nil
			}
			if st.hovered != nil && st.hovered.ID() == s.ID() {
				st.hovered.Attrs().Hovered = false
				st.hovered = nil
			}
			st.touch()
			_ = st.bus.Publish(events.NewEvent(events.ShapeRemoved, "shape", cur, "shape_id", cur.ID()))
			return true
		}
	}
	return false
}

// ClearAll removes every shape, publishing one removal per shape.
func (st *Store) ClearAll() {
	for len(st.shapes) > 0 {
		st.RemoveShape(st.shapes[len(st.shapes)-1])
	}
}

// Selected returns the selected shape, or nil.
func (st *Store) Selected() shape.Shape { return st.selected }

// SelectShape selects s (nil deselects). On a change the old selection gets
// a deselect event before the new one gets its select event.
func (st *Store) SelectShape(s shape.Shape) {
	if st.selected == s {
		return
	}
	if s != nil && st.selected != nil && st.selected.ID() == s.ID() {
		return
	}
	if st.selected != nil {
		old := st.selected
		old.Attrs().Selected = false
		st.selected = nil
		_ = st.bus.Publish(events.NewEvent(events.ShapeDeselected, "shape", old, "shape_id", old.ID()))
	}
	if s != nil {
		s.Attrs().Selected = true
		st.selected = s
		_ = st.bus.Publish(events.NewEvent(events.ShapeSelected, "shape", s, "shape_id", s.ID()))
	}
}

// Hovered returns the hovered shape, or nil.
func (st *Store) Hovered() shape.Shape { return st.hovered }

// SetHovered updates hover; events fire only on transitions.
func (st *Store) SetHovered(s shape.Shape) {
	if st.hovered == s {
		return
	}
	if s != nil && st.hovered != nil && st.hovered.ID() == s.ID() {
		return
	}
	if st.hovered != nil {
		old := st.hovered
		old.Attrs().Hovered = false
		st.hovered = nil
		_ = st.bus.Publish(events.NewEvent(events.ShapeUnhovered, "shape", old, "shape_id", old.ID()))
	}
	if s != nil {
		s.Attrs().Hovered = true
		st.hovered = s
		_ = st.bus.Publish(events.NewEvent(events.ShapeHovered, "shape", s, "shape_id", s.ID()))
	}
}

// Temp returns the in-progress gesture shape, or nil.
func (st *Store) Temp() shape.Shape { return st.temp }

// SetTemp replaces the temp shape. The temp shape is not part of the
// document; it only exists for preview rendering.
func (st *Store) SetTemp(s shape.Shape) { st.temp = s }

// GetHitTarget resolves what the pointer at pos would grab. The selected
// shape's handles win over shape outlines; shapes are tested topmost first.
// worldPerPixel converts the pixel tolerances into world units.
func (st *Store) GetHitTarget(pos geometry.Pt, worldPerPixel float64) *HitTarget {
	if worldPerPixel <= 0 {
		worldPerPixel = DefaultWorldPerPixel
	}
	if st.selected != nil {
		tol := st.cfg.ControlPointTolerancePx * worldPerPixel
		for _, cp := range st.selected.ControlPoints() {
			if !cp.Visible {
				continue
			}
			if geometry.Distance(pos, cp.Pos) <= tol {
				return &HitTarget{Shape: st.selected, ControlPoint: cp}
			}
		}
	}
	tol := st.cfg.HitTolerancePx * worldPerPixel
	for i := len(st.shapes) - 1; i >= 0; i-- {
		s := st.shapes[i]
		if !s.Attrs().Visible {
			continue
		}
		if s.ContainsOnBoundary(pos, tol) {
			return &HitTarget{Shape: s}
		}
	}
	return nil
}

// Settings returns the current tool state.
func (st *Store) Settings() Settings { return st.settings }

// CurrentTool returns the active creation tool.
func (st *Store) CurrentTool() shape.Kind { return st.settings.CurrentTool }

// SetCurrentTool switches the creation tool.
func (st *Store) SetCurrentTool(k shape.Kind) {
	if st.settings.CurrentTool == k {
		return
	}
	st.settings.CurrentTool = k
	_ = st.bus.Publish(events.NewEvent(events.ToolChanged, "tool", k))
}

// CurrentColor returns the active pen color.
func (st *Store) CurrentColor() shape.Color { return st.settings.CurrentColor }

// SetCurrentColor switches the pen color. A selected shape is restyled.
func (st *Store) SetCurrentColor(c shape.Color) {
	if st.settings.CurrentColor == c {
		return
	}
	st.settings.CurrentColor = c
	if st.selected != nil {
		st.selected.Attrs().Color = c
		_ = st.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", st.selected, "shape_id", st.selected.ID()))
	}
	_ = st.bus.Publish(events.NewEvent(events.ColorChanged, "color", c))
}

// CurrentPenWidth returns the active stroke width.
func (st *Store) CurrentPenWidth() shape.PenWidth { return st.settings.CurrentWidth }

// SetCurrentPenWidth switches the stroke width. A selected shape is restyled.
func (st *Store) SetCurrentPenWidth(w shape.PenWidth) {
	if st.settings.CurrentWidth == w {
		return
	}
	st.settings.CurrentWidth = w
	if st.selected != nil {
		st.selected.Attrs().PenWidth = w
		_ = st.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", st.selected, "shape_id", st.selected.ID()))
	}
	_ = st.bus.Publish(events.NewEvent(events.PenWidthChanged, "pen_width", w))
}

// ApplySettings restores persisted settings through the regular setters.
func (st *Store) ApplySettings(s Settings) {
	st.SetCurrentTool(s.CurrentTool)
	st.SetCurrentColor(s.CurrentColor)
	st.SetCurrentPenWidth(s.CurrentWidth)
}

// Metadata returns the document metadata.
func (st *Store) Metadata() Metadata { return st.meta }

// Export serializes the document.
func (st *Store) Export() Snapshot {
	snap := Snapshot{
		Shapes:   make([]shape.Record, 0, len(st.shapes)),
		Metadata: st.meta,
		Settings: st.settings,
	}
	for _, s := range st.shapes {
		snap.Shapes = append(snap.Shapes, shape.Encode(s))
	}
	return snap
}

// Import replaces the document content with the snapshot. Shapes that fail
// to decode abort the import before anything is replaced.
func (st *Store) Import(snap Snapshot) error {
	decoded := make([]shape.Shape, 0, len(snap.Shapes))
	for i, rec := range snap.Shapes {
		s, err := shape.Decode(rec)
		if err != nil {
			return fmt.Errorf("decode shape %d: %w", i, err)
		}
		decoded = append(decoded, s)
	}
	st.ClearAll()
	for _, s := range decoded {
		st.AddShape(s)
	}
	if snap.Metadata.CreatedTime != "" {
		st.meta.CreatedTime = snap.Metadata.CreatedTime
	}
	st.touch()
	st.ApplySettings(snap.Settings)
	return nil
}
