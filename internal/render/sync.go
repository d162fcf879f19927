/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render keeps a Renderer's primitives in sync with the store by
// listening to shape lifecycle and display-update events. It owns the
// shape-to-primitive bookkeeping so renderers stay dumb.
package render

import (
	"log/slog"

	"annocanvas/internal/events"
	applog "annocanvas/internal/log"
	"annocanvas/internal/shape"
	"annocanvas/internal/store"
)

// Renderer is the primitive sink. The fyne canvas widget implements it for
// the desktop UI; tests use an in-memory fake. Implementations only draw
// what they are told about and never reach into the store.
type Renderer interface {
	UpsertShape(s shape.Shape)
	RemoveShape(id string)
	UpsertControlPoint(owner shape.Shape, cp *shape.ControlPoint)
	RemoveControlPoint(id string)
	// SetTemp shows the in-progress gesture preview; nil clears it.
	SetTemp(s shape.Shape)
	SetStatus(text string)
}

// Synchronizer mirrors store state into a Renderer.
type Synchronizer struct {
	bus *events.Bus
	st  *store.Store
	r   Renderer
	log *slog.Logger

	// primitive bookkeeping: shape ids and control point id -> owner id
	shapeIDs map[string]struct{}
	cpOwners map[string]string

	subs []*events.Subscription
}

// NewSynchronizer wires a synchronizer and subscribes it to the bus.
func NewSynchronizer(bus *events.Bus, st *store.Store, r Renderer) *Synchronizer {
	s := &Synchronizer{
		bus:      bus,
		st:       st,
		r:        r,
		log:      applog.WithComponent("render"),
		shapeIDs: map[string]struct{}{},
		cpOwners: map[string]string{},
	}
	sub := func(k events.Kind, name string, h events.Handler) {
		s.subs = append(s.subs, bus.Subscribe(k, name, h))
	}
	sub(events.ShapeAdded, "render.added", s.onShapeAdded)
	sub(events.ShapeRemoved, "render.removed", s.onShapeRemoved)
	sub(events.ShapeUpdated, "render.updated", s.onShapeUpdated)
	sub(events.ShapeSelected, "render.selected", s.onShapeSelected)
	sub(events.ShapeDeselected, "render.deselected", s.onShapeDeselected)
	sub(events.ShapeHovered, "render.hovered", s.onShapeRestyle)
	sub(events.ShapeUnhovered, "render.unhovered", s.onShapeRestyle)
	sub(events.DisplayUpdateRequested, "render.display", s.onDisplayUpdate)
	sub(events.StatusTextChanged, "render.status", s.onStatus)
	return s
}

// Close cancels all subscriptions.
func (s *Synchronizer) Close() {
	for _, sub := range s.subs {
		sub.Cancel()
	}
}

func eventShape(ev events.Event) (shape.Shape, bool) {
	sh, ok := ev.Data["shape"].(shape.Shape)
	return sh, ok && sh != nil
}

func (s *Synchronizer) onShapeAdded(ev events.Event) error {
	sh, ok := eventShape(ev)
	if !ok {
		return nil
	}
	s.shapeIDs[sh.ID()] = struct{}{}
	s.r.UpsertShape(sh)
	return nil
}

func (s *Synchronizer) onShapeRemoved(ev events.Event) error {
	sh, ok := eventShape(ev)
	if !ok {
		return nil
	}
	delete(s.shapeIDs, sh.ID())
	s.r.RemoveShape(sh.ID())
	s.dropControlPoints(sh.ID())
	// a removed shape may have been the temp preview
	if t := s.st.Temp(); t == nil {
		s.r.SetTemp(nil)
	}
	return nil
}

func (s *Synchronizer) onShapeUpdated(ev events.Event) error {
	sh, ok := eventShape(ev)
	if !ok {
		return nil
	}
	if t := s.st.Temp(); t != nil && t.ID() == sh.ID() {
		s.r.SetTemp(sh)
		return nil
	}
	s.shapeIDs[sh.ID()] = struct{}{}
	s.r.UpsertShape(sh)
	if sel := s.st.Selected(); sel != nil && sel.ID() == sh.ID() {
		s.refreshControlPoints(sh)
	}
	return nil
}

func (s *Synchronizer) onShapeSelected(ev events.Event) error {
	sh, ok := eventShape(ev)
	if !ok {
		return nil
	}
	s.r.UpsertShape(sh)
	s.refreshControlPoints(sh)
	return nil
}

func (s *Synchronizer) onShapeDeselected(ev events.Event) error {
	sh, ok := eventShape(ev)
	if !ok {
		return nil
	}
	s.dropControlPoints(sh.ID())
	if _, known := s.shapeIDs[sh.ID()]; known {
		s.r.UpsertShape(sh)
	}
	return nil
}

func (s *Synchronizer) onShapeRestyle(ev events.Event) error {
	sh, ok := eventShape(ev)
	if !ok {
		return nil
	}
	if _, known := s.shapeIDs[sh.ID()]; known {
		s.r.UpsertShape(sh)
	}
	return nil
}

// onDisplayUpdate refreshes everything from the store. force_cleanup
// additionally reconciles the bookkeeping against the store, dropping
// primitives whose shapes are gone.
func (s *Synchronizer) onDisplayUpdate(ev events.Event) error {
	if ev.Bool("clear_temp") {
		s.r.SetTemp(nil)
	}
	if ev.Bool("force_cleanup") {
		s.reconcile()
	}
	for _, sh := range s.st.Shapes() {
		s.shapeIDs[sh.ID()] = struct{}{}
		s.r.UpsertShape(sh)
	}
	if sel := s.st.Selected(); sel != nil {
		s.refreshControlPoints(sel)
	}
	if t := s.st.Temp(); t != nil && !ev.Bool("clear_temp") {
		s.r.SetTemp(t)
	}
	return nil
}

func (s *Synchronizer) onStatus(ev events.Event) error {
	s.r.SetStatus(ev.Str("text"))
	return nil
}

func (s *Synchronizer) refreshControlPoints(owner shape.Shape) {
	s.dropControlPoints(owner.ID())
	for _, cp := range owner.ControlPoints() {
		if !cp.Visible {
			continue
		}
		s.cpOwners[cp.ID] = owner.ID()
		s.r.UpsertControlPoint(owner, cp)
	}
}

func (s *Synchronizer) dropControlPoints(ownerID string) {
	for id, owner := range s.cpOwners {
		if owner == ownerID {
			delete(s.cpOwners, id)
			s.r.RemoveControlPoint(id)
		}
	}
}

// reconcile removes primitives that no longer correspond to store content.
func (s *Synchronizer) reconcile() {
	live := map[string]struct{}{}
	for _, sh := range s.st.Shapes() {
		live[sh.ID()] = struct{}{}
	}
	for id := range s.shapeIDs {
		if _, ok := live[id]; !ok {
			delete(s.shapeIDs, id)
			s.r.RemoveShape(id)
			s.dropControlPoints(id)
			s.log.Debug("reconciled orphan primitive", slog.String("id", id))
		}
	}
	sel := s.st.Selected()
	for id, owner := range s.cpOwners {
		if sel == nil || owner != sel.ID() {
			delete(s.cpOwners, id)
			s.r.RemoveControlPoint(id)
		}
	}
}
