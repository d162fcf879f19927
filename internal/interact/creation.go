/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"fmt"
	"log/slog"

	"annocanvas/internal/events"
	"annocanvas/internal/geometry"
	applog "annocanvas/internal/log"
	"annocanvas/internal/ops"
	"annocanvas/internal/shape"
	"annocanvas/internal/store"
)

// CreationService turns finished gestures into undoable create operations
// and manages the temp shape previewed while a gesture is in progress.
type CreationService struct {
	bus   *events.Bus
	st    *store.Store
	stack *ops.Stack
	log   *slog.Logger
}

// NewCreationService wires a creation service.
func NewCreationService(bus *events.Bus, st *store.Store, stack *ops.Stack) *CreationService {
	return &CreationService{bus: bus, st: st, stack: stack, log: applog.WithComponent("creation")}
}

// CreateAndAdd builds a shape of kind k at pos with the current style, runs
// it through the command stack and selects it.
func (c *CreationService) CreateAndAdd(k shape.Kind, pos geometry.Pt) (shape.Shape, error) {
	s, err := shape.New(k, pos, c.st.CurrentColor(), c.st.CurrentPenWidth())
	if err != nil {
		return nil, err
	}
	if err := c.stack.Execute(ops.NewCreate(c.st, s)); err != nil {
		return nil, err
	}
	_ = c.bus.Publish(events.NewEvent(events.DisplayUpdateRequested))
	c.st.SelectShape(s)
	c.log.Debug("shape created", slog.String("kind", k.String()), slog.String("id", s.ID()))
	return s, nil
}

// CreateTemp starts a preview shape of kind k anchored at pos.
func (c *CreationService) CreateTemp(k shape.Kind, pos geometry.Pt) (shape.Shape, error) {
	s, err := shape.New(k, pos, c.st.CurrentColor(), c.st.CurrentPenWidth())
	if err != nil {
		return nil, err
	}
	c.st.SetTemp(s)
	_ = c.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", s, "shape_id", s.ID()))
	return s, nil
}

// SetTempPolygon replaces the preview polygon built from the in-progress
// vertex list. The preview always stays open.
func (c *CreationService) SetTempPolygon(vertices []geometry.Pt) shape.Shape {
	s := shape.NewPolygon(vertices, c.st.CurrentColor(), c.st.CurrentPenWidth())
	s.SetForceOpen(true)
	c.st.SetTemp(s)
	_ = c.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", s, "shape_id", s.ID()))
	return s
}

// UpdateTemp republishes the temp shape after its geometry changed.
func (c *CreationService) UpdateTemp() {
	t := c.st.Temp()
	if t == nil {
		return
	}
	_ = c.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", t, "shape_id", t.ID()))
}

// FinishTemp promotes the temp shape to a permanent one.
func (c *CreationService) FinishTemp() (shape.Shape, error) {
	t := c.st.Temp()
	if t == nil {
		return nil, fmt.Errorf("no temp shape to finish")
	}
	c.st.SetTemp(nil)
	if err := c.stack.Execute(ops.NewCreate(c.st, t)); err != nil {
		return nil, err
	}
	_ = c.bus.Publish(events.NewEvent(events.DisplayUpdateRequested, "clear_temp", true, "force_cleanup", true))
	c.st.SelectShape(t)
	return t, nil
}

// DiscardTemp drops the preview without creating anything.
func (c *CreationService) DiscardTemp() {
	t := c.st.Temp()
	if t == nil {
		return
	}
	c.st.SetTemp(nil)
	_ = c.bus.Publish(events.NewEvent(events.ShapeRemoved, "shape", t, "shape_id", t.ID()))
	_ = c.bus.Publish(events.NewEvent(events.DisplayUpdateRequested, "clear_temp", true, "force_cleanup", true))
}

// DeleteSelected removes the current selection as one undo step.
func (c *CreationService) DeleteSelected() error {
	sel := c.st.Selected()
	if sel == nil {
		return nil
	}
	return c.stack.Execute(ops.NewDelete(c.st, []shape.Shape{sel}))
}

// ClearAll removes every shape as one undo step.
func (c *CreationService) ClearAll() error {
	shapes := append([]shape.Shape(nil), c.st.Shapes()...)
	if len(shapes) == 0 {
		return nil
	}
	return c.stack.Execute(ops.NewDelete(c.st, shapes))
}
