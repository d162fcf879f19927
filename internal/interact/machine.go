/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact drives the annotation gestures: a state machine that
// turns pointer input into shape creation, moving and scaling, plus the
// input adapter and creation service around it.
package interact

import (
	"fmt"
	"log/slog"

	"annocanvas/internal/config"
	"annocanvas/internal/events"
	"annocanvas/internal/geometry"
	applog "annocanvas/internal/log"
	"annocanvas/internal/ops"
	"annocanvas/internal/shape"
	"annocanvas/internal/store"
)

// State is the interaction mode.
type State int

const (
	StateIdle State = iota
	StateCreatingPoint
	StateCreatingRect
	StateCreatingEllipse
	StateCreatingPolygon
	StateMoving
	StateScaling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCreatingPoint:
		return "creating_point"
	case StateCreatingRect:
		return "creating_rect"
	case StateCreatingEllipse:
		return "creating_ellipse"
	case StateCreatingPolygon:
		return "creating_polygon"
	case StateMoving:
		return "moving"
	case StateScaling:
		return "scaling"
	default:
		return "unknown"
	}
}

// PolygonCancelMinVertices: above this many placed vertices, canceling a
// polygon asks for confirmation instead of discarding silently.
const PolygonCancelMinVertices = 1

// Machine is the interaction state machine. It is driven from a single
// goroutine by the input adapter.
type Machine struct {
	bus      *events.Bus
	st       *store.Store
	stack    *ops.Stack
	creation *CreationService
	cfg      config.InteractionConfig
	log      *slog.Logger

	state State

	// move bookkeeping
	moveShape       shape.Shape
	moveStartMouse  geometry.Pt
	moveStartAnchor geometry.Pt

	// scale bookkeeping
	scaleShape shape.Shape
	scaleCP    *shape.ControlPoint

	// creation bookkeeping
	dragStart       geometry.Pt
	polygonVertices []geometry.Pt

	// hover bookkeeping (Idle only)
	hoveredCP      *shape.ControlPoint
	hoveredCPOwner shape.Shape

	confirmSub *events.Subscription
}

// NewMachine wires the state machine. It subscribes to the polygon cancel
// confirmation so the confirm dialog round trip completes the cancel.
func NewMachine(bus *events.Bus, st *store.Store, stack *ops.Stack, creation *CreationService, cfg config.InteractionConfig) *Machine {
	m := &Machine{
		bus:      bus,
		st:       st,
		stack:    stack,
		creation: creation,
		cfg:      cfg,
		log:      applog.WithComponent("interact"),
		state:    StateIdle,
	}
	m.confirmSub = bus.Subscribe(events.CancelPolygonConfirmed, "machine.cancelPolygon", func(ev events.Event) error {
		if ev.Bool("confirmed") {
			m.cancelPolygon()
		}
		return nil
	})
	return m
}

// Close cancels the machine's subscriptions.
func (m *Machine) Close() { m.confirmSub.Cancel() }

// State returns the current interaction mode.
func (m *Machine) State() State { return m.state }

func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}
	m.state = s
	_ = m.bus.Publish(events.NewEvent(events.StateChanged, "state", s.String()))
	m.status(s.String())
}

func (m *Machine) status(text string) {
	_ = m.bus.Publish(events.NewEvent(events.StatusTextChanged, "text", text))
}

// pixelDistance converts a world distance into screen pixels.
func pixelDistance(a, b geometry.Pt, worldPerPixel float64) float64 {
	if worldPerPixel <= 0 {
		worldPerPixel = defaultWorldPerPixel
	}
	return geometry.Distance(a, b) / worldPerPixel
}

func (m *Machine) maybeSnap(p geometry.Pt) geometry.Pt {
	if m.cfg.SnapToGrid {
		return geometry.SnapToGrid(p, m.cfg.GridSize)
	}
	return p
}

// Press handles a button-down sample.
func (m *Machine) Press(ev PointerEvent) {
	if ev.Button != ButtonLeft {
		return
	}
	switch m.state {
	case StateIdle:
		m.pressIdle(ev)
	case StateCreatingPolygon:
		m.pressPolygon(ev)
	}
}

func (m *Machine) pressIdle(ev PointerEvent) {
	ht := m.st.GetHitTarget(ev.Pos, ev.WorldPerPixel)
	if ht != nil && ht.ControlPoint != nil {
		m.scaleShape = ht.Shape
		m.scaleCP = ht.ControlPoint
		m.scaleCP.OriginalPos = m.scaleCP.Pos
		m.scaleCP.Dragging = true
		m.setState(StateScaling)
		return
	}
	if ht != nil {
		m.st.SelectShape(ht.Shape)
		m.moveShape = ht.Shape
		m.moveStartMouse = ev.Pos
		m.moveStartAnchor = ht.Shape.Anchor()
		m.setState(StateMoving)
		return
	}
	switch m.st.CurrentTool() {
	case shape.KindPoint:
		m.setState(StateCreatingPoint)
	case shape.KindRectangle:
		m.dragStart = ev.Pos
		m.setState(StateCreatingRect)
	case shape.KindEllipse:
		m.dragStart = ev.Pos
		m.setState(StateCreatingEllipse)
	case shape.KindPolygon:
		m.polygonVertices = []geometry.Pt{ev.Pos}
		m.st.SetTemp(nil)
		m.setState(StateCreatingPolygon)
		m.status(fmt.Sprintf("polygon: %d vertex", len(m.polygonVertices)))
	default:
		// empty click with no tool deselects
		m.st.SelectShape(nil)
	}
}

func (m *Machine) pressPolygon(ev PointerEvent) {
	// clicking an existing shape or handle finishes the polygon
	if ht := m.st.GetHitTarget(ev.Pos, ev.WorldPerPixel); ht != nil {
		m.finishPolygon()
		return
	}
	if len(m.polygonVertices) >= shape.PolygonMinVertices &&
		pixelDistance(ev.Pos, m.polygonVertices[0], ev.WorldPerPixel) <= m.cfg.PolygonSnapDistancePx {
		m.finishPolygon()
		return
	}
	m.polygonVertices = append(m.polygonVertices, ev.Pos)
	m.creation.SetTempPolygon(m.polygonVertices)
	m.status(fmt.Sprintf("polygon: %d vertices", len(m.polygonVertices)))
}

// Move handles pointer motion.
func (m *Machine) Move(ev PointerEvent) {
	switch m.state {
	case StateIdle:
		m.hover(ev)
	case StateMoving:
		m.moveSelected(ev)
	case StateScaling:
		m.scaleSelected(ev)
	case StateCreatingRect:
		m.dragTemp(shape.KindRectangle, ev)
	case StateCreatingEllipse:
		m.dragTemp(shape.KindEllipse, ev)
	case StateCreatingPolygon:
		m.previewPolygon(ev)
	}
}

// hover runs only in Idle. Control point hover wins over shape hover;
// events fire only on transitions (the store handles the shape side).
func (m *Machine) hover(ev PointerEvent) {
	var cp *shape.ControlPoint
	var cpOwner shape.Shape
	if sel := m.st.Selected(); sel != nil {
		for _, c := range sel.ControlPoints() {
			if c.Visible && pixelDistance(ev.Pos, c.Pos, ev.WorldPerPixel) <= m.cfg.ControlPointTolerancePx {
				cp = c
				cpOwner = sel
				break
			}
		}
	}
	if cp != m.hoveredCP {
		if m.hoveredCP != nil {
			m.hoveredCP.Hovered = false
			if m.hoveredCPOwner != nil {
				_ = m.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", m.hoveredCPOwner, "shape_id", m.hoveredCPOwner.ID()))
			}
		}
		m.hoveredCP = cp
		m.hoveredCPOwner = cpOwner
		if cp != nil {
			cp.Hovered = true
			_ = m.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", cpOwner, "shape_id", cpOwner.ID()))
		}
	}
	if cp != nil {
		m.st.SetHovered(nil)
		return
	}
	if ht := m.st.GetHitTarget(ev.Pos, ev.WorldPerPixel); ht != nil {
		m.st.SetHovered(ht.Shape)
	} else {
		m.st.SetHovered(nil)
	}
}

// moveSelected uses absolute positioning from the recorded anchors, so
// accumulated float error does not drift the shape during long drags.
func (m *Machine) moveSelected(ev PointerEvent) {
	if m.moveShape == nil {
		return
	}
	total := ev.Pos.Sub(m.moveStartMouse)
	target := m.maybeSnap(m.moveStartAnchor.Add(total))
	delta := target.Sub(m.moveShape.Anchor())
	if delta.IsZero() {
		return
	}
	m.moveShape.MoveBy(delta)
	_ = m.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", m.moveShape, "shape_id", m.moveShape.ID()))
}

func (m *Machine) scaleSelected(ev PointerEvent) {
	if m.scaleShape == nil || m.scaleCP == nil {
		return
	}
	m.scaleShape.ScaleByControlPoint(m.scaleCP, m.maybeSnap(ev.Pos))
	_ = m.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", m.scaleShape, "shape_id", m.scaleShape.ID()))
}

// dragTemp lazily creates the preview on the first motion, then follows the
// cursor with the end corner.
func (m *Machine) dragTemp(k shape.Kind, ev PointerEvent) {
	t := m.st.Temp()
	if t == nil {
		var err error
		t, err = m.creation.CreateTemp(k, m.dragStart)
		if err != nil {
			m.log.Error("create temp failed", slog.Any("err", err))
			return
		}
	}
	if sized, ok := t.(interface{ SetEndPoint(geometry.Pt) }); ok {
		sized.SetEndPoint(m.maybeSnap(ev.Pos))
	}
	m.creation.UpdateTemp()
}

// previewPolygon rebuilds the open preview: placed vertices plus the cursor,
// snapped onto the first vertex when close enough to close the ring.
func (m *Machine) previewPolygon(ev PointerEvent) {
	if len(m.polygonVertices) == 0 {
		return
	}
	preview := ev.Pos
	if len(m.polygonVertices) >= shape.PolygonMinVertices &&
		pixelDistance(ev.Pos, m.polygonVertices[0], ev.WorldPerPixel) <= m.cfg.PolygonSnapDistancePx {
		preview = m.polygonVertices[0]
	}
	m.creation.SetTempPolygon(append(append([]geometry.Pt(nil), m.polygonVertices...), preview))
}

// Release handles button-up.
func (m *Machine) Release(ev PointerEvent) {
	if ev.Button != ButtonLeft {
		return
	}
	switch m.state {
	case StateCreatingPoint:
		if _, err := m.creation.CreateAndAdd(shape.KindPoint, m.maybeSnap(ev.Pos)); err != nil {
			m.log.Error("create point failed", slog.Any("err", err))
		}
		m.setState(StateIdle)
	case StateCreatingRect, StateCreatingEllipse:
		if t := m.st.Temp(); t != nil {
			// the release coordinate may differ from the last move sample
			if sized, ok := t.(interface{ SetEndPoint(geometry.Pt) }); ok {
				sized.SetEndPoint(m.maybeSnap(ev.Pos))
			}
			if _, err := m.creation.FinishTemp(); err != nil {
				m.log.Error("finish temp failed", slog.Any("err", err))
			}
		}
		m.setState(StateIdle)
	case StateMoving:
		m.finishMoving()
	case StateScaling:
		m.finishScaling()
	}
}

// finishMoving records the completed drag as a pre-executed move operation.
// A drag that went nowhere records nothing.
func (m *Machine) finishMoving() {
	sh := m.moveShape
	m.moveShape = nil
	defer m.setState(StateIdle)
	if sh == nil {
		return
	}
	total := sh.Anchor().Sub(m.moveStartAnchor)
	if total.IsZero() {
		return
	}
	op := ops.NewMove(m.st, []shape.Shape{sh}, total, true)
	if err := m.stack.Execute(op); err != nil {
		m.log.Error("record move failed", slog.Any("err", err))
		return
	}
	_ = m.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", sh, "shape_id", sh.ID()))
	_ = m.bus.Publish(events.NewEvent(events.DisplayUpdateRequested))
}

func (m *Machine) finishScaling() {
	sh, cp := m.scaleShape, m.scaleCP
	m.scaleShape, m.scaleCP = nil, nil
	defer m.setState(StateIdle)
	if sh == nil || cp == nil {
		return
	}
	cp.Dragging = false
	if cp.Pos == cp.OriginalPos {
		return
	}
	op := ops.NewScale(sh, cp, cp.OriginalPos, cp.Pos, true)
	if err := m.stack.Execute(op); err != nil {
		m.log.Error("record scale failed", slog.Any("err", err))
		return
	}
	_ = m.bus.Publish(events.NewEvent(events.ShapeUpdated, "shape", sh, "shape_id", sh.ID()))
	_ = m.bus.Publish(events.NewEvent(events.DisplayUpdateRequested))
}

// finishPolygon promotes the gathered vertex list into a permanent polygon.
// The closing edge is implicit; no duplicate vertex is appended. Too few
// vertices cancel instead.
func (m *Machine) finishPolygon() {
	if len(m.polygonVertices) < shape.PolygonMinVertices {
		m.cancelPolygon()
		return
	}
	if t := m.st.Temp(); t != nil {
		m.st.SetTemp(nil)
		_ = m.bus.Publish(events.NewEvent(events.ShapeRemoved, "shape", t, "shape_id", t.ID()))
	}
	poly := shape.NewPolygon(m.polygonVertices, m.st.CurrentColor(), m.st.CurrentPenWidth())
	m.polygonVertices = nil
	if err := m.stack.Execute(ops.NewCreate(m.st, poly)); err != nil {
		m.log.Error("create polygon failed", slog.Any("err", err))
	} else {
		m.st.SelectShape(poly)
	}
	_ = m.bus.Publish(events.NewEvent(events.DisplayUpdateRequested, "clear_temp", true, "force_cleanup", true))
	m.setState(StateIdle)
}

// Escape cancels the in-progress gesture. A polygon with more than
// PolygonCancelMinVertices placed vertices asks for confirmation first; the
// CancelPolygonConfirmed event completes the cancel.
func (m *Machine) Escape() {
	switch m.state {
	case StateCreatingPolygon:
		if len(m.polygonVertices) > PolygonCancelMinVertices {
			_ = m.bus.Publish(events.NewEvent(events.ConfirmCancelPolygon,
				"vertices", len(m.polygonVertices)))
			return
		}
		m.cancelPolygon()
	case StateCreatingPoint, StateCreatingRect, StateCreatingEllipse:
		m.creation.DiscardTemp()
		m.setState(StateIdle)
	}
}

func (m *Machine) cancelPolygon() {
	if m.state != StateCreatingPolygon {
		return
	}
	m.polygonVertices = nil
	if t := m.st.Temp(); t != nil {
		m.st.SetTemp(nil)
		_ = m.bus.Publish(events.NewEvent(events.ShapeRemoved, "shape", t, "shape_id", t.ID()))
	}
	_ = m.bus.Publish(events.NewEvent(events.DisplayUpdateRequested, "clear_temp", true, "force_cleanup", true))
	m.setState(StateIdle)
	m.status("polygon canceled")
}
