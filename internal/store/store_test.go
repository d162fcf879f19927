/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"encoding/json"
	"testing"

	"annocanvas/internal/config"
	"annocanvas/internal/events"
	"annocanvas/internal/geometry"
	"annocanvas/internal/shape"
)

func newTestStore(t *testing.T) (*Store, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	return New(bus, config.Defaults().Interaction), bus
}

func recordKinds(bus *events.Bus, kinds ...events.Kind) *[]events.Kind {
	var got []events.Kind
	for _, k := range kinds {
		kk := k
		bus.Subscribe(kk, "recorder", func(ev events.Event) error {
			got = append(got, ev.Kind)
			return nil
		})
	}
	return &got
}

func TestAddShapeIdempotent(t *testing.T) {
	st, bus := newTestStore(t)
	seen := recordKinds(bus, events.ShapeAdded)
	p := shape.NewPoint(geometry.Pt{X: 1, Y: 1}, shape.ColorRed, shape.PenThin)

	if !st.AddShape(p) {
		t.Fatalf("first add should succeed")
	}
	if st.AddShape(p) {
		t.Fatalf("second add of the same shape must be a no-op")
	}
	if len(st.Shapes()) != 1 {
		t.Fatalf("store holds %d shapes, want 1", len(st.Shapes()))
	}
	if len(*seen) != 1 {
		t.Fatalf("duplicate add must not publish, saw %d events", len(*seen))
	}
}

func TestRemoveShapeClearsSelectionAndHover(t *testing.T) {
	st, _ := newTestStore(t)
	p := shape.NewPoint(geometry.Pt{X: 1, Y: 1}, shape.ColorRed, shape.PenThin)
	st.AddShape(p)
	st.SelectShape(p)
	st.SetHovered(p)

	if !st.RemoveShape(p) {
		t.Fatalf("remove should report true for a present shape")
	}
	if st.RemoveShape(p) {
		t.Fatalf("remove should report false for an absent shape")
	}
	if st.Selected() != nil || st.Hovered() != nil {
		t.Fatalf("selection/hover must be cleared with the shape")
	}
	if p.Attrs().Selected || p.Attrs().Hovered {
		t.Fatalf("shape flags must be reset")
	}
}

func TestSelectShapePublishesDeselectThenSelect(t *testing.T) {
	st, bus := newTestStore(t)
	a := shape.NewPoint(geometry.Pt{X: 0, Y: 0}, shape.ColorRed, shape.PenThin)
	b := shape.NewPoint(geometry.Pt{X: 5, Y: 5}, shape.ColorRed, shape.PenThin)
	st.AddShape(a)
	st.AddShape(b)

	st.SelectShape(a)
	seen := recordKinds(bus, events.ShapeSelected, events.ShapeDeselected)
	st.SelectShape(b)
	if len(*seen) != 2 || (*seen)[0] != events.ShapeDeselected || (*seen)[1] != events.ShapeSelected {
		t.Fatalf("event order %v", *seen)
	}
	// re-selecting the same shape publishes nothing
	st.SelectShape(b)
	if len(*seen) != 2 {
		t.Fatalf("selecting the current selection must be silent")
	}
}

func TestSetHoveredOnlyOnChange(t *testing.T) {
	st, bus := newTestStore(t)
	a := shape.NewPoint(geometry.Pt{}, shape.ColorRed, shape.PenThin)
	st.AddShape(a)
	seen := recordKinds(bus, events.ShapeHovered, events.ShapeUnhovered)

	st.SetHovered(a)
	st.SetHovered(a)
	st.SetHovered(nil)
	st.SetHovered(nil)
	if len(*seen) != 2 || (*seen)[0] != events.ShapeHovered || (*seen)[1] != events.ShapeUnhovered {
		t.Fatalf("hover events %v", *seen)
	}
}

func TestClearAllPublishesPerShape(t *testing.T) {
	st, bus := newTestStore(t)
	for i := 0; i < 3; i++ {
		st.AddShape(shape.NewPoint(geometry.Pt{X: float64(i)}, shape.ColorRed, shape.PenThin))
	}
	seen := recordKinds(bus, events.ShapeRemoved)
	st.ClearAll()
	if len(st.Shapes()) != 0 {
		t.Fatalf("store not empty after ClearAll")
	}
	if len(*seen) != 3 {
		t.Fatalf("expected 3 removal events, saw %d", len(*seen))
	}
}

func TestGetHitTargetControlPointsWin(t *testing.T) {
	st, _ := newTestStore(t)
	r := shape.NewRectangle(geometry.Pt{X: 0, Y: 0}, shape.ColorBlue, shape.PenThin)
	r.SetEndPoint(geometry.Pt{X: 100, Y: 100})
	st.AddShape(r)
	st.SelectShape(r)

	// the start corner handle sits at (0,0); with worldPerPixel 1 the
	// handle tolerance is 12 world units
	ht := st.GetHitTarget(geometry.Pt{X: 5, Y: 5}, 1)
	if ht == nil || ht.ControlPoint == nil {
		t.Fatalf("expected a control point hit, got %+v", ht)
	}
	if ht.Shape.ID() != r.ID() || ht.ControlPoint.Index != 0 {
		t.Fatalf("wrong target: %+v", ht)
	}

	// away from the handles the outline should hit as a plain shape
	ht = st.GetHitTarget(geometry.Pt{X: 50, Y: 1}, 1)
	if ht == nil || ht.ControlPoint != nil {
		t.Fatalf("expected a shape outline hit, got %+v", ht)
	}

	// interior far from the outline misses entirely
	if ht := st.GetHitTarget(geometry.Pt{X: 50, Y: 50}, 1); ht != nil {
		t.Fatalf("deep interior should miss, got %+v", ht)
	}
}

func TestGetHitTargetTopmostWins(t *testing.T) {
	st, _ := newTestStore(t)
	bottom := shape.NewRectangle(geometry.Pt{X: 0, Y: 0}, shape.ColorBlue, shape.PenThin)
	bottom.SetEndPoint(geometry.Pt{X: 10, Y: 10})
	top := shape.NewRectangle(geometry.Pt{X: 0, Y: 0}, shape.ColorRed, shape.PenThin)
	top.SetEndPoint(geometry.Pt{X: 10, Y: 10})
	st.AddShape(bottom)
	st.AddShape(top)

	ht := st.GetHitTarget(geometry.Pt{X: 5, Y: 0}, 1)
	if ht == nil || ht.Shape.ID() != top.ID() {
		t.Fatalf("topmost shape should win the hit, got %+v", ht)
	}
}

func TestSettersPublishAndRestyleSelection(t *testing.T) {
	st, bus := newTestStore(t)
	r := shape.NewRectangle(geometry.Pt{}, shape.ColorRed, shape.PenThin)
	st.AddShape(r)
	st.SelectShape(r)
	seen := recordKinds(bus, events.ColorChanged, events.PenWidthChanged, events.ShapeUpdated, events.ToolChanged)

	st.SetCurrentColor(shape.ColorBlue)
	if r.Attrs().Color != shape.ColorBlue {
		t.Fatalf("selected shape not restyled")
	}
	st.SetCurrentPenWidth(shape.PenThick)
	if r.Attrs().PenWidth != shape.PenThick {
		t.Fatalf("selected shape width not restyled")
	}
	st.SetCurrentTool(shape.KindEllipse)
	st.SetCurrentTool(shape.KindEllipse) // same value is silent
	if len(*seen) != 5 {
		t.Fatalf("expected 5 events (2 updates, color, width, tool), saw %d", len(*seen))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)
	st.SetCurrentTool(shape.KindPolygon)
	st.SetCurrentColor(shape.ColorPurple)
	st.SetCurrentPenWidth(shape.PenUltraThick)

	p := shape.NewPolygon([]geometry.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, shape.ColorPurple, shape.PenUltraThick)
	p.Close()
	st.AddShape(p)
	e := shape.NewEllipse(geometry.Pt{X: -10, Y: -5}, shape.ColorRed, shape.PenThin)
	e.SetEndPoint(geometry.Pt{X: 10, Y: 5})
	st.AddShape(e)

	snap := st.Export()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	st2, _ := newTestStore(t)
	if err := st2.Import(back); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(st2.Shapes()) != 2 {
		t.Fatalf("imported %d shapes, want 2", len(st2.Shapes()))
	}
	if st2.CurrentTool() != shape.KindPolygon || st2.CurrentColor() != shape.ColorPurple || st2.CurrentPenWidth() != shape.PenUltraThick {
		t.Fatalf("settings not restored: %+v", st2.Settings())
	}
	if st2.ShapeByID(p.ID()) == nil {
		t.Fatalf("shape identity not preserved across the round trip")
	}
}

func TestImportRejectsBadRecordBeforeReplacing(t *testing.T) {
	st, _ := newTestStore(t)
	keep := shape.NewPoint(geometry.Pt{X: 1, Y: 1}, shape.ColorRed, shape.PenThin)
	st.AddShape(keep)

	bad := Snapshot{Shapes: []shape.Record{{Type: shape.KindRectangle}}} // missing corners
	if err := st.Import(bad); err == nil {
		t.Fatalf("expected decode error")
	}
	if len(st.Shapes()) != 1 {
		t.Fatalf("failed import must not clear existing content")
	}
}
