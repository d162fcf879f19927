/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ops

import (
	"errors"
	"testing"

	"annocanvas/internal/config"
	"annocanvas/internal/events"
	"annocanvas/internal/geometry"
	"annocanvas/internal/shape"
	"annocanvas/internal/store"
)

func newStoreAndStack(t *testing.T, max int) (*store.Store, *Stack) {
	t.Helper()
	bus := events.NewBus()
	return store.New(bus, config.Defaults().Interaction), NewStack(bus, max)
}

func TestEmptyStackInvariants(t *testing.T) {
	_, st := newStoreAndStack(t, 0)
	if st.CanUndo() || st.CanRedo() {
		t.Fatalf("empty stack must not offer undo or redo")
	}
	if err := st.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if err := st.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestCreateUndoRedoInverse(t *testing.T) {
	ds, st := newStoreAndStack(t, 0)
	p := shape.NewPoint(geometry.Pt{X: 3, Y: 4}, shape.ColorRed, shape.PenThin)

	if err := st.Execute(NewCreate(ds, p)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(ds.Shapes()) != 1 {
		t.Fatalf("shape not added")
	}
	if err := st.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(ds.Shapes()) != 0 {
		t.Fatalf("undo did not remove the shape")
	}
	if err := st.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if len(ds.Shapes()) != 1 || ds.ShapeByID(p.ID()) == nil {
		t.Fatalf("redo did not restore the shape")
	}
}

func TestExecuteTruncatesRedoTail(t *testing.T) {
	ds, st := newStoreAndStack(t, 0)
	a := shape.NewPoint(geometry.Pt{X: 1}, shape.ColorRed, shape.PenThin)
	b := shape.NewPoint(geometry.Pt{X: 2}, shape.ColorRed, shape.PenThin)
	c := shape.NewPoint(geometry.Pt{X: 3}, shape.ColorRed, shape.PenThin)

	mustExec := func(op Operation) {
		t.Helper()
		if err := st.Execute(op); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}
	mustExec(NewCreate(ds, a))
	mustExec(NewCreate(ds, b))
	if err := st.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	// executing now must drop the undone create of b
	mustExec(NewCreate(ds, c))
	if st.CanRedo() {
		t.Fatalf("redo tail must be gone after execute")
	}
	if st.Len() != 2 {
		t.Fatalf("history length %d, want 2", st.Len())
	}
	if ds.ShapeByID(b.ID()) != nil {
		t.Fatalf("undone shape must stay removed")
	}
}

func TestFailedUndoKeepsIndex(t *testing.T) {
	ds, st := newStoreAndStack(t, 0)
	p := shape.NewPoint(geometry.Pt{}, shape.ColorRed, shape.PenThin)
	if err := st.Execute(NewCreate(ds, p)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	// sabotage: remove the shape behind the operation's back so Undo fails
	ds.RemoveShape(p)
	if err := st.Undo(); err == nil {
		t.Fatalf("undo should fail when the shape is gone")
	}
	if !st.CanUndo() {
		t.Fatalf("failed undo must not move the index")
	}
}

func TestBoundedHistoryDropsOldest(t *testing.T) {
	ds, st := newStoreAndStack(t, 2)
	for i := 0; i < 3; i++ {
		p := shape.NewPoint(geometry.Pt{X: float64(i)}, shape.ColorRed, shape.PenThin)
		if err := st.Execute(NewCreate(ds, p)); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
	}
	if st.Len() != 2 {
		t.Fatalf("history should be capped at 2, have %d", st.Len())
	}
	// only the two newest operations can be undone
	if err := st.Undo(); err != nil {
		t.Fatalf("undo 1: %v", err)
	}
	if err := st.Undo(); err != nil {
		t.Fatalf("undo 2: %v", err)
	}
	if err := st.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected exhausted history, got %v", err)
	}
	if len(ds.Shapes()) != 1 {
		t.Fatalf("oldest create must survive the capped history, have %d shapes", len(ds.Shapes()))
	}
}

func TestPreExecutedMoveSkipsFirstApply(t *testing.T) {
	ds, st := newStoreAndStack(t, 0)
	p := shape.NewPoint(geometry.Pt{X: 0, Y: 0}, shape.ColorRed, shape.PenThin)
	ds.AddShape(p)

	// the drag already moved the shape to (10, 0)
	p.MoveBy(geometry.Pt{X: 10})
	op := NewMove(ds, []shape.Shape{p}, geometry.Pt{X: 10}, true)
	if err := st.Execute(op); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if p.Pos.X != 10 {
		t.Fatalf("pre-executed move must not double-apply, x=%v", p.Pos.X)
	}
	if err := st.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if p.Pos.X != 0 {
		t.Fatalf("undo must revert the drag, x=%v", p.Pos.X)
	}
	if err := st.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if p.Pos.X != 10 {
		t.Fatalf("redo must re-apply the offset, x=%v", p.Pos.X)
	}
}

func TestScaleUndoRestoresHandle(t *testing.T) {
	_, st := newStoreAndStack(t, 0)
	r := shape.NewRectangle(geometry.Pt{X: 0, Y: 0}, shape.ColorBlue, shape.PenThin)
	r.SetEndPoint(geometry.Pt{X: 10, Y: 10})
	cp := r.ControlPoints()[1]

	// live preview already dragged the corner
	r.ScaleByControlPoint(cp, geometry.Pt{X: 20, Y: 20})
	op := NewScale(r, cp, geometry.Pt{X: 10, Y: 10}, geometry.Pt{X: 20, Y: 20}, true)
	if err := st.Execute(op); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if r.End.X != 20 {
		t.Fatalf("preview geometry lost: %+v", r.End)
	}
	if err := st.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if r.End != (geometry.Pt{X: 10, Y: 10}) {
		t.Fatalf("undo should restore the corner, got %+v", r.End)
	}
	if err := st.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if r.End != (geometry.Pt{X: 20, Y: 20}) {
		t.Fatalf("redo should re-apply the corner, got %+v", r.End)
	}
}

func TestImportUndoRestoresPreviousDocument(t *testing.T) {
	ds, st := newStoreAndStack(t, 0)
	old := shape.NewPoint(geometry.Pt{X: 1}, shape.ColorRed, shape.PenThin)
	ds.AddShape(old)

	incoming := store.Snapshot{
		Shapes: []shape.Record{
			shape.Encode(shape.NewPoint(geometry.Pt{X: 7}, shape.ColorBlue, shape.PenThick)),
			shape.Encode(shape.NewPoint(geometry.Pt{X: 8}, shape.ColorBlue, shape.PenThick)),
		},
		Settings: store.Settings{CurrentTool: shape.KindPoint, CurrentColor: shape.ColorBlue, CurrentWidth: shape.PenThick},
	}
	if err := st.Execute(NewImport(ds, incoming)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(ds.Shapes()) != 2 {
		t.Fatalf("import result: %d shapes", len(ds.Shapes()))
	}
	if err := st.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(ds.Shapes()) != 1 || ds.ShapeByID(old.ID()) == nil {
		t.Fatalf("undo should restore the previous document")
	}
}

func TestCompositeRollsBackOnFailure(t *testing.T) {
	ds, st := newStoreAndStack(t, 0)
	a := shape.NewPoint(geometry.Pt{X: 1}, shape.ColorRed, shape.PenThin)
	ghost := shape.NewPoint(geometry.Pt{X: 2}, shape.ColorRed, shape.PenThin)

	// deleting a shape that is not in the store fails mid-composite
	comp := NewComposite("delete selection", NewCreate(ds, a), NewDelete(ds, []shape.Shape{ghost}))
	if err := st.Execute(comp); err == nil {
		t.Fatalf("expected composite failure")
	}
	if len(ds.Shapes()) != 0 {
		t.Fatalf("failed composite must roll back the create")
	}
	if st.CanUndo() {
		t.Fatalf("failed operation must not be recorded")
	}
}
