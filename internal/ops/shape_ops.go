/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ops

import (
	"fmt"

	"annocanvas/internal/geometry"
	"annocanvas/internal/shape"
	"annocanvas/internal/store"
)

// Create adds one shape to the store.
type Create struct {
	st *store.Store
	sh shape.Shape
}

func NewCreate(st *store.Store, sh shape.Shape) *Create {
	return &Create{st: st, sh: sh}
}

func (op *Create) Name() string { return "create " + op.sh.Kind().String() }

func (op *Create) Execute() error {
	if !op.st.AddShape(op.sh) {
		return fmt.Errorf("shape %s already present", op.sh.ID())
	}
	return nil
}

func (op *Create) Undo() error {
	if !op.st.RemoveShape(op.sh) {
		return fmt.Errorf("shape %s not present", op.sh.ID())
	}
	return nil
}

func (op *Create) Redo() error { return op.Execute() }

// Delete removes one or more shapes from the store.
type Delete struct {
	st     *store.Store
	shapes []shape.Shape
}

func NewDelete(st *store.Store, shapes []shape.Shape) *Delete {
	return &Delete{st: st, shapes: append([]shape.Shape(nil), shapes...)}
}

func (op *Delete) Name() string { return fmt.Sprintf("delete %d shape(s)", len(op.shapes)) }

func (op *Delete) Execute() error {
	for _, s := range op.shapes {
		if !op.st.RemoveShape(s) {
			return fmt.Errorf("shape %s not present", s.ID())
		}
	}
	return nil
}

func (op *Delete) Undo() error {
	for _, s := range op.shapes {
		if !op.st.AddShape(s) {
			return fmt.Errorf("shape %s already present", s.ID())
		}
	}
	return nil
}

func (op *Delete) Redo() error { return op.Execute() }

// Move translates shapes by a fixed offset. The interaction layer applies
// the translation live during the drag, so the operation is created with
// preExecuted set: the first Execute records it without moving anything,
// while Redo always re-applies the offset.
type Move struct {
	st          *store.Store
	shapes      []shape.Shape
	offset      geometry.Pt
	preExecuted bool
	ranOnce     bool
}

func NewMove(st *store.Store, shapes []shape.Shape, offset geometry.Pt, preExecuted bool) *Move {
	return &Move{st: st, shapes: append([]shape.Shape(nil), shapes...), offset: offset, preExecuted: preExecuted}
}

func (op *Move) Name() string { return fmt.Sprintf("move %d shape(s)", len(op.shapes)) }

func (op *Move) apply(d geometry.Pt) {
	for _, s := range op.shapes {
		s.MoveBy(d)
	}
}

func (op *Move) Execute() error {
	if op.preExecuted && !op.ranOnce {
		op.ranOnce = true
		return nil
	}
	op.ranOnce = true
	op.apply(op.offset)
	return nil
}

func (op *Move) Undo() error {
	op.apply(geometry.Pt{X: -op.offset.X, Y: -op.offset.Y})
	return nil
}

func (op *Move) Redo() error {
	op.apply(op.offset)
	return nil
}

// Scale moves one control point of a shape between two positions. Like
// Move it supports the pre-executed live-preview path.
type Scale struct {
	sh          shape.Shape
	cp          *shape.ControlPoint
	oldPos      geometry.Pt
	newPos      geometry.Pt
	preExecuted bool
	ranOnce     bool
}

func NewScale(sh shape.Shape, cp *shape.ControlPoint, oldPos, newPos geometry.Pt, preExecuted bool) *Scale {
	return &Scale{sh: sh, cp: cp, oldPos: oldPos, newPos: newPos, preExecuted: preExecuted}
}

func (op *Scale) Name() string { return "scale " + op.sh.Kind().String() }

func (op *Scale) Execute() error {
	if op.preExecuted && !op.ranOnce {
		op.ranOnce = true
		return nil
	}
	op.ranOnce = true
	op.sh.ScaleByControlPoint(op.cp, op.newPos)
	return nil
}

func (op *Scale) Undo() error {
	op.sh.ScaleByControlPoint(op.cp, op.oldPos)
	return nil
}

func (op *Scale) Redo() error {
	op.sh.ScaleByControlPoint(op.cp, op.newPos)
	return nil
}

// Import replaces the whole document with a snapshot. Undo restores the
// snapshot taken at construction time.
type Import struct {
	st   *store.Store
	next store.Snapshot
	prev store.Snapshot
}

func NewImport(st *store.Store, snap store.Snapshot) *Import {
	return &Import{st: st, next: snap, prev: st.Export()}
}

func (op *Import) Name() string { return "import document" }

func (op *Import) Execute() error { return op.st.Import(op.next) }
func (op *Import) Undo() error    { return op.st.Import(op.prev) }
func (op *Import) Redo() error    { return op.Execute() }

// Composite groups operations into one undo step. Execute aborts on the
// first failure and rolls back the operations that already ran.
type Composite struct {
	name string
	ops  []Operation
}

func NewComposite(name string, ops ...Operation) *Composite {
	return &Composite{name: name, ops: ops}
}

func (c *Composite) Name() string { return c.name }

func (c *Composite) Execute() error {
	for i, op := range c.ops {
		if err := op.Execute(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.ops[j].Undo()
			}
			return fmt.Errorf("composite %s step %d: %w", c.name, i, err)
		}
	}
	return nil
}

func (c *Composite) Undo() error {
	for i := len(c.ops) - 1; i >= 0; i-- {
		if err := c.ops[i].Undo(); err != nil {
			return fmt.Errorf("composite %s undo step %d: %w", c.name, i, err)
		}
	}
	return nil
}

func (c *Composite) Redo() error {
	for i, op := range c.ops {
		if err := op.Redo(); err != nil {
			return fmt.Errorf("composite %s redo step %d: %w", c.name, i, err)
		}
	}
	return nil
}
