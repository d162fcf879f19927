/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package shape implements the annotation shape model: points, rectangles,
// ellipses and polygons as a closed set of variants behind a common
// interface. Identity is a generated id, never pointer equality.
package shape

import (
	"github.com/google/uuid"

	"annocanvas/internal/geometry"
)

// Tolerances and sizes shared across the model. Pixel-based tolerances are
// multiplied by the world-per-pixel scale by the caller.
const (
	// DefaultTolerance is the world-unit tolerance used when no scale-aware
	// tolerance is supplied.
	DefaultTolerance = 5.0
	// ControlPointSize is the on-screen handle size in pixels.
	ControlPointSize = 8.0
	// PointMarkerSize is the on-screen extent of a point marker in pixels.
	PointMarkerSize = 10.0
	// ClosureEpsilon is the per-coordinate distance under which a polygon's
	// first and last vertex count as the same vertex.
	ClosureEpsilon = 1e-6
	// PolygonMinVertices is the minimum number of distinct vertices a
	// finished polygon must have.
	PolygonMinVertices = 3

	ZOrderMin = -1000
	ZOrderMax = 1000
)

// ControlPoint is a grab handle attached to a shape.
type ControlPoint struct {
	ID       string
	Type     ControlPointType
	Index    int
	Pos      geometry.Pt
	Size     float64
	Visible  bool
	Hovered  bool
	Dragging bool
	// OriginalPos is the handle position at drag start; the scale operation
	// needs it to build its undo.
	OriginalPos geometry.Pt
}

func newControlPoint(t ControlPointType, index int, pos geometry.Pt) *ControlPoint {
	return &ControlPoint{
		ID:      uuid.NewString(),
		Type:    t,
		Index:   index,
		Pos:     pos,
		Size:    ControlPointSize,
		Visible: true,
	}
}

// Shape is the common surface of all annotation variants.
// Mutating methods operate in world coordinates.
type Shape interface {
	ID() string
	Kind() Kind
	// Attrs exposes the shared mutable attributes (style, flags, z-order).
	Attrs() *Attrs

	Bounds() geometry.Rect
	Center() geometry.Pt
	// Anchor is the reference point recorded when a move gesture starts.
	Anchor() geometry.Pt
	// Contains tests the interior (plus tolerance) of the shape.
	Contains(p geometry.Pt, tol float64) bool
	// ContainsOnBoundary tests proximity to the shape outline. For filled
	// hit testing semantics the store decides which predicate to use.
	ContainsOnBoundary(p geometry.Pt, tol float64) bool
	MoveBy(d geometry.Pt)
	// ControlPoints returns the live handle slice; handle positions update
	// when the shape geometry changes.
	ControlPoints() []*ControlPoint
	// ScaleByControlPoint moves the given handle to pos and reshapes
	// accordingly. Unknown handles are ignored.
	ScaleByControlPoint(cp *ControlPoint, pos geometry.Pt)
}

// Attrs holds the attributes every variant shares.
type Attrs struct {
	Color    Color
	PenWidth PenWidth
	Visible  bool
	Selected bool
	Hovered  bool
	zOrder   int
	Metadata map[string]any
}

func defaultAttrs(c Color, w PenWidth) Attrs {
	return Attrs{Color: c, PenWidth: w, Visible: true, Metadata: map[string]any{}}
}

// ZOrder returns the stacking order.
func (a *Attrs) ZOrder() int { return a.zOrder }

// SetZOrder clamps z into [ZOrderMin, ZOrderMax].
func (a *Attrs) SetZOrder(z int) {
	if z < ZOrderMin {
		z = ZOrderMin
	}
	if z > ZOrderMax {
		z = ZOrderMax
	}
	a.zOrder = z
}

// base carries identity and shared attributes for every variant.
type base struct {
	id    string
	attrs Attrs
}

func newBase(c Color, w PenWidth) base {
	return base{id: uuid.NewString(), attrs: defaultAttrs(c, w)}
}

func (b *base) ID() string    { return b.id }
func (b *base) Attrs() *Attrs { return &b.attrs }

// setID is used by the snapshot decoder to restore persisted identity.
func (b *base) setID(id string) {
	if id != "" {
		b.id = id
	}
}
