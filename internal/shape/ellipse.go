/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shape

import (
	"math"

	"annocanvas/internal/geometry"
)

// Ellipse is inscribed in the rectangle spanned by Start and End.
type Ellipse struct {
	base
	Start geometry.Pt
	End   geometry.Pt
	cps   []*ControlPoint
}

// NewEllipse creates an ellipse with both corners at pos.
func NewEllipse(pos geometry.Pt, c Color, w PenWidth) *Ellipse {
	e := &Ellipse{base: newBase(c, w), Start: pos, End: pos}
	e.cps = []*ControlPoint{
		newControlPoint(ControlCorner, 0, e.Start),
		newControlPoint(ControlCorner, 1, e.End),
	}
	return e
}

func (e *Ellipse) Kind() Kind { return KindEllipse }

func (e *Ellipse) Bounds() geometry.Rect {
	return geometry.FromCorners(e.Start, e.End)
}

func (e *Ellipse) Center() geometry.Pt { return e.Bounds().Center() }
func (e *Ellipse) Anchor() geometry.Pt { return e.Center() }

// SetEndPoint updates the dragged corner during creation.
func (e *Ellipse) SetEndPoint(p geometry.Pt) {
	e.End = p
	e.syncControlPoints()
}

// radii returns the semi-axes of the inscribed ellipse.
func (e *Ellipse) radii() (rx, ry float64) {
	b := e.Bounds()
	return b.W / 2, b.H / 2
}

// normalizedDistance maps p into the unit circle space of the ellipse.
func (e *Ellipse) normalizedDistance(p geometry.Pt) float64 {
	rx, ry := e.radii()
	c := e.Center()
	dx := (p.X - c.X) / rx
	dy := (p.Y - c.Y) / ry
	return math.Sqrt(dx*dx + dy*dy)
}

// tolFactor converts a world tolerance into normalized units. The smaller
// semi-axis dominates so a flat ellipse does not become untouchable.
func (e *Ellipse) tolFactor(tol float64) float64 {
	rx, ry := e.radii()
	return tol / math.Min(rx, ry)
}

func (e *Ellipse) degenerate() bool {
	rx, ry := e.radii()
	return rx < ClosureEpsilon || ry < ClosureEpsilon
}

// Contains tests the interior in normalized space: the point is inside when
// its normalized distance stays within 1 plus the tolerance factor.
func (e *Ellipse) Contains(p geometry.Pt, tol float64) bool {
	if e.degenerate() {
		return e.Bounds().Expand(tol).Contains(p)
	}
	tf := e.tolFactor(tol)
	d := e.normalizedDistance(p)
	return d*d <= (1+tf)*(1+tf)
}

// ContainsOnBoundary keeps the normalized distance inside the ring
// [1-tf, 1+tf] around the outline.
func (e *Ellipse) ContainsOnBoundary(p geometry.Pt, tol float64) bool {
	if e.degenerate() {
		return e.Bounds().Expand(tol).Contains(p)
	}
	tf := e.tolFactor(tol)
	d := e.normalizedDistance(p)
	return d >= 1-tf && d <= 1+tf
}

func (e *Ellipse) MoveBy(d geometry.Pt) {
	e.Start = e.Start.Add(d)
	e.End = e.End.Add(d)
	e.syncControlPoints()
}

func (e *Ellipse) ControlPoints() []*ControlPoint { return e.cps }

func (e *Ellipse) ScaleByControlPoint(cp *ControlPoint, pos geometry.Pt) {
	if cp == nil {
		return
	}
	switch cp.Index {
	case 0:
		e.Start = pos
	case 1:
		e.End = pos
	default:
		return
	}
	e.syncControlPoints()
}

func (e *Ellipse) syncControlPoints() {
	e.cps[0].Pos = e.Start
	e.cps[1].Pos = e.End
}
