/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shape

import "annocanvas/internal/geometry"

// Rectangle spans two opposite corners. Start is the corner where the drag
// began; End follows the cursor during creation and scaling.
type Rectangle struct {
	base
	Start geometry.Pt
	End   geometry.Pt
	cps   []*ControlPoint
}

// NewRectangle creates a rectangle with both corners at pos; the end corner
// is updated while the creation drag is in progress.
func NewRectangle(pos geometry.Pt, c Color, w PenWidth) *Rectangle {
	r := &Rectangle{base: newBase(c, w), Start: pos, End: pos}
	r.cps = []*ControlPoint{
		newControlPoint(ControlCorner, 0, r.Start),
		newControlPoint(ControlCorner, 1, r.End),
	}
	return r
}

func (r *Rectangle) Kind() Kind { return KindRectangle }

func (r *Rectangle) Bounds() geometry.Rect {
	return geometry.FromCorners(r.Start, r.End)
}

func (r *Rectangle) Center() geometry.Pt { return r.Bounds().Center() }
func (r *Rectangle) Anchor() geometry.Pt { return r.Center() }

// SetEndPoint updates the dragged corner during creation.
func (r *Rectangle) SetEndPoint(p geometry.Pt) {
	r.End = p
	r.syncControlPoints()
}

func (r *Rectangle) Contains(p geometry.Pt, tol float64) bool {
	return r.Bounds().Expand(tol).Contains(p)
}

// ContainsOnBoundary tests proximity to any of the four edges.
func (r *Rectangle) ContainsOnBoundary(p geometry.Pt, tol float64) bool {
	cs := r.Bounds().Corners()
	for i := 0; i < 4; i++ {
		if geometry.PointToSegmentDistance(p, cs[i], cs[(i+1)%4]) <= tol {
			return true
		}
	}
	return false
}

func (r *Rectangle) MoveBy(d geometry.Pt) {
	r.Start = r.Start.Add(d)
	r.End = r.End.Add(d)
	r.syncControlPoints()
}

func (r *Rectangle) ControlPoints() []*ControlPoint { return r.cps }

func (r *Rectangle) ScaleByControlPoint(cp *ControlPoint, pos geometry.Pt) {
	if cp == nil {
		return
	}
	switch cp.Index {
	case 0:
		r.Start = pos
	case 1:
		r.End = pos
	default:
		return
	}
	r.syncControlPoints()
}

func (r *Rectangle) syncControlPoints() {
	r.cps[0].Pos = r.Start
	r.cps[1].Pos = r.End
}
