/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shape

import "annocanvas/internal/geometry"

// Point is a single marker. Its visual extent is a fixed square around the
// position, so hit testing and bounds use PointMarkerSize.
type Point struct {
	base
	Pos geometry.Pt
	cps []*ControlPoint
}

// NewPoint creates a point marker at pos.
func NewPoint(pos geometry.Pt, c Color, w PenWidth) *Point {
	p := &Point{base: newBase(c, w), Pos: pos}
	p.cps = []*ControlPoint{newControlPoint(ControlCenter, 0, pos)}
	return p
}

func (p *Point) Kind() Kind { return KindPoint }

func (p *Point) Bounds() geometry.Rect {
	half := PointMarkerSize / 2
	return geometry.Rect{X: p.Pos.X - half, Y: p.Pos.Y - half, W: PointMarkerSize, H: PointMarkerSize}
}

func (p *Point) Center() geometry.Pt { return p.Pos }
func (p *Point) Anchor() geometry.Pt { return p.Pos }

func (p *Point) Contains(q geometry.Pt, tol float64) bool {
	return p.Bounds().Expand(tol).Contains(q)
}

// ContainsOnBoundary matches Contains: a marker has no meaningful interior.
func (p *Point) ContainsOnBoundary(q geometry.Pt, tol float64) bool {
	return p.Contains(q, tol)
}

func (p *Point) MoveBy(d geometry.Pt) {
	p.Pos = p.Pos.Add(d)
	p.syncControlPoints()
}

func (p *Point) ControlPoints() []*ControlPoint { return p.cps }

// ScaleByControlPoint degenerates to a move: the only handle is the center.
func (p *Point) ScaleByControlPoint(cp *ControlPoint, pos geometry.Pt) {
	if cp == nil || len(p.cps) == 0 || cp.ID != p.cps[0].ID {
		return
	}
	p.Pos = pos
	p.syncControlPoints()
}

func (p *Point) syncControlPoints() {
	p.cps[0].Pos = p.Pos
}
