/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shape

import "annocanvas/internal/geometry"

// Polygon is a vertex list drawn and hit-tested as a ring: the closing edge
// back to the first vertex is implicit once the minimum vertex count is
// reached. The in-progress preview during creation stays an open polyline.
type Polygon struct {
	base
	Vertices []geometry.Pt
	cps      []*ControlPoint
	// forceOpen keeps a creation preview open even while the snapped
	// cursor vertex coincides with the first vertex.
	forceOpen bool
}

// NewPolygon creates a polygon from the given vertices. The slice is copied.
func NewPolygon(vertices []geometry.Pt, c Color, w PenWidth) *Polygon {
	p := &Polygon{base: newBase(c, w), Vertices: append([]geometry.Pt(nil), vertices...)}
	p.rebuildControlPoints()
	return p
}

func (p *Polygon) Kind() Kind { return KindPolygon }

// Closed reports whether the polygon ring is complete: at least three
// distinct vertices and the last vertex duplicating the first within
// ClosureEpsilon on both coordinates.
func (p *Polygon) Closed() bool {
	if p.forceOpen {
		return false
	}
	n := len(p.Vertices)
	if n < PolygonMinVertices {
		return false
	}
	return p.Vertices[0].Eq(p.Vertices[n-1], ClosureEpsilon)
}

// SetForceOpen marks the polygon as an open preview regardless of vertex
// coincidence.
func (p *Polygon) SetForceOpen(open bool) { p.forceOpen = open }

// ForceOpen reports whether the polygon is pinned open as a creation
// preview. Renderers skip the closing edge for open previews.
func (p *Polygon) ForceOpen() bool { return p.forceOpen }

// Close appends the first vertex, completing the ring. No-op when already
// closed or when there are not enough vertices.
func (p *Polygon) Close() {
	if len(p.Vertices) < PolygonMinVertices || p.Closed() {
		return
	}
	p.Vertices = append(p.Vertices, p.Vertices[0])
	p.rebuildControlPoints()
}

// ring returns the distinct vertices, dropping the closing duplicate.
func (p *Polygon) ring() []geometry.Pt {
	if p.Closed() {
		return p.Vertices[:len(p.Vertices)-1]
	}
	return p.Vertices
}

func (p *Polygon) Bounds() geometry.Rect {
	return geometry.PolygonBounds(p.Vertices)
}

func (p *Polygon) Center() geometry.Pt {
	return geometry.PolygonCentroid(p.ring())
}

func (p *Polygon) Anchor() geometry.Pt { return p.Center() }

// Contains tests the interior with even-odd ray casting over the vertex
// ring. Polygons under the minimum vertex count have no interior.
func (p *Polygon) Contains(q geometry.Pt, _ float64) bool {
	vs := p.ring()
	if len(vs) < PolygonMinVertices {
		return false
	}
	return geometry.PointInPolygon(q, vs)
}

// ContainsOnBoundary tests proximity to any edge, including the implicit
// closing edge back to the first vertex. An open creation preview has no
// wraparound edge.
func (p *Polygon) ContainsOnBoundary(q geometry.Pt, tol float64) bool {
	vs := p.ring()
	n := len(vs)
	if n < 2 {
		return false
	}
	edges := n
	if p.forceOpen {
		edges = n - 1
	}
	for i := 0; i < edges; i++ {
		if geometry.PointToSegmentDistance(q, vs[i], vs[(i+1)%n]) <= tol {
			return true
		}
	}
	return false
}

func (p *Polygon) MoveBy(d geometry.Pt) {
	for i := range p.Vertices {
		p.Vertices[i] = p.Vertices[i].Add(d)
	}
	p.syncControlPoints()
}

func (p *Polygon) ControlPoints() []*ControlPoint { return p.cps }

// ScaleByControlPoint repositions a single vertex. Moving vertex 0 of a
// closed polygon also moves the closing duplicate.
func (p *Polygon) ScaleByControlPoint(cp *ControlPoint, pos geometry.Pt) {
	if cp == nil || cp.Index < 0 || cp.Index >= len(p.ring()) {
		return
	}
	wasClosed := p.Closed()
	p.Vertices[cp.Index] = pos
	if wasClosed && cp.Index == 0 {
		p.Vertices[len(p.Vertices)-1] = pos
	}
	p.syncControlPoints()
}

// rebuildControlPoints creates one vertex handle per distinct vertex.
func (p *Polygon) rebuildControlPoints() {
	ring := p.ring()
	p.cps = make([]*ControlPoint, 0, len(ring))
	for i, v := range ring {
		p.cps = append(p.cps, newControlPoint(ControlVertex, i, v))
	}
}

func (p *Polygon) syncControlPoints() {
	ring := p.ring()
	if len(p.cps) != len(ring) {
		p.rebuildControlPoints()
		return
	}
	for i, v := range ring {
		p.cps[i].Pos = v
	}
}
