/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geometry provides the 2D primitives shared by the shape model,
// hit testing and the interaction layer. Coordinates are world units.
package geometry

import "math"

// Pt is a point or vector in world coordinates.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Pt) Add(q Pt) Pt  { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt  { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Eq reports whether both coordinates match within eps.
func (p Pt) Eq(q Pt, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Rect is an axis-aligned rectangle. W and H are always >= 0 for rects
// produced by Normalize or FromCorners.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FromCorners builds a normalized rectangle spanning two opposite corners.
func FromCorners(a, b Pt) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(b.X - a.X),
		H: math.Abs(b.Y - a.Y),
	}
}

func (r Rect) Min() Pt    { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt    { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether p lies inside r, edges inclusive.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Expand grows the rectangle by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

// Union returns the smallest rectangle covering both r and s.
func (r Rect) Union(s Rect) Rect {
	minX := math.Min(r.X, s.X)
	minY := math.Min(r.Y, s.Y)
	maxX := math.Max(r.X+r.W, s.X+s.W)
	maxY := math.Max(r.Y+r.H, s.Y+s.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Corners returns the four corners in order: top-left, top-right,
// bottom-right, bottom-left.
func (r Rect) Corners() [4]Pt {
	return [4]Pt{
		{r.X, r.Y},
		{r.X + r.W, r.Y},
		{r.X + r.W, r.Y + r.H},
		{r.X, r.Y + r.H},
	}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Pt) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// PointToSegmentDistance returns the shortest distance from p to the segment
// a-b. The projection parameter is clamped to [0,1] so endpoints count.
func PointToSegmentDistance(p, a, b Pt) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	proj := Pt{a.X + t*dx, a.Y + t*dy}
	return Distance(p, proj)
}

// SnapToGrid snaps both coordinates to the nearest multiple of grid.
// A non-positive grid returns p unchanged.
func SnapToGrid(p Pt, grid float64) Pt {
	if grid <= 0 {
		return p
	}
	return Pt{
		X: math.Round(p.X/grid) * grid,
		Y: math.Round(p.Y/grid) * grid,
	}
}

// PointInPolygon tests p against the polygon using even-odd ray casting.
// Fewer than 3 vertices never contain anything.
func PointInPolygon(p Pt, vs []Pt) bool {
	n := len(vs)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := vs[i], vs[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			x := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PolygonBounds returns the bounding rectangle of the vertices.
// An empty slice yields the zero rect.
func PolygonBounds(vs []Pt) Rect {
	if len(vs) == 0 {
		return Rect{}
	}
	minX, minY := vs[0].X, vs[0].Y
	maxX, maxY := minX, minY
	for _, v := range vs[1:] {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// PolygonCentroid returns the vertex average. Good enough as a grab anchor;
// the area-weighted centroid is not needed for interaction.
func PolygonCentroid(vs []Pt) Pt {
	if len(vs) == 0 {
		return Pt{}
	}
	var sx, sy float64
	for _, v := range vs {
		sx += v.X
		sy += v.Y
	}
	n := float64(len(vs))
	return Pt{sx / n, sy / n}
}
